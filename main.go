package main

import "github.com/qobs-build/cxxlaunch/cmd"

func main() {
	cmd.Execute()
}
