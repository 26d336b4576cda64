package builder

import (
	"fmt"
	"os/exec"
	"slices"
)

// DriverKind enumerates the supported compiler front ends
type DriverKind int

const (
	DriverUnix DriverKind = iota
	DriverMSVC
)

func (k DriverKind) String() string {
	switch k {
	case DriverMSVC:
		return "msvc"
	case DriverUnix:
		return "unix"
	default:
		return fmt.Sprintf("DriverKind(%d)", int(k))
	}
}

// Driver turns a target into a concrete compiler command line
type Driver interface {
	Kind() DriverKind
	// Program is the compiler executable placed at argv[0]
	Program() string
	// Artifact returns the file the compiler produces for an output name
	Artifact(name string) string
	Invocation(t Target, opts Options) Invocation
}

type msvcDriver struct{}

func (msvcDriver) Kind() DriverKind            { return DriverMSVC }
func (msvcDriver) Program() string             { return "cl" }
func (msvcDriver) Artifact(name string) string { return name + ".exe" }

func (d msvcDriver) Invocation(t Target, opts Options) Invocation {
	inv := make(Invocation, 0, len(t.Sources)+6)
	inv = append(inv, d.Program(), "/EHsc", "/std:c++20", "/O2", "/Fe"+d.Artifact(t.Name))
	inv = append(inv, t.Sources...)
	if opts.Debug {
		inv = slices.Insert(inv, 1, "/Zi")
	}
	return inv
}

type unixDriver struct{}

func (unixDriver) Kind() DriverKind            { return DriverUnix }
func (unixDriver) Program() string             { return "c++" }
func (unixDriver) Artifact(name string) string { return name + ".bin" }

func (d unixDriver) Invocation(t Target, opts Options) Invocation {
	inv := make(Invocation, 0, len(t.Sources)+6)
	inv = append(inv, d.Program(), "-std=c++20", "-O2")
	inv = append(inv, t.Sources...)
	inv = append(inv, "-o", d.Artifact(t.Name))
	if opts.Debug {
		inv = slices.Insert(inv, 1, "-g")
	}
	return inv
}

// NewDriver returns the driver implementation for a kind
func NewDriver(kind DriverKind) Driver {
	switch kind {
	case DriverMSVC:
		return msvcDriver{}
	case DriverUnix:
		return unixDriver{}
	default:
		panic("NewDriver: unreachable")
	}
}

// DriverForPlatform picks the MSVC driver for "Windows" and the Unix driver for anything else
func DriverForPlatform(platform string) Driver {
	if platform == PlatformWindows {
		return msvcDriver{}
	}
	return unixDriver{}
}

// Assemble builds the compiler invocation for one target on the given platform
func Assemble(platform string, t Target, opts Options) Invocation {
	return DriverForPlatform(platform).Invocation(t, opts)
}

// LocateCompiler resolves the driver's program on PATH
func LocateCompiler(d Driver) (string, error) {
	return exec.LookPath(d.Program())
}
