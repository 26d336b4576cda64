package msg

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var out io.Writer = color.Output

// SetOutput redirects all messages to w
func SetOutput(w io.Writer) { out = w }

// Output returns the writer messages currently go to
func Output() io.Writer { return out }

func printLevel(prefix, format string, a ...any) {
	fmt.Fprint(out, prefix)
	fmt.Fprint(out, ": ")
	fmt.Fprintf(out, format, a...)
	fmt.Fprint(out, "\n")
}

func Error(format string, a ...any) {
	printLevel(color.HiRedString("error"), format, a...)
}

func Warn(format string, a ...any) {
	printLevel(color.YellowString("warn"), format, a...)
}

func Info(format string, a ...any) {
	printLevel(color.HiGreenString("info"), format, a...)
}

// Step prints a right-aligned status verb followed by text, e.g. "   Compiling bvh.bin"
func Step(verb, text string) {
	fmt.Fprintf(out, "%s %s\n", color.HiGreenString("%12s", verb), text)
}

// Command prints a command line under the current step
func Command(line string) {
	fmt.Fprintf(out, "%13s%s\n", "", color.HiBlackString(line))
}

type IndentWriter struct {
	Indent    string
	W         io.Writer
	didIndent bool
}

func (w *IndentWriter) Write(p []byte) (n int, err error) {
	buf := make([]byte, 0, len(p)+len(w.Indent))
	for _, c := range p {
		if !w.didIndent {
			buf = append(buf, w.Indent...)
			w.didIndent = true
		}
		buf = append(buf, c)
		if c == '\n' || c == '\r' {
			w.didIndent = false
		}
	}
	if _, err := w.W.Write(buf); err != nil {
		return 0, err
	}
	return len(p), nil
}
