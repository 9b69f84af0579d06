package logme

import (
	"fmt"
	"io"
	"os"
)

var (
	isDebugMode bool = os.Getenv("DEBUG") == "1"

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetOutput redirects the info/debug and error streams. Passing nil keeps the current writer.
func SetOutput(out, errOut io.Writer) {
	if out != nil {
		stdout = out
	}
	if errOut != nil {
		stderr = errOut
	}
}

func DebugF(msg string, args ...interface{}) {
	// check if ENV DEBUG is 1
	if isDebugMode {
		fmt.Fprint(stdout, "[DEBUG] ")
		fmt.Fprintf(stdout, msg, args...)
	}
}

func DebugFln(msg string, args ...interface{}) {
	DebugF(msg+"\n", args...)
}

func Debugln(args ...interface{}) {
	// check if ENV DEBUG is 1
	if isDebugMode {
		fmt.Fprint(stdout, "[DEBUG] ")
		fmt.Fprintln(stdout, args...)
	}
}

func InfoF(msg string, args ...interface{}) {
	fmt.Fprintf(stdout, msg, args...)
}

func Infoln(arg ...interface{}) {
	fmt.Fprintln(stdout, arg...)
}

func ErrorF(msg string, args ...interface{}) {
	fmt.Fprintf(stderr, msg, args...)
}

func Errorln(arg ...interface{}) {
	fmt.Fprintln(stderr, arg...)
}
