package config

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// osExit is swapped in tests.
var osExit = os.Exit

// Exitf writes a formatted error message to stderr and exits with code 1.
// Entry points use it for failures that happen before a logger exists.
func Exitf(format string, args ...any) {
	writeExitMessage(os.Stderr, format, args...)
	osExit(1)
}

func writeExitMessage(w io.Writer, format string, args ...any) {
	message := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	fmt.Fprintln(w, message)
}
