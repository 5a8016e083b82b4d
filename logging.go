// logging.go - optional trace logging, gated by -l/--log

/*
logging.go - Logging

Matches the teacher's own logging idiom throughout this codebase: no
structured logging library, just fmt.Fprintf to stderr gated by a runtime
flag, and fmt.Fprintf(os.Stderr, ...) followed by os.Exit(1) for fatal
conditions. Tracef is a no-op when logging is disabled so call sites
never need to guard it themselves.
*/

package main

import (
	"fmt"
	"os"
)

type logger struct {
	enabled bool
}

func newLogger(enabled bool) *logger {
	return &logger{enabled: enabled}
}

func (l *logger) Tracef(format string, args ...any) {
	if l == nil || !l.enabled {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// die prints a fatal error and exits, matching the teacher's own
// main.go error-handling idiom.
func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "gopsx: "+format+"\n", args...)
	os.Exit(1)
}
