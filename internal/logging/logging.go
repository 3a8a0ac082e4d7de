// Package logging holds the shared leveled logger. User-facing command
// output goes to stdout via the CLI; this logger carries diagnostics on
// stderr and stays quiet unless verbosity is raised.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// EnvDebug enables debug logging when set to any non-empty value.
const EnvDebug = "JD_DEBUG"

var logger = newLogger()

func newLogger() *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Prefix:          "jd",
	})
	if os.Getenv(EnvDebug) != "" {
		l.SetLevel(log.DebugLevel)
	} else {
		l.SetLevel(log.WarnLevel)
	}
	return l
}

// Default returns the process-wide logger.
func Default() *log.Logger { return logger }

// SetVerbose raises the level to debug, typically from a --verbose flag.
func SetVerbose(on bool) {
	if on {
		logger.SetLevel(log.DebugLevel)
	}
}
