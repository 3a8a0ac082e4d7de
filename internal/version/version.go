// Package version reports the build identity stamped into the binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Overridden at build time via ldflags.
var (
	Commit    = ""
	BuildTime = ""
)

// String returns the version line shown by jd --version.
func String() string {
	commit := Commit
	if commit == "" {
		commit = vcsRevision()
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if commit == "" {
		commit = "unknown"
	}
	if BuildTime == "" {
		return fmt.Sprintf("jd dev (commit: %s)", commit)
	}
	return fmt.Sprintf("jd dev (commit: %s, built: %s)", commit, BuildTime)
}

// vcsRevision falls back to the revision the Go toolchain stamps into
// module builds, for binaries built without ldflags.
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
