// Package version holds the typeguess release and build identifiers.
package version

import (
	"runtime"
	"runtime/debug"
)

// Set at build time with
// -ldflags "-X typeguess/internal/version.Version=0.2.0 -X typeguess/internal/version.Commit=abc123"
var (
	Version   = "0.1.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns the version with a short commit suffix when known.
func Info() string {
	commit := resolveCommit()
	if len(commit) > 7 {
		return Version + " (" + commit[:7] + ")"
	}
	return Version
}

// Full returns multi-line version information.
func Full() string {
	return "typeguess " + Version + "\n" +
		"Commit: " + resolveCommit() + "\n" +
		"Built: " + BuildDate + "\n" +
		"Go: " + runtime.Version()
}

// resolveCommit falls back to the VCS revision embedded by the Go
// toolchain when none was set through ldflags.
func resolveCommit() string {
	if Commit != "unknown" {
		return Commit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Commit
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			return s.Value
		}
	}
	return Commit
}
