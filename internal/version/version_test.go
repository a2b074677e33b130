package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	origVersion, origCommit := Version, Commit
	defer func() { Version, Commit = origVersion, origCommit }()

	tests := []struct {
		name    string
		version string
		commit  string
		want    string
	}{
		{"long commit", "1.0.0", "abc1234567890", "1.0.0 (abc1234)"},
		{"short commit", "1.0.0", "abc", "1.0.0"},
		{"exactly seven", "2.0.0", "abcdefg", "2.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version, Commit = tt.version, tt.commit
			if got := Info(); got != tt.want {
				t.Errorf("Info() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFull(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, BuildDate
	defer func() { Version, Commit, BuildDate = origVersion, origCommit, origDate }()

	Version, Commit, BuildDate = "1.2.3", "deadbeef", "2026-01-01"
	got := Full()
	for _, want := range []string{"typeguess 1.2.3", "Commit: deadbeef", "Built: 2026-01-01", "Go: go"} {
		if !strings.Contains(got, want) {
			t.Errorf("Full() = %q, missing %q", got, want)
		}
	}
}
