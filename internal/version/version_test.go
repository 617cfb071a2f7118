package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	oldVersion, oldCommit, oldDate := Version, Commit, Date
	defer func() { Version, Commit, Date = oldVersion, oldCommit, oldDate }()

	Version, Commit, Date = "1.2.3", "unknown", "unknown"
	if got := String(); !strings.HasPrefix(got, "basin version 1.2.3 (") {
		t.Errorf("Unexpected version string: %s", got)
	}

	Commit, Date = "0123456789abcdef", "2026-01-02T03:04:05Z"
	if got := String(); !strings.Contains(got, "commit: 01234567,") {
		t.Errorf("Expected short commit in %q", got)
	}

	Commit = "abc"
	if got := String(); !strings.Contains(got, "commit: abc,") {
		t.Errorf("Expected untruncated short commit in %q", got)
	}

	if Short() != "1.2.3" {
		t.Errorf("Expected 1.2.3, got %s", Short())
	}
}
