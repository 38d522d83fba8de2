package config

import (
	"os"
	"path/filepath"
)

// DataDirEnv overrides every other data directory choice.
const DataDirEnv = "AUDITLOG_DATA_DIR"

type dataDirCandidate struct {
	path string
	ok   func() bool
}

// DefaultDataDir returns the data directory used when none is configured:
// $AUDITLOG_DATA_DIR, then the first usable OS location, then ~/.auditlog.
// Without a home directory it returns ./data.
func DefaultDataDir() string {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./data"
	}
	for _, c := range dataDirCandidates(home) {
		if c.ok() {
			return c.path
		}
	}
	return filepath.Join(home, ".auditlog")
}

// dataDirCandidates lists OS locations in preference order.
func dataDirCandidates(home string) []dataDirCandidate {
	xdg := os.Getenv("XDG_DATA_HOME")
	return []dataDirCandidate{
		{filepath.Join(xdg, "auditlog"), func() bool { return xdg != "" }},
		{"/var/lib/auditlog", func() bool { return isWritableDir("/var/lib") }},
		{filepath.Join(home, "Library", "Application Support", "AuditLog"), func() bool { return isDir(filepath.Join(home, "Library")) }},
		{filepath.Join(home, "AppData", "Local", "AuditLog"), func() bool { return isDir(filepath.Join(home, "AppData")) }},
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// isWritableDir probes path by creating and removing a temp file.
func isWritableDir(path string) bool {
	if !isDir(path) {
		return false
	}
	f, err := os.CreateTemp(path, ".auditlog-probe-*")
	if err != nil {
		return false
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return true
}
