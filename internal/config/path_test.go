package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultDataDirEnvOverride(t *testing.T) {
	t.Setenv(DataDirEnv, "/srv/audit")
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	if got := DefaultDataDir(); got != "/srv/audit" {
		t.Fatalf("got %s", got)
	}
}

func TestDefaultDataDirXDG(t *testing.T) {
	t.Setenv(DataDirEnv, "")
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	if got := DefaultDataDir(); got != "/custom/data/auditlog" {
		t.Fatalf("got %s", got)
	}
}

func TestDefaultDataDirNoHome(t *testing.T) {
	t.Setenv(DataDirEnv, "")
	t.Setenv("HOME", "")
	t.Setenv("USERPROFILE", "")
	t.Setenv("home", "")
	if got := DefaultDataDir(); got != "./data" {
		t.Fatalf("got %s, want ./data", got)
	}
}

func TestDataDirCandidatesFollowHomeLayout(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	home := t.TempDir()
	if err := os.Mkdir(filepath.Join(home, "AppData"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	var usable []string
	for _, c := range dataDirCandidates(home) {
		if c.ok() && c.path != "/var/lib/auditlog" {
			usable = append(usable, c.path)
		}
	}
	want := filepath.Join(home, "AppData", "Local", "AuditLog")
	if len(usable) != 1 || usable[0] != want {
		t.Fatalf("usable = %v, want [%s]", usable, want)
	}
}

func TestIsDirAndWritable(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tests := []struct {
		name     string
		path     string
		dir      bool
		writable bool
	}{
		{"temp dir", dir, true, true},
		{"regular file", file, false, false},
		{"missing", filepath.Join(dir, "missing"), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDir(tt.path); got != tt.dir {
				t.Fatalf("isDir = %v", got)
			}
			if got := isWritableDir(tt.path); got != tt.writable {
				t.Fatalf("isWritableDir = %v", got)
			}
		})
	}
}
