package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		if err := loadDotEnv(filepath.Join(dir, "absent.env")); err != nil {
			t.Errorf("missing file reported: %v", err)
		}
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "valid.env")
		if err := os.WriteFile(path, []byte("OMR_MCP_TEST_LEVEL=debug\n"), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		t.Setenv("OMR_MCP_TEST_LEVEL", "")
		os.Unsetenv("OMR_MCP_TEST_LEVEL")
		if err := loadDotEnv(path); err != nil {
			t.Fatalf("loadDotEnv failed: %v", err)
		}
		if got := os.Getenv("OMR_MCP_TEST_LEVEL"); got != "debug" {
			t.Errorf("OMR_MCP_TEST_LEVEL = %q, want debug", got)
		}
	})

	t.Run("unreadable file", func(t *testing.T) {
		// A directory opens but cannot be read as a file.
		if err := loadDotEnv(dir); err == nil {
			t.Error("expected error for unreadable .env")
		}
	})
}
