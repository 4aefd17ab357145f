package mcp

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewServer_OpensSQLiteStore(t *testing.T) {
	root := t.TempDir()

	s, err := NewServer(&Config{Name: "rbmjitter", Version: "test", Root: root})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	defer s.Close()

	if s.defaults == nil {
		t.Error("defaults should fall back to config.Default()")
	}
	if _, err := os.Stat(filepath.Join(root, ".rbmjitter", "runs.db")); err != nil {
		t.Errorf("runs.db not created: %v", err)
	}
}
