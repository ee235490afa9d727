package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveFile(t *testing.T) {
	s := &Storage{}
	path := filepath.Join(t.TempDir(), "reports", "tabby.md")

	if s.HasFile(path) {
		t.Fatal("file exists before save")
	}
	if err := s.SaveFile(path, []byte("# Tabby")); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if !s.HasFile(path) {
		t.Fatal("file missing after save")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "# Tabby" {
		t.Errorf("saved %q", data)
	}

	stats, err := s.GetFileStats(path)
	if err != nil {
		t.Fatalf("GetFileStats: %v", err)
	}
	if stats.SizeBytes != 7 {
		t.Errorf("SizeBytes = %d, want 7", stats.SizeBytes)
	}
}

func TestGetFileStatsMissing(t *testing.T) {
	s := &Storage{}
	if _, err := s.GetFileStats(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing file")
	}
}
