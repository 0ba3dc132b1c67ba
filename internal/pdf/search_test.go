package pdf

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscover(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "discover_test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	files := map[string][]byte{
		"b.pdf":            buildPDF("b"),
		"a.PDF":            buildPDF("a"),
		"notes.txt":        []byte("notes"),
		"nested/c.pdf":     buildPDF("c"),
		"nested/empty.pdf": {},
	}
	for name, data := range files {
		path := filepath.Join(tempDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	got, err := Discover(tempDir)
	if err != nil {
		t.Fatalf("Discover() unexpected error: %v", err)
	}

	want := []string{"a.PDF", "b.pdf", "c.pdf", "empty.pdf"}
	if len(got) != len(want) {
		t.Fatalf("Discover() returned %d files, want %d: %+v", len(got), len(want), got)
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("Discover()[%d].Name = %v, want %v", i, got[i].Name, name)
		}
		if !filepath.IsAbs(got[i].Path) {
			t.Errorf("Discover()[%d].Path = %v, want absolute path", i, got[i].Path)
		}
	}
	if got[3].Size != 0 {
		t.Errorf("empty.pdf Size = %d, want 0", got[3].Size)
	}
}

func TestDiscoverSkipsSymlinksOutsideDirectory(t *testing.T) {
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.pdf")
	if err := os.WriteFile(target, buildPDF("secret"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	dir := t.TempDir()
	if err := os.Symlink(target, filepath.Join(dir, "link.pdf")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	got, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Discover() = %+v, want no files", got)
	}
}

func TestDiscoverErrors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.pdf")
	if err := os.WriteFile(file, buildPDF(), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	tests := []struct {
		name string
		dir  string
	}{
		{"empty", ""},
		{"missing", "/non/existent/directory"},
		{"file", file},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Discover(tt.dir); err == nil {
				t.Errorf("Discover(%q) expected error but got none", tt.dir)
			}
		})
	}
}
