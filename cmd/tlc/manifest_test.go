package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManifestResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, manifestName)
	data := []byte(`
name = "demo"
version = "0.1.0"
entry = "src/main.t"
sources = ["src/util.t"]
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "demo" || m.Version != "0.1.0" {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	if m.Entry != filepath.Join(dir, "src/main.t") {
		t.Fatalf("entry not resolved against manifest dir: %s", m.Entry)
	}

	files := m.Files()
	if len(files) != 2 || files[0] != m.Entry {
		t.Fatalf("expected entry-first file list, got %v", files)
	}
}

func TestLoadManifestRejectsMissingFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, manifestName)
	if err := os.WriteFile(path, []byte(`name = "demo"`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected an error for a manifest without an entry")
	}
}

func TestTirPath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"main.t", "main.tir"},
		{"src/lib.t", "src/lib.tir"},
		{"notes.txt", "notes.txt.tir"},
	}
	for _, c := range cases {
		if got := tirPath(c.in); got != c.want {
			t.Errorf("tirPath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
