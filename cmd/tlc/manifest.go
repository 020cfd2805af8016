package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
)

const manifestName = "tlang.toml"

// Manifest is the optional project file read when no source files are given
// on the command line.
type Manifest struct {
	Name    string   `toml:"name"`
	Version string   `toml:"version"`
	Entry   string   `toml:"entry"`
	Sources []string `toml:"sources"`
}

// LoadManifest reads and validates the manifest at path. Relative entry and
// source paths resolve against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("%s: missing required field 'name'", path)
	}
	if m.Entry == "" {
		return nil, fmt.Errorf("%s: missing required field 'entry'", path)
	}

	dir := filepath.Dir(path)
	m.Entry = filepath.Join(dir, m.Entry)
	for i, s := range m.Sources {
		m.Sources[i] = filepath.Join(dir, s)
	}
	return &m, nil
}

// Files returns every source file the manifest names, entry first.
func (m *Manifest) Files() []string {
	files := []string{m.Entry}
	for _, s := range m.Sources {
		if s != m.Entry {
			files = append(files, s)
		}
	}
	return files
}
