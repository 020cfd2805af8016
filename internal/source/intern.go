// Package source holds state shared across compilation units. The pipeline
// for a single unit never blocks on it; parallel workers share only the
// append-only interner defined here.
package source

import "sync"

// StringID identifies an interned string. Zero is never issued.
type StringID uint32

// Interner is an append-only string table. IDs are stable for the lifetime of
// the interner; entries are never mutated or removed, so readers may hold IDs
// across concurrent Intern calls.
type Interner struct {
	mu      sync.Mutex
	indexes map[string]StringID
	strings []string
}

// NewInterner creates an empty interner.
func NewInterner() *Interner {
	return &Interner{
		indexes: make(map[string]StringID),
		strings: []string{""}, // slot 0 reserved
	}
}

// Intern returns the ID for s, appending it on first sight. Safe for
// concurrent use.
func (in *Interner) Intern(s string) StringID {
	in.mu.Lock()
	defer in.mu.Unlock()

	if id, ok := in.indexes[s]; ok {
		return id
	}
	id := StringID(len(in.strings))
	in.strings = append(in.strings, s)
	in.indexes[s] = id
	return id
}

// Lookup returns the string for a previously issued ID.
func (in *Interner) Lookup(id StringID) string {
	in.mu.Lock()
	defer in.mu.Unlock()

	if int(id) >= len(in.strings) {
		return ""
	}
	return in.strings[id]
}

// Len returns the number of interned strings.
func (in *Interner) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.strings) - 1
}
