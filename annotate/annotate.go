// Package annotate maps feature identifiers, such as microarray probe IDs, to
// human-readable gene symbols.
package annotate

import (
	"errors"
	"path/filepath"
)

var ErrNoSource = errors.New("annotate: no annotation source")

// Annotator looks up the symbol for a single feature identifier.
type Annotator interface {
	Symbol(id string) (string, bool)
}

// Annotate returns one symbol per identifier, keeping the identifier itself
// when the annotator has no mapping for it.
func Annotate(a Annotator, ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if sym, ok := a.Symbol(id); ok && sym != "" {
			out[i] = sym
			continue
		}
		out[i] = id
	}

	return out
}

// Coverage reports how many of ids have a mapping.
func Coverage(a Annotator, ids []string) int {
	n := 0
	for _, id := range ids {
		if sym, ok := a.Symbol(id); ok && sym != "" {
			n++
		}
	}

	return n
}

// Map is an in-memory annotation source.
type Map map[string]string

func (m Map) Symbol(id string) (string, bool) {
	sym, ok := m[id]
	return sym, ok
}

// DefaultPath is where the SQLite source for an annotation tag (e.g.
// "hgu95av2") is expected to live under dir.
func DefaultPath(dir, tag string) (string, error) {
	if tag == "" {
		return "", ErrNoSource
	}

	return filepath.Join(dir, tag+".sqlite"), nil
}
