// Package patterns holds the table of well-known container method
// signatures. Each entry says which call position carries the container's
// element type: an argument index, or the return value.
package patterns

import (
	"sort"
	"sync"

	gerrors "typeguess/internal/errors"
)

// ReturnSlot marks a pattern whose element type flows through the call's
// return value.
const ReturnSlot = -1

// Pattern is one container method signature.
type Pattern struct {
	Name  string `toml:"name" json:"name" yaml:"name"`
	Arity int    `toml:"arity" json:"arity" yaml:"arity"`
	Slot  int    `toml:"slot" json:"slot" yaml:"slot"`
}

// FromReturn reports whether the element type flows out of the call.
func (p Pattern) FromReturn() bool { return p.Slot == ReturnSlot }

func (p Pattern) validate() error {
	switch {
	case p.Name == "":
		return gerrors.Newf(gerrors.InvalidPattern, "pattern has no method name")
	case p.Arity < 0:
		return gerrors.Newf(gerrors.InvalidPattern, "%s: negative arity %d", p.Name, p.Arity)
	case p.Slot < ReturnSlot || p.Slot >= p.Arity && p.Slot != ReturnSlot:
		return gerrors.Newf(gerrors.InvalidPattern, "%s/%d: slot %d out of range", p.Name, p.Arity, p.Slot)
	}
	return nil
}

type key struct {
	name  string
	arity int
}

// Table maps (name, arity) to at most one Pattern. Lookups may run
// concurrently with each other; Register takes a write lock.
type Table struct {
	mu      sync.RWMutex
	entries map[key]Pattern
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[key]Pattern)}
}

// Default returns a table seeded with the collection methods every
// analysis knows about.
func Default() *Table {
	t := NewTable()
	for _, p := range builtin {
		if err := t.Register(p); err != nil {
			panic(err)
		}
	}
	return t
}

var builtin = []Pattern{
	{"add", 1, 0},
	{"contains", 1, 0},
	{"remove", 1, 0},
	{"add", 2, 1},
	{"get", 1, ReturnSlot},
	{"set", 2, 1},
	{"indexOf", 1, 0},
	{"indexOf", 2, 0},
	{"lastIndexOf", 1, 0},
	{"lastIndexOf", 2, 0},
	{"elementAt", 1, ReturnSlot},
	{"firstElement", 0, ReturnSlot},
	{"lastElement", 0, ReturnSlot},
}

// Register adds p. It fails if p is malformed or a pattern with the same
// name and arity is already present.
func (t *Table) Register(p Pattern) error {
	if err := p.validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	k := key{p.Name, p.Arity}
	if _, dup := t.entries[k]; dup {
		return gerrors.Newf(gerrors.InvalidPattern, "duplicate pattern %s/%d", p.Name, p.Arity)
	}
	t.entries[k] = p
	return nil
}

// Find returns the pattern for a method name and arity.
func (t *Table) Find(name string, arity int) (Pattern, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.entries[key{name, arity}]
	return p, ok
}

// All returns every pattern sorted by name, then arity.
func (t *Table) All() []Pattern {
	t.mu.RLock()
	out := make([]Pattern, 0, len(t.entries))
	for _, p := range t.entries {
		out = append(out, p)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Arity < out[j].Arity
	})
	return out
}

// Len returns the number of patterns.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
