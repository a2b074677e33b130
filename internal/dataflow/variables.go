package dataflow

import (
	"sync"

	"typeguess/internal/typesys"
)

// Variables is a VariableFactory that numbers synthetic variables from
// one. It is meant to live for one query.
type Variables struct {
	mu      sync.Mutex
	buckets map[uint64][]*Variable
	next    int
}

// NewVariables returns an empty factory.
func NewVariables() *Variables {
	return &Variables{buckets: make(map[uint64][]*Variable)}
}

// Synthetic returns the variable for key, creating it on first use.
func (vs *Variables) Synthetic(key Key, name string, t typesys.Type) *Variable {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	h := key.Hash()
	for _, v := range vs.buckets[h] {
		if v.Key.Same(key) {
			return v
		}
	}
	vs.next++
	v := &Variable{ID: vs.next, Name: name, Type: t, Synthetic: true, Key: key}
	vs.buckets[h] = append(vs.buckets[h], v)
	return v
}

// Len returns how many synthetic variables exist.
func (vs *Variables) Len() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.next
}
