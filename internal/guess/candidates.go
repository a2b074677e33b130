package guess

import (
	"encoding/json"

	"typeguess/internal/typesys"
)

// CandidateSet is an insertion-ordered set of types. Types are compared
// with typesys.Equal, so List<String> and List are distinct members.
type CandidateSet struct {
	types []typesys.Type
}

// NewCandidateSet returns a set holding ts in order, duplicates dropped.
func NewCandidateSet(ts ...typesys.Type) *CandidateSet {
	s := &CandidateSet{}
	for _, t := range ts {
		s.Add(t)
	}
	return s
}

// Add appends t unless it is nil or already present. It reports whether
// the set changed.
func (s *CandidateSet) Add(t typesys.Type) bool {
	if t == nil || s.Contains(t) {
		return false
	}
	s.types = append(s.types, t)
	return true
}

// AddAll adds every member of o in o's order.
func (s *CandidateSet) AddAll(o *CandidateSet) {
	if o == nil {
		return
	}
	for _, t := range o.types {
		s.Add(t)
	}
}

// Contains reports whether t is a member.
func (s *CandidateSet) Contains(t typesys.Type) bool {
	for _, x := range s.types {
		if typesys.Equal(x, t) {
			return true
		}
	}
	return false
}

// Len returns the number of members.
func (s *CandidateSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.types)
}

// Types returns the members in insertion order.
func (s *CandidateSet) Types() []typesys.Type {
	if s == nil {
		return nil
	}
	return append([]typesys.Type(nil), s.types...)
}

// Strings returns the members rendered in source syntax.
func (s *CandidateSet) Strings() []string {
	out := make([]string, 0, s.Len())
	for _, t := range s.Types() {
		out = append(out, t.String())
	}
	return out
}

// MarshalJSON renders the set as a list of type strings.
func (s *CandidateSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// MarshalYAML renders the set as a list of type strings.
func (s *CandidateSet) MarshalYAML() (interface{}, error) {
	return s.Strings(), nil
}

// onlyErasureOf reports whether ts is exactly the erasure of static. Such a
// result says nothing the caller does not already know.
func onlyErasureOf(ts []typesys.Type, static typesys.Type) bool {
	return len(ts) == 1 && static != nil && typesys.Equal(ts[0], typesys.Erase(static))
}
