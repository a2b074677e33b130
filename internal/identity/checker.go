package identity

import (
	"sync/atomic"

	"typeguess/internal/srctree"
)

// Inconsistency is reported when two expressions that the deep structural
// check considers equivalent produce different shape hashes. It signals a
// bug in the projection rules, never bad input.
type Inconsistency struct {
	A, B         srctree.Expr
	HashA, HashB uint64
}

// Checker compares expressions and verifies on every comparison that
// equivalent expressions hash equal. A Checker is safe for concurrent use
// provided Report is.
type Checker struct {
	// Report is called for each inconsistency; it may be nil.
	Report func(Inconsistency)

	violations atomic.Int64
	hash       func(srctree.Expr) uint64
}

// Equal is Equal with the hash consistency check. A violation is reported
// and counted but does not change the answer of the deep check.
func (c *Checker) Equal(a, b srctree.Expr) bool {
	da, db := Of(a), Of(b)
	if !srctree.Equivalent(a, b) {
		return false
	}
	hash := Hash
	if c.hash != nil {
		hash = c.hash
	}
	if ha, hb := hash(a), hash(b); ha != hb {
		c.violations.Add(1)
		if c.Report != nil {
			c.Report(Inconsistency{A: a, B: b, HashA: ha, HashB: hb})
		}
	}
	return da.projection() == db.projection()
}

// Violations returns how many inconsistencies have been observed.
func (c *Checker) Violations() int64 {
	return c.violations.Load()
}
