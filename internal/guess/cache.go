package guess

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"typeguess/internal/srctree"
	"typeguess/internal/typesys"
)

// Cache memoizes per-block work: the element list walked by the heuristic
// pass and finished conjunct results. Blocks are immutable, so entries stay
// valid until the owning file is replaced; InvalidateFile drops them then.
// Concurrent misses for the same key share one computation.
type Cache struct {
	mu      sync.Mutex
	entries map[*srctree.Block]*blockEntry
	group   singleflight.Group
}

type blockEntry struct {
	path      string
	elements  []srctree.Node
	conjuncts map[conjunctKey][]typesys.Type
}

type conjunctKey struct {
	expr             srctree.Expr
	honorAssignments bool
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[*srctree.Block]*blockEntry)}
}

func (c *Cache) entry(block *srctree.Block) *blockEntry {
	e, ok := c.entries[block]
	if !ok {
		path := ""
		if f := srctree.FileOf(block); f != nil {
			path = f.Path
		}
		e = &blockEntry{path: path, conjuncts: make(map[conjunctKey][]typesys.Type)}
		c.entries[block] = e
	}
	return e
}

// store runs fn on e if e is still the live entry for block. An entry
// dropped by InvalidateFile while its value was being computed stays
// dropped.
func (c *Cache) store(block *srctree.Block, e *blockEntry, fn func(*blockEntry)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[block] == e {
		fn(e)
	}
}

// elements returns the pre-order element list of block.
func (c *Cache) elements(block *srctree.Block) []srctree.Node {
	c.mu.Lock()
	e := c.entry(block)
	if els := e.elements; els != nil {
		c.mu.Unlock()
		return els
	}
	c.mu.Unlock()

	els := affectingElements(block)
	c.store(block, e, func(e *blockEntry) { e.elements = els })
	return els
}

// conjuncts returns the cached result for expr, calling compute on a
// miss. Errors are not cached. A waiter whose own context is still live
// recomputes when the shared call failed because another caller canceled.
func (c *Cache) conjuncts(ctx context.Context, block *srctree.Block, expr srctree.Expr, honorAssignments bool, compute func() ([]typesys.Type, error)) ([]typesys.Type, error) {
	k := conjunctKey{expr, honorAssignments}
	c.mu.Lock()
	e := c.entry(block)
	if ts, ok := e.conjuncts[k]; ok {
		c.mu.Unlock()
		cacheLookupsTotal.WithLabelValues("hit").Inc()
		return ts, nil
	}
	c.mu.Unlock()
	cacheLookupsTotal.WithLabelValues("miss").Inc()

	run := func() (interface{}, error) {
		ts, err := compute()
		if err != nil {
			return nil, err
		}
		c.store(block, e, func(e *blockEntry) { e.conjuncts[k] = ts })
		return ts, nil
	}

	key := fmt.Sprintf("%p|%p|%t", block, expr, honorAssignments)
	v, err, _ := c.group.Do(key, run)
	if err != nil && ctx.Err() == nil {
		v, err = run()
	}
	if err != nil {
		return nil, err
	}
	return v.([]typesys.Type), nil
}

// InvalidateFile drops every entry for blocks in the file at path.
func (c *Cache) InvalidateFile(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for b, e := range c.entries {
		if e.path == path {
			delete(c.entries, b)
		}
	}
}

// Len returns the number of cached blocks.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
