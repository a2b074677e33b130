//go:build cgo

package javasrc

import (
	"context"
	"log/slog"
	"os"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	gerrors "typeguess/internal/errors"
	"typeguess/internal/srctree"
	"typeguess/internal/typesys"
)

// Loader parses Java files and lowers them into srctree. A Loader
// remembers every class it has declared, so later loads resolve against
// earlier ones. It is safe for concurrent use; loads are serialized.
type Loader struct {
	types  *typesys.Hierarchy
	logger *slog.Logger

	mu      sync.Mutex
	parser  *sitter.Parser
	classes map[string]*srctree.Class
}

// NewLoader creates a loader registering classes in types.
func NewLoader(types *typesys.Hierarchy, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	return &Loader{
		types:   types,
		logger:  logger,
		parser:  p,
		classes: make(map[string]*srctree.Class),
	}
}

// IsAvailable reports whether parsing is supported in this build.
func IsAvailable() bool {
	return true
}

// LoadFiles reads and loads the files at paths.
func (l *Loader) LoadFiles(ctx context.Context, paths ...string) ([]*srctree.File, error) {
	srcs := make([]Source, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, gerrors.New(gerrors.ParseFailed, "failed to read "+p, err)
		}
		srcs = append(srcs, Source{Path: p, Data: data})
	}
	return l.Load(ctx, srcs...)
}

// ParseSource loads a single file.
func (l *Loader) ParseSource(ctx context.Context, path string, data []byte) (*srctree.File, error) {
	files, err := l.Load(ctx, Source{Path: path, Data: data})
	if err != nil {
		return nil, err
	}
	return files[0], nil
}

// Load parses srcs, declares their classes and then lowers every body.
// Files with syntax errors are lowered as far as the parse tree allows.
func (l *Loader) Load(ctx context.Context, srcs ...Source) ([]*srctree.File, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	units := make([]*unit, 0, len(srcs))
	for _, s := range srcs {
		tree, err := l.parser.ParseCtx(ctx, nil, s.Data)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, gerrors.New(gerrors.ParseFailed, "failed to parse "+s.Path, err)
		}
		root := tree.RootNode()
		if root.HasError() {
			l.logger.Debug("Source has syntax errors", "path", s.Path)
		}
		u := newUnit(l, s, root)
		u.declare()
		units = append(units, u)
	}

	files := make([]*srctree.File, 0, len(units))
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		u.define()
		files = append(files, u.file)
		l.logger.Debug("Loaded source", "path", u.file.Path, "classes", len(u.file.Classes))
	}
	return files, nil
}

// register records a declared class for resolution and in the hierarchy.
func (l *Loader) register(c *srctree.Class, info *typesys.ClassInfo) {
	l.classes[c.Name] = c
	l.types.Add(info)
}

// supers visits name and its declared supertypes among loaded classes,
// nearest first, until fn returns true.
func (l *Loader) supers(name string, fn func(*srctree.Class) bool) {
	seen := make(map[string]bool)
	queue := []string{name}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n] {
			continue
		}
		seen[n] = true
		c, ok := l.classes[n]
		if !ok {
			continue
		}
		if fn(c) {
			return
		}
		if c.Super != "" {
			queue = append(queue, c.Super)
		}
		queue = append(queue, c.Interfaces...)
	}
}

func (l *Loader) field(class, name string) *srctree.Var {
	var found *srctree.Var
	l.supers(class, func(c *srctree.Class) bool {
		for _, f := range c.Fields {
			if f.Name == name {
				found = f
				return true
			}
		}
		return false
	})
	return found
}

func (l *Loader) method(class, name string, arity int) *srctree.Method {
	var found *srctree.Method
	l.supers(class, func(c *srctree.Class) bool {
		for _, m := range c.Methods {
			if m.Name == name && !m.Constructor && len(m.Params) == arity {
				found = m
				return true
			}
		}
		return false
	})
	return found
}

func (l *Loader) isClass(name string) bool {
	if _, ok := l.classes[name]; ok {
		return true
	}
	return l.types.Lookup(name) != nil
}
