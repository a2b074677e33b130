//go:build !cgo

package javasrc

import (
	"context"
	"log/slog"

	gerrors "typeguess/internal/errors"
	"typeguess/internal/srctree"
	"typeguess/internal/typesys"
)

// ErrNoCGO is returned by every load when parsing is unavailable.
var ErrNoCGO = gerrors.New(gerrors.ParseFailed, "parsing Java requires CGO (tree-sitter)", nil)

// Loader parses Java files and lowers them into srctree.
// This is a stub implementation for non-CGO builds.
type Loader struct{}

// NewLoader creates a loader. The stub ignores its arguments.
func NewLoader(types *typesys.Hierarchy, logger *slog.Logger) *Loader {
	return &Loader{}
}

// IsAvailable returns false when CGO is disabled.
func IsAvailable() bool {
	return false
}

// LoadFiles returns ErrNoCGO.
func (l *Loader) LoadFiles(ctx context.Context, paths ...string) ([]*srctree.File, error) {
	return nil, ErrNoCGO
}

// ParseSource returns ErrNoCGO.
func (l *Loader) ParseSource(ctx context.Context, path string, data []byte) (*srctree.File, error) {
	return nil, ErrNoCGO
}

// Load returns ErrNoCGO.
func (l *Loader) Load(ctx context.Context, srcs ...Source) ([]*srctree.File, error) {
	return nil, ErrNoCGO
}
