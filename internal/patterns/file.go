package patterns

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	gerrors "typeguess/internal/errors"
)

// PatternsFile is the root structure of a pattern extension file:
//
//	version = 1
//	[[pattern]]
//	name = "push"
//	arity = 1
//	slot = 0
type PatternsFile struct {
	Version  int       `toml:"version"`
	Patterns []Pattern `toml:"pattern"`
}

// ParsePatterns decodes a pattern extension document.
func ParsePatterns(data []byte) (*PatternsFile, error) {
	var pf PatternsFile
	if err := toml.Unmarshal(data, &pf); err != nil {
		return nil, gerrors.New(gerrors.InvalidPattern, "failed to parse patterns", err)
	}
	if pf.Version < 1 {
		pf.Version = 1
	}
	return &pf, nil
}

// LoadFile registers every pattern in the TOML file at path. Patterns
// registered before a failing entry stay registered.
func (t *Table) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read patterns file: %w", err)
	}
	pf, err := ParsePatterns(data)
	if err != nil {
		return err
	}
	for _, p := range pf.Patterns {
		if err := t.Register(p); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}
