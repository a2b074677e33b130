package typesys

import (
	_ "embed"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
)

//go:embed catalog.toml
var standardCatalog string

// CatalogFile is the on-disk shape of a class catalog.
type CatalogFile struct {
	Version int         `toml:"version"`
	Classes []ClassInfo `toml:"class"`
}

// Standard returns a hierarchy preloaded with the embedded library catalog.
func Standard() *Hierarchy {
	h := NewHierarchy()
	if err := h.loadCatalog(standardCatalog); err != nil {
		panic(fmt.Sprintf("typesys: embedded catalog: %v", err))
	}
	return h
}

// LoadCatalog adds every class declared in the TOML document read from r.
func (h *Hierarchy) LoadCatalog(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	return h.loadCatalog(string(data))
}

// LoadCatalogFile adds every class declared in the TOML file at path.
func (h *Hierarchy) LoadCatalogFile(path string) error {
	var cf CatalogFile
	if _, err := toml.DecodeFile(path, &cf); err != nil {
		return fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return h.addCatalog(&cf)
}

func (h *Hierarchy) loadCatalog(doc string) error {
	var cf CatalogFile
	if _, err := toml.Decode(doc, &cf); err != nil {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}
	return h.addCatalog(&cf)
}

func (h *Hierarchy) addCatalog(cf *CatalogFile) error {
	for i := range cf.Classes {
		c := cf.Classes[i]
		if c.Name == "" {
			return fmt.Errorf("catalog class %d has no name", i)
		}
		h.Add(&c)
	}
	return nil
}
