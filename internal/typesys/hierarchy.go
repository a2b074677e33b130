package typesys

import (
	"context"
	"strings"
	"sync"
)

// ClassInfo describes one class or interface known to the hierarchy.
type ClassInfo struct {
	Name       string       `toml:"name"`
	Package    string       `toml:"package"`
	Super      string       `toml:"super"`
	Interfaces []string     `toml:"interfaces"`
	TypeParams []string     `toml:"params"`
	Interface  bool         `toml:"interface"`
	Abstract   bool         `toml:"abstract"`
	Final      bool         `toml:"final"`
	Anonymous  bool         `toml:"anonymous"`
	Visibility string       `toml:"visibility"` // "", "public", "package" or "private"
	Outer      string       `toml:"outer"`      // top-level class of a nested class
	Methods    []MethodInfo `toml:"method"`
}

// MethodInfo is the part of a method signature the type system needs.
type MethodInfo struct {
	Name    string `toml:"name"`
	Arity   int    `toml:"arity"`
	Returns string `toml:"returns"`
}

// IsPublic reports whether the class is visible outside its package.
func (c *ClassInfo) IsPublic() bool {
	return c.Visibility == "" || c.Visibility == "public"
}

// TopLevel returns the name of the top-level class that declares c.
func (c *ClassInfo) TopLevel() string {
	if c.Outer != "" {
		return c.Outer
	}
	return c.Name
}

// Type returns the raw class type of c.
func (c *ClassInfo) Type() *Class {
	return ClassOf(c.Name)
}

// supertypes returns the declared direct supertypes, defaulting the
// superclass of a class to Object.
func (c *ClassInfo) supertypes() []string {
	out := make([]string, 0, len(c.Interfaces)+1)
	switch {
	case c.Super != "":
		out = append(out, c.Super)
	case !c.Interface && c.Name != Object:
		out = append(out, Object)
	}
	return append(out, c.Interfaces...)
}

// Hierarchy is a concurrency-safe class table. Reads may run in parallel;
// Add and Remove take the write lock.
type Hierarchy struct {
	mu      sync.RWMutex
	classes map[string]*ClassInfo
	subs    map[string][]string // supertype -> direct subtypes, in insertion order
}

// NewHierarchy returns an empty hierarchy containing only Object.
func NewHierarchy() *Hierarchy {
	h := &Hierarchy{
		classes: make(map[string]*ClassInfo),
		subs:    make(map[string][]string),
	}
	h.Add(&ClassInfo{Name: Object, Package: "java.lang"})
	return h
}

// Add registers c, replacing any class of the same name.
func (h *Hierarchy) Add(c *ClassInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.classes[c.Name]; ok {
		h.unlink(old)
	}
	h.classes[c.Name] = c
	for _, s := range c.supertypes() {
		h.subs[s] = append(h.subs[s], c.Name)
	}
}

// Remove drops the class with the given name.
func (h *Hierarchy) Remove(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.classes[name]; ok {
		h.unlink(old)
		delete(h.classes, name)
	}
}

func (h *Hierarchy) unlink(c *ClassInfo) {
	for _, s := range c.supertypes() {
		list := h.subs[s]
		for i, n := range list {
			if n == c.Name {
				h.subs[s] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
}

// Lookup returns the class with the given simple name, or nil.
func (h *Hierarchy) Lookup(name string) *ClassInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.classes[name]
}

// ResolveClass returns the class a class type refers to, or nil for
// non-class types and unknown classes.
func (h *Hierarchy) ResolveClass(t Type) *ClassInfo {
	c, ok := t.(*Class)
	if !ok {
		return nil
	}
	return h.Lookup(c.Name)
}

// IsSubtype reports whether sub is assignable to sup, ignoring type
// arguments.
func (h *Hierarchy) IsSubtype(sub, sup Type) bool {
	if sub == nil || sup == nil {
		return false
	}
	if x, ok := sup.(*Intersection); ok {
		for _, term := range x.Terms {
			if !h.IsSubtype(sub, term) {
				return false
			}
		}
		return true
	}
	if x, ok := sub.(*Intersection); ok {
		for _, term := range x.Terms {
			if h.IsSubtype(term, sup) {
				return true
			}
		}
		return false
	}
	switch s := sub.(type) {
	case Primitive:
		p, ok := sup.(Primitive)
		return ok && p == s
	case nullType:
		return IsReference(sup)
	case *Array:
		switch p := sup.(type) {
		case *Array:
			if IsPrimitive(s.Elem) || IsPrimitive(p.Elem) {
				return Equal(s.Elem, p.Elem)
			}
			return h.IsSubtype(s.Elem, p.Elem)
		case *Class:
			return p.Name == Object || p.Name == "Cloneable" || p.Name == "Serializable"
		}
		return false
	case *Class:
		p, ok := sup.(*Class)
		if !ok {
			return false
		}
		if p.Name == Object || p.Name == s.Name {
			return true
		}
		return h.inherits(s.Name, p.Name)
	}
	return false
}

func (h *Hierarchy) inherits(sub, sup string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := map[string]bool{sub: true}
	queue := []string{sub}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		c := h.classes[name]
		if c == nil {
			continue
		}
		for _, s := range c.supertypes() {
			if s == sup {
				return true
			}
			if !seen[s] {
				seen[s] = true
				queue = append(queue, s)
			}
		}
	}
	return false
}

// IsAccessible reports whether c can be named from code in fromPackage
// inside the top-level class fromTop. Private classes are visible only
// within their own top-level class.
func (h *Hierarchy) IsAccessible(c *ClassInfo, fromPackage, fromTop string) bool {
	if c == nil {
		return false
	}
	if c.Visibility == "private" {
		return fromTop != "" && c.Package == fromPackage && c.TopLevel() == fromTop
	}
	return c.IsPublic() || c.Package == fromPackage
}

// DirectSubclasses collects up to limit direct subtypes of the named class,
// skipping anonymous classes. If more than limit exist it returns
// overflow=true and no classes. The context is checked before each
// candidate.
func (h *Hierarchy) DirectSubclasses(ctx context.Context, name string, limit int) ([]*ClassInfo, bool, error) {
	h.mu.RLock()
	names := append([]string(nil), h.subs[name]...)
	h.mu.RUnlock()

	var found []*ClassInfo
	for _, n := range names {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		c := h.Lookup(n)
		if c == nil || c.Anonymous {
			continue
		}
		if len(found) == limit {
			return nil, true, nil
		}
		found = append(found, c)
	}
	return found, false, nil
}

// MethodReturn returns the declared return type of the method name/arity
// on recv or its supertypes. A return type naming a type parameter is
// substituted with recv's matching type argument, or Object when recv is
// raw. Parameters are matched by name against the receiver's class, which
// is how the catalog declares collection types.
func (h *Hierarchy) MethodReturn(recv Type, name string, arity int) Type {
	rc, ok := recv.(*Class)
	if !ok {
		return nil
	}
	recvClass := h.Lookup(rc.Name)
	m, owner := h.findMethod(rc.Name, name, arity)
	if m == nil {
		return nil
	}
	ret := strings.TrimSpace(m.Returns)
	if ret == "" {
		return Void
	}
	if recvClass != nil {
		for i, p := range recvClass.TypeParams {
			if p == ret {
				if i < len(rc.Args) {
					return rc.Args[i]
				}
				return ClassOf(Object)
			}
		}
	}
	for _, p := range owner.TypeParams {
		if p == ret {
			return ClassOf(Object)
		}
	}
	return Parse(ret)
}

func (h *Hierarchy) findMethod(class, name string, arity int) (*MethodInfo, *ClassInfo) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := map[string]bool{class: true}
	queue := []string{class}
	for len(queue) > 0 {
		c := h.classes[queue[0]]
		queue = queue[1:]
		if c == nil {
			continue
		}
		for i := range c.Methods {
			if c.Methods[i].Name == name && c.Methods[i].Arity == arity {
				return &c.Methods[i], c
			}
		}
		for _, s := range c.supertypes() {
			if !seen[s] {
				seen[s] = true
				queue = append(queue, s)
			}
		}
	}
	return nil, nil
}
