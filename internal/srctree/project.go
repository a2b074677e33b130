package srctree

import (
	"sort"
	"sync"
)

// Project is the set of files under analysis. Files are immutable once
// added; an edit replaces the whole file, so a query that already holds a
// *File keeps seeing a consistent tree while the project moves on.
type Project struct {
	mu        sync.RWMutex
	files     map[string]*File
	listeners []func(path string)
}

// NewProject returns an empty project.
func NewProject() *Project {
	return &Project{files: make(map[string]*File)}
}

// Replace adds f, replacing any file with the same path, and notifies
// change listeners.
func (p *Project) Replace(f *File) {
	p.mu.Lock()
	p.files[f.Path] = f
	listeners := p.listeners
	p.mu.Unlock()

	notify(listeners, f.Path)
}

// Remove drops the file at path and notifies change listeners.
func (p *Project) Remove(path string) {
	p.mu.Lock()
	_, existed := p.files[path]
	delete(p.files, path)
	listeners := p.listeners
	p.mu.Unlock()

	if existed {
		notify(listeners, path)
	}
}

func notify(listeners []func(string), path string) {
	for _, fn := range listeners {
		fn(path)
	}
}

// OnChange registers fn to be called after a file is replaced or removed.
// Listeners run synchronously on the mutating goroutine.
func (p *Project) OnChange(fn func(path string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// File returns the file at path, or nil.
func (p *Project) File(path string) *File {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.files[path]
}

// Files returns every file, sorted by path.
func (p *Project) Files() []*File {
	p.mu.RLock()
	out := make([]*File, 0, len(p.files))
	for _, f := range p.files {
		out = append(out, f)
	}
	p.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// CallSites returns every call resolved to m across the project, in file
// order and then source order.
func (p *Project) CallSites(m *Method) []*Call {
	var out []*Call
	for _, f := range p.Files() {
		out = append(out, f.CallSites(m)...)
	}
	return out
}

// fileIndex maps declarations to their uses within one file.
type fileIndex struct {
	refs  map[*Var][]Expr
	calls map[*Method][]*Call
}

func (f *File) idx() *fileIndex {
	f.indexOnce.Do(func() {
		ix := &fileIndex{
			refs:  make(map[*Var][]Expr),
			calls: make(map[*Method][]*Call),
		}
		Inspect(f, func(n Node) bool {
			switch x := n.(type) {
			case *Ident:
				if x.Var != nil {
					ix.refs[x.Var] = append(ix.refs[x.Var], x)
				}
			case *FieldAccess:
				if x.Var != nil {
					ix.refs[x.Var] = append(ix.refs[x.Var], x)
				}
			case *Call:
				if x.Method != nil {
					ix.calls[x.Method] = append(ix.calls[x.Method], x)
				}
			}
			return true
		})
		f.index = ix
	})
	return f.index
}

// References returns every expression in f bound to v, in source order.
func (f *File) References(v *Var) []Expr {
	return f.idx().refs[v]
}

// CallSites returns every call in f resolved to m, in source order.
func (f *File) CallSites(m *Method) []*Call {
	return f.idx().calls[m]
}
