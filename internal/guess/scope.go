package guess

import (
	gerrors "typeguess/internal/errors"
	"typeguess/internal/srctree"
)

// ErrNoScope is returned by EnclosingBlock for nodes outside any method
// body, initializer or snippet fragment.
var ErrNoScope = gerrors.New(gerrors.NoScope, "no analyzable enclosing block", nil)

// EnclosingBlock returns the outermost block that forms one analysis unit
// around n: the body of the enclosing method, a class initializer, or the
// top-level fragment of a detached snippet. Nested blocks inside a method
// body are not analysis units on their own.
func EnclosingBlock(n srctree.Node) (*srctree.Block, error) {
	for n != nil {
		b, isBlock := n.(*srctree.Block)
		switch p := n.Parent().(type) {
		case *srctree.Method:
			if isBlock && p.Body == b {
				return b, nil
			}
			return nil, ErrNoScope
		case *srctree.Class:
			if isBlock {
				return b, nil
			}
			return nil, ErrNoScope
		case *srctree.File:
			if isBlock && p.Fragment == b {
				return b, nil
			}
			return nil, ErrNoScope
		case nil:
			return nil, ErrNoScope
		}
		n = n.Parent()
	}
	return nil, ErrNoScope
}
