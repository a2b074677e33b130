// Package javasrc turns Java source into srctree form. Parsing uses
// tree-sitter and therefore needs cgo; without it every parse reports
// PARSE_FAILED.
//
// Declarations of all files handed to one Load call are collected before
// any body is lowered, so calls and field accesses resolve across those
// files. Declared classes are registered in the type hierarchy.
package javasrc

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	gerrors "typeguess/internal/errors"
)

// Source is one file to load.
type Source struct {
	Path string
	Data []byte
}

// IsJavaFile reports whether path names a Java source file.
func IsJavaFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".java")
}

// Offset converts a 1-based line and column into a byte offset in src.
// Columns count bytes.
func Offset(src []byte, line, col int) (int, error) {
	if line < 1 || col < 1 {
		return 0, gerrors.Newf(gerrors.ExpressionNotFound, "invalid position %d:%d", line, col)
	}
	off := 0
	for l := 1; l < line; l++ {
		i := bytes.IndexByte(src[off:], '\n')
		if i < 0 {
			return 0, gerrors.Newf(gerrors.ExpressionNotFound, "line %d is past the end of the file", line)
		}
		off += i + 1
	}
	end := bytes.IndexByte(src[off:], '\n')
	if end < 0 {
		end = len(src) - off
	}
	if col-1 > end {
		return 0, gerrors.Newf(gerrors.ExpressionNotFound, "column %d is past the end of line %d", col, line)
	}
	return off + col - 1, nil
}

// ParsePosition reads "line:col".
func ParsePosition(s string) (line, col int, err error) {
	if _, err := fmt.Sscanf(s, "%d:%d", &line, &col); err != nil {
		return 0, 0, gerrors.Newf(gerrors.ExpressionNotFound, "invalid position %q, want line:col", s)
	}
	return line, col, nil
}
