package javasrc

import (
	"testing"

	gerrors "typeguess/internal/errors"
)

func TestOffset(t *testing.T) {
	src := []byte("class A {\n  int x;\n}\n")
	tests := []struct {
		line, col int
		want      int
		wantErr   bool
	}{
		{1, 1, 0, false},
		{2, 3, 12, false},
		{3, 1, 19, false},
		{2, 99, 0, true},
		{9, 1, 0, true},
		{0, 1, 0, true},
	}

	for _, tt := range tests {
		got, err := Offset(src, tt.line, tt.col)
		if tt.wantErr {
			if !gerrors.HasCode(err, gerrors.ExpressionNotFound) {
				t.Errorf("Offset(%d:%d) err = %v, want EXPRESSION_NOT_FOUND", tt.line, tt.col, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Offset(%d:%d) = %d, %v; want %d", tt.line, tt.col, got, err, tt.want)
		}
	}
}

func TestParsePosition(t *testing.T) {
	line, col, err := ParsePosition("12:7")
	if err != nil || line != 12 || col != 7 {
		t.Errorf("ParsePosition = %d, %d, %v", line, col, err)
	}
	if _, _, err := ParsePosition("twelve"); err == nil {
		t.Error("expected an error for a malformed position")
	}
}

func TestIsJavaFile(t *testing.T) {
	for path, want := range map[string]bool{
		"src/A.java": true,
		"B.JAVA":     true,
		"c.kt":       false,
		"java":       false,
	} {
		if got := IsJavaFile(path); got != want {
			t.Errorf("IsJavaFile(%q) = %v", path, got)
		}
	}
}
