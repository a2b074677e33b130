package slogutil

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLineHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLineHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("Element type guessed", "types", 2, "expr", "list.get(0)")

	line := strings.TrimSuffix(buf.String(), "\n")
	if !strings.Contains(line, " [info] Element type guessed | ") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.HasSuffix(line, `types=2 expr=list.get(0)`) {
		t.Errorf("attributes not rendered: %q", line)
	}
}

func TestLineHandler_Levels(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "[debug]"},
		{slog.LevelInfo, "[info]"},
		{slog.LevelWarn, "[warn]"},
		{slog.LevelError, "[error]"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var buf bytes.Buffer
			h := NewLineHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
			slog.New(h).Log(context.Background(), tt.level, "msg")
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("got %q, want %s", buf.String(), tt.want)
			}
		})
	}
}

func TestLineHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLineHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("records below warn were written: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn record missing: %q", buf.String())
	}
}

func TestLineHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLineHandler(&buf, nil)).
		With("file", "Main.java").
		WithGroup("query")

	logger.Info("Resolved", "op", "cast", slog.Group("pos", "line", 3, "col", 9), "note", "two words")

	got := buf.String()
	for _, want := range []string{
		"| file=Main.java query.op=cast",
		"query.pos.line=3 query.pos.col=9",
		`query.note="two words"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %q", got, want)
		}
	}
}

func TestLineHandler_NoAttrs(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewLineHandler(&buf, nil)).Info("plain")
	if strings.Contains(buf.String(), "|") {
		t.Errorf("separator written without attributes: %q", buf.String())
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo, "json").Info("scan finished", "files", 4)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "scan finished" || rec["files"] != float64(4) {
		t.Errorf("record = %v", rec)
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := LevelFromString(tt.in); got != tt.want {
			t.Errorf("LevelFromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		quiet     bool
		want      slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{5, false, slog.LevelDebug},
		{2, true, LevelSilent},
	}

	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.verbosity, tt.quiet); got != tt.want {
			t.Errorf("LevelFromVerbosity(%d, %v) = %v, want %v", tt.verbosity, tt.quiet, got, tt.want)
		}
	}
}

func TestNewDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger should not be enabled at error")
	}
}

func TestTeeHandler(t *testing.T) {
	var all, warn bytes.Buffer
	tee := NewTeeHandler(
		NewLineHandler(&all, &slog.HandlerOptions{Level: slog.LevelDebug}),
		NewLineHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	logger := slog.New(tee).With("k", "v")

	logger.Debug("detail")
	logger.Warn("careful")

	if !strings.Contains(all.String(), "detail") || !strings.Contains(all.String(), "careful") {
		t.Errorf("debug handler output = %q", all.String())
	}
	if strings.Contains(warn.String(), "detail") || !strings.Contains(warn.String(), "careful | k=v") {
		t.Errorf("warn handler output = %q", warn.String())
	}
	if tee.Enabled(context.Background(), slog.LevelDebug-1) {
		t.Error("tee enabled below every handler's level")
	}
}
