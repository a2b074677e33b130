package slogutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"typeguess/internal/config"
)

func TestRotatingFile_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "typeguess.log")

	rf, err := OpenRotatingFile(path, 0, 2)
	if err != nil {
		t.Fatalf("OpenRotatingFile() error = %v", err)
	}
	if _, err := rf.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := rf.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "hello\n" {
		t.Errorf("file = %q, %v", data, err)
	}
}

func TestRotatingFile_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typeguess.log")

	rf, err := OpenRotatingFile(path, 10, 2)
	if err != nil {
		t.Fatalf("OpenRotatingFile() error = %v", err)
	}
	defer rf.Close()

	for _, line := range []string{"first-1\n", "second2\n", "third-3\n", "fourth4\n"} {
		if _, err := rf.Write([]byte(line)); err != nil {
			t.Fatalf("Write(%q) error = %v", line, err)
		}
	}

	want := map[string]string{
		path:        "fourth4\n",
		path + ".1": "third-3\n",
		path + ".2": "second2\n",
	}
	for p, content := range want {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("ReadFile(%s) error = %v", p, err)
		}
		if string(data) != content {
			t.Errorf("%s = %q, want %q", filepath.Base(p), data, content)
		}
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Error("backup beyond maxBackups should not exist")
	}
}

func TestRotatingFile_NoBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typeguess.log")

	rf, err := OpenRotatingFile(path, 4, 0)
	if err != nil {
		t.Fatalf("OpenRotatingFile() error = %v", err)
	}
	_, _ = rf.Write([]byte("aaaa"))
	_, _ = rf.Write([]byte("bb"))
	_ = rf.Close()

	data, _ := os.ReadFile(path)
	if string(data) != "bb" {
		t.Errorf("file = %q, want bb", data)
	}
	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("no backup should be kept")
	}
}

func TestSetup(t *testing.T) {
	t.Run("stderr only", func(t *testing.T) {
		var stderr bytes.Buffer
		logger, closer, err := Setup(config.LoggingConfig{Format: "human", Level: "info"}, slog.LevelInfo, &stderr)
		if err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		defer closer.Close()

		logger.Info("ready")
		if !strings.Contains(stderr.String(), "[info] ready") {
			t.Errorf("stderr = %q", stderr.String())
		}
	})

	t.Run("file", func(t *testing.T) {
		var stderr bytes.Buffer
		path := filepath.Join(t.TempDir(), "watch.log")
		cfg := config.LoggingConfig{Format: "human", Level: "debug", File: path, MaxSizeMB: 1}

		logger, closer, err := Setup(cfg, slog.LevelWarn, &stderr)
		if err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		logger.Debug("reloaded")
		logger.Warn("parse failed")
		if err := closer.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		data, _ := os.ReadFile(path)
		if !strings.Contains(string(data), "reloaded") || !strings.Contains(string(data), "parse failed") {
			t.Errorf("log file = %q", data)
		}
		if strings.Contains(stderr.String(), "reloaded") || !strings.Contains(stderr.String(), "parse failed") {
			t.Errorf("stderr = %q", stderr.String())
		}
	})
}
