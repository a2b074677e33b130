package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"typeguess/internal/config"
	gerrors "typeguess/internal/errors"
	"typeguess/internal/guess"
	"typeguess/internal/interp"
	"typeguess/internal/javasrc"
	"typeguess/internal/patterns"
	"typeguess/internal/srctree"
	"typeguess/internal/typesys"
)

// session holds everything a command needs to answer queries over a set
// of loaded files.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	types    *typesys.Hierarchy
	patterns *patterns.Table
	project  *srctree.Project
	loader   *javasrc.Loader
	guesser  *guess.Guesser
}

func newSession(c *config.Config, logger *slog.Logger) (*session, error) {
	types := typesys.Standard()
	for _, path := range c.Catalog.Files {
		if err := types.LoadCatalogFile(path); err != nil {
			return nil, gerrors.New(gerrors.InvalidConfig, "failed to load catalog", err)
		}
		logger.Debug("Loaded class catalog", "path", path)
	}

	table := patterns.Default()
	if c.Patterns.File != "" {
		if err := table.LoadFile(c.Patterns.File); err != nil {
			return nil, err
		}
		logger.Debug("Loaded method patterns", "path", c.Patterns.File, "patterns", table.Len())
	}

	project := srctree.NewProject()
	s := &session{
		cfg:      c,
		logger:   logger,
		types:    types,
		patterns: table,
		project:  project,
		loader:   javasrc.NewLoader(types, logger),
	}
	s.guesser = guess.New(guess.Options{
		Types:    types,
		Patterns: table,
		Interpreter: interp.New(types, interp.Options{
			MaxSteps: c.Interpreter.MaxSteps,
			Logger:   logger,
		}),
		Project:    project,
		Logger:     logger,
		MaxDepth:   c.Propagation.MaxDepth,
		MaxVisited: c.Propagation.MaxVisited,
	})
	return s, nil
}

// load parses the Java files named by paths, descending into directories,
// and adds them to the project.
func (s *session) load(ctx context.Context, paths ...string) ([]*srctree.File, error) {
	files, err := javaFiles(paths)
	if err != nil {
		return nil, err
	}
	loaded, err := s.loader.LoadFiles(ctx, files...)
	if err != nil {
		return nil, err
	}
	for _, f := range loaded {
		s.project.Replace(f)
	}
	s.logger.Info("Loaded sources", "files", len(loaded))
	return loaded, nil
}

func javaFiles(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, gerrors.New(gerrors.ParseFailed, "cannot read "+p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && path != p && d.Name()[0] == '.' {
				return filepath.SkipDir
			}
			if !d.IsDir() && javasrc.IsJavaFile(path) {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, gerrors.New(gerrors.ParseFailed, "cannot walk "+p, err)
		}
	}
	return out, nil
}

// exprAt loads paths and returns the innermost expression at the 1-based
// line:col position of the first, which must be a Java file. The other
// paths supply declarations the first file refers to.
func (s *session) exprAt(ctx context.Context, at string, paths ...string) (srctree.Expr, error) {
	file := paths[0]
	if !javasrc.IsJavaFile(file) {
		return nil, gerrors.Newf(gerrors.ExpressionNotFound, "%s is not a Java file", file)
	}
	line, col, err := javasrc.ParsePosition(at)
	if err != nil {
		return nil, err
	}
	files, err := s.load(ctx, paths...)
	if err != nil {
		return nil, err
	}
	f := files[0]
	off, err := javasrc.Offset(f.Source, line, col)
	if err != nil {
		return nil, err
	}
	e := srctree.ExprAt(f, off)
	if e == nil {
		return nil, gerrors.Newf(gerrors.ExpressionNotFound, "no expression at %s:%s", file, at)
	}
	return e, nil
}
