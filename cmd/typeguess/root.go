package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"typeguess/internal/config"
	"typeguess/internal/slogutil"
	"typeguess/internal/version"
)

var (
	rootDir     string
	formatFlag  string
	verbosity   int
	quiet       bool
	catalogs    []string
	patternFile string
)

// Populated by the root command's pre-run hook.
var (
	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "typeguess",
	Short: "Guess the runtime types of Java expressions",
	Long: `typeguess proposes the most specific runtime types a Java expression may
have. It answers three questions: what a raw container holds, what an
expression should be cast to, and which types a variable is known to have
at a point in the control flow.`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func init() {
	rootCmd.SetVersionTemplate("typeguess {{.Version}}\n")
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootDir, "root", ".", "Project root holding .typeguess/config.*")
	pf.StringVar(&formatFlag, "format", "auto", "Output format (json, yaml, human, auto)")
	pf.CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Suppress all logs")
	pf.StringSliceVar(&catalogs, "catalog", nil, "Extra class catalog files (TOML)")
	pf.StringVar(&patternFile, "patterns", "", "Extra method pattern file (TOML)")
}

func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.LoadConfig(rootDir)
	if err != nil {
		return err
	}
	c.Catalog.Files = append(c.Catalog.Files, catalogs...)
	if patternFile != "" {
		c.Patterns.File = patternFile
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if _, err := parseFormat(formatFlag); err != nil {
		return err
	}

	// logging.level applies to the log file; the console follows -v and -q.
	level := slogutil.LevelFromVerbosity(verbosity, quiet)
	l, closer, err := slogutil.Setup(c.Logging, level, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	cfg, logger, logCloser = c, l, closer
	slog.SetDefault(logger)
	return nil
}
