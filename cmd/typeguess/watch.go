package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"typeguess/internal/srctree"
	"typeguess/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Re-scan Java files as they change",
	Long: `Load every Java file under dir, then watch it. Each debounced batch of
changes reloads the affected files and scans them again. Stop with Ctrl-C.

Examples:
  typeguess watch src/`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	s, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	if _, err := s.load(ctx, args[0]); err != nil {
		return err
	}

	wcfg := watcher.DefaultConfig()
	wcfg.DebounceMs = cfg.Watch.DebounceMs
	reload := watcher.Reload(ctx, s.loader, s.project, logger)

	w, err := watcher.New(wcfg, logger, func(events []watcher.Event) {
		reload(events)
		rescan(ctx, cmd, s, events)
	})
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Watch(args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl-C to stop)\n", args[0])
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// rescan scans the files of a batch that are still in the project.
func rescan(ctx context.Context, cmd *cobra.Command, s *session, events []watcher.Event) {
	var files []*srctree.File
	for _, ev := range events {
		if f := s.project.File(ev.Path); f != nil {
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return
	}
	results, err := scanFiles(ctx, s.guesser, s.patterns, files, cfg.Scan.Workers)
	if err != nil {
		logger.Warn("Scan after change failed", "error", err)
		return
	}
	if err := printResponse(cmd.OutOrStdout(), &ScanResponseCLI{Files: len(files), Results: results}); err != nil {
		logger.Warn("Failed to print results", "error", err)
	}
}
