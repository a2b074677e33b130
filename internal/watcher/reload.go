package watcher

import (
	"context"
	"log/slog"

	"typeguess/internal/srctree"
)

// Loader lowers Java files into source trees.
type Loader interface {
	LoadFiles(ctx context.Context, paths ...string) ([]*srctree.File, error)
}

// Reload returns a handler that applies each batch to project: deleted
// and renamed-away files are removed, created and modified files are
// parsed again and replace their previous tree. Replacing a file notifies
// the project's change listeners, which drops cached results for it.
func Reload(ctx context.Context, loader Loader, project *srctree.Project, logger *slog.Logger) ChangeHandler {
	return func(events []Event) {
		var changed []string
		for _, ev := range events {
			switch ev.Type {
			case EventDelete, EventRename:
				project.Remove(ev.Path)
			default:
				changed = append(changed, ev.Path)
			}
		}
		if len(changed) == 0 {
			return
		}

		files, err := loader.LoadFiles(ctx, changed...)
		if err != nil {
			logger.Warn("Failed to reload sources", "files", len(changed), "error", err)
			return
		}
		for _, f := range files {
			project.Replace(f)
		}
		logger.Info("Reloaded sources", "files", len(files), "removed", len(events)-len(changed))
	}
}
