package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dxr-dev/dxr/internal/config"
	"github.com/dxr-dev/dxr/internal/htmlify"
	"github.com/dxr-dev/dxr/internal/indexer"
	"github.com/dxr-dev/dxr/internal/plugins"
	"github.com/dxr-dev/dxr/internal/store"
)

// ErrFilesFailed is returned after the summary when some files could not be
// indexed or rendered.
var ErrFilesFailed = errors.New("some files failed")

// NewPluginRegistry builds the registry of the built-in plugins.
func NewPluginRegistry() *htmlify.Registry {
	return htmlify.BuildRegistry(plugins.Default()...)
}

type runFlags struct {
	jobs   int
	force  bool
	asJSON bool
}

func readRunFlags(cmd *cobra.Command) (runFlags, error) {
	var (
		f   runFlags
		err error
	)
	if f.jobs, err = JobsFlag(cmd); err != nil {
		return f, err
	}
	if f.force, err = OptionalBoolFlag(cmd, "force"); err != nil {
		return f, err
	}
	if f.asJSON, err = OptionalBoolFlag(cmd, "json"); err != nil {
		return f, err
	}
	return f, nil
}

func RunIndex(cmd *cobra.Command, args []string) error {
	flags, err := readRunFlags(cmd)
	if err != nil {
		return err
	}
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return err
	}
	trees, err := SelectTrees(cfg, args)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	registry := NewPluginRegistry()
	failed := 0
	for _, tree := range trees {
		summary, err := withTreeStore(ctx, tree, func(conn *store.Store) (RunSummary, error) {
			return IndexTree(ctx, tree, conn, registry, flags)
		})
		if err != nil {
			return err
		}
		failed += summary.Failed
		if err := PrintRunSummary(cmd.OutOrStdout(), summary, flags.asJSON); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d", ErrFilesFailed, failed)
	}
	return nil
}

// IndexTree indexes one tree into conn.
func IndexTree(ctx context.Context, tree *config.Tree, conn *store.Store, registry *htmlify.Registry, flags runFlags) (RunSummary, error) {
	progress := newProgressReporter("index "+tree.TreeName(), 0, flags.asJSON)
	stats, err := indexer.New(conn, registry).IndexTree(ctx, tree, indexer.Options{
		Jobs:     flags.jobs,
		Force:    flags.force,
		Progress: progress.Update,
	})
	if err != nil {
		return RunSummary{}, fmt.Errorf("index %s: %w", tree.TreeName(), err)
	}
	progress.Done(stats.Files)

	return RunSummary{
		Mode:        "index",
		Tree:        tree.TreeName(),
		SourceDir:   tree.SourceDir(),
		Files:       stats.Files,
		Indexed:     stats.Indexed,
		Unchanged:   stats.Unchanged,
		Skipped:     stats.Skipped,
		Deleted:     stats.Deleted,
		Failed:      stats.Failed,
		DurationMS:  stats.Duration.Milliseconds(),
		FailedFiles: stats.Errors,
	}, nil
}

func withTreeStore(ctx context.Context, tree *config.Tree, fn func(*store.Store) (RunSummary, error)) (summary RunSummary, err error) {
	start := time.Now()
	conn, err := OpenTreeStore(ctx, tree)
	if err != nil {
		return RunSummary{}, err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	summary, err = fn(conn)
	if summary.DurationMS == 0 {
		summary.DurationMS = time.Since(start).Milliseconds()
	}
	return summary, err
}
