package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dxr-dev/dxr/internal/config"
	"github.com/dxr-dev/dxr/internal/htmlify"
	"github.com/dxr-dev/dxr/internal/logging"
	"github.com/dxr-dev/dxr/internal/store"
)

func RunRender(cmd *cobra.Command, args []string) error {
	flags, err := readRunFlags(cmd)
	if err != nil {
		return err
	}
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return err
	}
	tree, err := cfg.Tree(args[0])
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	paths := args[1:]
	summary, err := withTreeStore(ctx, tree, func(conn *store.Store) (RunSummary, error) {
		return RenderTree(ctx, tree, conn, NewPluginRegistry(), paths, flags)
	})
	if err != nil {
		return err
	}
	if err := PrintRunSummary(cmd.OutOrStdout(), summary, flags.asJSON); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d", ErrFilesFailed, summary.Failed)
	}
	return nil
}

// PagePath is where the page of rel is written.
func PagePath(tree *config.Tree, rel string) string {
	return filepath.Join(tree.OutputDir(), filepath.FromSlash(rel)+".html")
}

// RenderTree renders paths, or every indexed file when paths is empty.
// A file that fails is counted and logged; the run continues.
func RenderTree(ctx context.Context, tree *config.Tree, conn *store.Store, registry *htmlify.Registry, paths []string, flags runFlags) (RunSummary, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).With(logging.FieldTree, tree.TreeName())

	if len(paths) == 0 {
		files, err := conn.Files(ctx)
		if err != nil {
			return RunSummary{}, err
		}
		for _, f := range files {
			paths = append(paths, f.Path)
		}
	}

	renderer := &htmlify.Renderer{
		Registry: registry,
		Session:  htmlify.NewSession(logger),
		Conn:     conn,
	}
	progress := newProgressReporter("render "+tree.TreeName(), len(paths), flags.asJSON)

	var (
		rendered, done atomic.Int32
		mu             sync.Mutex
		failed         []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(flags.jobs, 1))
	for _, rel := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			blob, err := conn.Blob(gctx, rel)
			switch {
			case errors.Is(err, store.ErrNotFound):
				logger.Debug("file not indexed, rendering without annotations", logging.FieldPath, rel)
				blob = nil
			case err != nil:
				return err
			}

			err = renderer.RenderFile(gctx, tree, rel, PagePath(tree, rel), htmlify.Blob(blob))
			switch {
			case errors.Is(err, context.Canceled):
				return err
			case err != nil:
				logger.Warn("render failed", logging.FieldPath, rel, logging.FieldError, err)
				mu.Lock()
				failed = append(failed, rel)
				mu.Unlock()
			default:
				rendered.Add(1)
			}
			progress.Update(rel, int(done.Add(1)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RunSummary{}, fmt.Errorf("render %s: %w", tree.TreeName(), err)
	}
	progress.Done(len(paths))

	sort.Strings(failed)
	summary := RunSummary{
		Mode:        "render",
		Tree:        tree.TreeName(),
		SourceDir:   tree.SourceDir(),
		OutputDir:   tree.OutputDir(),
		Files:       len(paths),
		Rendered:    int(rendered.Load()),
		Failed:      len(failed),
		DurationMS:  time.Since(start).Milliseconds(),
		FailedFiles: failed,
	}
	logger.Info("render complete",
		logging.FieldFiles, summary.Files,
		logging.FieldRendered, summary.Rendered,
		logging.FieldFailed, summary.Failed,
		logging.FieldJobs, flags.jobs)
	return summary, nil
}
