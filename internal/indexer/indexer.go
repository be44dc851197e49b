// Package indexer walks a source tree and records what the plugins extract
// from each file in the analysis store.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-enry/go-enry/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dxr-dev/dxr/internal/fileutil"
	"github.com/dxr-dev/dxr/internal/htmlify"
	"github.com/dxr-dev/dxr/internal/ignore"
	"github.com/dxr-dev/dxr/internal/logging"
	"github.com/dxr-dev/dxr/internal/plugins"
	"github.com/dxr-dev/dxr/internal/store"
)

// Tree is the part of the tree configuration the indexer reads.
type Tree interface {
	TreeName() string
	SourceDir() string
	IgnorePatterns() []string
}

// Options tunes one indexing run.
type Options struct {
	// Jobs bounds concurrent file analysis; zero means runtime.NumCPU().
	Jobs int
	// Force re-indexes files whose content hash is unchanged.
	Force bool
	// Progress, if set, is called after each file with the number done.
	Progress func(path string, done int)
}

// Statistics summarizes an indexing run.
type Statistics struct {
	Files     int           `json:"files"`
	Indexed   int           `json:"indexed"`
	Unchanged int           `json:"unchanged"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Deleted   int           `json:"deleted"`
	Duration  time.Duration `json:"duration"`
	Errors    []string      `json:"errors,omitempty"`
}

// Indexer runs the indexing plugins over a tree.
type Indexer struct {
	conn     *store.Store
	registry *htmlify.Registry
	plugins  []plugins.Indexer
}

func New(conn *store.Store, registry *htmlify.Registry) *Indexer {
	return &Indexer{
		conn:     conn,
		registry: registry,
		plugins:  plugins.Indexers(registry.Plugins()),
	}
}

type outcome int

const (
	outcomeIndexed outcome = iota
	outcomeUnchanged
	outcomeSkipped
)

// IndexTree indexes every file of the tree and forgets files that no longer
// exist. A file that fails is counted and logged; the run continues.
func (idx *Indexer) IndexTree(ctx context.Context, tree Tree, opts Options) (*Statistics, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).With(logging.FieldTree, tree.TreeName())

	files, err := Discover(tree.SourceDir(), tree.IgnorePatterns())
	if err != nil {
		return nil, err
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	var (
		indexed, unchanged, skipped, failed, done atomic.Int32
		mu                                        sync.Mutex
		errs                                      []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := idx.indexFile(gctx, tree.SourceDir(), rel, opts.Force)
			switch {
			case err != nil:
				if errors.Is(err, context.Canceled) {
					return err
				}
				failed.Add(1)
				logger.Warn("index failed", logging.FieldPath, rel, logging.FieldError, err)
				mu.Lock()
				errs = append(errs, fmt.Sprintf("%s: %v", rel, err))
				mu.Unlock()
			case result == outcomeUnchanged:
				unchanged.Add(1)
			case result == outcomeSkipped:
				skipped.Add(1)
			default:
				indexed.Add(1)
			}
			n := done.Add(1)
			if opts.Progress != nil {
				opts.Progress(rel, int(n))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	deleted, err := idx.prune(ctx, files)
	if err != nil {
		return nil, err
	}

	sort.Strings(errs)
	stats := &Statistics{
		Files:     len(files),
		Indexed:   int(indexed.Load()),
		Unchanged: int(unchanged.Load()),
		Skipped:   int(skipped.Load()),
		Failed:    int(failed.Load()),
		Deleted:   deleted,
		Duration:  time.Since(start),
		Errors:    errs,
	}
	logger.Info("index complete",
		logging.FieldFiles, stats.Files,
		logging.FieldIndexed, stats.Indexed,
		logging.FieldSkipped, stats.Skipped,
		logging.FieldFailed, stats.Failed,
		logging.FieldDuration, stats.Duration.Round(time.Millisecond))
	return stats, nil
}

func (idx *Indexer) indexFile(ctx context.Context, root, rel string, force bool) (outcome, error) {
	src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return 0, err
	}
	if enry.IsBinary(src) {
		return outcomeSkipped, nil
	}

	hash := fileutil.HashBytes(src)
	prev, err := idx.conn.File(ctx, rel)
	switch {
	case err == nil && prev.Hash == hash && !force:
		return outcomeUnchanged, nil
	case err == nil:
		// Drop stale blobs and symbols before re-indexing.
		if err := idx.conn.DeleteFile(ctx, rel); err != nil {
			return 0, err
		}
	case !errors.Is(err, store.ErrNotFound):
		return 0, err
	}

	// The hash is recorded only once every blob is stored, so a run that
	// fails halfway is retried instead of counted as unchanged.
	file := store.File{
		Path:     rel,
		Language: enry.GetLanguage(filepath.Base(rel), src),
		Lines:    len(htmlify.LineStarts(src)),
	}
	if err := idx.conn.PutFile(ctx, file); err != nil {
		return 0, err
	}

	if idx.registry.Match(rel).Matched {
		for _, p := range idx.plugins {
			data, err := p.IndexFile(ctx, rel, src, idx.conn)
			if err != nil {
				return 0, fmt.Errorf("%s: %w", p.Name(), err)
			}
			if data == nil {
				continue
			}
			if err := idx.conn.PutBlob(ctx, rel, p.Name(), data); err != nil {
				return 0, err
			}
		}
	}

	file.Hash = hash
	if err := idx.conn.PutFile(ctx, file); err != nil {
		return 0, err
	}
	return outcomeIndexed, nil
}

// prune removes stored files that were not seen on disk.
func (idx *Indexer) prune(ctx context.Context, seen []string) (int, error) {
	stored, err := idx.conn.Files(ctx)
	if err != nil {
		return 0, err
	}
	present := make(map[string]bool, len(seen))
	for _, rel := range seen {
		present[rel] = true
	}
	deleted := 0
	for _, f := range stored {
		if present[f.Path] {
			continue
		}
		if err := idx.conn.DeleteFile(ctx, f.Path); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// Discover lists the files under root that should be indexed, as sorted
// slash-separated paths relative to root.
func Discover(root string, patterns []string) ([]string, error) {
	matcher, err := ignore.Load(root, patterns)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if matcher.ShouldIgnore(rel, true) || enry.IsVendor(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if matcher.ShouldIgnore(rel, false) || enry.IsDotFile(rel) || enry.IsVendor(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}
