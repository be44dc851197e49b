package htmlify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/dxr-dev/dxr/internal/fileutil"
	"github.com/dxr-dev/dxr/internal/logging"
	"github.com/dxr-dev/dxr/internal/store"
)

// Renderer turns indexed files into HTML pages. A Renderer may be shared
// by concurrent callers rendering different files. Session should be set
// so notices and the revision are shared across pages.
type Renderer struct {
	Registry *Registry
	Session  *Session
	Conn     *store.Store
}

// RenderFile renders relPath (relative to the tree's source directory) with
// the given blob and writes the page to dstPath, overwriting it.
func (r *Renderer) RenderFile(ctx context.Context, tree TreeConfig, relPath, dstPath string, blob Blob) error {
	source, err := os.ReadFile(filepath.Join(tree.SourceDir(), relPath))
	if err != nil {
		r.logger().Debug("source unavailable, rendering without body",
			logging.FieldPath, relPath, logging.FieldError, err)
		source = nil
	}

	doc, err := r.Render(ctx, tree, Page{Source: source, Path: relPath}, blob)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFile(dstPath, doc); err != nil {
		return fmt.Errorf("write %s: %w", dstPath, err)
	}
	return nil
}

func (r *Renderer) logger() *log.Logger {
	if r.Session != nil && r.Session.Logger != nil {
		return r.Session.Logger
	}
	return logging.Default()
}

// Render selects the producers for page.Path and builds the document.
func (r *Renderer) Render(ctx context.Context, tree TreeConfig, page Page, blob Blob) ([]byte, error) {
	sel := r.Registry.Match(page.Path)
	streams := sel.Streams(FileInput{
		Context: ctx,
		Blob:    blob,
		Path:    page.Path,
		Tree:    tree,
		Conn:    r.Conn,
	})
	return NewBuilder(tree, page, streams, r.Session).Build(ctx, sel.InhibitSidebar)
}
