// Package plugins assembles the built-in annotation providers.
package plugins

import (
	"context"

	"github.com/dxr-dev/dxr/internal/fileutil"
	"github.com/dxr-dev/dxr/internal/htmlify"
	"github.com/dxr-dev/dxr/internal/languages"
	"github.com/dxr-dev/dxr/internal/plugins/markdown"
	"github.com/dxr-dev/dxr/internal/plugins/plaintext"
	"github.com/dxr-dev/dxr/internal/plugins/todo"
	"github.com/dxr-dev/dxr/internal/plugins/treesitter"
	"github.com/dxr-dev/dxr/internal/store"
)

// Indexer is implemented by plugins that analyze files at index time. The
// returned bytes become the plugin's entry in the file's blob; nil stores
// nothing.
type Indexer interface {
	Name() string
	IndexFile(ctx context.Context, path string, src []byte, conn *store.Store) ([]byte, error)
}

// Default returns the built-in plugins in registration order. The TODO
// scanner is appended to every ending the others declare.
func Default() []htmlify.Plugin {
	base := []htmlify.Plugin{
		treesitter.New(languages.NewDefaultRegistry()),
		markdown.New(),
		plaintext.New(),
	}
	return append(base, todo.New(Endings(base)...))
}

// Endings lists the distinct endings declared by plugins, in order.
func Endings(plugins []htmlify.Plugin) []string {
	var endings []string
	for _, p := range plugins {
		for _, h := range p.Htmlifiers() {
			endings = append(endings, h.Ending)
		}
	}
	return fileutil.DedupeStrings(endings)
}

// Indexers returns the plugins that implement Indexer.
func Indexers(plugins []htmlify.Plugin) []Indexer {
	var out []Indexer
	for _, p := range plugins {
		if idx, ok := p.(Indexer); ok {
			out = append(out, idx)
		}
	}
	return out
}
