package bench

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/dxr-dev/dxr/internal/config"
	"github.com/dxr-dev/dxr/internal/htmlify"
	"github.com/dxr-dev/dxr/internal/indexer"
	"github.com/dxr-dev/dxr/internal/plugins"
	"github.com/dxr-dev/dxr/internal/store"
)

func BenchmarkIndexTree_MediumRepo(b *testing.B) {
	tree := syntheticTree(b, 250)
	registry := htmlify.BuildRegistry(plugins.Default()...)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		conn, err := store.Open(ctx, store.MemoryPath)
		if err != nil {
			b.Fatalf("open store: %v", err)
		}
		stats, err := indexer.New(conn, registry).IndexTree(ctx, tree, indexer.Options{})
		if err != nil {
			b.Fatalf("index failed: %v", err)
		}
		if stats.Indexed == 0 {
			b.Fatalf("expected indexed files")
		}
		_ = conn.Close()
	}
}

func BenchmarkRender_MediumRepo(b *testing.B) {
	tree := syntheticTree(b, 250)
	registry := htmlify.BuildRegistry(plugins.Default()...)
	ctx := context.Background()

	conn, err := store.Open(ctx, store.MemoryPath)
	if err != nil {
		b.Fatalf("open store: %v", err)
	}
	defer conn.Close()
	if _, err := indexer.New(conn, registry).IndexTree(ctx, tree, indexer.Options{}); err != nil {
		b.Fatalf("index failed: %v", err)
	}

	rel := filepath.Join("pkg0", "file_000.go")
	source, err := os.ReadFile(filepath.Join(tree.SourceDir(), rel))
	if err != nil {
		b.Fatalf("read failed: %v", err)
	}
	blob, err := conn.Blob(ctx, rel)
	if err != nil {
		b.Fatalf("blob failed: %v", err)
	}

	renderer := &htmlify.Renderer{Registry: registry, Session: htmlify.NewSession(nil), Conn: conn}
	page := htmlify.Page{Source: source, Path: rel}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out, err := renderer.Render(ctx, tree, page, blob)
		if err != nil {
			b.Fatalf("render failed: %v", err)
		}
		if len(out) == 0 {
			b.Fatalf("expected page output")
		}
	}
}

func syntheticTree(tb testing.TB, files int) *config.Tree {
	tb.Helper()

	root := tb.TempDir()
	createSyntheticGoRepo(tb, filepath.Join(root, "src"), files)

	cfg, err := config.Parse([]byte("trees:\n  - name: bench\n    sourcedir: src\n"), root)
	if err != nil {
		tb.Fatalf("config failed: %v", err)
	}
	tree, err := cfg.Tree("bench")
	if err != nil {
		tb.Fatalf("tree failed: %v", err)
	}
	return tree
}

func createSyntheticGoRepo(tb testing.TB, root string, files int) {
	tb.Helper()

	for i := 0; i < files; i++ {
		dir := filepath.Join(root, fmt.Sprintf("pkg%d", i%10))
		if err := os.MkdirAll(dir, 0755); err != nil {
			tb.Fatalf("mkdir failed: %v", err)
		}

		filePath := filepath.Join(dir, fmt.Sprintf("file_%03d.go", i))
		src := fmt.Sprintf(`package pkg%d

// TODO: drop helper%d once callers inline it
func Func%d() int {
	return helper%d()
}

func helper%d() int {
	return %d
}
`, i%10, i, i, i, i, i)

		if err := os.WriteFile(filePath, []byte(src), 0644); err != nil {
			tb.Fatalf("write failed: %v", err)
		}
	}
}
