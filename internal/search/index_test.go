package search

import (
	"context"
	"reflect"
	"testing"

	"github.com/dxr-dev/dxr/internal/store"
)

func TestSearchRanksSymbolNameMatches(t *testing.T) {
	index := Build([]store.Symbol{
		{Name: "ResolveImports", Kind: "func", Path: "internal/parser/parser.go", Line: 40, Signature: "func ResolveImports(path string)"},
		{Name: "ParseDirectory", Kind: "func", Path: "internal/parser/parser.go", Line: 10, Signature: "func ParseDirectory(root string)"},
	})

	results := index.Search("parse directory", 5)
	if len(results) == 0 {
		t.Fatalf("expected results for camel-case parts")
	}
	if results[0].Symbol.Name != "ParseDirectory" {
		t.Fatalf("expected ParseDirectory to rank first, got %#v", results)
	}
}

func TestSearchContainerMatches(t *testing.T) {
	index := Build([]store.Symbol{
		{Name: "Run", Kind: "method", Path: "a.go", Line: 3, Container: "Worker"},
		{Name: "Stop", Kind: "method", Path: "a.go", Line: 9, Container: "Server"},
	})

	results := index.Search("worker", 5)
	if len(results) != 1 || results[0].Symbol.Name != "Run" {
		t.Fatalf("expected Worker.Run, got %#v", results)
	}
}

func TestSearchTypoFallback(t *testing.T) {
	index := Build([]store.Symbol{
		{Name: "ParseDirectory", Kind: "func", Path: "p.go", Line: 1},
		{Name: "Close", Kind: "func", Path: "p.go", Line: 9},
	})

	results := index.Search("Parsedirectary", 3)
	if len(results) != 1 {
		t.Fatalf("expected one typo fallback result, got %#v", results)
	}
	if results[0].Symbol.Name != "ParseDirectory" {
		t.Fatalf("expected typo fallback to pick ParseDirectory, got %#v", results)
	}
}

func TestSearchDeterministicOrdering(t *testing.T) {
	index := Build([]store.Symbol{
		{Name: "alpha", Kind: "var", Path: "b.go", Line: 1},
		{Name: "alpha", Kind: "var", Path: "a.go", Line: 1},
	})

	results := index.Search("alpha", 2)
	if len(results) != 2 {
		t.Fatalf("expected two results, got %d", len(results))
	}
	if results[0].Symbol.Path != "a.go" || results[1].Symbol.Path != "b.go" {
		t.Fatalf("expected stable tie-break by path, got %#v", results)
	}
}

func TestSearchLimitAndEmptyQuery(t *testing.T) {
	symbols := make([]store.Symbol, 0, 20)
	for i := range 20 {
		symbols = append(symbols, store.Symbol{Name: "handler", Kind: "func", Path: "h.go", Line: i + 1})
	}
	index := Build(symbols)

	if got := len(index.Search("handler", 0)); got != DefaultLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultLimit, got)
	}
	if got := index.Search("  ", 5); got != nil {
		t.Fatalf("expected no results for blank query, got %#v", got)
	}
	var empty *Index
	if got := empty.Search("handler", 5); got != nil {
		t.Fatalf("expected nil index to return nothing, got %#v", got)
	}
}

func TestTokenize(t *testing.T) {
	cases := map[string][]string{
		"HTTPServerConfig": {"httpserverconfig", "http", "server", "config"},
		"parse_dir":        {"parse_dir", "parse", "dir"},
		"func Run() error": {"func", "run", "error"},
		"internal/a/b.go":  {"internal", "a", "b", "go"},
		"":                 nil,
	}
	for input, want := range cases {
		if got := tokenize(input); !reflect.DeepEqual(got, want) {
			t.Fatalf("tokenize(%q) = %#v, want %#v", input, got, want)
		}
	}
}

func TestLoadFromStore(t *testing.T) {
	ctx := context.Background()
	conn, err := store.Open(ctx, store.MemoryPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer conn.Close()

	if err := conn.PutFile(ctx, store.File{Path: "main.go"}); err != nil {
		t.Fatalf("put file: %v", err)
	}
	if err := conn.ReplaceSymbols(ctx, "main.go", []store.Symbol{{Name: "loadConfig", Kind: "func", Line: 12}}); err != nil {
		t.Fatalf("replace symbols: %v", err)
	}

	index, err := Load(ctx, conn)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	results := index.Search("config", 5)
	if len(results) != 1 || results[0].Symbol.Path != "main.go" || results[0].Symbol.Line != 12 {
		t.Fatalf("expected loadConfig from main.go:12, got %#v", results)
	}
}
