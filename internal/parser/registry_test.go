package parser

import (
	"encoding/json"
	"reflect"
	"testing"
)

type mockAnalyzer struct {
	lang string
	exts []string
}

func (m mockAnalyzer) Language() string {
	return m.lang
}

func (m mockAnalyzer) Extensions() []string {
	return m.exts
}

func (m mockAnalyzer) Analyze(filename string, content []byte) (*FileAnalysis, error) {
	return &FileAnalysis{
		Language: m.lang,
		Symbols: []Symbol{
			{Name: "second", Kind: SymbolFunction, Line: 9},
			{Name: "first", Kind: SymbolFunction, Line: 1},
		},
		Tokens: []Token{
			{Span: Span{Start: Point{Row: 2, Col: 0}, End: Point{Row: 2, Col: 3}}, Class: TokenKeyword},
			{Span: Span{Start: Point{Row: 0, Col: 4}, End: Point{Row: 0, Col: 6}}, Class: TokenComment},
		},
	}, nil
}

func TestRegistryForFile(t *testing.T) {
	r := NewRegistry()
	r.Register(mockAnalyzer{lang: "mock", exts: []string{".mock"}})

	a, ok := r.ForFile("demo.MOCK")
	if !ok {
		t.Fatalf("expected analyzer for .MOCK extension")
	}
	if a.Language() != "mock" {
		t.Fatalf("expected language mock, got %s", a.Language())
	}
	if _, ok := r.ForFile("demo.txt"); ok {
		t.Fatalf("did not expect analyzer for .txt")
	}
}

func TestRegistryAnalyzeNormalizesOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(mockAnalyzer{lang: "mock", exts: []string{".mock", ".mk"}})

	got, err := r.Analyze("src/a.mock", nil)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if got.Path != "src/a.mock" {
		t.Fatalf("expected path to be set, got %q", got.Path)
	}
	if got.Symbols[0].Name != "first" {
		t.Fatalf("expected symbols sorted by line, got %#v", got.Symbols)
	}
	if got.Tokens[0].Class != TokenComment {
		t.Fatalf("expected tokens sorted by position, got %#v", got.Tokens)
	}

	if exts := r.SupportedExtensions(); !reflect.DeepEqual(exts, []string{".mk", ".mock"}) {
		t.Fatalf("unexpected extensions %v", exts)
	}
}

func TestRegistryAnalyzeUnsupported(t *testing.T) {
	got, err := NewRegistry().Analyze("README", []byte("x"))
	if err != nil || got != nil {
		t.Fatalf("expected nil result for unsupported file, got %#v, %v", got, err)
	}
}

func TestSymbolKindJSON(t *testing.T) {
	data, err := json.Marshal(Symbol{Name: "Run", Kind: SymbolMethod, Line: 3})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var back Symbol
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.Kind != SymbolMethod {
		t.Fatalf("expected method kind, got %v", back.Kind)
	}

	if err := json.Unmarshal([]byte(`{"kind":"bogus"}`), &back); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
