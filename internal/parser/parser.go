package parser

import (
	"path/filepath"
	"sort"
	"strings"
)

// Analyzer is implemented by each supported language.
type Analyzer interface {
	// Language returns the language name (e.g., "go", "python")
	Language() string

	// Extensions returns file extensions this analyzer handles
	Extensions() []string

	// Analyze extracts symbols, highlight tokens and references from source.
	Analyze(filename string, content []byte) (*FileAnalysis, error)
}

// Registry holds all registered language analyzers
type Registry struct {
	analyzers map[string]Analyzer // language name -> analyzer
	extToLang map[string]string   // extension -> language name
}

// NewRegistry creates a new analyzer registry
func NewRegistry() *Registry {
	return &Registry{
		analyzers: make(map[string]Analyzer),
		extToLang: make(map[string]string),
	}
}

// Register adds a language analyzer to the registry
func (r *Registry) Register(a Analyzer) {
	lang := a.Language()
	r.analyzers[lang] = a
	for _, ext := range a.Extensions() {
		r.extToLang[strings.ToLower(ext)] = lang
	}
}

// ForFile returns the analyzer for a file, matched by extension.
func (r *Registry) ForFile(filename string) (Analyzer, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	lang, ok := r.extToLang[ext]
	if !ok {
		return nil, false
	}
	a, ok := r.analyzers[lang]
	return a, ok
}

// SupportedExtensions returns all supported file extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.extToLang))
	for ext := range r.extToLang {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Analyze runs the matching analyzer on content. Unsupported files yield
// nil without error.
func (r *Registry) Analyze(path string, content []byte) (*FileAnalysis, error) {
	a, ok := r.ForFile(path)
	if !ok {
		return nil, nil
	}

	result, err := a.Analyze(path, content)
	if err != nil {
		return nil, err
	}
	result.Path = path
	normalize(result)
	return result, nil
}

func normalize(result *FileAnalysis) {
	sort.SliceStable(result.Symbols, func(i, j int) bool {
		return result.Symbols[i].Line < result.Symbols[j].Line
	})
	sort.SliceStable(result.Tokens, func(i, j int) bool {
		return pointLess(result.Tokens[i].Start, result.Tokens[j].Start)
	})
	sort.SliceStable(result.References, func(i, j int) bool {
		return pointLess(result.References[i].Start, result.References[j].Start)
	})
}

func pointLess(a, b Point) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Col < b.Col
}
