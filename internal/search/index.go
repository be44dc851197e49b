// Package search ranks the symbols of a tree against free-text queries with
// BM25, falling back to edit distance on symbol names for typos.
package search

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/dxr-dev/dxr/internal/store"
)

const (
	k1 = 1.2
	b  = 0.75

	// DefaultLimit caps results when the caller passes no limit.
	DefaultLimit = 10
)

type Document struct {
	Symbol store.Symbol
	Length int
	Terms  map[string]int
}

type Index struct {
	AvgDocLength float64
	DocFreq      map[string]int
	Documents    []Document
}

type Result struct {
	Symbol store.Symbol `json:"symbol"`
	Score  float64      `json:"score"`
}

// Build indexes symbols. Names weigh most, then containers and
// signatures, then paths.
func Build(symbols []store.Symbol) *Index {
	index := &Index{DocFreq: make(map[string]int)}
	totalLength := 0
	for _, sym := range symbols {
		terms := make(map[string]int)
		addWeighted(terms, sym.Name, 4)
		addWeighted(terms, sym.Container, 2)
		addWeighted(terms, sym.Signature, 2)
		addWeighted(terms, sym.Path, 1)

		length := 0
		for _, count := range terms {
			length += count
		}
		if length == 0 {
			continue
		}
		index.Documents = append(index.Documents, Document{Symbol: sym, Length: length, Terms: terms})
		totalLength += length
		for term := range terms {
			index.DocFreq[term]++
		}
	}
	if len(index.Documents) > 0 {
		index.AvgDocLength = float64(totalLength) / float64(len(index.Documents))
	}
	return index
}

// Load builds the index from the symbol table of conn.
func Load(ctx context.Context, conn *store.Store) (*Index, error) {
	symbols, err := conn.Symbols(ctx)
	if err != nil {
		return nil, err
	}
	return Build(symbols), nil
}

func (idx *Index) Search(query string, limit int) []Result {
	if idx == nil || len(idx.Documents) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	terms := unique(tokenize(query))
	if len(terms) == 0 {
		return nil
	}

	n := float64(len(idx.Documents))
	avgLen := idx.AvgDocLength
	if avgLen <= 0 {
		avgLen = 1
	}

	var results []Result
	for _, doc := range idx.Documents {
		score := 0.0
		docLen := float64(doc.Length)
		for _, term := range terms {
			tf := float64(doc.Terms[term])
			df := float64(idx.DocFreq[term])
			if tf <= 0 || df <= 0 {
				continue
			}
			idf := math.Log(1.0 + ((n - df + 0.5) / (df + 0.5)))
			score += idf * (tf * (k1 + 1.0)) / (tf + k1*(1.0-b+b*(docLen/avgLen)))
		}
		if score > 0 {
			results = append(results, Result{Symbol: doc.Symbol, Score: score})
		}
	}
	if len(results) == 0 {
		results = fuzzyNameFallback(idx.Documents, query)
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		x, y := results[i], results[j]
		if x.Score != y.Score {
			return x.Score > y.Score
		}
		if x.Symbol.Path != y.Symbol.Path {
			return x.Symbol.Path < y.Symbol.Path
		}
		if x.Symbol.Line != y.Symbol.Line {
			return x.Symbol.Line < y.Symbol.Line
		}
		return x.Symbol.Name < y.Symbol.Name
	})
}

func addWeighted(terms map[string]int, value string, weight int) {
	for _, token := range tokenize(value) {
		terms[token] += weight
	}
}

// tokenize lowercases value into identifier words. Mixed-case words also
// yield their camel-case parts, so "ParseDirectory" matches "parse".
func tokenize(value string) []string {
	var tokens []string
	words := strings.FieldsFunc(value, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	for _, word := range words {
		tokens = append(tokens, strings.ToLower(word))
		parts := splitCamel(word)
		if len(parts) > 1 {
			tokens = append(tokens, parts...)
		}
	}
	return tokens
}

// splitCamel splits "HTTPServerConfig" into http, server, config.
func splitCamel(word string) []string {
	runes := []rune(word)
	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := unicode.IsLower(prev) && unicode.IsUpper(cur) ||
			unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) ||
			cur == '_'
		if !boundary {
			continue
		}
		if part := strings.Trim(string(runes[start:i]), "_"); part != "" {
			parts = append(parts, strings.ToLower(part))
		}
		start = i
	}
	if part := strings.Trim(string(runes[start:]), "_"); part != "" {
		parts = append(parts, strings.ToLower(part))
	}
	return parts
}

func unique(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := terms[:0]
	for _, term := range terms {
		if seen[term] {
			continue
		}
		seen[term] = true
		out = append(out, term)
	}
	return out
}

func fuzzyNameFallback(documents []Document, query string) []Result {
	needle := normalizeForFuzzy(query)
	if needle == "" {
		return nil
	}

	var results []Result
	for _, doc := range documents {
		candidate := normalizeForFuzzy(doc.Symbol.Name)
		if candidate == "" {
			continue
		}
		distance := levenshteinDistance(needle, candidate)
		if distance > max(len(candidate)/3, 2) {
			continue
		}
		results = append(results, Result{Symbol: doc.Symbol, Score: 1.0 / float64(1+distance)})
	}
	return results
}

func normalizeForFuzzy(value string) string {
	return strings.ToLower(strings.Join(strings.FieldsFunc(value, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), ""))
}

func levenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	current := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		current[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			current[j] = min(current[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, current = current, prev
	}
	return prev[len(b)]
}
