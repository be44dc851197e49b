// Package treesitter contributes symbols, highlighting and cross-reference
// links for the languages the tree-sitter analyzers understand.
package treesitter

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/dxr-dev/dxr/internal/htmlify"
	"github.com/dxr-dev/dxr/internal/logging"
	"github.com/dxr-dev/dxr/internal/parser"
	"github.com/dxr-dev/dxr/internal/store"
)

const Name = "treesitter"

const (
	iconFunction = "images/icons/cog.png"
	iconType     = "images/icons/brick.png"
	iconValue    = "images/icons/tag.png"
)

// Plugin registers one htmlifier per extension the analyzer registry
// supports.
type Plugin struct {
	registry *parser.Registry
}

func New(registry *parser.Registry) *Plugin {
	return &Plugin{registry: registry}
}

func (p *Plugin) Name() string { return Name }

func (p *Plugin) Htmlifiers() []htmlify.Htmlifier {
	exts := p.registry.SupportedExtensions()
	out := make([]htmlify.Htmlifier, 0, len(exts))
	for _, ext := range exts {
		out = append(out, htmlify.Htmlifier{
			Ending:          ext,
			SidebarLinks:    sidebarLinks,
			SyntaxRegions:   syntaxRegions,
			LinkRegions:     linkRegions,
			LineAnnotations: lineAnnotations,
		})
	}
	return out
}

// IndexFile analyzes src, records its symbols for cross-file lookup and
// returns the analysis as the file's blob.
func (p *Plugin) IndexFile(ctx context.Context, path string, src []byte, conn *store.Store) ([]byte, error) {
	result, err := p.registry.Analyze(path, src)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", path, err)
	}
	if result == nil {
		return nil, nil
	}

	renumberSymbols(result, src)

	logger := logging.FromContext(ctx)
	for _, issue := range result.Issues {
		logger.Debug(issue.Message, logging.FieldPath, path, logging.FieldLanguage, issue.Language, "line", issue.Line)
	}

	if conn != nil {
		symbols := make([]store.Symbol, 0, len(result.Symbols))
		for _, sym := range result.Symbols {
			symbols = append(symbols, store.Symbol{
				Name:      sym.Name,
				Kind:      sym.Kind.String(),
				Path:      path,
				Line:      sym.Line,
				Container: sym.Container,
				Signature: sym.Signature,
			})
		}
		if err := conn.ReplaceSymbols(ctx, path, symbols); err != nil {
			return nil, err
		}
	}
	return json.Marshal(result)
}

func decode(req htmlify.Request) *parser.FileAnalysis {
	if len(req.Data) == 0 {
		return nil
	}
	var result parser.FileAnalysis
	if err := json.Unmarshal(req.Data, &result); err != nil {
		logging.FromContext(req.Context).Debug("undecodable analysis", logging.FieldPath, req.Path, logging.FieldError, err)
		return nil
	}
	return &result
}

func iconFor(kind parser.SymbolKind) string {
	switch kind {
	case parser.SymbolFunction, parser.SymbolMethod:
		return iconFunction
	case parser.SymbolClass, parser.SymbolStruct, parser.SymbolInterface, parser.SymbolType:
		return iconType
	default:
		return iconValue
	}
}

func sidebarLinks(req htmlify.Request) iter.Seq[htmlify.SidebarLink] {
	result := decode(req)
	if result == nil {
		return nil
	}
	return func(yield func(htmlify.SidebarLink) bool) {
		for _, sym := range result.Symbols {
			title := sym.Signature
			if sym.Doc != "" {
				title += "\n\n" + sym.Doc
			}
			link := htmlify.SidebarLink{
				Label:     sym.Name,
				Line:      sym.Line,
				Title:     title,
				Icon:      iconFor(sym.Kind),
				Container: sym.Container,
			}
			if !yield(link) {
				return
			}
		}
	}
}

// renumberSymbols derives symbol lines from byte offsets with the
// renderer's line table, where a lone '\r' also ends a line.
func renumberSymbols(result *parser.FileAnalysis, src []byte) {
	starts := htmlify.LineStarts(src)
	for i := range result.Symbols {
		offset := result.Symbols[i].NameSpan.Start.Offset
		result.Symbols[i].Line = sort.Search(len(starts), func(j int) bool { return starts[j] > offset })
	}
}

func position(p parser.Point) htmlify.Position {
	return htmlify.Offset(p.Offset)
}

func syntaxRegions(req htmlify.Request) iter.Seq[htmlify.SyntaxRegion] {
	result := decode(req)
	if result == nil {
		return nil
	}
	return func(yield func(htmlify.SyntaxRegion) bool) {
		for _, tok := range result.Tokens {
			region := htmlify.SyntaxRegion{
				Start: position(tok.Start),
				End:   position(tok.End),
				Class: tok.Class,
			}
			if !yield(region) {
				return
			}
		}
	}
}

// target is where a reference resolves to.
type target struct {
	path string
	line int
	kind string
	sig  string
}

// resolver looks names up in the file's own symbols first, then in the
// symbol table. Results, including misses, are cached per name.
type resolver struct {
	req   htmlify.Request
	local map[string]target
	cache map[string]*target
}

func newResolver(req htmlify.Request, symbols []parser.Symbol) *resolver {
	r := &resolver{
		req:   req,
		local: make(map[string]target, len(symbols)),
		cache: make(map[string]*target),
	}
	for _, sym := range symbols {
		if _, ok := r.local[sym.Name]; ok {
			continue
		}
		r.local[sym.Name] = target{path: req.Path, line: sym.Line, kind: sym.Kind.String(), sig: sym.Signature}
	}
	return r
}

func (r *resolver) resolve(name string) *target {
	if t, ok := r.local[name]; ok {
		return &t
	}
	if t, ok := r.cache[name]; ok {
		return t
	}
	var found *target
	if r.req.Conn != nil {
		symbols, err := r.req.Conn.LookupSymbol(r.req.Context, name)
		if err != nil {
			logging.FromContext(r.req.Context).Debug("symbol lookup failed", logging.FieldKey, name, logging.FieldError, err)
		} else if len(symbols) > 0 {
			s := symbols[0]
			found = &target{path: s.Path, line: s.Line, kind: s.Kind, sig: s.Signature}
		}
	}
	r.cache[name] = found
	return found
}

func linkRegions(req htmlify.Request) iter.Seq[htmlify.LinkRegion] {
	result := decode(req)
	if result == nil {
		return nil
	}
	defs := make(map[parser.Span]bool, len(result.Symbols))
	for _, sym := range result.Symbols {
		defs[sym.NameSpan] = true
	}
	return func(yield func(htmlify.LinkRegion) bool) {
		r := newResolver(req, result.Symbols)
		for _, ref := range result.References {
			t := r.resolve(ref.Name)
			if t == nil {
				continue
			}
			class := "ref"
			if defs[ref.Span] {
				class = "def"
			}
			title := t.sig
			if title == "" {
				title = t.kind + " " + ref.Name
			}
			link := htmlify.LinkRegion{
				Start: position(ref.Start),
				End:   position(ref.End),
				Attrs: []htmlify.Attr{
					{Name: "class", Value: class},
					{Name: "data-path", Value: t.path},
					{Name: "data-line", Value: strconv.Itoa(t.line)},
					{Name: "title", Value: title},
				},
			}
			if !yield(link) {
				return
			}
		}
	}
}

// lineAnnotations marks every definition line once, naming all symbols
// defined on it.
func lineAnnotations(req htmlify.Request) iter.Seq[htmlify.LineAnnotation] {
	result := decode(req)
	if result == nil {
		return nil
	}
	return func(yield func(htmlify.LineAnnotation) bool) {
		byLine := make(map[int][]string)
		for _, sym := range result.Symbols {
			byLine[sym.Line] = append(byLine[sym.Line], sym.Name)
		}
		lines := slices.Sorted(maps.Keys(byLine))
		for _, line := range lines {
			note := htmlify.LineAnnotation{
				Line: line,
				Attrs: []htmlify.Attr{
					{Name: "class", Value: "def"},
					{Name: "data-symbol", Value: strings.Join(byLine[line], " ")},
				},
			}
			if !yield(note) {
				return
			}
		}
	}
}
