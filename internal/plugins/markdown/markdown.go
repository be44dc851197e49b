// Package markdown outlines and highlights Markdown documents.
package markdown

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/dxr-dev/dxr/internal/htmlify"
	"github.com/dxr-dev/dxr/internal/store"
)

const Name = "markdown"

// Endings handled by the plugin.
var Endings = []string{".md", ".markdown"}

const iconHeading = "images/icons/text_heading.png"

// Region classes.
const (
	ClassHeading  = "h"
	ClassCode     = "code"
	ClassEmphasis = "em"
	ClassStrong   = "strong"
	ClassLink     = "link"
)

// Heading is one section title of a document.
type Heading struct {
	Level     int    `json:"level"`
	Text      string `json:"text"`
	Line      int    `json:"line"`
	Container string `json:"container,omitempty"`
}

// Region is a highlighted byte range.
type Region struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Class string `json:"class"`
}

// Outline is the blob the plugin stores per document.
type Outline struct {
	Headings []Heading `json:"headings"`
	Regions  []Region  `json:"regions"`
}

type Plugin struct {
	md goldmark.Markdown
}

func New() *Plugin {
	return &Plugin{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

func (p *Plugin) Name() string { return Name }

func (p *Plugin) Htmlifiers() []htmlify.Htmlifier {
	out := make([]htmlify.Htmlifier, 0, len(Endings))
	for _, ending := range Endings {
		out = append(out, htmlify.Htmlifier{
			Ending:        ending,
			SidebarLinks:  sidebarLinks,
			SyntaxRegions: syntaxRegions,
		})
	}
	return out
}

func (p *Plugin) IndexFile(ctx context.Context, path string, src []byte, _ *store.Store) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("index %s: %w", path, err)
	}
	return json.Marshal(p.Outline(src))
}

// Outline parses src and collects its headings and highlighted ranges.
func (p *Plugin) Outline(src []byte) Outline {
	doc := p.md.Parser().Parse(text.NewReader(src), parser.WithContext(parser.NewContext()))
	starts := htmlify.LineStarts(src)

	out := Outline{Headings: []Heading{}, Regions: []Region{}}
	var open []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			start, end := blockRange(node)
			if start < 0 {
				return ast.WalkContinue, nil
			}
			for len(open) > 0 && open[len(open)-1].Level >= node.Level {
				open = open[:len(open)-1]
			}
			h := Heading{Level: node.Level, Text: plainText(node, src), Line: lineOf(starts, start)}
			if len(open) > 0 {
				h.Container = open[len(open)-1].Text
			}
			open = append(open, h)
			out.Headings = append(out.Headings, h)
			out.Regions = append(out.Regions, Region{Start: start, End: end, Class: ClassHeading})
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if start, end := blockRange(n); start >= 0 {
				out.Regions = append(out.Regions, Region{Start: start, End: end, Class: ClassCode})
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeSpan:
			out.addInline(n, ClassCode)
			return ast.WalkSkipChildren, nil
		case *ast.Emphasis:
			class := ClassEmphasis
			if node.Level >= 2 {
				class = ClassStrong
			}
			out.addInline(n, class)
		case *ast.Link:
			out.addInline(n, ClassLink)
		}
		return ast.WalkContinue, nil
	})
	return out
}

func (o *Outline) addInline(n ast.Node, class string) {
	if start, end := inlineRange(n); start >= 0 {
		o.Regions = append(o.Regions, Region{Start: start, End: end, Class: class})
	}
}

// blockRange spans the first to the last content line of a block.
func blockRange(n ast.Node) (int, int) {
	lines := n.Lines()
	if lines.Len() == 0 {
		return -1, -1
	}
	return lines.At(0).Start, lines.At(lines.Len() - 1).Stop
}

// inlineRange spans the text children of an inline node.
func inlineRange(n ast.Node) (int, int) {
	start, end := -1, -1
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		t, ok := child.(*ast.Text)
		if !ok {
			continue
		}
		if start == -1 || t.Segment.Start < start {
			start = t.Segment.Start
		}
		if t.Segment.Stop > end {
			end = t.Segment.Stop
		}
	}
	return start, end
}

func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// lineOf maps a byte offset to its 1-based line.
func lineOf(starts []int, offset int) int {
	return sort.Search(len(starts), func(i int) bool { return starts[i] > offset })
}

func decode(req htmlify.Request) *Outline {
	if len(req.Data) == 0 {
		return nil
	}
	var o Outline
	if err := json.Unmarshal(req.Data, &o); err != nil {
		return nil
	}
	return &o
}

func sidebarLinks(req htmlify.Request) iter.Seq[htmlify.SidebarLink] {
	o := decode(req)
	if o == nil {
		return nil
	}
	return func(yield func(htmlify.SidebarLink) bool) {
		for _, h := range o.Headings {
			link := htmlify.SidebarLink{
				Label:     h.Text,
				Line:      h.Line,
				Title:     strings.Repeat("#", h.Level) + " " + h.Text,
				Icon:      iconHeading,
				Container: h.Container,
			}
			if !yield(link) {
				return
			}
		}
	}
}

func syntaxRegions(req htmlify.Request) iter.Seq[htmlify.SyntaxRegion] {
	o := decode(req)
	if o == nil {
		return nil
	}
	return func(yield func(htmlify.SyntaxRegion) bool) {
		for _, r := range o.Regions {
			region := htmlify.SyntaxRegion{
				Start: htmlify.Offset(r.Start),
				End:   htmlify.Offset(r.End),
				Class: r.Class,
			}
			if !yield(region) {
				return
			}
		}
	}
}
