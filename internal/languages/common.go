package languages

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dxr-dev/dxr/internal/parser"
)

// maxIssues caps the syntax errors reported per file.
const maxIssues = 10

// lexicon tells the token scanner how a grammar names its leaves.
type lexicon struct {
	comments    map[string]bool
	strings     map[string]bool
	numbers     map[string]bool
	constants   map[string]bool // named nodes highlighted as keywords
	keywords    map[string]bool // anonymous nodes
	identifiers map[string]bool
}

func set(items ...string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, item := range items {
		out[item] = true
	}
	return out
}

// scan collects highlight tokens and identifier references below node.
// Comments and strings are leaves; nothing inside them is scanned.
func (lx *lexicon) scan(node *sitter.Node, content []byte, result *parser.FileAnalysis) {
	if node == nil {
		return
	}
	typ := node.Type()
	named := node.IsNamed()

	class := ""
	switch {
	case named && lx.comments[typ]:
		class = parser.TokenComment
	case named && lx.strings[typ]:
		class = parser.TokenString
	case named && lx.numbers[typ]:
		class = parser.TokenNumber
	case named && lx.constants[typ], !named && lx.keywords[typ]:
		class = parser.TokenKeyword
	case named && lx.identifiers[typ]:
		span := spanOf(node)
		if span.Start != span.End {
			result.References = append(result.References, parser.Reference{
				Span: span,
				Name: node.Content(content),
			})
		}
		return
	}
	if class != "" {
		span := spanOf(node)
		if span.Start != span.End {
			result.Tokens = append(result.Tokens, parser.Token{Span: span, Class: class})
		}
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		lx.scan(node.Child(i), content, result)
	}
}

func pointOf(p sitter.Point, offset uint32) parser.Point {
	return parser.Point{Row: int(p.Row), Col: int(p.Column), Offset: int(offset)}
}

func spanOf(node *sitter.Node) parser.Span {
	return parser.Span{
		Start: pointOf(node.StartPoint(), node.StartByte()),
		End:   pointOf(node.EndPoint(), node.EndByte()),
	}
}

// lineOf is the 1-based line a node starts on.
func lineOf(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// collectIssues reports the syntax errors tree-sitter recovered from.
func collectIssues(root *sitter.Node, filename, language string) []parser.ParseIssue {
	if root == nil || !root.HasError() {
		return nil
	}
	var issues []parser.ParseIssue
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if len(issues) >= maxIssues {
			return
		}
		switch {
		case node.Type() == "ERROR":
			issues = append(issues, parser.ParseIssue{
				File:     filename,
				Language: language,
				Severity: "warning",
				Message:  "syntax error",
				Line:     lineOf(node),
			})
			return
		case node.IsMissing():
			issues = append(issues, parser.ParseIssue{
				File:     filename,
				Language: language,
				Severity: "warning",
				Message:  fmt.Sprintf("missing %s", node.Type()),
				Line:     lineOf(node),
			})
			return
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}
	walk(root)
	return issues
}

// fieldChildren returns every child of node stored under field.
func fieldChildren(node *sitter.Node, field string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.FieldNameForChild(i) == field {
			out = append(out, node.Child(i))
		}
	}
	return out
}

func firstLine(s string) string {
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
