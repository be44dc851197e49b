package languages

import (
	"context"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/dxr-dev/dxr/internal/parser"
)

var pythonLexicon = &lexicon{
	comments:  set("comment"),
	strings:   set("string", "concatenated_string"),
	numbers:   set("integer", "float"),
	constants: set("true", "false", "none"),
	keywords: set(
		"and", "as", "assert", "async", "await", "break", "class", "continue",
		"def", "del", "elif", "else", "except", "finally", "for", "from",
		"global", "if", "import", "in", "is", "lambda", "nonlocal", "not",
		"or", "pass", "raise", "return", "try", "while", "with", "yield",
	),
	identifiers: set("identifier"),
}

// PythonAnalyzer implements analysis for Python source files
type PythonAnalyzer struct{}

// NewPythonAnalyzer creates a new Python analyzer
func NewPythonAnalyzer() *PythonAnalyzer {
	return &PythonAnalyzer{}
}

func (p *PythonAnalyzer) Language() string {
	return "python"
}

func (p *PythonAnalyzer) Extensions() []string {
	return []string{".py", ".pyw"}
}

func (p *PythonAnalyzer) Analyze(filename string, content []byte) (*parser.FileAnalysis, error) {
	ts := sitter.NewParser()
	defer ts.Close()
	ts.SetLanguage(python.GetLanguage())

	tree, err := ts.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	result := &parser.FileAnalysis{
		Path:       filename,
		Language:   "python",
		Symbols:    make([]parser.Symbol, 0),
		Tokens:     make([]parser.Token, 0),
		References: make([]parser.Reference, 0),
	}

	root := tree.RootNode()
	p.extractSymbols(root, content, result, "")
	p.extractModuleVariables(root, content, result)
	pythonLexicon.scan(root, content, result)
	result.Issues = collectIssues(root, filename, "python")

	return result, nil
}

func (p *PythonAnalyzer) extractSymbols(node *sitter.Node, content []byte, result *parser.FileAnalysis, className string) {
	switch node.Type() {
	case "function_definition":
		if sym := p.extractFunction(node, content, className); sym != nil {
			result.Symbols = append(result.Symbols, *sym)
		}
		// Nested functions are locals; don't recurse into the body
		return

	case "class_definition":
		sym := p.extractClass(node, content, className)
		if sym != nil {
			result.Symbols = append(result.Symbols, *sym)
			// Recurse into class body to get methods
			if bodyNode := node.ChildByFieldName("body"); bodyNode != nil {
				for i := 0; i < int(bodyNode.ChildCount()); i++ {
					p.extractSymbols(bodyNode.Child(i), content, result, sym.Name)
				}
			}
		}
		return
	}

	// Recurse into children
	for i := 0; i < int(node.ChildCount()); i++ {
		p.extractSymbols(node.Child(i), content, result, className)
	}
}

func (p *PythonAnalyzer) extractFunction(node *sitter.Node, content []byte, className string) *parser.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	kind := parser.SymbolFunction
	if className != "" {
		kind = parser.SymbolMethod
	}

	return &parser.Symbol{
		Name:      nameNode.Content(content),
		Kind:      kind,
		Signature: p.buildFunctionSignature(node, content),
		Container: className,
		Doc:       pythonDocstring(node, content),
		Line:      lineOf(nameNode),
		NameSpan:  spanOf(nameNode),
	}
}

func (p *PythonAnalyzer) extractClass(node *sitter.Node, content []byte, outer string) *parser.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	return &parser.Symbol{
		Name:      nameNode.Content(content),
		Kind:      parser.SymbolClass,
		Signature: p.buildClassSignature(node, content),
		Container: outer,
		Doc:       pythonDocstring(node, content),
		Line:      lineOf(nameNode),
		NameSpan:  spanOf(nameNode),
	}
}

// extractModuleVariables records plain module-level assignments. Names
// written in upper case are treated as constants.
func (p *PythonAnalyzer) extractModuleVariables(root *sitter.Node, content []byte, result *parser.FileAnalysis) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			continue
		}
		assign := stmt.NamedChild(0)
		if assign.Type() != "assignment" {
			continue
		}
		left := assign.ChildByFieldName("left")
		if left == nil || left.Type() != "identifier" {
			continue
		}

		name := left.Content(content)
		kind := parser.SymbolVariable
		if isUpperSnake(name) {
			kind = parser.SymbolConstant
		}
		result.Symbols = append(result.Symbols, parser.Symbol{
			Name:      name,
			Kind:      kind,
			Signature: firstLine(assign.Content(content)),
			Line:      lineOf(left),
			NameSpan:  spanOf(left),
		})
	}
}

func (p *PythonAnalyzer) buildFunctionSignature(node *sitter.Node, content []byte) string {
	nameNode := node.ChildByFieldName("name")
	paramsNode := node.ChildByFieldName("parameters")
	returnNode := node.ChildByFieldName("return_type")

	sig := "def"
	if nameNode != nil {
		sig += " " + nameNode.Content(content)
	}
	if paramsNode != nil {
		sig += paramsNode.Content(content)
	}
	if returnNode != nil {
		sig += " -> " + returnNode.Content(content)
	}

	return sig
}

func (p *PythonAnalyzer) buildClassSignature(node *sitter.Node, content []byte) string {
	nameNode := node.ChildByFieldName("name")
	superclassNode := node.ChildByFieldName("superclasses")

	sig := "class"
	if nameNode != nil {
		sig += " " + nameNode.Content(content)
	}
	if superclassNode != nil {
		sig += superclassNode.Content(content)
	}

	return sig
}

// pythonDocstring returns the first line of the docstring of a function or
// class definition.
func pythonDocstring(node *sitter.Node, content []byte) string {
	bodyNode := node.ChildByFieldName("body")
	if bodyNode == nil || bodyNode.NamedChildCount() == 0 {
		return ""
	}
	firstStmt := bodyNode.NamedChild(0)
	if firstStmt.Type() != "expression_statement" || firstStmt.NamedChildCount() == 0 {
		return ""
	}
	expr := firstStmt.NamedChild(0)
	if expr.Type() != "string" {
		return ""
	}
	return extractDocstring(expr.Content(content))
}

func extractDocstring(s string) string {
	// Remove triple quotes and clean up
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "rRbBuU")
	switch {
	case len(s) >= 6 && strings.HasPrefix(s, `"""`) && strings.HasSuffix(s, `"""`):
		s = s[3 : len(s)-3]
	case len(s) >= 6 && strings.HasPrefix(s, `'''`) && strings.HasSuffix(s, `'''`):
		s = s[3 : len(s)-3]
	case len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0]:
		s = s[1 : len(s)-1]
	}
	// Take first line only for brevity
	return firstLine(strings.TrimSpace(s))
}

func isUpperSnake(name string) bool {
	hasLetter := false
	for _, r := range name {
		switch {
		case unicode.IsUpper(r):
			hasLetter = true
		case r == '_' || unicode.IsDigit(r):
		default:
			return false
		}
	}
	return hasLetter
}
