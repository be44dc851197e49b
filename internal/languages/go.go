package languages

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/dxr-dev/dxr/internal/parser"
)

var goLexicon = &lexicon{
	comments:  set("comment"),
	strings:   set("interpreted_string_literal", "raw_string_literal", "rune_literal"),
	numbers:   set("int_literal", "float_literal", "imaginary_literal"),
	constants: set("true", "false", "nil", "iota"),
	keywords: set(
		"break", "case", "chan", "const", "continue", "default", "defer",
		"else", "fallthrough", "for", "func", "go", "goto", "if", "import",
		"interface", "map", "package", "range", "return", "select", "struct",
		"switch", "type", "var",
	),
	identifiers: set("identifier", "type_identifier", "field_identifier"),
}

// GoAnalyzer implements analysis for Go source files. It keeps no parser
// state and may be used from several goroutines.
type GoAnalyzer struct{}

// NewGoAnalyzer creates a new Go analyzer
func NewGoAnalyzer() *GoAnalyzer {
	return &GoAnalyzer{}
}

func (g *GoAnalyzer) Language() string {
	return "go"
}

func (g *GoAnalyzer) Extensions() []string {
	return []string{".go"}
}

func (g *GoAnalyzer) Analyze(filename string, content []byte) (*parser.FileAnalysis, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(golang.GetLanguage())

	tree, err := p.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	result := &parser.FileAnalysis{
		Path:       filename,
		Language:   "go",
		Symbols:    make([]parser.Symbol, 0),
		Tokens:     make([]parser.Token, 0),
		References: make([]parser.Reference, 0),
	}

	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		g.extractSymbols(root.NamedChild(i), content, result)
	}
	goLexicon.scan(root, content, result)
	result.Issues = collectIssues(root, filename, "go")

	return result, nil
}

func (g *GoAnalyzer) extractSymbols(node *sitter.Node, content []byte, result *parser.FileAnalysis) {
	switch node.Type() {
	case "function_declaration":
		if sym := g.extractFunction(node, content); sym != nil {
			result.Symbols = append(result.Symbols, *sym)
		}

	case "method_declaration":
		if sym := g.extractMethod(node, content); sym != nil {
			result.Symbols = append(result.Symbols, *sym)
		}

	case "type_declaration":
		result.Symbols = append(result.Symbols, g.extractTypeDecl(node, content)...)

	case "const_declaration":
		result.Symbols = append(result.Symbols, g.extractValueDecl(node, content, "const_spec", parser.SymbolConstant)...)

	case "var_declaration":
		result.Symbols = append(result.Symbols, g.extractValueDecl(node, content, "var_spec", parser.SymbolVariable)...)
	}
}

func (g *GoAnalyzer) extractFunction(node *sitter.Node, content []byte) *parser.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	return &parser.Symbol{
		Name:      nameNode.Content(content),
		Kind:      parser.SymbolFunction,
		Signature: g.buildFunctionSignature(node, content, ""),
		Doc:       goDoc(node, content),
		Line:      lineOf(nameNode),
		NameSpan:  spanOf(nameNode),
	}
}

func (g *GoAnalyzer) extractMethod(node *sitter.Node, content []byte) *parser.Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	receiver := ""
	if receiverNode := node.ChildByFieldName("receiver"); receiverNode != nil {
		receiver = receiverNode.Content(content)
	}

	return &parser.Symbol{
		Name:      nameNode.Content(content),
		Kind:      parser.SymbolMethod,
		Signature: g.buildFunctionSignature(node, content, receiver),
		Container: goReceiverType(node, content),
		Doc:       goDoc(node, content),
		Line:      lineOf(nameNode),
		NameSpan:  spanOf(nameNode),
	}
}

func (g *GoAnalyzer) extractTypeDecl(node *sitter.Node, content []byte) []parser.Symbol {
	symbols := make([]parser.Symbol, 0)

	// Iterate through type specs
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "type_spec" && child.Type() != "type_alias" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}

		name := nameNode.Content(content)
		typeNode := child.ChildByFieldName("type")
		kind := parser.SymbolType
		if typeNode != nil {
			switch typeNode.Type() {
			case "struct_type":
				kind = parser.SymbolStruct
			case "interface_type":
				kind = parser.SymbolInterface
			}
		}

		doc := goDoc(child, content)
		if doc == "" {
			doc = goDoc(node, content)
		}
		symbols = append(symbols, parser.Symbol{
			Name:      name,
			Kind:      kind,
			Signature: g.buildTypeSignature(child, content),
			Doc:       doc,
			Line:      lineOf(nameNode),
			NameSpan:  spanOf(nameNode),
		})
		symbols = append(symbols, g.extractMembers(typeNode, content, name)...)
	}

	return symbols
}

// extractMembers lists struct fields and interface methods with the type
// as container. Embedded fields have no name and are skipped.
func (g *GoAnalyzer) extractMembers(typeNode *sitter.Node, content []byte, container string) []parser.Symbol {
	if typeNode == nil {
		return nil
	}

	var members []parser.Symbol
	switch typeNode.Type() {
	case "struct_type":
		for i := 0; i < int(typeNode.NamedChildCount()); i++ {
			list := typeNode.NamedChild(i)
			if list.Type() != "field_declaration_list" {
				continue
			}
			for j := 0; j < int(list.NamedChildCount()); j++ {
				field := list.NamedChild(j)
				if field.Type() != "field_declaration" {
					continue
				}
				fieldType := ""
				if t := field.ChildByFieldName("type"); t != nil {
					fieldType = t.Content(content)
				}
				for _, nameNode := range fieldChildren(field, "name") {
					members = append(members, parser.Symbol{
						Name:      nameNode.Content(content),
						Kind:      parser.SymbolField,
						Signature: strings.TrimSpace(nameNode.Content(content) + " " + fieldType),
						Container: container,
						Line:      lineOf(nameNode),
						NameSpan:  spanOf(nameNode),
					})
				}
			}
		}

	case "interface_type":
		for i := 0; i < int(typeNode.NamedChildCount()); i++ {
			elem := typeNode.NamedChild(i)
			if elem.Type() != "method_elem" && elem.Type() != "method_spec" {
				continue
			}
			nameNode := elem.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			members = append(members, parser.Symbol{
				Name:      nameNode.Content(content),
				Kind:      parser.SymbolMethod,
				Signature: strings.TrimSpace(elem.Content(content)),
				Container: container,
				Line:      lineOf(nameNode),
				NameSpan:  spanOf(nameNode),
			})
		}
	}
	return members
}

func (g *GoAnalyzer) extractValueDecl(node *sitter.Node, content []byte, specType string, kind parser.SymbolKind) []parser.Symbol {
	keyword := "var"
	if kind == parser.SymbolConstant {
		keyword = "const"
	}

	var specs []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case specType:
			specs = append(specs, child)
		case specType + "_list":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if spec := child.NamedChild(j); spec.Type() == specType {
					specs = append(specs, spec)
				}
			}
		}
	}

	symbols := make([]parser.Symbol, 0, len(specs))
	for _, spec := range specs {
		for _, nameNode := range fieldChildren(spec, "name") {
			name := nameNode.Content(content)
			if name == "_" {
				continue
			}
			sig := keyword + " " + name
			if t := spec.ChildByFieldName("type"); t != nil {
				sig += " " + t.Content(content)
			}
			doc := goDoc(spec, content)
			if doc == "" && len(specs) == 1 {
				doc = goDoc(node, content)
			}
			symbols = append(symbols, parser.Symbol{
				Name:      name,
				Kind:      kind,
				Signature: sig,
				Doc:       doc,
				Line:      lineOf(nameNode),
				NameSpan:  spanOf(nameNode),
			})
		}
	}
	return symbols
}

func (g *GoAnalyzer) buildFunctionSignature(node *sitter.Node, content []byte, receiver string) string {
	nameNode := node.ChildByFieldName("name")
	paramsNode := node.ChildByFieldName("parameters")
	resultNode := node.ChildByFieldName("result")

	sig := "func"
	if receiver != "" {
		sig += " " + receiver
	}
	if nameNode != nil {
		sig += " " + nameNode.Content(content)
	}
	if paramsNode != nil {
		sig += paramsNode.Content(content)
	}
	if resultNode != nil {
		sig += " " + resultNode.Content(content)
	}

	return sig
}

func (g *GoAnalyzer) buildTypeSignature(node *sitter.Node, content []byte) string {
	nameNode := node.ChildByFieldName("name")
	typeNode := node.ChildByFieldName("type")

	if nameNode == nil {
		return ""
	}

	sig := "type " + nameNode.Content(content)
	if node.Type() == "type_alias" {
		sig += " ="
	}
	if typeNode != nil {
		switch typeNode.Type() {
		case "struct_type":
			sig += " struct"
		case "interface_type":
			sig += " interface"
		default:
			sig += " " + typeNode.Content(content)
		}
	}

	return sig
}

// goReceiverType returns the bare receiver type of a method: pointers and
// type parameters are stripped.
func goReceiverType(node *sitter.Node, content []byte) string {
	receiver := node.ChildByFieldName("receiver")
	if receiver == nil {
		return ""
	}
	for i := 0; i < int(receiver.NamedChildCount()); i++ {
		param := receiver.NamedChild(i)
		if param.Type() == "parameter_declaration" {
			return goBaseTypeName(param.ChildByFieldName("type"), content)
		}
	}
	return ""
}

func goBaseTypeName(node *sitter.Node, content []byte) string {
	for node != nil {
		switch node.Type() {
		case "pointer_type", "parenthesized_type":
			node = node.NamedChild(0)
		case "generic_type":
			node = node.ChildByFieldName("type")
		default:
			return strings.TrimSpace(node.Content(content))
		}
	}
	return ""
}

// goDoc returns the first line of the comment block directly above node.
func goDoc(node *sitter.Node, content []byte) string {
	var lines []string
	row := node.StartPoint().Row
	for prev := node.PrevNamedSibling(); prev != nil && prev.Type() == "comment"; prev = prev.PrevNamedSibling() {
		if prev.EndPoint().Row+1 != row {
			break
		}
		lines = append([]string{prev.Content(content)}, lines...)
		row = prev.StartPoint().Row
	}
	if len(lines) == 0 {
		return ""
	}

	text := lines[0]
	switch {
	case strings.HasPrefix(text, "//"):
		text = strings.TrimPrefix(text, "//")
	case strings.HasPrefix(text, "/*"):
		text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
	}
	return firstLine(text)
}
