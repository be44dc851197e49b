package parser

import (
	"encoding/json"
	"fmt"
)

// SymbolKind represents the type of code symbol
type SymbolKind int

const (
	SymbolFunction SymbolKind = iota
	SymbolMethod
	SymbolClass
	SymbolStruct
	SymbolInterface
	SymbolType
	SymbolConstant
	SymbolVariable
	SymbolField
)

var symbolKindNames = [...]string{
	SymbolFunction:  "func",
	SymbolMethod:    "method",
	SymbolClass:     "class",
	SymbolStruct:    "struct",
	SymbolInterface: "interface",
	SymbolType:      "type",
	SymbolConstant:  "const",
	SymbolVariable:  "var",
	SymbolField:     "field",
}

func (k SymbolKind) String() string {
	if k >= 0 && int(k) < len(symbolKindNames) {
		return symbolKindNames[k]
	}
	return "unknown"
}

// ParseSymbolKind is the inverse of String.
func ParseSymbolKind(s string) (SymbolKind, error) {
	for i, name := range symbolKindNames {
		if name == s {
			return SymbolKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown symbol kind %q", s)
}

func (k SymbolKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *SymbolKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSymbolKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Point is a tree-sitter position: 0-based row, 0-based byte column and
// byte offset from the start of the file. Rows only break at '\n'; use
// Offset when lines must agree with other line tables.
type Point struct {
	Row    int `json:"row"`
	Col    int `json:"col"`
	Offset int `json:"offset"`
}

// Span is the half-open range [Start, End).
type Span struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Symbol is a definition found in a file. Container is the enclosing type
// or class, empty at file scope.
type Symbol struct {
	Name      string     `json:"name"`
	Kind      SymbolKind `json:"kind"`
	Signature string     `json:"signature,omitempty"`
	Container string     `json:"container,omitempty"`
	Doc       string     `json:"doc,omitempty"`
	Line      int        `json:"line"`
	NameSpan  Span       `json:"name_span"`
}

// Highlight classes. They double as CSS classes in rendered pages.
const (
	TokenComment = "c"
	TokenString  = "str"
	TokenNumber  = "num"
	TokenKeyword = "k"
)

// Token is a highlighted span of source.
type Token struct {
	Span
	Class string `json:"class"`
}

// Reference is an identifier occurrence that may resolve to a symbol.
type Reference struct {
	Span
	Name string `json:"name"`
}

// FileAnalysis is everything an analyzer extracts from one file.
type FileAnalysis struct {
	Path       string       `json:"path"`
	Language   string       `json:"language"`
	Symbols    []Symbol     `json:"symbols"`
	Tokens     []Token      `json:"tokens"`
	References []Reference  `json:"references"`
	Issues     []ParseIssue `json:"issues,omitempty"`
}

// ParseIssue captures non-fatal parser warnings encountered while scanning a
// file, such as syntax errors tree-sitter recovered from.
type ParseIssue struct {
	File     string `json:"file"`
	Language string `json:"language,omitempty"`
	Severity string `json:"severity"` // warning | error
	Message  string `json:"message"`
	Line     int    `json:"line,omitempty"`
}
