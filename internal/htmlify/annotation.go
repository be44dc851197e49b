package htmlify

import (
	"fmt"
	"html"
	"strings"
)

type positionKind uint8

const (
	positionUnset positionKind = iota
	positionOffset
	positionLineCol
)

// Position addresses a byte in the source either by raw offset or by a
// 1-based line and a 0-based byte column. The zero value is unset.
type Position struct {
	kind   positionKind
	offset int
	line   int
	col    int
}

// Offset returns a position at the given byte offset.
func Offset(offset int) Position {
	return Position{kind: positionOffset, offset: offset}
}

// LineCol returns a position at byte column col of the 1-based line.
func LineCol(line, col int) Position {
	return Position{kind: positionLineCol, line: line, col: col}
}

// IsSet reports whether the position carries a value.
func (p Position) IsSet() bool {
	return p.kind != positionUnset
}

func (p Position) String() string {
	switch p.kind {
	case positionOffset:
		return fmt.Sprintf("@%d", p.offset)
	case positionLineCol:
		return fmt.Sprintf("%d:%d", p.line, p.col)
	default:
		return "unset"
	}
}

// Attr is one HTML attribute. Attribute lists keep insertion order.
type Attr struct {
	Name  string
	Value string
}

func formatAttrs(attrs []Attr) string {
	if len(attrs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, attr := range attrs {
		b.WriteByte(' ')
		b.WriteString(attr.Name)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(attr.Value))
		b.WriteByte('"')
	}
	return b.String()
}

// SidebarLink is one navigation entry in the sidebar. An empty Container
// places the link in the global group.
type SidebarLink struct {
	Label     string
	Line      int
	Title     string
	Icon      string
	Container string
}

// SyntaxRegion wraps [Start, End) in a span with the given CSS class.
type SyntaxRegion struct {
	Start Position
	End   Position
	Class string
}

// LinkRegion turns [Start, End) into a search link carrying Attrs.
type LinkRegion struct {
	Start Position
	End   Position
	Attrs []Attr
}

// LineAnnotation adds Attrs to the gutter entry of a 1-based line.
type LineAnnotation struct {
	Line  int
	Attrs []Attr
}
