package htmlify

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrPositionOutOfRange is returned when a resolved position falls
	// outside the source.
	ErrPositionOutOfRange = errors.New("position out of range")
	// ErrLineOutOfRange is returned for line numbers outside the source.
	ErrLineOutOfRange = errors.New("line out of range")
)

// sourceMap is the escaped, per-byte view of a source file together with
// the offset at which each line starts.
type sourceMap struct {
	src        []byte
	chars      []string
	lineStarts []int
}

// scanSource escapes every byte and records line starts in one pass.
// "\n", "\r\n" and a lone "\r" all end a line.
func scanSource(src []byte) *sourceMap {
	m := &sourceMap{
		src:        src,
		chars:      make([]string, len(src)),
		lineStarts: []int{0},
	}

	var prev byte
	for i, c := range src {
		switch {
		case c == '\n':
			m.lineStarts = append(m.lineStarts, i+1)
		case prev == '\r':
			m.lineStarts = append(m.lineStarts, i)
		}
		m.chars[i] = escapeByte(c)
		prev = c
	}
	if prev == '\r' {
		m.lineStarts = append(m.lineStarts, len(src))
	}
	return m
}

// escapedBytes holds the escaped form of every byte value. Non-ASCII bytes
// stay raw so multi-byte UTF-8 sequences reassemble on output.
var escapedBytes = func() (table [256]string) {
	for i := range table {
		table[i] = string([]byte{byte(i)})
	}
	table['&'] = "&amp;"
	table['<'] = "&lt;"
	table['>'] = "&gt;"
	return table
}()

func escapeByte(c byte) string {
	return escapedBytes[c]
}

// LineStarts returns the byte offset of the start of every line of src.
func LineStarts(src []byte) []int {
	return scanSource(src).lineStarts
}

// lineCount is the number of gutter entries.
func (m *sourceMap) lineCount() int {
	return len(m.lineStarts)
}

// resolve maps p to an index into the escaped characters. len(src) is a
// valid index: it addresses the end of the file.
func (m *sourceMap) resolve(p Position) (int, error) {
	var idx int
	switch p.kind {
	case positionOffset:
		idx = p.offset
	case positionLineCol:
		if p.line < 1 || p.line > len(m.lineStarts) {
			return 0, fmt.Errorf("%w: line %d of %d", ErrLineOutOfRange, p.line, len(m.lineStarts))
		}
		idx = m.lineStarts[p.line-1] + p.col
	default:
		return 0, fmt.Errorf("%w: unset position", ErrPositionOutOfRange)
	}
	if idx < 0 || idx > len(m.src) {
		return 0, fmt.Errorf("%w: %s resolves to %d (source has %d bytes)", ErrPositionOutOfRange, p, idx, len(m.src))
	}
	return idx, nil
}

type tag struct {
	text  string
	start int
	end   int
	seq   int
}

// splicer collects markup to insert at byte boundaries 0..len(src).
type splicer struct {
	opens  [][]tag
	closes [][]tag
	empty  [][]tag
	seq    int
}

func newSplicer(size int) *splicer {
	return &splicer{
		opens:  make([][]tag, size+1),
		closes: make([][]tag, size+1),
		empty:  make([][]tag, size+1),
	}
}

// wrap surrounds [start, end) with open and close. Partially overlapping
// ranges produce mis-nested markup; nothing here detects that.
func (s *splicer) wrap(start, end int, open, close string) {
	s.seq++
	if start == end {
		s.empty[start] = append(s.empty[start], tag{text: open + close, start: start, end: end, seq: s.seq})
		return
	}
	s.opens[start] = append(s.opens[start], tag{text: open, start: start, end: end, seq: s.seq})
	s.closes[end] = append(s.closes[end], tag{text: close, start: start, end: end, seq: s.seq})
}

// render interleaves the escaped characters with the collected markup. At a
// boundary, closing tags come first, then empty pairs, then opening tags.
// Ranges sharing a boundary nest by extent; identical ranges nest with the
// later one outside.
func (s *splicer) render(chars []string) string {
	var b strings.Builder
	for i := 0; i <= len(chars); i++ {
		closes := s.closes[i]
		sort.SliceStable(closes, func(a, c int) bool {
			if closes[a].start != closes[c].start {
				return closes[a].start > closes[c].start
			}
			return closes[a].seq < closes[c].seq
		})
		for _, t := range closes {
			b.WriteString(t.text)
		}

		for _, t := range s.empty[i] {
			b.WriteString(t.text)
		}

		opens := s.opens[i]
		sort.SliceStable(opens, func(a, c int) bool {
			if opens[a].end != opens[c].end {
				return opens[a].end > opens[c].end
			}
			return opens[a].seq > opens[c].seq
		})
		for _, t := range opens {
			b.WriteString(t.text)
		}

		if i < len(chars) {
			b.WriteString(chars[i])
		}
	}
	return b.String()
}
