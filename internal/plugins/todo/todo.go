// Package todo marks lines carrying TODO, FIXME or XXX markers in the
// gutter of every page.
package todo

import (
	"context"
	"encoding/json"
	"iter"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dxr-dev/dxr/internal/htmlify"
	"github.com/dxr-dev/dxr/internal/store"
)

const Name = "todo"

var markerPattern = regexp.MustCompile(`\b(TODO|FIXME|XXX)\b[:)\]]?\s*(.*)`)

// maxNoteLength caps the note text kept in the gutter title.
const maxNoteLength = 120

// Note is one marker occurrence.
type Note struct {
	Line   int    `json:"line"`
	Marker string `json:"marker"`
	Text   string `json:"text,omitempty"`
}

// Plugin appends its annotations after every other producer; it never takes
// a primary slot.
type Plugin struct {
	endings []string
}

func New(endings ...string) *Plugin {
	return &Plugin{endings: endings}
}

func (p *Plugin) Name() string { return Name }

func (p *Plugin) Htmlifiers() []htmlify.Htmlifier {
	out := make([]htmlify.Htmlifier, 0, len(p.endings))
	for _, ending := range p.endings {
		out = append(out, htmlify.Htmlifier{
			Ending:          ending,
			LineAnnotations: lineAnnotations,
			NoOverride:      true,
		})
	}
	return out
}

// Scan finds the markers of src, one per line at most.
func Scan(src []byte) []Note {
	var notes []Note
	starts := htmlify.LineStarts(src)
	for i, start := range starts {
		end := len(src)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		line := strings.TrimRight(string(src[start:end]), "\r\n")
		m := markerPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[2])
		if len(text) > maxNoteLength {
			n := maxNoteLength
			for n > 0 && !utf8.RuneStart(text[n]) {
				n--
			}
			text = text[:n]
		}
		notes = append(notes, Note{Line: i + 1, Marker: m[1], Text: text})
	}
	return notes
}

func (p *Plugin) IndexFile(_ context.Context, _ string, src []byte, _ *store.Store) ([]byte, error) {
	notes := Scan(src)
	if len(notes) == 0 {
		return nil, nil
	}
	return json.Marshal(notes)
}

func lineAnnotations(req htmlify.Request) iter.Seq[htmlify.LineAnnotation] {
	var notes []Note
	if len(req.Data) == 0 || json.Unmarshal(req.Data, &notes) != nil {
		return nil
	}
	return func(yield func(htmlify.LineAnnotation) bool) {
		for _, n := range notes {
			title := n.Marker
			if n.Text != "" {
				title += ": " + n.Text
			}
			note := htmlify.LineAnnotation{
				Line: n.Line,
				Attrs: []htmlify.Attr{
					{Name: "data-todo", Value: strings.ToLower(n.Marker)},
					{Name: "title", Value: title},
				},
			}
			if !yield(note) {
				return
			}
		}
	}
}
