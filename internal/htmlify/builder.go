// Package htmlify renders source files to cross-referenced HTML pages from
// the annotation streams of the registered plugins.
package htmlify

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"html/template"
	"net/url"
	"strings"

	"github.com/dxr-dev/dxr/internal/logging"
)

const (
	templateHeader        = "dxr-header.html"
	templateFooter        = "dxr-footer.html"
	templateSidebarHeader = "dxr-sidebar-header.html"
	templateSidebarFooter = "dxr-sidebar-footer.html"
	templateMainHeader    = "dxr-main-header.html"
	templateMainFooter    = "dxr-main-footer.html"
)

// Page is the rendering context of one file. Source is nil when the file
// could not be read; the main panel is then left empty.
type Page struct {
	Source []byte
	Path   string
}

// Builder renders one page. It is not safe for concurrent use; build one
// per file.
type Builder struct {
	tree    TreeConfig
	page    Page
	streams Streams
	session *Session

	header        string
	footer        string
	sidebarHeader string
	sidebarFooter string
	mainHeader    string
	mainFooter    string
}

func NewBuilder(tree TreeConfig, page Page, streams Streams, session *Session) *Builder {
	if session == nil {
		session = NewSession(nil)
	}
	b := &Builder{
		tree:    tree,
		page:    page,
		streams: streams,
		session: session,
	}
	b.header = b.template(templateHeader)
	b.footer = b.template(templateFooter)
	b.sidebarHeader = b.template(templateSidebarHeader)
	b.sidebarFooter = b.template(templateSidebarFooter)
	b.mainHeader = b.template(templateMainHeader)
	b.mainFooter = b.template(templateMainFooter)
	return b
}

func (b *Builder) template(name string) string {
	content, err := b.tree.TemplateFile(name)
	if err != nil {
		b.session.Notice("template-notice"+name, "template unavailable",
			logging.FieldTemplate, name, logging.FieldError, err)
		return ""
	}
	return content
}

// Build assembles the full document. Annotation errors abort the build
// before anything is written.
func (b *Builder) Build(ctx context.Context, inhibitSidebar bool) ([]byte, error) {
	header := strings.ReplaceAll(b.header, "${sidebarActions}", b.sidebarActions(ctx))
	showSidebar := "true"
	if inhibitSidebar {
		showSidebar = "false"
	}
	header = strings.ReplaceAll(header, "${showLeftSidebar}", showSidebar)

	main, err := b.mainBody()
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", b.page.Path, err)
	}

	var out bytes.Buffer
	out.WriteString(header)
	out.WriteByte('\n')
	if !inhibitSidebar {
		b.writeSidebar(&out)
	}
	out.WriteString(b.mainHeader)
	out.WriteString(main)
	out.WriteString(b.mainFooter)
	b.writeGlobalScript(&out)
	out.WriteString(b.footer)
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func (b *Builder) writeSidebar(out *bytes.Buffer) {
	var links []SidebarLink
	if b.streams.SidebarLinks != nil {
		for link := range b.streams.SidebarLinks {
			links = append(links, link)
		}
	}
	if len(links) == 0 {
		return
	}

	out.WriteString(b.sidebarHeader)
	out.WriteByte('\n')
	out.WriteString(b.sidebarBody(links))
	out.WriteString(b.sidebarFooter)
	out.WriteByte('\n')
}

func (b *Builder) writeGlobalScript(out *bytes.Buffer) {
	fmt.Fprintf(out, `<script type="text/javascript">var virtroot = "%s", tree = "%s";</script>`,
		template.JSEscapeString(b.tree.VirtRoot()), template.JSEscapeString(b.tree.TreeName()))
}

// mainBody splices syntax spans, links and gutter attributes into the
// escaped source.
func (b *Builder) mainBody() (string, error) {
	if b.page.Source == nil {
		return "", nil
	}

	m := scanSource(b.page.Source)
	sp := newSplicer(len(m.src))

	if b.streams.SyntaxRegions != nil {
		for region := range b.streams.SyntaxRegions {
			if !region.Start.IsSet() || !region.End.IsSet() {
				continue
			}
			start, end, err := resolveRange(m, region.Start, region.End)
			if err != nil {
				return "", fmt.Errorf("syntax region %q: %w", region.Class, err)
			}
			sp.wrap(start, end, fmt.Sprintf(`<span class="%s">`, html.EscapeString(region.Class)), "</span>")
		}
	}

	hrefPrefix := b.tree.VirtRoot() + "/search.cgi?tree=" + html.EscapeString(url.QueryEscape(b.tree.TreeName())) + "&string="
	if b.streams.LinkRegions != nil {
		for link := range b.streams.LinkRegions {
			if !link.Start.IsSet() || !link.End.IsSet() {
				continue
			}
			start, end, err := resolveRange(m, link.Start, link.End)
			if err != nil {
				return "", fmt.Errorf("link region: %w", err)
			}
			item := ""
			if start < end {
				item = string(m.src[start:end])
			}
			open := fmt.Sprintf(`<a aria-haspopup="true" href="%s%s"%s>`,
				hrefPrefix, html.EscapeString(url.QueryEscape(item)), formatAttrs(link.Attrs))
			sp.wrap(start, end, open, "</a>")
		}
	}

	gutter := make([]string, m.lineCount())
	if b.streams.LineAnnotations != nil {
		for note := range b.streams.LineAnnotations {
			if note.Line < 1 || note.Line > len(gutter) {
				return "", fmt.Errorf("line annotation: %w: line %d of %d", ErrLineOutOfRange, note.Line, len(gutter))
			}
			gutter[note.Line-1] += formatAttrs(note.Attrs)
		}
	}

	var lines strings.Builder
	for i, attrs := range gutter {
		n := i + 1
		fmt.Fprintf(&lines, `<div%s id="l%d"><a class="ln" href="#l%d">%d</a></div>`, attrs, n, n, n)
	}

	return `<div id="linenumbers">` + lines.String() + `</div><div id="code">` + sp.render(m.chars) + `</div>`, nil
}

func resolveRange(m *sourceMap, startPos, endPos Position) (int, int, error) {
	start, err := m.resolve(startPos)
	if err != nil {
		return 0, 0, err
	}
	end, err := m.resolve(endPos)
	if err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, fmt.Errorf("%w: %s ends before it starts at %s", ErrPositionOutOfRange, endPos, startPos)
	}
	return start, end, nil
}
