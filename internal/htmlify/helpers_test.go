package htmlify

import (
	"bytes"
	"fmt"
	"iter"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/dxr-dev/dxr/internal/logging"
)

type fakeTree struct {
	name      string
	virtroot  string
	sourceDir string
	templates map[string]string
	options   map[string]string
}

func newFakeTree() *fakeTree {
	return &fakeTree{
		name:      "mozilla",
		virtroot:  "/dxr",
		templates: map[string]string{},
		options:   map[string]string{},
	}
}

func (t *fakeTree) TreeName() string  { return t.name }
func (t *fakeTree) VirtRoot() string  { return t.virtroot }
func (t *fakeTree) SourceDir() string { return t.sourceDir }

func (t *fakeTree) TemplateFile(name string) (string, error) {
	content, ok := t.templates[name]
	if !ok {
		return "", fmt.Errorf("template %s: %w", name, os.ErrNotExist)
	}
	return content, nil
}

func (t *fakeTree) Option(key string) (string, error) {
	value, ok := t.options[strings.ToLower(key)]
	if !ok {
		return "", fmt.Errorf("missing option %s", key)
	}
	return value, nil
}

type fakePlugin struct {
	name       string
	htmlifiers []Htmlifier
}

func (p *fakePlugin) Name() string            { return p.name }
func (p *fakePlugin) Htmlifiers() []Htmlifier { return p.htmlifiers }

func testSession(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewSession(logging.NewWithWriter(&buf, "debug")), &buf
}

func seq[T any](items ...T) iter.Seq[T] {
	return slices.Values(items)
}

func assertGolden(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	t.Fatalf("output mismatch:\n%s", diff)
}

func gutter(lines ...string) string {
	var b strings.Builder
	b.WriteString(`<div id="linenumbers">`)
	for i, attrs := range lines {
		n := i + 1
		fmt.Fprintf(&b, `<div%s id="l%d"><a class="ln" href="#l%d">%d</a></div>`, attrs, n, n, n)
	}
	b.WriteString(`</div>`)
	return b.String()
}
