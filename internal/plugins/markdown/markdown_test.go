package markdown

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dxr-dev/dxr/internal/htmlify"
)

const document = "# Title\n\nSome *em* and **strong** and `code`.\n\n## Section\n\n```go\nx := 1\n```\n"

func TestOutlineHeadings(t *testing.T) {
	o := New().Outline([]byte(document))
	assert.Equal(t, []Heading{
		{Level: 1, Text: "Title", Line: 1},
		{Level: 2, Text: "Section", Line: 5, Container: "Title"},
	}, o.Headings)
}

func TestOutlineRegions(t *testing.T) {
	o := New().Outline([]byte(document))
	assert.Contains(t, o.Regions, Region{Start: 2, End: 7, Class: ClassHeading})
	assert.Contains(t, o.Regions, Region{Start: 15, End: 17, Class: ClassEmphasis})
	assert.Contains(t, o.Regions, Region{Start: 25, End: 31, Class: ClassStrong})
	assert.Contains(t, o.Regions, Region{Start: 39, End: 43, Class: ClassCode})
	assert.Contains(t, o.Regions, Region{Start: 50, End: 57, Class: ClassHeading})
	assert.Contains(t, o.Regions, Region{Start: 65, End: 72, Class: ClassCode})
}

func TestOutlineNestedContainers(t *testing.T) {
	src := "# A\n## B\n### C\n## D\n# E\n"
	o := New().Outline([]byte(src))
	require.Len(t, o.Headings, 5)
	containers := make([]string, 0, len(o.Headings))
	for _, h := range o.Headings {
		containers = append(containers, h.Container)
	}
	assert.Equal(t, []string{"", "A", "B", "A", ""}, containers)
}

func TestLinkText(t *testing.T) {
	src := "See [the docs](http://example.com) here.\n"
	o := New().Outline([]byte(src))
	assert.Equal(t, []Region{{Start: 5, End: 13, Class: ClassLink}}, o.Regions)
}

func TestProducers(t *testing.T) {
	p := New()
	data, err := p.IndexFile(context.Background(), "README.md", []byte(document), nil)
	require.NoError(t, err)
	req := htmlify.Request{Context: context.Background(), Data: data, Path: "README.md"}

	links := slices.Collect(sidebarLinks(req))
	assert.Equal(t, []htmlify.SidebarLink{
		{Label: "Title", Line: 1, Title: "# Title", Icon: iconHeading},
		{Label: "Section", Line: 5, Title: "## Section", Icon: iconHeading, Container: "Title"},
	}, links)

	regions := slices.Collect(syntaxRegions(req))
	assert.Contains(t, regions, htmlify.SyntaxRegion{Start: htmlify.Offset(2), End: htmlify.Offset(7), Class: ClassHeading})
}

func TestIndexFileHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().IndexFile(ctx, "README.md", []byte(document), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHtmlifiers(t *testing.T) {
	hs := New().Htmlifiers()
	require.Len(t, hs, 2)
	assert.Equal(t, ".md", hs[0].Ending)
	assert.Equal(t, ".markdown", hs[1].Ending)
	assert.Nil(t, hs[0].LinkRegions)
}
