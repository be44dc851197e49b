package htmlify

import (
	"context"
	"fmt"
	"strings"

	"github.com/dxr-dev/dxr/internal/logging"
)

type actionLink struct {
	name     string
	fallback string
}

var actionLinks = []actionLink{
	{name: "Log", fallback: "http://hg.mozilla.org/mozilla-central/filelog/$rev/$filename"},
	{name: "Blame", fallback: "http://hg.mozilla.org/mozilla-central/annotate/$rev/$filename"},
	{name: "Diff", fallback: "http://hg.mozilla.org/mozilla-central/diff/$rev/$filename"},
	{name: "Raw", fallback: "http://hg.mozilla.org/mozilla-central/raw-diff/$rev/$filename"},
}

// sidebarActions renders the revision-dependent Log/Blame/Diff/Raw links.
// Without a revision only the empty block is emitted.
func (b *Builder) sidebarActions(ctx context.Context) string {
	var out strings.Builder
	out.WriteString("<div id=\"sidebarActions\"><b>Actions</b>\n")

	revision := b.session.Revision(ctx, b.tree)
	if revision != "" {
		for _, link := range actionLinks {
			pattern, err := b.tree.Option(link.name)
			if err != nil {
				b.session.Notice("log-notice"+link.name, "missing config key, using default",
					logging.FieldKey, link.name)
				pattern = link.fallback
			}
			href := strings.NewReplacer("$rev", revision, "$filename", b.page.Path).Replace(pattern)
			fmt.Fprintf(&out, "<a href=\"%s\">%s</a> &nbsp;\n", href, link.name)
		}
	}

	out.WriteString("</div>")
	return out.String()
}
