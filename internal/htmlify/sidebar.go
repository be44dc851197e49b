package htmlify

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strings"
)

const (
	defaultSidebarIcon = "images/icons/page_white_code.png"

	// globalContainerOrder sorts the unnamed group after every declared
	// container.
	globalContainerOrder = math.MaxInt
)

type sidebarGroup struct {
	name  string
	links []SidebarLink
}

// groupSidebarLinks groups links by container. Containers declared as a
// link in this file are ordered by that link's line, containers declared
// elsewhere come first and the global group comes last.
func groupSidebarLinks(links []SidebarLink) []sidebarGroup {
	byName := make(map[string]int)
	groups := make([]sidebarGroup, 0)
	for _, link := range links {
		idx, ok := byName[link.Container]
		if !ok {
			idx = len(groups)
			byName[link.Container] = idx
			groups = append(groups, sidebarGroup{name: link.Container})
		}
		groups[idx].links = append(groups[idx].links, link)
	}

	order := map[string]int{"": globalContainerOrder}
	for _, link := range links {
		if link.Label == "" {
			continue
		}
		if _, ok := byName[link.Label]; ok {
			order[link.Label] = link.Line
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return order[groups[i].name] < order[groups[j].name]
	})
	for i := range groups {
		group := groups[i].links
		sort.SliceStable(group, func(a, b int) bool {
			return group[a].Label < group[b].Label
		})
	}
	return groups
}

func (b *Builder) sidebarBody(links []SidebarLink) string {
	var out strings.Builder
	for _, group := range groupSidebarLinks(links) {
		if group.name != "" {
			fmt.Fprintf(&out, "<b>%s</b>\n<div>\n", html.EscapeString(group.name))
		}
		for _, link := range group.links {
			icon := link.Icon
			if icon == "" {
				icon = defaultSidebarIcon
			}
			title := link.Title
			if title == "" {
				title = link.Label
			}
			fmt.Fprintf(&out, `<img src="%s/%s" class="sidebarimage">`, b.tree.VirtRoot(), html.EscapeString(icon))
			fmt.Fprintf(&out, "<a class=\"sidebarlink\" title=\"%s\" href=\"#l%d\">%s</a><br>\n",
				html.EscapeString(title), link.Line, html.EscapeString(link.Label))
		}
		if group.name != "" {
			out.WriteString("</div><br />\n")
		}
	}
	return out.String()
}
