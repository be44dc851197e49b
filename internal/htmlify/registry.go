package htmlify

import (
	"context"
	"iter"
	"sort"
	"strings"

	"github.com/dxr-dev/dxr/internal/store"
)

// TreeConfig is the per-tree configuration the renderer and plugins read.
type TreeConfig interface {
	TreeName() string
	VirtRoot() string
	SourceDir() string
	TemplateFile(name string) (string, error)
	Option(key string) (string, error)
}

// Blob maps plugin names to the opaque analysis data each plugin stored for
// a file.
type Blob map[string][]byte

// Request is what a producer receives: its own slice of the blob, the file
// path relative to the source root, the tree and the analysis database.
// Conn may be nil.
type Request struct {
	Context context.Context
	Data    []byte
	Path    string
	Tree    TreeConfig
	Conn    *store.Store
}

type (
	SidebarFunc func(Request) iter.Seq[SidebarLink]
	SyntaxFunc  func(Request) iter.Seq[SyntaxRegion]
	LinkFunc    func(Request) iter.Seq[LinkRegion]
	LineFunc    func(Request) iter.Seq[LineAnnotation]
)

// Htmlifier declares what a plugin contributes for files ending in Ending.
// Any of the four producers may be nil. NoOverride producers are always
// appended and never take the primary slot.
type Htmlifier struct {
	Ending          string
	SidebarLinks    SidebarFunc
	SyntaxRegions   SyntaxFunc
	LinkRegions     LinkFunc
	LineAnnotations LineFunc
	NoOverride      bool
	InhibitSidebar  bool
}

// Plugin is an annotation provider.
type Plugin interface {
	Name() string
	Htmlifiers() []Htmlifier
}

type producer[T any] struct {
	plugin string
	fn     func(Request) iter.Seq[T]
}

type slots[T any] struct {
	primary  *producer[T]
	appended []producer[T]
}

func (s *slots[T]) add(plugin string, fn func(Request) iter.Seq[T], appendOnly bool) {
	if fn == nil {
		return
	}
	p := producer[T]{plugin: plugin, fn: fn}
	if appendOnly {
		s.appended = append(s.appended, p)
		return
	}
	s.primary = &p
}

func (s *slots[T]) ordered() []producer[T] {
	out := make([]producer[T], 0, len(s.appended)+1)
	if s.primary != nil {
		out = append(out, *s.primary)
	}
	return append(out, s.appended...)
}

type ending struct {
	suffix         string
	sidebar        slots[SidebarLink]
	syntax         slots[SyntaxRegion]
	links          slots[LinkRegion]
	lines          slots[LineAnnotation]
	inhibitSidebar bool
}

// Registry maps file endings to the producers registered for them. It is
// built once and read-only afterwards.
type Registry struct {
	plugins  []Plugin
	endings  []*ending
	bySuffix map[string]*ending
}

// BuildRegistry registers every htmlifier of every plugin, in order.
func BuildRegistry(plugins ...Plugin) *Registry {
	r := &Registry{
		plugins:  append([]Plugin(nil), plugins...),
		bySuffix: make(map[string]*ending),
	}

	for _, plugin := range plugins {
		name := plugin.Name()
		for _, h := range plugin.Htmlifiers() {
			e, ok := r.bySuffix[h.Ending]
			if !ok {
				e = &ending{suffix: h.Ending}
				r.bySuffix[h.Ending] = e
				r.endings = append(r.endings, e)
			}
			e.sidebar.add(name, h.SidebarLinks, h.NoOverride)
			e.syntax.add(name, h.SyntaxRegions, h.NoOverride)
			e.links.add(name, h.LinkRegions, h.NoOverride)
			e.lines.add(name, h.LineAnnotations, h.NoOverride)
			if h.InhibitSidebar {
				e.inhibitSidebar = true
			}
		}
	}

	sort.SliceStable(r.endings, func(i, j int) bool {
		return len(r.endings[i].suffix) > len(r.endings[j].suffix)
	})
	return r
}

// Plugins returns the registered plugins in registration order.
func (r *Registry) Plugins() []Plugin {
	return append([]Plugin(nil), r.plugins...)
}

// Endings returns the registered endings, longest first.
func (r *Registry) Endings() []string {
	out := make([]string, 0, len(r.endings))
	for _, e := range r.endings {
		out = append(out, e.suffix)
	}
	return out
}

// Match selects the longest registered ending of path. Only that ending
// contributes; shorter endings are never merged in.
func (r *Registry) Match(path string) Selection {
	for _, e := range r.endings {
		if strings.HasSuffix(path, e.suffix) {
			return Selection{
				Ending:         e.suffix,
				Matched:        true,
				InhibitSidebar: e.inhibitSidebar,
				sidebar:        e.sidebar.ordered(),
				syntax:         e.syntax.ordered(),
				links:          e.links.ordered(),
				lines:          e.lines.ordered(),
			}
		}
	}
	return Selection{}
}

// Selection is the set of producers chosen for one file.
type Selection struct {
	Ending         string
	Matched        bool
	InhibitSidebar bool

	sidebar []producer[SidebarLink]
	syntax  []producer[SyntaxRegion]
	links   []producer[LinkRegion]
	lines   []producer[LineAnnotation]
}

// FileInput is the per-file data handed to producers.
type FileInput struct {
	Context context.Context
	Blob    Blob
	Path    string
	Tree    TreeConfig
	Conn    *store.Store
}

func (in FileInput) request(plugin string) Request {
	ctx := in.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return Request{
		Context: ctx,
		Data:    in.Blob[plugin],
		Path:    in.Path,
		Tree:    in.Tree,
		Conn:    in.Conn,
	}
}

// Streams holds one lazy sequence per annotation kind.
type Streams struct {
	SidebarLinks    iter.Seq[SidebarLink]
	SyntaxRegions   iter.Seq[SyntaxRegion]
	LinkRegions     iter.Seq[LinkRegion]
	LineAnnotations iter.Seq[LineAnnotation]
}

// Streams binds the selection to a file. Producers run only when the
// returned sequences are iterated; primary output comes first, then the
// appended producers in registration order.
func (s Selection) Streams(in FileInput) Streams {
	return Streams{
		SidebarLinks:    chain(s.sidebar, in),
		SyntaxRegions:   chain(s.syntax, in),
		LinkRegions:     chain(s.links, in),
		LineAnnotations: chain(s.lines, in),
	}
}

// Producers lists plugin names per kind in emission order.
func (s Selection) Producers() map[string][]string {
	return map[string][]string{
		"sidebar_links":    names(s.sidebar),
		"syntax_regions":   names(s.syntax),
		"link_regions":     names(s.links),
		"line_annotations": names(s.lines),
	}
}

func names[T any](ps []producer[T]) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.plugin)
	}
	return out
}

func chain[T any](ps []producer[T], in FileInput) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, p := range ps {
			seq := p.fn(in.request(p.plugin))
			if seq == nil {
				continue
			}
			for item := range seq {
				if !yield(item) {
					return
				}
			}
		}
	}
}
