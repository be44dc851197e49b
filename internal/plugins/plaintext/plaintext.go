// Package plaintext renders text files without a sidebar.
package plaintext

import "github.com/dxr-dev/dxr/internal/htmlify"

const Name = "plaintext"

// Endings handled by the plugin.
var Endings = []string{".txt"}

type Plugin struct{}

func New() *Plugin {
	return &Plugin{}
}

func (p *Plugin) Name() string { return Name }

func (p *Plugin) Htmlifiers() []htmlify.Htmlifier {
	out := make([]htmlify.Htmlifier, 0, len(Endings))
	for _, ending := range Endings {
		out = append(out, htmlify.Htmlifier{Ending: ending, InhibitSidebar: true})
	}
	return out
}
