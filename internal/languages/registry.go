package languages

import "github.com/dxr-dev/dxr/internal/parser"

// NewDefaultRegistry creates a registry with all supported language analyzers
func NewDefaultRegistry() *parser.Registry {
	r := parser.NewRegistry()

	r.Register(NewGoAnalyzer())
	r.Register(NewPythonAnalyzer())

	return r
}
