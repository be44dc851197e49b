package cli

import (
	"github.com/spf13/cobra"

	"github.com/dxr-dev/dxr/internal/fileutil"
)

type matchResult struct {
	Path           string              `json:"path"`
	Ending         string              `json:"ending,omitempty"`
	InhibitSidebar bool                `json:"inhibit_sidebar"`
	Producers      map[string][]string `json:"producers,omitempty"`
}

func RunMatch(cmd *cobra.Command, args []string) error {
	registry := NewPluginRegistry()
	results := make([]matchResult, 0, len(args))
	for _, path := range args {
		sel := registry.Match(path)
		result := matchResult{Path: path}
		if sel.Matched {
			result.Ending = sel.Ending
			result.InhibitSidebar = sel.InhibitSidebar
			result.Producers = sel.Producers()
		}
		results = append(results, result)
	}
	return fileutil.PrintJSON(cmd.OutOrStdout(), results)
}
