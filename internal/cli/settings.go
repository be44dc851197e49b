package cli

import (
	"github.com/spf13/cobra"

	"github.com/dxr-dev/dxr/internal/config"
	"github.com/dxr-dev/dxr/internal/fileutil"
)

type treeSettings struct {
	Name      string            `json:"name"`
	SourceDir string            `json:"sourcedir"`
	ObjDir    string            `json:"objdir,omitempty"`
	OutputDir string            `json:"output"`
	Database  string            `json:"database"`
	Ignore    []string          `json:"ignore,omitempty"`
	Options   map[string]string `json:"options,omitempty"`
}

type settings struct {
	Config    string         `json:"config"`
	Templates string         `json:"templates"`
	WWWDir    string         `json:"wwwdir"`
	VirtRoot  string         `json:"virtroot"`
	HostURL   string         `json:"hosturl"`
	Endings   []string       `json:"endings"`
	Trees     []treeSettings `json:"trees"`
}

func describeSettings(cfg *config.Config) settings {
	out := settings{
		Config:    cfg.Path,
		Templates: cfg.Templates,
		WWWDir:    cfg.WWWDir,
		VirtRoot:  cfg.VirtRoot,
		HostURL:   cfg.HostURL,
		Endings:   NewPluginRegistry().Endings(),
		Trees:     make([]treeSettings, 0, len(cfg.Trees)),
	}
	for _, tree := range cfg.Trees {
		ts := treeSettings{
			Name:      tree.TreeName(),
			SourceDir: tree.SourceDir(),
			ObjDir:    tree.ObjDir(),
			OutputDir: tree.OutputDir(),
			Database:  tree.DatabasePath(),
			Ignore:    tree.IgnorePatterns(),
		}
		if opts := tree.Options(); len(opts) > 0 {
			ts.Options = make(map[string]string, len(opts))
			for _, opt := range opts {
				ts.Options[opt.Key] = opt.Value
			}
		}
		out.Trees = append(out.Trees, ts)
	}
	return out
}

func RunSettings(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return err
	}
	return fileutil.PrintJSON(cmd.OutOrStdout(), describeSettings(cfg))
}
