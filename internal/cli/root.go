// Package cli provides the cobra command tree of dxr.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/dxr-dev/dxr/internal/config"
	"github.com/dxr-dev/dxr/internal/logging"
	"github.com/dxr-dev/dxr/internal/search"
)

func NewRootCommand(version string) *cobra.Command {
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "dxr",
		Short: "Index source trees and render them as cross-referenced HTML",
		Long: `dxr indexes the source trees named in its configuration file and renders
every file as an HTML page with syntax highlighting, a symbol sidebar and
links from identifiers to their definitions.

Pages are written to <wwwdir>/<tree>/ and the analysis database to
<wwwdir>/<tree>/.dxr/index.db unless the tree sets "database".`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debug {
				logging.SetLevel("debug")
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
	flags.String("config", config.DefaultPath, "Path to the configuration file")
	flags.IntP("jobs", "j", 0, "Files processed concurrently (default: number of CPUs)")

	indexCmd := &cobra.Command{
		Use:   "index [tree...]",
		Short: "Analyze source files into the tree database",
		RunE:  RunIndex,
	}
	indexCmd.Flags().Bool("force", false, "Re-index files whose content is unchanged")
	indexCmd.Flags().Bool("json", false, "Print machine-readable run summary")

	renderCmd := &cobra.Command{
		Use:   "render <tree> [path...]",
		Short: "Render indexed files to HTML pages",
		Args:  cobra.MinimumNArgs(1),
		RunE:  RunRender,
	}
	renderCmd.Flags().Bool("json", false, "Print machine-readable run summary")

	buildCmd := &cobra.Command{
		Use:   "build [tree...]",
		Short: "Index and render trees",
		RunE:  RunBuild,
	}
	buildCmd.Flags().Bool("force", false, "Re-index files whose content is unchanged")
	buildCmd.Flags().Bool("json", false, "Print machine-readable run summary")

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE:  RunSettings,
	}

	matchCmd := &cobra.Command{
		Use:   "match <path...>",
		Short: "Show which plugins annotate the given paths",
		Args:  cobra.MinimumNArgs(1),
		RunE:  RunMatch,
	}

	searchCmd := &cobra.Command{
		Use:   "search <tree> <query...>",
		Short: "Find symbols in an indexed tree",
		Args:  cobra.MinimumNArgs(2),
		RunE:  RunSearch,
	}
	searchCmd.Flags().Int("limit", search.DefaultLimit, "Maximum number of results")
	searchCmd.Flags().Bool("json", false, "Print results as JSON")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("dxr %s\n", version)
		},
	}

	rootCmd.AddCommand(
		indexCmd,
		renderCmd,
		buildCmd,
		settingsCmd,
		matchCmd,
		searchCmd,
		versionCmd,
	)
	return rootCmd
}
