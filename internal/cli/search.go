package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dxr-dev/dxr/internal/fileutil"
	"github.com/dxr-dev/dxr/internal/search"
)

func RunSearch(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("failed to read --limit flag: %w", err)
	}
	asJSON, err := OptionalBoolFlag(cmd, "json")
	if err != nil {
		return err
	}
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return err
	}
	tree, err := cfg.Tree(args[0])
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	conn, err := OpenTreeStore(ctx, tree)
	if err != nil {
		return err
	}
	defer conn.Close()

	index, err := search.Load(ctx, conn)
	if err != nil {
		return fmt.Errorf("load symbols of %s: %w", tree.TreeName(), err)
	}
	results := index.Search(strings.Join(args[1:], " "), limit)
	if results == nil {
		results = []search.Result{}
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return fileutil.PrintJSON(out, results)
	}
	for _, result := range results {
		sym := result.Symbol
		line := fmt.Sprintf("%s:%d %s %s", sym.Path, sym.Line, sym.Kind, sym.Name)
		if sym.Signature != "" {
			line += " " + sym.Signature
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
