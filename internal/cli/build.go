package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dxr-dev/dxr/internal/store"
)

func RunBuild(cmd *cobra.Command, args []string) error {
	flags, err := readRunFlags(cmd)
	if err != nil {
		return err
	}
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return err
	}
	trees, err := SelectTrees(cfg, args)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	registry := NewPluginRegistry()
	failed := 0
	for _, tree := range trees {
		summary, err := withTreeStore(ctx, tree, func(conn *store.Store) (RunSummary, error) {
			indexed, err := IndexTree(ctx, tree, conn, registry, flags)
			if err != nil {
				return RunSummary{}, err
			}
			rendered, err := RenderTree(ctx, tree, conn, registry, nil, flags)
			if err != nil {
				return RunSummary{}, err
			}
			rendered.Mode = "build"
			rendered.Indexed = indexed.Indexed
			rendered.Unchanged = indexed.Unchanged
			rendered.Skipped = indexed.Skipped
			rendered.Deleted = indexed.Deleted
			rendered.Failed += indexed.Failed
			rendered.FailedFiles = append(indexed.FailedFiles, rendered.FailedFiles...)
			rendered.DurationMS += indexed.DurationMS
			return rendered, nil
		})
		if err != nil {
			return err
		}
		failed += summary.Failed
		if err := PrintRunSummary(cmd.OutOrStdout(), summary, flags.asJSON); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d", ErrFilesFailed, failed)
	}
	return nil
}
