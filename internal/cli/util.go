package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dxr-dev/dxr/internal/config"
	"github.com/dxr-dev/dxr/internal/logging"
	"github.com/dxr-dev/dxr/internal/store"
)

// commandContext returns the command's context with the default logger
// attached.
func commandContext(cmd *cobra.Command) context.Context {
	ctx := context.Background()
	if cmd != nil && cmd.Context() != nil {
		ctx = cmd.Context()
	}
	return logging.WithLogger(ctx, logging.Default())
}

func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := OptionalStringFlag(cmd, "config")
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logging.Default().Debug("configuration loaded", logging.FieldConfig, cfg.Path)
	return cfg, nil
}

// SelectTrees resolves tree names; no names selects every tree.
func SelectTrees(cfg *config.Config, names []string) ([]*config.Tree, error) {
	if len(names) == 0 {
		if len(cfg.Trees) == 0 {
			return nil, fmt.Errorf("no trees configured in %s", cfg.Path)
		}
		return cfg.Trees, nil
	}
	trees := make([]*config.Tree, 0, len(names))
	for _, name := range names {
		tree, err := cfg.Tree(name)
		if err != nil {
			return nil, err
		}
		trees = append(trees, tree)
	}
	return trees, nil
}

func OpenTreeStore(ctx context.Context, tree *config.Tree) (*store.Store, error) {
	path := tree.DatabasePath()
	conn, err := store.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("tree %s: %w", tree.TreeName(), err)
	}
	logging.FromContext(ctx).Debug("database opened", logging.FieldTree, tree.TreeName(), logging.FieldDatabase, path)
	return conn, nil
}
