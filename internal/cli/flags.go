package cli

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func OptionalStringFlag(cmd *cobra.Command, name string) (string, error) {
	flag := lookupFlag(cmd, name)
	if flag == nil {
		return "", nil
	}
	return strings.TrimSpace(flag.Value.String()), nil
}

func OptionalBoolFlag(cmd *cobra.Command, name string) (bool, error) {
	if lookupFlag(cmd, name) == nil {
		return false, nil
	}
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}

// JobsFlag returns --jobs, defaulting to the number of CPUs.
func JobsFlag(cmd *cobra.Command) (int, error) {
	if lookupFlag(cmd, "jobs") == nil {
		return runtime.NumCPU(), nil
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return 0, fmt.Errorf("failed to read --jobs flag: %w", err)
	}
	if jobs < 0 {
		return 0, fmt.Errorf("--jobs must not be negative, got %d", jobs)
	}
	if jobs == 0 {
		jobs = runtime.NumCPU()
	}
	return jobs, nil
}

func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if cmd == nil {
		return nil
	}
	return cmd.Flags().Lookup(name)
}
