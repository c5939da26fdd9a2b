package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// configCmd prints the resolved Config (defaults, overridden by --config
// and then by PROVIDER_* environment variables) as JSON, so an operator
// can confirm what LoadFromFile/LoadFromYAMLFile/LoadFromEnv produced
// before wiring it into a real invocation.
func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved runtime configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	return cmd
}
