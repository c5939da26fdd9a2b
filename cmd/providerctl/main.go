// Command providerctl is a local invocation-testing harness for the
// provider runtime (spec.md §4.9, "testEntrypoint ... for unit fixtures").
// It is not part of the runtime core: real deployments invoke
// internal/pipeline.Entrypoint directly from whatever process the cloud
// control plane drives (a Lambda handler, a gRPC server, a CLI of the
// provider's own). This binary exists so a provider author can exercise
// the full pipeline, or just the parse/cast/freeze/dispatch path, against
// a JSON event file without standing up real AWS credentials.
//
// Grounded on the teacher's cmd/nova root command wiring (persistent
// --config flag, one cobra.Command per subcommand) and its local `test`
// subcommand for running a function outside VM isolation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudforge-run/provider-runtime/internal/logging"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "providerctl",
		Short: "provider-runtime local invocation harness",
		Long:  "Drives the resource-provider invocation pipeline against a local event file, without a live cloud control plane.",
		// PersistentPreRunE runs after flag parsing, so --config is
		// already populated: the operational logger is reconfigured from
		// the resolved LoggingConfig before any subcommand runs.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logging.InitStructured(cfg.Observability.Logging.Format, cfg.Observability.Logging.Level)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a runtime config file (.json or .yaml); defaults built in if omitted")

	rootCmd.AddCommand(
		invokeCmd(),
		testInvokeCmd(),
		configCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
