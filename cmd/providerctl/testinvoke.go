package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudforge-run/provider-runtime/internal/pipeline"
	"github.com/cloudforge-run/provider-runtime/internal/sample"
)

// testInvokeCmd runs only the parse/cast/freeze/dispatch/serialize steps
// (spec.md §4.9, "testEntrypoint ... for unit fixtures"): no sinks are
// installed, no metrics are published, and the handler sees a noop logger.
// Useful for fast fixture iteration before wiring real credentials.
func testInvokeCmd() *cobra.Command {
	var (
		payload     string
		payloadFile string
	)

	cmd := &cobra.Command{
		Use:   "test-invoke",
		Short: "Run the parse/cast/freeze/dispatch path with no sinks or metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := readEventSource(payload, payloadFile)
			if err != nil {
				return fmt.Errorf("read event: %w", err)
			}

			resource := sample.NewResource()
			out, err := pipeline.TestEntrypoint(context.Background(), resource, nil, event)
			if err != nil {
				return fmt.Errorf("test-entrypoint: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&payload, "payload", "p", "", "inline JSON event payload")
	cmd.Flags().StringVarP(&payloadFile, "file", "f", "", "path to a JSON event file")
	return cmd
}
