package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudforge-run/provider-runtime/internal/config"
	"github.com/cloudforge-run/provider-runtime/internal/metrics"
	"github.com/cloudforge-run/provider-runtime/internal/observability"
	"github.com/cloudforge-run/provider-runtime/internal/pipeline"
	"github.com/cloudforge-run/provider-runtime/internal/sample"
)

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		cfg := config.DefaultConfig()
		config.LoadFromEnv(cfg)
		return cfg, nil
	}
	var cfg *config.Config
	var err error
	if strings.HasSuffix(configFile, ".yaml") || strings.HasSuffix(configFile, ".yml") {
		cfg, err = config.LoadFromYAMLFile(configFile)
	} else {
		cfg, err = config.LoadFromFile(configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	config.LoadFromEnv(cfg)
	return cfg, nil
}

func readEventSource(payload, payloadFile string) ([]byte, error) {
	switch {
	case payloadFile != "":
		return os.ReadFile(payloadFile)
	case payload != "":
		return []byte(payload), nil
	default:
		return []byte("{}"), nil
	}
}

// invokeCmd runs the full invocation pipeline (sinks, metrics, log drain,
// OpenTelemetry span) against the built-in Sample::Echo::Resource
// provider, the way a resource type author's own binary would against
// their own registered handlers (spec.md §4.9).
func invokeCmd() *cobra.Command {
	var (
		payload     string
		payloadFile string
	)

	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Run the full invocation pipeline against a JSON event",
		Long: `Runs internal/pipeline.Entrypoint end to end: parses the event, installs
log sinks and redaction filters, publishes invocation metrics, dispatches
to the sample Echo provider's registered handler, drains outstanding log
deliveries, and prints the resulting ProgressEvent JSON.

Examples:
  providerctl invoke -p '{"action":"CREATE","awsAccountId":"123456789012","requestData":{"resourceProperties":{"message":"hi"}}}'
  providerctl invoke -f event.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			event, err := readEventSource(payload, payloadFile)
			if err != nil {
				return fmt.Errorf("read event: %w", err)
			}

			ctx := context.Background()
			if cfg.Observability.Tracing.Enabled {
				if err := observability.Init(ctx, observability.Config{
					Enabled:     true,
					Exporter:    cfg.Observability.Tracing.Exporter,
					Endpoint:    cfg.Observability.Tracing.Endpoint,
					ServiceName: cfg.Observability.Tracing.ServiceName,
					SampleRate:  cfg.Observability.Tracing.SampleRate,
				}); err != nil {
					return fmt.Errorf("init tracing: %w", err)
				}
				defer func() { _ = observability.Shutdown(ctx) }()
			}

			var backends []metrics.Publisher
			if cfg.Observability.Metrics.Enabled {
				backends = append(backends, metrics.NewPrometheusBackend(cfg.Observability.Metrics.HistogramBuckets))
			}
			proxy := metrics.NewProxy(backends...)

			resource := sample.NewResource()
			rt := pipeline.NewRuntimeWithConfig(resource, proxy, cfg)

			drain := cfg.Runtime.DrainTimeout.Duration()
			if drain <= 0 {
				drain = 5 * time.Second
			}
			out, err := rt.Entrypoint(ctx, event, drain)
			if err != nil {
				return fmt.Errorf("entrypoint: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&payload, "payload", "p", "", "inline JSON event payload")
	cmd.Flags().StringVarP(&payloadFile, "file", "f", "", "path to a JSON event file")
	return cmd
}
