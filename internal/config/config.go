// Package config holds the runtime's own operational configuration: how the
// sink pacing/drain timers behave, and how tracing/metrics/logging are set
// up. This is distinct from the per-invocation typeConfiguration (§4.1),
// which belongs to the resource being provisioned, not the runtime itself.
//
// Grounded on the teacher's internal/config/config.go shape
// (DefaultConfig/LoadFromFile/LoadFromEnv, JSON-file driven with
// environment overrides), trimmed to the sections a library runtime
// actually needs.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config files spell timings as "250ms"/
// "5s" rather than raw nanosecond integers; time.Duration itself has no
// JSON/YAML string (un)marshaling, so every duration-typed config field
// uses this instead.
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

// Duration returns d as a plain time.Duration for callers that need the
// stdlib type (e.g. time.After, context.WithTimeout).
func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// RuntimeConfig holds the pipeline's own timing knobs (spec.md §5).
type RuntimeConfig struct {
	LogPacingDelay    Duration `json:"log_pacing_delay" yaml:"log_pacing_delay"`   // Delay before each CloudWatch PutLogEvents (default: 250ms)
	DrainTimeout      Duration `json:"drain_timeout" yaml:"drain_timeout"`         // Bounded wait for logger.waitCompletion during finalize (default: 5s)
	CloudWatchRetries int      `json:"cloudwatch_retries" yaml:"cloudwatch_retries"` // Loaded but not read: the logger retries a retryable delivery exactly once (default: 1)
}

// TracingConfig holds OpenTelemetry tracing settings.
type TracingConfig struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`             // Default: false
	Exporter    string  `json:"exporter" yaml:"exporter"`           // otlp-http (alias otlp), stdout
	Endpoint    string  `json:"endpoint" yaml:"endpoint"`           // localhost:4318
	ServiceName string  `json:"service_name" yaml:"service_name"`   // provider-runtime
	SampleRate  float64 `json:"sample_rate" yaml:"sample_rate"`     // 1.0
}

// MetricsConfig holds the metrics publisher's settings.
type MetricsConfig struct {
	Enabled          bool      `json:"enabled" yaml:"enabled"`                     // Default: true
	Namespace        string    `json:"namespace" yaml:"namespace"`                 // not read: internal/metrics.Namespace always uses its fixed root
	HistogramBuckets []float64 `json:"histogram_buckets" yaml:"histogram_buckets"` // Prometheus duration buckets, in ms
}

// LoggingConfig holds operational (not invocation-log) structured logging
// settings (spec.md §9, "Operational logging").
type LoggingConfig struct {
	Level          string `json:"level" yaml:"level"`                       // debug, info, warn, error
	Format         string `json:"format" yaml:"format"`                     // text, json
	IncludeTraceID bool   `json:"include_trace_id" yaml:"include_trace_id"` // not read: trace/span IDs are always added while a span is active
}

// ObservabilityConfig holds all observability-related settings.
type ObservabilityConfig struct {
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// Config is the central configuration struct for the runtime process.
type Config struct {
	Runtime       RuntimeConfig       `json:"runtime" yaml:"runtime"`
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			LogPacingDelay:    Duration(250 * time.Millisecond),
			DrainTimeout:      Duration(5 * time.Second),
			CloudWatchRetries: 1,
		},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{
				Enabled:     false,
				Exporter:    "otlp-http",
				Endpoint:    "localhost:4318",
				ServiceName: "provider-runtime",
				SampleRate:  1.0,
			},
			Metrics: MetricsConfig{
				Enabled:          true,
				Namespace:        "AWS/CloudFormation",
				HistogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
			},
			Logging: LoggingConfig{
				Level:          "info",
				Format:         "text",
				IncludeTraceID: true,
			},
		},
	}
}

// LoadFromFile loads configuration from a JSON file, applied on top of
// DefaultConfig so an omitted section keeps its default.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromYAMLFile loads configuration from a YAML file, applied on top of
// DefaultConfig so an omitted section keeps its default. Operators that
// prefer a YAML ops file (rather than the JSON shape LoadFromFile expects)
// use this instead; both produce the same Config shape.
func LoadFromYAMLFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv applies PROVIDER_* environment variable overrides to cfg.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("PROVIDER_LOG_PACING_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Runtime.LogPacingDelay = Duration(d)
		}
	}
	if v := os.Getenv("PROVIDER_DRAIN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Runtime.DrainTimeout = Duration(d)
		}
	}
	if v := os.Getenv("PROVIDER_CLOUDWATCH_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Runtime.CloudWatchRetries = n
		}
	}

	if v := os.Getenv("PROVIDER_TRACING_ENABLED"); v != "" {
		cfg.Observability.Tracing.Enabled = parseBool(v)
	}
	if v := os.Getenv("PROVIDER_TRACING_ENDPOINT"); v != "" {
		cfg.Observability.Tracing.Endpoint = v
	}
	if v := os.Getenv("PROVIDER_TRACING_EXPORTER"); v != "" {
		cfg.Observability.Tracing.Exporter = v
	}
	if v := os.Getenv("PROVIDER_TRACING_SERVICE_NAME"); v != "" {
		cfg.Observability.Tracing.ServiceName = v
	}
	if v := os.Getenv("PROVIDER_TRACING_SAMPLE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Observability.Tracing.SampleRate = f
		}
	}

	if v := os.Getenv("PROVIDER_METRICS_ENABLED"); v != "" {
		cfg.Observability.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("PROVIDER_METRICS_NAMESPACE"); v != "" {
		cfg.Observability.Metrics.Namespace = v
	}

	if v := os.Getenv("PROVIDER_LOG_LEVEL"); v != "" {
		cfg.Observability.Logging.Level = v
	}
	if v := os.Getenv("PROVIDER_LOG_FORMAT"); v != "" {
		cfg.Observability.Logging.Format = v
	}
	if v := os.Getenv("PROVIDER_LOG_INCLUDE_TRACE_ID"); v != "" {
		cfg.Observability.Logging.IncludeTraceID = parseBool(v)
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes"
}
