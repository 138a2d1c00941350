package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "salvo [flags]",
		Short:         "Fire sequential bursts of concurrent HTTP requests and report latency",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

func configureFlags(flags *pflag.FlagSet) {
	// Target
	flags.StringP("base-url", "u", DefaultBaseURL, "Base URL every scenario endpoint is resolved against")
	flags.String("method", http.MethodGet, "HTTP method (GET or HEAD)")
	flags.StringArray("header", nil, "Additional request header in key=value form (repeatable)")
	flags.StringArray("scenario", nil, "Scenario as name=...,endpoint=...,requests=... (repeatable, replaces the default sequence)")

	// Burst control
	flags.IntP("concurrency", "c", DefaultConcurrency, "Maximum requests in flight per burst")
	flags.IntP("rate", "r", 0, "Requests per second dispatched within a burst (0 means unlimited)")
	flags.Duration("timeout", DefaultTimeout, "Per-request timeout")
	flags.Duration("cooldown", DefaultCooldown, "Pause between scenarios")

	// Output
	flags.StringP("output", "o", string(OutputText), "Report format: text, json or yaml")
	flags.Bool("progress", false, "Show a live progress line while a burst runs")
	flags.String("log-level", DefaultLogLevel, "Log level: debug, info, warn or error")
	flags.Bool("log-errors", false, "Log each failed request to stderr")
	flags.StringArray("threshold", nil, "Pass/fail threshold (repeatable, e.g. 'http_req_duration:p95 < 500')")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Tracing
	flags.String("tracing-endpoint", "", "OTLP collector endpoint for request spans")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.Bool("tracing-insecure", false, "Disable TLS to the OTLP collector")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of requests traced (0.0 to 1.0)")
	flags.Bool("tracing-propagate", false, "Send W3C trace context headers with each request (defaults to true when tracing is enabled)")
	flags.String("tracing-service-name", "salvo", "service.name resource attribute")
}

func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n\nUsage: %s\n\nFlags:\n", cmd.Short, cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides copies every explicitly set flag onto cfg. Unset flags
// leave file and environment values alone.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	stringFlag := func(name string, dst *string) error {
		if !fs.Changed(name) {
			return nil
		}
		val, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(val)
		return nil
	}
	intFlag := func(name string, dst *int) error {
		if !fs.Changed(name) {
			return nil
		}
		val, err := fs.GetInt(name)
		if err != nil {
			return err
		}
		*dst = val
		return nil
	}
	boolFlag := func(name string, dst *bool) error {
		if !fs.Changed(name) {
			return nil
		}
		val, err := fs.GetBool(name)
		if err != nil {
			return err
		}
		*dst = val
		return nil
	}

	if err := stringFlag("base-url", &cfg.BaseURL); err != nil {
		return err
	}
	if err := stringFlag("method", &cfg.Method); err != nil {
		return err
	}
	if err := intFlag("concurrency", &cfg.Concurrency); err != nil {
		return err
	}
	if err := intFlag("rate", &cfg.Rate); err != nil {
		return err
	}
	if fs.Changed("timeout") {
		val, err := fs.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = val
	}
	if fs.Changed("cooldown") {
		val, err := fs.GetDuration("cooldown")
		if err != nil {
			return err
		}
		cfg.Cooldown = val
	}
	if fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
	}
	if err := boolFlag("progress", &cfg.Progress); err != nil {
		return err
	}
	if err := stringFlag("log-level", &cfg.LogLevel); err != nil {
		return err
	}
	if err := boolFlag("log-errors", &cfg.LogErrors); err != nil {
		return err
	}

	headers, err := fs.GetStringArray("header")
	if err != nil {
		return err
	}
	for _, entry := range headers {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			return fmt.Errorf("header must be in key=value format: %s", entry)
		}
		key = http.CanonicalHeaderKey(strings.TrimSpace(key))
		if key == "" {
			return fmt.Errorf("header key cannot be empty")
		}
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		cfg.Headers[key] = strings.TrimSpace(value)
	}

	if fs.Changed("scenario") {
		raw, err := fs.GetStringArray("scenario")
		if err != nil {
			return err
		}
		scenarios := make([]Scenario, 0, len(raw))
		for _, entry := range raw {
			sc, err := ParseScenarioFlag(entry)
			if err != nil {
				return fmt.Errorf("--scenario %q: %w", entry, err)
			}
			scenarios = append(scenarios, sc)
		}
		cfg.Scenarios = scenarios
	}

	if fs.Changed("threshold") {
		vals, err := fs.GetStringArray("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = vals
	}

	if err := stringFlag("tracing-endpoint", &cfg.Tracing.Endpoint); err != nil {
		return err
	}
	if err := stringFlag("tracing-protocol", &cfg.Tracing.Protocol); err != nil {
		return err
	}
	if err := boolFlag("tracing-insecure", &cfg.Tracing.Insecure); err != nil {
		return err
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("tracing-propagate") {
		val, err := fs.GetBool("tracing-propagate")
		if err != nil {
			return err
		}
		cfg.Tracing.Propagate = &val
	}
	return stringFlag("tracing-service-name", &cfg.Tracing.ServiceName)
}
