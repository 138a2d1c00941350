package config

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "SALVO"

// envKeys are the settings that may come from SALVO_* variables. Nested keys
// map to underscores, so tracing.endpoint is SALVO_TRACING_ENDPOINT.
var envKeys = []string{
	"base_url",
	"method",
	"concurrency",
	"rate",
	"timeout",
	"cooldown",
	"output",
	"progress",
	"log_level",
	"log_errors",
	"thresholds",
	"tracing.endpoint",
	"tracing.protocol",
	"tracing.insecure",
	"tracing.service_name",
	"tracing.sample_rate",
	"tracing.propagate",
}

// Loader handles loading configuration from files, the environment and
// command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

func NewLoader() *Loader {
	return &Loader{}
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		Method:      http.MethodGet,
		Headers:     map[string]string{},
		Scenarios:   DefaultScenarios(),
		Concurrency: DefaultConcurrency,
		Timeout:     DefaultTimeout,
		Cooldown:    DefaultCooldown,
		Output:      OutputText,
		LogLevel:    DefaultLogLevel,
		Tracing: TracingConfig{
			Protocol:    "grpc",
			ServiceName: "salvo",
			SampleRate:  1.0,
		},
	}
}

// Load builds a Config. Precedence from lowest to highest: defaults, config
// file, SALVO_* environment, flags. The result is not validated.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}

	configPath := strings.TrimSpace(flagSet.Lookup("config").Value.String())
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	cfg := Defaults()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(cfg, v.AllSettings()); err != nil {
		return nil, err
	}
	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.Method = strings.ToUpper(strings.TrimSpace(cfg.Method))
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Output = OutputFormat(strings.ToLower(strings.TrimSpace(string(cfg.Output))))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	return cfg, nil
}

func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range envKeys {
		name := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, name); err != nil {
			return fmt.Errorf("bind %s: %w", name, err)
		}
	}
	return nil
}

// applyConfigSettings applies file and environment settings onto cfg.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "base_url", "baseurl", "base-url"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("base_url: %w", err)
		}
		if val = strings.TrimSpace(val); val != "" {
			cfg.BaseURL = val
		}
	}

	if raw, ok := lookupSetting(settings, "method"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("method: %w", err)
		}
		if val != "" {
			cfg.Method = val
		}
	}

	if raw, ok := lookupSetting(settings, "headers"); ok {
		hdrs, err := asStringMap(raw)
		if err != nil {
			return fmt.Errorf("headers: %w", err)
		}
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for k, v := range hdrs {
			cfg.Headers[http.CanonicalHeaderKey(k)] = v
		}
	}

	if raw, ok := lookupSetting(settings, "scenarios"); ok {
		scenarios, err := parseScenarios(raw)
		if err != nil {
			return fmt.Errorf("scenarios: %w", err)
		}
		cfg.Scenarios = scenarios
	}

	if raw, ok := lookupSetting(settings, "concurrency"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("concurrency: %w", err)
		}
		cfg.Concurrency = val
	}

	if raw, ok := lookupSetting(settings, "rate"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("rate: %w", err)
		}
		cfg.Rate = val
	}

	if raw, ok := lookupSetting(settings, "timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = dur
	}

	if raw, ok := lookupSetting(settings, "cooldown"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("cooldown: %w", err)
		}
		cfg.Cooldown = dur
	}

	if raw, ok := lookupSetting(settings, "output"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("output: %w", err)
		}
		if val != "" {
			cfg.Output = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
		}
	}

	if raw, ok := lookupSetting(settings, "progress"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("progress: %w", err)
		}
		cfg.Progress = val
	}

	if raw, ok := lookupSetting(settings, "log_level", "loglevel", "log-level"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
		if val != "" {
			cfg.LogLevel = val
		}
	}

	if raw, ok := lookupSetting(settings, "log_errors", "logerrors", "log-errors"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("log_errors: %w", err)
		}
		cfg.LogErrors = val
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		thresholds, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = thresholds
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		if err := applyTracingSettings(&cfg.Tracing, raw); err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
	}

	return nil
}

func applyTracingSettings(t *TracingConfig, raw interface{}) error {
	settings, err := toStringKeyMap(raw, true)
	if err != nil {
		return err
	}
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
		t.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("protocol: %w", err)
		}
		if val = strings.ToLower(strings.TrimSpace(val)); val != "" {
			t.Protocol = val
		}
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("insecure: %w", err)
		}
		t.Insecure = val
	}
	if raw, ok := lookupSetting(settings, "service_name", "servicename", "service-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("service_name: %w", err)
		}
		if val = strings.TrimSpace(val); val != "" {
			t.ServiceName = val
		}
	}
	if raw, ok := lookupSetting(settings, "sample_rate", "samplerate", "sample-rate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return fmt.Errorf("sample_rate: %w", err)
		}
		t.SampleRate = val
	}
	if raw, ok := lookupSetting(settings, "propagate"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("propagate: %w", err)
		}
		t.Propagate = &val
	}
	return nil
}
