package config

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// OutputFormat selects how the final report is rendered.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

const (
	DefaultBaseURL     = "http://localhost"
	DefaultConcurrency = 200
	DefaultTimeout     = 30 * time.Second
	DefaultCooldown    = 3 * time.Second
	DefaultLogLevel    = "warn"
)

type Config struct {
	BaseURL     string            `mapstructure:"base_url"`
	Method      string            `mapstructure:"method"`
	Headers     map[string]string `mapstructure:"headers"`
	Scenarios   []Scenario        `mapstructure:"scenarios"`
	Concurrency int               `mapstructure:"concurrency"`
	Rate        int               `mapstructure:"rate"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	Cooldown    time.Duration     `mapstructure:"cooldown"`
	Output      OutputFormat      `mapstructure:"output"`
	Progress    bool              `mapstructure:"progress"`
	LogLevel    string            `mapstructure:"log_level"`
	LogErrors   bool              `mapstructure:"log_errors"`
	Thresholds  []string          `mapstructure:"thresholds"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	ConfigFile  string            `mapstructure:"-"`
}

// Scenario is one named burst as written by the operator.
type Scenario struct {
	Name     string `mapstructure:"name"`
	Endpoint string `mapstructure:"endpoint"`
	Requests int    `mapstructure:"requests"`
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	Insecure    bool    `mapstructure:"insecure"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	// Propagate defaults to true whenever tracing is enabled.
	Propagate *bool `mapstructure:"propagate"`
}

// Enabled reports whether spans should be produced or propagated at all.
func (t TracingConfig) Enabled() bool {
	if strings.TrimSpace(t.Endpoint) != "" {
		return true
	}
	if t.Propagate != nil && *t.Propagate {
		return true
	}
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// ShouldPropagate reports whether W3C trace headers go out with each request.
func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate
	}
	return t.Enabled()
}

// DefaultScenarios is the sequence run when none is configured.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "Homepage - 50 users", Endpoint: "/", Requests: 50},
		{Name: "Homepage - 100 users", Endpoint: "/", Requests: 100},
		{Name: "Health check - 200 users", Endpoint: "/health", Requests: 200},
		{Name: "Homepage - 500 users", Endpoint: "/", Requests: 500},
		{Name: "Homepage - 1000 users (stress test)", Endpoint: "/", Requests: 1000},
	}
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if err := validateBaseURL(c.BaseURL); err != nil {
		issues = append(issues, err.Error())
	}

	switch strings.ToUpper(strings.TrimSpace(c.Method)) {
	case "", http.MethodGet, http.MethodHead:
	default:
		issues = append(issues, fmt.Sprintf("method %q is not supported (use GET or HEAD)", c.Method))
	}

	if len(c.Scenarios) == 0 {
		issues = append(issues, "at least one scenario is required")
	}
	issues = append(issues, validateScenarios(c.Scenarios)...)

	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Timeout <= 0 {
		issues = append(issues, "timeout must be > 0")
	}
	if c.Cooldown < 0 {
		issues = append(issues, "cooldown must be >= 0")
	}

	switch c.Output {
	case "", OutputText, OutputJSON, OutputYAML:
	default:
		issues = append(issues, fmt.Sprintf("output %q is not supported (use text, json or yaml)", c.Output))
	}

	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("log level %q is not supported", c.LogLevel))
	}

	for key, value := range c.Headers {
		if strings.TrimSpace(key) == "" || strings.ContainsAny(key, "\r\n") {
			issues = append(issues, fmt.Sprintf("invalid header key %q", key))
		}
		if strings.ContainsAny(value, "\r\n") {
			issues = append(issues, fmt.Sprintf("invalid header value for %s", key))
		}
	}

	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// Warnings lists settings that are valid but worth telling the operator about.
func (c Config) Warnings() []string {
	var warnings []string
	if c.Concurrency > 500 {
		warnings = append(warnings, fmt.Sprintf("high concurrency configured (%d in flight). Ensure you have authorization to test the target system.", c.Concurrency))
	}
	if c.Rate > 1000 {
		warnings = append(warnings, fmt.Sprintf("high rate limit configured (%d RPS). Ensure you have authorization to test the target system.", c.Rate))
	}
	if c.Tracing.Insecure {
		warnings = append(warnings, "tracing exporter TLS is disabled (insecure: true)")
	}
	return warnings
}

func validateBaseURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("base_url is required (use --help for usage information)")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("base_url %q cannot be parsed: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url %q has no host", raw)
	}
	return nil
}

func validateScenarios(scenarios []Scenario) []string {
	var issues []string
	for idx, sc := range scenarios {
		if sc.Requests < 1 {
			issues = append(issues, fmt.Sprintf("scenarios[%d]: requests must be >= 1", idx))
		}
		endpoint := strings.TrimSpace(sc.Endpoint)
		if endpoint == "" {
			issues = append(issues, fmt.Sprintf("scenarios[%d]: endpoint is required", idx))
		} else if strings.ContainsAny(endpoint, " \r\n") {
			issues = append(issues, fmt.Sprintf("scenarios[%d]: endpoint %q contains whitespace", idx, endpoint))
		}
	}
	return issues
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing: sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	return issues
}
