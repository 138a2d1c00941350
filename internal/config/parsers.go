// Package config loads the run configuration for salvo from defaults, an
// optional JSON or YAML file, SALVO_* environment variables and CLI flags.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// lookupSetting returns the first candidate key present in settings. Viper
// lowercases keys, so the lowercase form of each candidate is tried as well.
func lookupSetting(settings map[string]interface{}, candidates ...string) (interface{}, bool) {
	for _, key := range candidates {
		if val, ok := settings[key]; ok {
			return val, true
		}
		if val, ok := settings[strings.ToLower(key)]; ok {
			return val, true
		}
	}
	return nil, false
}

func asString(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func asInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float32:
		if float32(int(v)) != v {
			return 0, fmt.Errorf("expected a whole number, got %v", v)
		}
		return int(v), nil
	case float64:
		if float64(int(v)) != v {
			return 0, fmt.Errorf("expected a whole number, got %v", v)
		}
		return int(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		return strconv.Atoi(s)
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", value)
	}
}

func asFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	default:
		return 0, fmt.Errorf("unsupported float type %T", value)
	}
}

func asBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return false, nil
		}
		return strconv.ParseBool(s)
	default:
		return false, fmt.Errorf("unsupported boolean type %T", value)
	}
}

// asDuration accepts Go duration strings ("250ms", "2s"). Bare numbers are
// read as seconds.
func asDuration(value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		if secs, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(secs * float64(time.Second)), nil
		}
		return time.ParseDuration(s)
	case int, int32, int64, uint, uint32, uint64:
		n, err := asInt(v)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * time.Second, nil
	case float32, float64:
		f, err := asFloat64(v)
		if err != nil {
			return 0, err
		}
		return time.Duration(f * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("unsupported duration type %T", value)
	}
}

func asStringMap(value interface{}) (map[string]string, error) {
	if value == nil {
		return nil, nil
	}
	m, err := toStringKeyMap(value, false)
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(m))
	for k, raw := range m {
		if strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("key cannot be empty")
		}
		str, err := asString(raw)
		if err != nil {
			return nil, err
		}
		result[k] = str
	}
	return result, nil
}

func asStringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []string:
		return append([]string(nil), v...), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []interface{}:
		result := make([]string, len(v))
		for i, item := range v {
			str, err := asString(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			result[i] = str
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported string list type %T", value)
	}
}

func toInterfaceSlice(value interface{}) ([]interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		return v, nil
	case []map[string]interface{}:
		items := make([]interface{}, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected list, got %T", value)
	}
}

// toStringKeyMap normalizes the map shapes produced by the JSON and YAML
// decoders. With lower set, keys are trimmed and lowercased.
func toStringKeyMap(value interface{}, lower bool) (map[string]interface{}, error) {
	norm := func(k string) string {
		if lower {
			return strings.ToLower(strings.TrimSpace(k))
		}
		return k
	}
	result := map[string]interface{}{}
	switch v := value.(type) {
	case map[string]interface{}:
		for k, val := range v {
			result[norm(k)] = val
		}
	case map[string]string:
		for k, val := range v {
			result[norm(k)] = val
		}
	case map[interface{}]interface{}:
		for k, val := range v {
			key, err := asString(k)
			if err != nil {
				return nil, err
			}
			result[norm(key)] = val
		}
	default:
		return nil, fmt.Errorf("expected map, got %T", value)
	}
	return result, nil
}

// parseScenarios reads the "scenarios" list of a config file.
func parseScenarios(value interface{}) ([]Scenario, error) {
	items, err := toInterfaceSlice(value)
	if err != nil {
		return nil, err
	}
	scenarios := make([]Scenario, 0, len(items))
	for i, item := range items {
		settings, err := toStringKeyMap(item, true)
		if err != nil {
			return nil, fmt.Errorf("scenarios[%d]: %w", i, err)
		}
		sc, err := buildScenario(settings)
		if err != nil {
			return nil, fmt.Errorf("scenarios[%d]: %w", i, err)
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

func buildScenario(settings map[string]interface{}) (Scenario, error) {
	var sc Scenario
	if raw, ok := lookupSetting(settings, "name"); ok {
		val, err := asString(raw)
		if err != nil {
			return sc, fmt.Errorf("name: %w", err)
		}
		sc.Name = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "endpoint", "path"); ok {
		val, err := asString(raw)
		if err != nil {
			return sc, fmt.Errorf("endpoint: %w", err)
		}
		sc.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "requests", "users"); ok {
		val, err := asInt(raw)
		if err != nil {
			return sc, fmt.Errorf("requests: %w", err)
		}
		sc.Requests = val
	}
	if sc.Name == "" && sc.Endpoint != "" {
		sc.Name = defaultScenarioName(sc)
	}
	return sc, nil
}

// ParseScenarioFlag parses the --scenario form "name=Home,endpoint=/,requests=50".
// The name is optional. A comma only starts a new field when a known key and
// "=" follow it, so values such as "/search?tags=a,b" keep their commas.
func ParseScenarioFlag(value string) (Scenario, error) {
	settings := map[string]interface{}{}
	for _, part := range splitScenarioFields(value) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return Scenario{}, fmt.Errorf("invalid scenario field %q (expected key=value)", part)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if !isScenarioKey(key) {
			return Scenario{}, fmt.Errorf("unknown scenario field %q", key)
		}
		settings[key] = strings.TrimSpace(val)
	}
	if len(settings) == 0 {
		return Scenario{}, fmt.Errorf("empty scenario")
	}
	return buildScenario(settings)
}

func isScenarioKey(key string) bool {
	switch key {
	case "name", "endpoint", "path", "requests", "users":
		return true
	}
	return false
}

// splitScenarioFields splits value at commas that begin a "key=" field.
// Any other comma stays part of the preceding value.
func splitScenarioFields(value string) []string {
	var fields []string
	start := 0
	for i := 0; i < len(value); i++ {
		if value[i] != ',' {
			continue
		}
		rest := value[i+1:]
		key, _, ok := strings.Cut(rest, "=")
		if !ok || !isScenarioKey(strings.ToLower(strings.TrimSpace(key))) {
			continue
		}
		fields = append(fields, value[start:i])
		start = i + 1
	}
	return append(fields, value[start:])
}

func defaultScenarioName(sc Scenario) string {
	return fmt.Sprintf("%s - %d requests", sc.Endpoint, sc.Requests)
}
