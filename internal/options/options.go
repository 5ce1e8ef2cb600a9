// Package options assembles provider option maps from the usual sources:
// environment variables, a JSON file, an inline JSON string, and repeated
// key=value flags. Later sources override earlier ones.
package options

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"strconv"
	"strings"
)

// ParseKV splits one key=value pair, inferring int, float, and bool
// values so flags like secure=false behave as expected.
func ParseKV(pair string) (string, any, error) {
	key, valueStr, ok := strings.Cut(pair, "=")
	if !ok {
		return "", nil, fmt.Errorf("options: expected key=value, got %q", pair)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", nil, fmt.Errorf("options: empty key in %q", pair)
	}
	return key, inferValue(strings.TrimSpace(valueStr)), nil
}

// inferValue tries int before bool so "1" stays numeric.
func inferValue(s string) any {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	if s == "true" || s == "false" {
		v, _ := strconv.ParseBool(s)
		return v
	}
	return s
}

// FromKV builds an option map from repeated key=value flags.
func FromKV(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, err := ParseKV(pair)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

// FromJSON parses an inline JSON object.
func FromJSON(jsonStr string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		return nil, fmt.Errorf("options: invalid JSON: %w", err)
	}
	return out, nil
}

// FromFile parses a JSON object from a file.
func FromFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("options: read %s: %w", path, err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("options: invalid JSON in %s: %w", path, err)
	}
	return out, nil
}

// FromEnv collects PREFIX (a whole JSON object) and PREFIX_KEY variables.
// Variable names are lowercased; values go through the same type
// inference as key=value flags.
func FromEnv(prefix string) map[string]any {
	out := make(map[string]any)

	if jsonStr := os.Getenv(prefix); jsonStr != "" {
		if parsed, err := FromJSON(jsonStr); err == nil {
			maps.Copy(out, parsed)
		}
	}

	envPrefix := prefix + "_"
	for _, env := range os.Environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, envPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, envPrefix))
		out[key] = inferValue(value)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// Build merges all sources in ascending precedence: environment, file,
// inline JSON, key=value flags.
func Build(envPrefix, jsonStr string, kvPairs []string, filePath string) (map[string]any, error) {
	merged := make(map[string]any)

	if env := FromEnv(envPrefix); env != nil {
		maps.Copy(merged, env)
	}
	if filePath != "" {
		fromFile, err := FromFile(filePath)
		if err != nil {
			return nil, err
		}
		maps.Copy(merged, fromFile)
	}
	if jsonStr != "" {
		fromJSON, err := FromJSON(jsonStr)
		if err != nil {
			return nil, err
		}
		maps.Copy(merged, fromJSON)
	}
	fromKV, err := FromKV(kvPairs)
	if err != nil {
		return nil, err
	}
	maps.Copy(merged, fromKV)

	return merged, nil
}
