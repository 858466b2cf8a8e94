package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// loadParameters merges a parameters file with key=value flags. Flags
// override file entries of the same name.
func loadParameters(paramsFile string, flags []string) (map[string]any, error) {
	params := make(map[string]any)

	if paramsFile != "" {
		fileParams, err := readParamsFile(paramsFile)
		if err != nil {
			return nil, err
		}

		for k, v := range fileParams {
			params[k] = v
		}
	}

	for _, flag := range flags {
		key, value, ok := strings.Cut(flag, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: parameter must be in key=value format: %s", ErrInvalidParams, flag)
		}

		params[key] = parseParamValue(value)
	}

	return params, nil
}

// readParamsFile reads a JSON or YAML parameter map, chosen by file
// extension.
func readParamsFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrParametersFileNotFound, path)
		}

		return nil, fmt.Errorf("failed to read parameters file: %w", err)
	}

	params := make(map[string]any)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &params); err != nil {
			return nil, fmt.Errorf("failed to parse JSON parameters: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &params); err != nil {
			return nil, fmt.Errorf("failed to parse YAML parameters: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedParamsFormat, filepath.Ext(path))
	}

	return params, nil
}

// parseParamValue guesses the type of a command line parameter value.
// JSON syntax wins for composites, then booleans, null and numbers;
// anything else stays a string. The engine normalizes every number to
// float64 before binding.
func parseParamValue(value string) any {
	if (strings.HasPrefix(value, "{") && strings.HasSuffix(value, "}")) ||
		(strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]")) {
		var jsonValue any
		if err := json.Unmarshal([]byte(value), &jsonValue); err == nil {
			return jsonValue
		}
	}

	switch value {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}

	if number, err := strconv.ParseFloat(value, 64); err == nil {
		return number
	}

	return value
}
