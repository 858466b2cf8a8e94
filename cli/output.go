package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
)

// Output formats for query results.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// renderResult writes a query result in the requested format. JSON is
// the default and prints indented.
func renderResult(w io.Writer, result any, format string) error {
	switch format {
	case FormatJSON, "":
		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}

		_, err = fmt.Fprintln(w, string(encoded))

		return err
	case FormatYAML:
		encoded, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}

		_, err = w.Write(encoded)

		return err
	default:
		return fmt.Errorf("%w: %s", ErrInvalidOutputFormat, format)
	}
}
