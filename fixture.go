package lakeq

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Fixture is a set of documents seeded into a dataset in one shot.
// Seed files hold one fixture each. YAML and JSON both parse, JSON
// being a subset of the YAML the decoder accepts.
type Fixture struct {
	Name        string           `yaml:"name" json:"name"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
	Dataset     string           `yaml:"dataset,omitempty" json:"dataset,omitempty"`
	Documents   []map[string]any `yaml:"documents" json:"documents"`
}

// LoadFixture reads and validates a seed file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}

	fixture, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return fixture, nil
}

// ParseFixture decodes fixture bytes and checks every document up
// front, so a bad entry is reported before anything is written.
func ParseFixture(data []byte) (*Fixture, error) {
	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	if len(fixture.Documents) == 0 {
		return nil, ErrEmptyFixture
	}

	for i, raw := range fixture.Documents {
		if _, err := DocumentFromValue(raw); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
	}

	return &fixture, nil
}
