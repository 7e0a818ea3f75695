package pipeline

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Target is one prospecting search.
type Target struct {
	Query    string `yaml:"query"`
	Location string `yaml:"location"`
	// Limit overrides pipeline.results_per_target when positive.
	Limit int `yaml:"limit,omitempty"`
}

type targetsDocument struct {
	Targets []Target `yaml:"targets"`
}

// LoadTargets reads a YAML targets file. Both a top-level list and a
// document with a "targets" key are accepted.
func LoadTargets(path string) ([]Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	return ParseTargets(data)
}

// ParseTargets decodes targets YAML and drops entries without a query.
func ParseTargets(data []byte) ([]Target, error) {
	var list []Target
	if err := yaml.Unmarshal(data, &list); err != nil {
		var doc targetsDocument
		if docErr := yaml.Unmarshal(data, &doc); docErr != nil {
			return nil, fmt.Errorf("parse targets: %w", docErr)
		}
		list = doc.Targets
	}
	out := make([]Target, 0, len(list))
	for _, t := range list {
		t.Query = strings.TrimSpace(t.Query)
		t.Location = strings.TrimSpace(t.Location)
		if t.Query == "" {
			continue
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, errors.New("parse targets: no targets with a query")
	}
	return out, nil
}
