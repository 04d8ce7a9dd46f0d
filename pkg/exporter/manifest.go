// Package exporter implements the one-shot raw-lead CSV export: the
// simplified, non-concurrent variant of the campaign fetch loop that
// writes each campaign's leads to its own CSV file as pages arrive.
package exporter

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Manifest describes one export run.
type Manifest struct {
	// Campaigns lists the campaign ids to export, processed in order.
	Campaigns []string `yaml:"campaigns"`

	// Output configures where the CSV files go.
	Output OutputSpec `yaml:"output"`

	// PageDelay overrides the pause between page requests.
	PageDelay time.Duration `yaml:"page_delay"`
}

// UnmarshalYAML accepts page_delay as a duration string ("500ms", "2s").
func (m *Manifest) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Campaigns []string   `yaml:"campaigns"`
		Output    OutputSpec `yaml:"output"`
		PageDelay string     `yaml:"page_delay"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	m.Campaigns = raw.Campaigns
	m.Output = raw.Output
	if raw.PageDelay != "" {
		d, err := time.ParseDuration(raw.PageDelay)
		if err != nil {
			return fmt.Errorf("invalid page_delay %q: %w", raw.PageDelay, err)
		}
		m.PageDelay = d
	}
	return nil
}

// OutputSpec is the output half of a manifest.
type OutputSpec struct {
	// Dir is the local directory for the CSV files. Defaults to ".".
	Dir string `yaml:"dir"`

	// S3 is an optional s3://bucket/prefix destination. Each finished
	// CSV is uploaded there after it is written locally.
	S3 string `yaml:"s3"`
}

// LoadManifest reads and validates an export manifest from a YAML file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("exporter: manifest file not found: %s", path)
		}
		return nil, fmt.Errorf("exporter: read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("exporter: invalid YAML in manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.ApplyDefaults()
	return &m, nil
}

// Validate checks manifest invariants.
func (m *Manifest) Validate() error {
	if len(m.Campaigns) == 0 {
		return fmt.Errorf("exporter: manifest lists no campaigns")
	}
	for i, id := range m.Campaigns {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("exporter: campaign %d is empty", i)
		}
	}
	if m.Output.S3 != "" && !strings.HasPrefix(m.Output.S3, "s3://") {
		return fmt.Errorf("exporter: output.s3 must be an s3:// URI, got %q", m.Output.S3)
	}
	return nil
}

// ApplyDefaults fills optional fields.
func (m *Manifest) ApplyDefaults() {
	if m.Output.Dir == "" {
		m.Output.Dir = "."
	}
	if m.PageDelay <= 0 {
		m.PageDelay = 500 * time.Millisecond
	}
}
