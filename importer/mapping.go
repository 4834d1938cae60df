// Package importer converts third party JSON exports into capgains events.
//
// The conversion is driven by an explicit Mapping: the importer never guesses
// which field holds what, nor reorders records.
package importer

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/etnz/capgains"
	toml "github.com/pelletier/go-toml/v2"
)

// skip is the kind label that drops a record.
const skip = "skip"

// Mapping describes how to read events from a JSON document.
type Mapping struct {
	// Records selects the array of records in the document.
	Records string `toml:"records"`
	// Fields holds one JSONPath per event field, evaluated on each record.
	Fields Fields `toml:"fields"`
	// Kinds maps the source labels to "acquisition", "disposal" or "skip".
	// When empty the labels are parsed as capgains kinds.
	Kinds map[string]string `toml:"kinds"`
	// TimeLayout is the time.Parse layout of the time field. RFC3339 and
	// bare dates are accepted when empty.
	TimeLayout string `toml:"time_layout"`
	// Currency is used when Fields.Currency is empty or yields nothing.
	Currency string `toml:"currency"`
	// Absolute reads negative quantities and values as positive ones, for
	// exports that sign disposals.
	Absolute bool `toml:"absolute"`
}

// Fields holds the JSONPath of each event field within a record.
type Fields struct {
	ID       string `toml:"id"`
	Asset    string `toml:"asset"`
	Kind     string `toml:"kind"`
	Quantity string `toml:"quantity"`
	Value    string `toml:"value"`
	Currency string `toml:"currency"`
	Time     string `toml:"time"`
}

// ParseMapping decodes a TOML mapping.
func ParseMapping(data []byte) (*Mapping, error) {
	var m Mapping
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse mapping: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadMapping reads a TOML mapping file.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping %s: %w", path, err)
	}
	m, err := ParseMapping(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Validate checks that every required path is set and that kind labels map
// to known kinds.
func (m *Mapping) Validate() error {
	var missing []string
	for name, path := range map[string]string{
		"records":         m.Records,
		"fields.asset":    m.Fields.Asset,
		"fields.kind":     m.Fields.Kind,
		"fields.quantity": m.Fields.Quantity,
		"fields.value":    m.Fields.Value,
		"fields.time":     m.Fields.Time,
	} {
		if strings.TrimSpace(path) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("mapping is missing %s", strings.Join(missing, ", "))
	}
	for label, kind := range m.Kinds {
		if kind == skip {
			continue
		}
		if _, err := capgains.ParseKind(kind); err != nil {
			return fmt.Errorf("kind label %q: %w", label, err)
		}
	}
	if m.Currency != "" {
		if err := capgains.ValidateCurrency(m.Currency); err != nil {
			return err
		}
	}
	return nil
}
