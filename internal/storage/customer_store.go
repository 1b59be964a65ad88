package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/voltgrid/billnotify/internal/billing"
)

// LoadCustomers reads the billing roster from path. The format follows
// the file extension: .yaml/.yml is parsed as YAML, anything else as
// JSON. Every customer's default payment-method tag must reference an
// instrument in its collection; a violation fails the whole load rather
// than surfacing mid-run.
func LoadCustomers(path string) ([]billing.Customer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading customer roster: %w", err)
	}

	var customers []billing.Customer
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &customers); err != nil {
			return nil, fmt.Errorf("parsing customer roster %q: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &customers); err != nil {
			return nil, fmt.Errorf("parsing customer roster %q: %w", path, err)
		}
	}

	for i := range customers {
		if err := customers[i].Validate(); err != nil {
			return nil, fmt.Errorf("customer %d (%q): %w", customers[i].ID, customers[i].Name, err)
		}
	}
	return customers, nil
}
