// Package catalog loads the static reference data behind the dashboard:
// regulations, seed tasks, policies, the audit seed, alert candidates and the
// fixed copilot scan script.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/arturoeanton/finsentsis/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seed []byte

// Catalog is read-only once loaded. Callers that need to mutate tasks must
// take a copy via SeedTasks.
type Catalog struct {
	Regulations   []domain.Regulation  `yaml:"regulations"`
	Tasks         []domain.Task        `yaml:"tasks"`
	Policies      []domain.Policy      `yaml:"policies"`
	AuditLogs     []domain.AuditLog    `yaml:"audit_logs"`
	Alerts        []domain.Alert       `yaml:"alerts"`
	CountryRisk   []domain.CountryRisk `yaml:"country_risk"`
	Jurisdictions []string             `yaml:"jurisdictions"`
	Findings      []domain.Finding     `yaml:"findings"`
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(seed)
}

// LoadFile parses a catalog from disk, replacing the embedded one.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	regs := make(map[string]bool, len(c.Regulations))
	for _, r := range c.Regulations {
		if r.ID == "" {
			return fmt.Errorf("catalog: regulation without id")
		}
		if regs[r.ID] {
			return fmt.Errorf("catalog: duplicate regulation %s", r.ID)
		}
		regs[r.ID] = true
	}

	tasks := make(map[string]bool, len(c.Tasks))
	for i := range c.Tasks {
		t := &c.Tasks[i]
		if tasks[t.ID] {
			return fmt.Errorf("catalog: duplicate task %s", t.ID)
		}
		tasks[t.ID] = true
		if t.RegulationID != "" && !regs[t.RegulationID] {
			return fmt.Errorf("catalog: task %s references unknown regulation %s", t.ID, t.RegulationID)
		}
		seen := make(map[string]bool, len(t.Evidence))
		for _, e := range t.Evidence {
			if seen[e.ID] {
				return fmt.Errorf("catalog: task %s has duplicate evidence %s", t.ID, e.ID)
			}
			seen[e.ID] = true
		}
		if t.Evidence == nil {
			t.Evidence = []domain.Evidence{}
		}
	}

	for _, a := range c.Alerts {
		if !regs[a.RegulationID] {
			return fmt.Errorf("catalog: alert %q references unknown regulation %s", a.Title, a.RegulationID)
		}
	}
	if len(c.Jurisdictions) == 0 {
		return fmt.Errorf("catalog: no jurisdictions")
	}
	return nil
}

// SeedTasks returns a private copy of the task catalog for a new session.
func (c *Catalog) SeedTasks() []domain.Task {
	return domain.CloneTasks(c.Tasks)
}

// Regulation finds a regulation by id.
func (c *Catalog) Regulation(id string) (domain.Regulation, bool) {
	for _, r := range c.Regulations {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Regulation{}, false
}
