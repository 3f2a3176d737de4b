package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PolicyBundle holds a what-if overlay for a department configuration,
// loadable from a YAML file. It lets the same department run under different
// scheduling policies and load levels without copying the whole config.
// Empty strings and nil pointers mean "not set in YAML" and leave the
// config untouched.
type PolicyBundle struct {
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Workload  WorkloadOverlay `yaml:"workload"`
}

// WorkloadOverlay overrides the arrival rate and patient cap.
type WorkloadOverlay struct {
	RatePerHour *float64 `yaml:"rate_per_hour"`
	MaxPatients *int     `yaml:"max_patients"`
}

// LoadPolicyBundle reads and parses a YAML policy overlay file.
func LoadPolicyBundle(path string) (*PolicyBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy config: %w", err)
	}
	var bundle PolicyBundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("parsing policy config: %w", err)
	}
	return &bundle, nil
}

// Validate checks policy names and parameter ranges.
func (b *PolicyBundle) Validate() error {
	if err := b.Scheduler.Validate(); err != nil {
		return err
	}
	if r := b.Workload.RatePerHour; r != nil && *r < 0 {
		return fmt.Errorf("rate_per_hour must be non-negative, got %f", *r)
	}
	if n := b.Workload.MaxPatients; n != nil && *n < 0 {
		return fmt.Errorf("max_patients must be non-negative, got %d", *n)
	}
	return nil
}

// ApplyTo overlays every field set in the bundle onto cfg.
func (b *PolicyBundle) ApplyTo(cfg *Config) {
	if b.Scheduler.Progression != "" {
		cfg.Scheduler.Progression = b.Scheduler.Progression
	}
	if b.Scheduler.Compliance != "" {
		cfg.Scheduler.Compliance = b.Scheduler.Compliance
	}
	if b.Scheduler.Decisions != "" {
		cfg.Scheduler.Decisions = b.Scheduler.Decisions
	}
	if b.Workload.RatePerHour != nil {
		cfg.Workload.RatePerHour = *b.Workload.RatePerHour
	}
	if b.Workload.MaxPatients != nil {
		cfg.Workload.MaxPatients = *b.Workload.MaxPatients
	}
}
