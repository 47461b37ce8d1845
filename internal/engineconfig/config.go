// Package engineconfig loads the tunable parameters of the heap-growth
// policy from a JSON file and can watch that file for edits, so a running
// harness can have its back-off schedule adjusted without a restart.
package engineconfig

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the growth-policy knobs spelled out in the growth design:
// the fixed base extension sizes for the small- and mid-size-class
// ranges, the large-class multiplier, and the number of geometric
// back-off attempts. The back-off divisor is not configurable: each
// attempt halves the previous request.
type Config struct {
	// SmallClassBase is the base extension size, in bytes, used when
	// growing the heap for a request in the small size-class range
	// (classes 0-4).
	SmallClassBase int64 `json:"small_class_base"`

	// MidClassBase is the base extension size used for the mid size-class
	// range (classes 5-9).
	MidClassBase int64 `json:"mid_class_base"`

	// LargeClassMultiplier scales the requested size to produce the base
	// extension size for the unbounded class (10).
	LargeClassMultiplier int64 `json:"large_class_multiplier"`

	// BackoffAttempts is the number of extension requests grow makes,
	// starting at the base and halving after each failure, before
	// falling back to 2x/1x the exact need.
	BackoffAttempts int `json:"backoff_attempts"`
}

// Default mirrors the fixed constants the engine falls back to when no
// config file is supplied.
func Default() Config {
	return Config{
		SmallClassBase:       65536,
		MidClassBase:         8 << 20,
		LargeClassMultiplier: 128,
		BackoffAttempts:      6,
	}
}

// Validate rejects a config that would make the growth policy degenerate:
// a zero or negative base would make every allocation grow the heap by
// nothing, and zero back-off attempts would remove the policy's only
// chance to recover near the arena's limit.
func (c Config) Validate() error {
	if c.SmallClassBase <= 0 {
		return fmt.Errorf("engineconfig: small_class_base must be positive, got %d", c.SmallClassBase)
	}

	if c.MidClassBase <= 0 {
		return fmt.Errorf("engineconfig: mid_class_base must be positive, got %d", c.MidClassBase)
	}

	if c.LargeClassMultiplier <= 0 {
		return fmt.Errorf("engineconfig: large_class_multiplier must be positive, got %d", c.LargeClassMultiplier)
	}

	if c.BackoffAttempts <= 0 {
		return fmt.Errorf("engineconfig: backoff_attempts must be positive, got %d", c.BackoffAttempts)
	}

	return nil
}

// Load reads a Config from a JSON file. A missing path is not an error:
// Load returns Default() so a harness can run without a config file at
// all.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}

		return Config{}, fmt.Errorf("engineconfig: reading %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("engineconfig: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Save writes cfg to path as indented JSON.
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("engineconfig: marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("engineconfig: writing %s: %w", path, err)
	}

	return nil
}
