package plugin

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ManagerConfig describes which actions are exposed and under which policy.
type ManagerConfig struct {
	Defaults IsolationPolicy         `yaml:"defaults"`
	Actions  map[string]ActionConfig `yaml:"actions"`
}

// ActionConfig is the configuration block for a single action.
type ActionConfig struct {
	Enabled *bool            `yaml:"enabled"`
	Policy  *IsolationPolicy `yaml:"policy"`
}

// IsolationPolicy governs which capabilities an action may use.
type IsolationPolicy struct {
	AllowedCapabilities []Capability `yaml:"allowedCapabilities"`
	DeniedCapabilities  []Capability `yaml:"deniedCapabilities"`
}

// Merge returns a new policy using values from other when not present.
func (p IsolationPolicy) Merge(other IsolationPolicy) IsolationPolicy {
	if len(p.AllowedCapabilities) == 0 {
		p.AllowedCapabilities = other.AllowedCapabilities
	}
	if len(p.DeniedCapabilities) == 0 {
		p.DeniedCapabilities = other.DeniedCapabilities
	}
	return p
}

// LoadManagerConfig reads a YAML file into a ManagerConfig.
func LoadManagerConfig(path string) (ManagerConfig, error) {
	var cfg ManagerConfig
	if path == "" {
		return cfg, errors.New("config path cannot be empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read action config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal action config: %w", err)
	}
	if cfg.Actions == nil {
		cfg.Actions = map[string]ActionConfig{}
	}
	return cfg, cfg.Validate()
}

// Validate ensures the configuration is internally consistent.
func (c ManagerConfig) Validate() error {
	for name := range c.Actions {
		if name == "" {
			return errors.New("action name cannot be empty")
		}
	}
	return nil
}

// Enabled reports whether name is enabled. Actions are enabled unless the
// configuration turns them off.
func (c ManagerConfig) Enabled(name string) bool {
	action, ok := c.Actions[name]
	if !ok || action.Enabled == nil {
		return true
	}
	return *action.Enabled
}
