package plugin

import (
	"fmt"
	"slices"
)

// IsolationStrategy decides whether an action may run under a policy.
type IsolationStrategy interface {
	Validate(info Info, policy IsolationPolicy) error
}

// CapabilityStrategy only checks declared capabilities.
type CapabilityStrategy struct{}

// Validate ensures the capabilities an action declares are allowed.
func (CapabilityStrategy) Validate(info Info, policy IsolationPolicy) error {
	for _, cap := range policy.DeniedCapabilities {
		if slices.Contains(info.Capabilities, cap) {
			return fmt.Errorf("capability %s is explicitly denied", cap)
		}
	}
	if len(policy.AllowedCapabilities) == 0 {
		return nil
	}
	for _, cap := range info.Capabilities {
		if !slices.Contains(policy.AllowedCapabilities, cap) {
			return fmt.Errorf("capability %s not permitted", cap)
		}
	}
	return nil
}

// NewIsolationStrategy returns a default strategy if none is supplied.
func NewIsolationStrategy(strategy IsolationStrategy) IsolationStrategy {
	if strategy == nil {
		return CapabilityStrategy{}
	}
	return strategy
}

// MergePolicies combines the default and action specific policies.
func MergePolicies(defaults IsolationPolicy, action *IsolationPolicy) IsolationPolicy {
	if action == nil {
		return defaults
	}
	merged := action.Merge(defaults)
	if len(merged.AllowedCapabilities) == 0 && len(merged.DeniedCapabilities) == 0 {
		return defaults
	}
	return merged
}
