package plugin

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrNotRegistered is returned for an unknown action name.
	ErrNotRegistered = errors.New("action not registered")
	// ErrDisabled is returned when a registered action may not run.
	ErrDisabled = errors.New("action disabled")
)

// Manager keeps track of registered actions and whether they may run.
type Manager struct {
	mu        sync.RWMutex
	registry  map[string]*instance
	aliases   map[string]string
	isolation IsolationStrategy
	defaults  IsolationPolicy
	config    ManagerConfig
}

type instance struct {
	Action Action
	Info   Info
	State  State
	Policy IsolationPolicy
	// Reason explains why the action is disabled.
	Reason string
}

// Descriptor is the public view of a registered action.
type Descriptor struct {
	Info
	State  State  `json:"state"`
	Reason string `json:"reason,omitempty"`
}

// NewManager constructs a manager using the supplied configuration and options.
func NewManager(cfg ManagerConfig, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		registry: make(map[string]*instance),
		aliases:  make(map[string]string),
		defaults: cfg.Defaults,
		config:   cfg,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.isolation = NewIsolationStrategy(m.isolation)
	return m, nil
}

// Register adds an action. Actions that are turned off in the configuration,
// or whose capabilities the policy rejects, are kept as disabled so they
// still show up in the catalogue.
func (m *Manager) Register(a Action) error {
	if a == nil {
		return errors.New("action implementation cannot be nil")
	}
	info := a.Info()
	name := canonical(info.Name)
	if name == "" {
		return errors.New("action name cannot be empty")
	}
	var override *IsolationPolicy
	if cfg, ok := m.config.Actions[info.Name]; ok {
		override = cfg.Policy
	}
	policy := MergePolicies(m.defaults, override)

	inst := &instance{Action: a, Info: info, State: StateEnabled, Policy: policy}
	if !m.config.Enabled(info.Name) {
		inst.State, inst.Reason = StateDisabled, "disabled by configuration"
	} else if err := m.isolation.Validate(info, policy); err != nil {
		inst.State, inst.Reason = StateDisabled, err.Error()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.registry[name]; exists {
		return fmt.Errorf("action %s already registered", info.Name)
	}
	for _, simile := range info.Similes {
		if key := canonical(simile); key != "" && key != name {
			if _, taken := m.aliases[key]; !taken {
				m.aliases[key] = name
			}
		}
	}
	m.registry[name] = inst
	return nil
}

// Get returns the enabled action registered under name or one of its similes.
func (m *Manager) Get(name string) (Action, error) {
	inst, err := m.get(name)
	if err != nil {
		return nil, err
	}
	if inst.State != StateEnabled {
		return nil, fmt.Errorf("%w: %s: %s", ErrDisabled, inst.Info.Name, inst.Reason)
	}
	return inst.Action, nil
}

// State returns the state of an action.
func (m *Manager) State(name string) (State, error) {
	inst, err := m.get(name)
	if err != nil {
		return "", err
	}
	return inst.State, nil
}

// List returns all registered actions sorted by name.
func (m *Manager) List() []Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Descriptor, 0, len(m.registry))
	for _, inst := range m.registry {
		out = append(out, Descriptor{Info: inst.Info, State: inst.State, Reason: inst.Reason})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Manager) get(name string) (*instance, error) {
	key := canonical(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if target, ok := m.aliases[key]; ok {
		if _, direct := m.registry[key]; !direct {
			key = target
		}
	}
	inst, ok := m.registry[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	return inst, nil
}

func canonical(name string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
}
