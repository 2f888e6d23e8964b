package plugin

// Capability expresses what an action needs from the host.
type Capability string

const (
	// CapabilityNetwork actions only read remote state.
	CapabilityNetwork Capability = "network"
	// CapabilitySigning actions sign and broadcast transactions.
	CapabilitySigning Capability = "signing"
	// CapabilityFilesystem actions read local files, e.g. uploads.
	CapabilityFilesystem Capability = "filesystem"
)

// Example is a sample exchange shown to the agent framework.
type Example struct {
	User  string `json:"user"`
	Agent string `json:"agent"`
}

// Info contains descriptive metadata for an action.
type Info struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Similes      []string     `json:"similes,omitempty"`
	Examples     []Example    `json:"examples,omitempty"`
	Capabilities []Capability `json:"capabilities,omitempty"`
}

// State represents whether a registered action may be dispatched.
type State string

const (
	StateEnabled  State = "enabled"
	StateDisabled State = "disabled"
)
