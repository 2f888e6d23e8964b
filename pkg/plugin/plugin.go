package plugin

import "context"

// Action is one capability exposed to the conversational agent. Handle never
// fails with a Go error: every outcome, including failures, is a Result.
type Action interface {
	Info() Info
	Handle(ctx context.Context, msg Message) Result
}

// Message is the user turn an action is asked to handle.
type Message struct {
	// RequestID correlates logs, history and events of one dispatch.
	RequestID string `json:"requestId,omitempty"`
	Text      string `json:"text"`
	// Options carries structured parameters supplied by the caller in
	// addition to the text. They take the place of model output.
	Options map[string]any `json:"options,omitempty"`
}

// Result is the structured outcome returned to the agent framework.
type Result struct {
	Success bool           `json:"success"`
	Text    string         `json:"text"`
	Content map[string]any `json:"content,omitempty"`
	Error   *ErrorInfo     `json:"error,omitempty"`
}

// ErrorInfo describes a failed action.
type ErrorInfo struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// Option modifies the behaviour of a plugin manager instance.
type Option func(*Manager)

// WithIsolationStrategy sets a custom capability enforcement strategy.
func WithIsolationStrategy(strategy IsolationStrategy) Option {
	return func(m *Manager) {
		if strategy != nil {
			m.isolation = strategy
		}
	}
}

// WithPolicy sets the default policy applied to actions without their own.
func WithPolicy(policy IsolationPolicy) Option {
	return func(m *Manager) {
		m.defaults = policy
	}
}
