package llm

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by Disabled.
var ErrUnavailable = errors.New("no language model configured")

// Request is one parameter extraction task.
type Request struct {
	// Action is the name of the action being resolved, e.g. TRANSFER.
	Action string
	// Instruction lists the parameters the model should return.
	Instruction string
	// Text is the user's message.
	Text    string
	Account string
	Chain   string
	History []HistoryEntry
}

// Response carries the model output untouched.
type Response struct {
	Content string
	Model   string
}

// Client is implemented by every model adapter.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// HistoryEntry is an earlier action of the same agent, given to the model as
// context.
type HistoryEntry struct {
	Action    string
	Text      string
	Outcome   string
	CreatedAt int64
}

// Disabled is used when no model is configured. Actions then fall back to
// text patterns and defaults.
type Disabled struct{}

func (Disabled) Generate(context.Context, Request) (*Response, error) {
	return nil, ErrUnavailable
}
