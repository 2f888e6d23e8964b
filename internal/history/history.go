// Package history records the outcome of every dispatched action. Recent
// records feed the model prompt and the history endpoint.
package history

import (
	"context"

	"BNBChain-Agent/internal/llm"
)

// Record is one dispatched action.
type Record struct {
	ID        int64  `json:"id,omitempty"`
	RequestID string `json:"requestId"`
	Action    string `json:"action"`
	Text      string `json:"text"`
	Chain     string `json:"chain,omitempty"`
	Success   bool   `json:"success"`
	Kind      string `json:"errorKind,omitempty"`
	Hash      string `json:"hash,omitempty"`
	Outcome   string `json:"outcome"`
	CreatedAt int64  `json:"createdAt"`
}

// Store persists records. ListLatest returns newest first.
type Store interface {
	Save(ctx context.Context, record *Record) error
	ListLatest(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// Entries converts records into model prompt context.
func Entries(records []Record) []llm.HistoryEntry {
	out := make([]llm.HistoryEntry, 0, len(records))
	for _, r := range records {
		out = append(out, llm.HistoryEntry{
			Action:    r.Action,
			Text:      r.Text,
			Outcome:   r.Outcome,
			CreatedAt: r.CreatedAt,
		})
	}
	return out
}
