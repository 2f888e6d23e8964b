// Package events publishes transaction lifecycle updates. A Fanout is
// registered as an executor observer and forwards every Submitted, Confirmed
// and Failed transition to its publishers.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"BNBChain-Agent/internal/executor"
	"BNBChain-Agent/pkg/logger"
)

// Event is the published view of a transaction transition.
type Event struct {
	Chain      string    `json:"chain"`
	Label      string    `json:"label"`
	State      string    `json:"state"`
	Hash       string    `json:"hash,omitempty"`
	Explorer   string    `json:"explorerUrl,omitempty"`
	Token      string    `json:"token,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	Status     *uint64   `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// FromResult snapshots res.
func FromResult(res executor.TransactionResult, at time.Time) Event {
	return Event{
		Chain:      string(res.Chain),
		Label:      res.Label,
		State:      res.State.String(),
		Hash:       res.HashHex(),
		Explorer:   res.Explorer,
		Token:      res.Token,
		Amount:     res.Amount,
		Status:     res.Status,
		OccurredAt: at.UTC(),
	}
}

// Publisher delivers events to one sink.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, event Event) error
}

// Fanout forwards events to every publisher.
type Fanout struct {
	publishers []Publisher
	log        *slog.Logger
	now        func() time.Time
}

// NewFanout skips nil publishers.
func NewFanout(publishers ...Publisher) *Fanout {
	set := make([]Publisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			set = append(set, p)
		}
	}
	return &Fanout{publishers: set, log: logger.Named("events"), now: time.Now}
}

// Publish sends event to all publishers and joins their errors.
func (f *Fanout) Publish(ctx context.Context, event Event) error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("publisher %s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// TransactionUpdated implements executor.Observer. Publish failures never
// affect the transaction and are only logged.
func (f *Fanout) TransactionUpdated(ctx context.Context, res executor.TransactionResult) {
	if f == nil || len(f.publishers) == 0 {
		return
	}
	if err := f.Publish(ctx, FromResult(res, f.now())); err != nil {
		f.log.WarnContext(ctx, "transaction event not delivered",
			slog.String("hash", res.HashHex()),
			slog.String("state", res.State.String()),
			slog.Any("error", err))
	}
}

var _ executor.Observer = (*Fanout)(nil)

// LogPublisher writes events to a structured logger, usually the audit log.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p *LogPublisher) Name() string { return "log" }

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	log := p.Logger
	if log == nil {
		log = logger.Audit()
	}
	attrs := []slog.Attr{
		slog.String("chain", event.Chain),
		slog.String("label", event.Label),
		slog.String("state", event.State),
		slog.String("hash", event.Hash),
	}
	if event.Status != nil {
		attrs = append(attrs, slog.Uint64("status", *event.Status))
	}
	log.LogAttrs(ctx, slog.LevelInfo, "transaction", attrs...)
	return nil
}
