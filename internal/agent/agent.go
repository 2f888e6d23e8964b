package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/history"
	"BNBChain-Agent/internal/llm"
	"BNBChain-Agent/internal/observability/metrics"
	"BNBChain-Agent/pkg/logger"
	"BNBChain-Agent/pkg/plugin"

	"github.com/google/uuid"
)

// Request asks the agent to run one action.
type Request struct {
	ID      string         `json:"id,omitempty"`
	Action  string         `json:"action"`
	Text    string         `json:"text"`
	Options map[string]any `json:"options,omitempty"`
}

// Response is the outcome of a dispatch.
type Response struct {
	RequestID  string        `json:"requestId"`
	Action     string        `json:"action"`
	Result     plugin.Result `json:"result"`
	DurationMS int64         `json:"durationMs"`
}

// Agent dispatches actions registered with a plugin manager.
type Agent struct {
	mu          sync.Mutex
	manager     *plugin.Manager
	history     history.Store
	memoryDepth int
	log         *slog.Logger
	audit       *slog.Logger
	now         func() time.Time
	newID       func() string
}

// Option defines optional Agent configuration.
type Option func(*Agent)

const defaultMemoryDepth = 5

// WithHistory sets the store that receives every outcome.
func WithHistory(store history.Store) Option {
	return func(a *Agent) {
		a.history = store
	}
}

// WithMemoryDepth sets how many earlier actions are handed to the model.
func WithMemoryDepth(depth int) Option {
	return func(a *Agent) {
		a.memoryDepth = depth
	}
}

// WithAuditLogger replaces the audit logger.
func WithAuditLogger(log *slog.Logger) Option {
	return func(a *Agent) {
		if log != nil {
			a.audit = log
		}
	}
}

// New creates an agent over manager.
func New(manager *plugin.Manager, opts ...Option) *Agent {
	a := &Agent{
		manager:     manager,
		memoryDepth: defaultMemoryDepth,
		log:         logger.Named("agent"),
		audit:       logger.Audit(),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.memoryDepth <= 0 {
		a.memoryDepth = defaultMemoryDepth
	}
	return a
}

// Dispatch runs the named action. The only errors returned are for requests
// that never reach a handler; handler failures are part of the Result.
// Dispatches are serialized.
func (a *Agent) Dispatch(ctx context.Context, req Request) (*Response, error) {
	if a.manager == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "no action registry configured")
	}
	if strings.TrimSpace(req.Action) == "" {
		return nil, xerrors.New(xerrors.CodeValidationFailed, "action is required", xerrors.WithMetadata("field", "action"))
	}
	action, err := a.manager.Get(req.Action)
	if err != nil {
		switch {
		case errors.Is(err, plugin.ErrNotRegistered):
			return nil, xerrors.Wrap(xerrors.CodeNotFound, err, "unknown action", xerrors.WithMetadata("action", req.Action))
		case errors.Is(err, plugin.ErrDisabled):
			return nil, xerrors.Wrap(xerrors.CodeValidationFailed, err, "action unavailable", xerrors.WithMetadata("action", req.Action))
		default:
			return nil, err
		}
	}

	if req.ID == "" {
		req.ID = a.newID()
	}
	name := action.Info().Name
	msg := plugin.Message{RequestID: req.ID, Text: req.Text, Options: req.Options}

	a.mu.Lock()
	start := a.now()
	result := a.handle(ctx, action, msg)
	elapsed := a.now().Sub(start)
	a.mu.Unlock()

	a.record(ctx, req, name, result, elapsed)
	return &Response{RequestID: req.ID, Action: name, Result: result, DurationMS: elapsed.Milliseconds()}, nil
}

// handle converts a handler panic into a failed result.
func (a *Agent) handle(ctx context.Context, action plugin.Action, msg plugin.Message) (result plugin.Result) {
	defer func() {
		if r := recover(); r != nil {
			a.log.ErrorContext(ctx, "action panicked", slog.String("request_id", msg.RequestID), slog.Any("panic", r))
			result = plugin.Result{
				Text:  "The action failed unexpectedly.",
				Error: &plugin.ErrorInfo{Kind: string(xerrors.CodeUnknown), Message: fmt.Sprint(r)},
			}
		}
	}()
	return action.Handle(ctx, msg)
}

func (a *Agent) record(ctx context.Context, req Request, name string, result plugin.Result, elapsed time.Duration) {
	kind := ""
	if result.Error != nil {
		kind = result.Error.Kind
	}
	chain, _ := result.Content["chain"].(string)
	hash, _ := result.Content["hash"].(string)

	metrics.ObserveAction(name, kind, elapsed)
	a.audit.InfoContext(ctx, "action dispatched",
		slog.String("request_id", req.ID),
		slog.String("action", name),
		slog.String("chain", chain),
		slog.String("hash", hash),
		slog.Bool("success", result.Success),
		slog.String("kind", kind),
		slog.Duration("duration", elapsed))

	if a.history == nil {
		return
	}
	rec := &history.Record{
		RequestID: req.ID,
		Action:    name,
		Text:      req.Text,
		Chain:     chain,
		Success:   result.Success,
		Kind:      kind,
		Hash:      hash,
		Outcome:   result.Text,
		CreatedAt: a.now().Unix(),
	}
	if err := a.history.Save(ctx, rec); err != nil {
		a.log.WarnContext(ctx, "history record not saved", slog.String("request_id", req.ID), slog.Any("error", err))
	}
}

// Actions returns the action catalogue.
func (a *Agent) Actions() []plugin.Descriptor {
	if a.manager == nil {
		return nil
	}
	return a.manager.List()
}

// History returns the latest records, newest first.
func (a *Agent) History(ctx context.Context, limit int) ([]history.Record, error) {
	if a.history == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "no history store configured")
	}
	records, err := a.history.ListLatest(ctx, limit)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "list history")
	}
	return records, nil
}

// Recent returns up to limit earlier actions as model context. It is safe to
// call from inside a running handler.
func (a *Agent) Recent(ctx context.Context, limit int) []llm.HistoryEntry {
	if a.history == nil {
		return nil
	}
	if limit <= 0 || limit > a.memoryDepth {
		limit = a.memoryDepth
	}
	records, err := a.history.ListLatest(ctx, limit)
	if err != nil {
		a.log.WarnContext(ctx, "history unavailable for model context", slog.Any("error", err))
		return nil
	}
	return history.Entries(records)
}
