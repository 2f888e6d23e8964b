package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"BNBChain-Agent/internal/agent"
	"BNBChain-Agent/internal/auth"
	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/history"
	"BNBChain-Agent/internal/observability/metrics"
	"BNBChain-Agent/pkg/logger"
	"BNBChain-Agent/pkg/plugin"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Runtime is the part of the agent the server drives.
type Runtime interface {
	Dispatch(ctx context.Context, req agent.Request) (*agent.Response, error)
	Actions() []plugin.Descriptor
	History(ctx context.Context, limit int) ([]history.Record, error)
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
	maxBodyBytes        = 1 << 20
)

// Server exposes the agent runtime over REST.
type Server struct {
	addr    string
	runtime Runtime
	auth    *auth.Service
	log     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithAuth guards the /api/v1 routes with API keys.
func WithAuth(svc *auth.Service) Option {
	return func(s *Server) {
		s.auth = svc
	}
}

// NewServer builds a server listening on addr.
func NewServer(addr string, runtime Runtime, opts ...Option) *Server {
	s := &Server{addr: addr, runtime: runtime, log: logger.Named("api")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observe)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Route("/api/v1", func(api chi.Router) {
		api.With(s.auth.Require(auth.PermissionActionsRead)).Get("/actions", s.handleListActions)
		api.With(s.auth.Require(auth.PermissionActionsDispatch)).Post("/actions/{name}", s.handleDispatch)
		api.With(s.auth.Require(auth.PermissionHistoryRead)).Get("/history", s.handleHistory)
	})
	return r
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, s.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.Info("api listening", slog.String("addr", s.addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListActions(w http.ResponseWriter, _ *http.Request) {
	if s.runtime == nil {
		writeError(w, xerrors.New(xerrors.CodeInitializationFailure, "agent not initialised"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": s.runtime.Actions()})
}

type dispatchBody struct {
	RequestID string         `json:"requestId"`
	Text      string         `json:"text"`
	Options   map[string]any `json:"options"`
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	if s.runtime == nil {
		writeError(w, xerrors.New(xerrors.CodeInitializationFailure, "agent not initialised"))
		return
	}
	var body dispatchBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		writeError(w, xerrors.Wrap(xerrors.CodeValidationFailed, err, "invalid request body"))
		return
	}
	resp, err := s.runtime.Dispatch(r.Context(), agent.Request{
		ID:      body.RequestID,
		Action:  chi.URLParam(r, "name"),
		Text:    body.Text,
		Options: body.Options,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.runtime == nil {
		writeError(w, xerrors.New(xerrors.CodeInitializationFailure, "agent not initialised"))
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, xerrors.New(xerrors.CodeValidationFailed, "limit must be a positive integer"))
			return
		}
		limit = min(parsed, maxHistoryLimit)
	}
	records, err := s.runtime.History(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	code := xerrors.CodeOf(err)
	body := errorBody{Code: string(code), Message: err.Error()}
	if coded, ok := xerrors.From(err); ok {
		body.Message = coded.Message()
		body.Details = coded.Metadata()
	}
	writeJSON(w, statusFor(code), map[string]any{"error": body})
}

func statusFor(code xerrors.Code) int {
	switch code {
	case xerrors.CodeValidationFailed:
		return http.StatusBadRequest
	case xerrors.CodeNotFound:
		return http.StatusNotFound
	case xerrors.CodeInitializationFailure:
		return http.StatusServiceUnavailable
	case xerrors.CodeRateLimited:
		return http.StatusTooManyRequests
	case xerrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// observe records request metrics under the matched route pattern.
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.ObserveHTTPRequest(route, r.Method, status, time.Since(start))
	})
}

// withContext rejects requests once the root context is cancelled.
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			http.Error(w, "server shutting down", http.StatusServiceUnavailable)
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}
