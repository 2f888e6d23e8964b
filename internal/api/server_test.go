package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"BNBChain-Agent/internal/agent"
	"BNBChain-Agent/internal/auth"
	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/history"
	"BNBChain-Agent/pkg/plugin"
)

type stubRuntime struct {
	last    agent.Request
	limit   int
	records []history.Record
}

func (s *stubRuntime) Dispatch(_ context.Context, req agent.Request) (*agent.Response, error) {
	s.last = req
	if req.Action == "FLY" {
		return nil, xerrors.New(xerrors.CodeNotFound, "unknown action", xerrors.WithMetadata("action", req.Action))
	}
	return &agent.Response{
		RequestID: "req-7",
		Action:    req.Action,
		Result:    plugin.Result{Success: true, Text: "Balance on bsc: 1 BNB"},
	}, nil
}

func (s *stubRuntime) Actions() []plugin.Descriptor {
	return []plugin.Descriptor{{Info: plugin.Info{Name: "GET_BALANCE"}, State: plugin.StateEnabled}}
}

func (s *stubRuntime) History(_ context.Context, limit int) ([]history.Record, error) {
	s.limit = limit
	return s.records, nil
}

func TestDispatchRoute(t *testing.T) {
	rt := &stubRuntime{}
	handler := NewServer(":0", rt).Handler()

	body := strings.NewReader(`{"text":"what is my balance","options":{"chain":"bsc"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/actions/GET_BALANCE", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if rt.last.Action != "GET_BALANCE" || rt.last.Text != "what is my balance" || rt.last.Options["chain"] != "bsc" {
		t.Fatalf("unexpected dispatched request %+v", rt.last)
	}
	var resp agent.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RequestID != "req-7" || !resp.Result.Success {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestDispatchKeepsNumericOptionsExact(t *testing.T) {
	rt := &stubRuntime{}
	handler := NewServer(":0", rt).Handler()

	body := strings.NewReader(`{"text":"send it","options":{"toAddress":"bob.bnb","amount":0.1}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/actions/SEND_TOKEN", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	amount, ok := rt.last.Options["amount"].(json.Number)
	if !ok || amount.String() != "0.1" {
		t.Fatalf("amount = %#v, want json.Number 0.1", rt.last.Options["amount"])
	}
}

func TestDispatchUnknownAction(t *testing.T) {
	handler := NewServer(":0", &stubRuntime{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/actions/FLY", strings.NewReader(`{"text":"fly"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var payload struct {
		Error errorBody `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Code != "NOT_FOUND" || payload.Error.Details["action"] != "FLY" {
		t.Fatalf("unexpected error payload %+v", payload.Error)
	}
}

func TestDispatchRejectsBadBody(t *testing.T) {
	handler := NewServer(":0", &stubRuntime{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/actions/GET_BALANCE", strings.NewReader(`{`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestHistoryLimit(t *testing.T) {
	rt := &stubRuntime{records: []history.Record{{ID: 2, Action: "TRANSFER"}, {ID: 1, Action: "GET_BALANCE"}}}
	handler := NewServer(":0", rt).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=1000", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if rt.limit != maxHistoryLimit {
		t.Fatalf("limit should be capped, got %d", rt.limit)
	}
	var payload struct {
		Records []history.Record `json:"records"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Records) != 2 || payload.Records[0].Action != "TRANSFER" {
		t.Fatalf("unexpected records %+v", payload.Records)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=zero", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid limit should be rejected, got %d", rec.Code)
	}
}

func TestCatalogueAndHealth(t *testing.T) {
	handler := NewServer(":0", &stubRuntime{}).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/actions", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "GET_BALANCE") {
		t.Fatalf("unexpected catalogue %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected health status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "bnbagent_http_requests_total") {
		t.Fatalf("metrics endpoint missing http counters")
	}
}

func TestNilRuntimeIsUnavailable(t *testing.T) {
	handler := NewServer(":0", nil).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/actions", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestDispatchRequiresKey(t *testing.T) {
	svc, err := auth.NewService(auth.Config{Keys: []auth.KeyConfig{
		{Name: "viewer", SHA256: auth.Digest("view"), Permissions: []string{auth.PermissionActionsRead}},
	}})
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	rt := &stubRuntime{}
	handler := NewServer(":0", rt, WithAuth(svc)).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/actions/TRANSFER", strings.NewReader(`{"text":"send"}`))
	req.Header.Set("Authorization", "Bearer view")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden || rt.last.Action != "" {
		t.Fatalf("dispatch without permission must be rejected, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/actions", nil)
	req.Header.Set("Authorization", "Bearer view")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("catalogue should be readable, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health check must stay open, got %d", rec.Code)
	}
}
