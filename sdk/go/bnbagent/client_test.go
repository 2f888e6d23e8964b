package bnbagent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDispatchPostsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/agent/api/v1/actions/SEND_TOKEN" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.Text != "send 0.1 BNB to alice.bnb" || req.Options["chain"] != "bscTestnet" {
			t.Errorf("unexpected body %+v", req)
		}
		_ = json.NewEncoder(w).Encode(Response{
			RequestID: "req-1",
			Action:    "TRANSFER",
			Result: Result{
				Success: true,
				Text:    "Transferred 0.1 BNB",
				Content: map[string]any{"hash": "0xabc"},
			},
		})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL+"/agent", srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	resp, err := client.Dispatch(context.Background(), "SEND_TOKEN", Request{
		Text:    "send 0.1 BNB to alice.bnb",
		Options: map[string]any{"chain": "bscTestnet"},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if resp.Action != "TRANSFER" || resp.Result.Hash() != "0xabc" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAPIErrorDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"unknown action","details":{"action":"FLY"}}}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Dispatch(context.Background(), "FLY", Request{Text: "fly"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "NOT_FOUND" || apiErr.Details["action"] != "FLY" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestHistoryAndActions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/history":
			if r.URL.Query().Get("limit") != "5" {
				t.Errorf("unexpected limit %q", r.URL.Query().Get("limit"))
			}
			_, _ = w.Write([]byte(`{"records":[{"id":3,"action":"SWAP","success":false,"errorKind":"ROUTE_NOT_FOUND"}]}`))
		case "/api/v1/actions":
			_, _ = w.Write([]byte(`{"actions":[{"name":"GET_BALANCE","state":"enabled"},{"name":"STAKE","state":"disabled","reason":"capability signing denied"}]}`))
		case "/healthz":
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	records, err := client.History(context.Background(), 5)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 1 || records[0].Kind != "ROUTE_NOT_FOUND" {
		t.Fatalf("unexpected records %+v", records)
	}
	actions, err := client.Actions(context.Background())
	if err != nil {
		t.Fatalf("actions: %v", err)
	}
	if len(actions) != 2 || actions[1].State != "disabled" {
		t.Fatalf("unexpected actions %+v", actions)
	}
	if err := client.Healthy(context.Background()); err != nil {
		t.Fatalf("healthy: %v", err)
	}
}
