package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"BNBChain-Agent/internal/executor"
	"BNBChain-Agent/internal/web3"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveAction(t *testing.T) {
	before := testutil.ToFloat64(ActionsTotal.WithLabelValues("TRANSFER", "ok"))
	ObserveAction("TRANSFER", "", 150*time.Millisecond)
	ObserveAction("TRANSFER", "INSUFFICIENT_FUNDS", time.Second)

	if got := testutil.ToFloat64(ActionsTotal.WithLabelValues("TRANSFER", "ok")); got != before+1 {
		t.Fatalf("ok counter = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(ActionsTotal.WithLabelValues("TRANSFER", "INSUFFICIENT_FUNDS")); got < 1 {
		t.Fatalf("error counter not incremented: %v", got)
	}
}

func TestTransactionObserver(t *testing.T) {
	counter := Transactions.WithLabelValues("opBNB", "confirmed")
	before := testutil.ToFloat64(counter)
	TransactionObserver{}.TransactionUpdated(context.Background(), executor.TransactionResult{Chain: web3.ChainOpBNB, State: executor.StateConfirmed})
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Fatalf("transactions counter = %v, want %v", got, before+1)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveHTTPRequest("/api/v1/actions/{name}", http.MethodPost, http.StatusBadGateway, 20*time.Millisecond)
	if got := testutil.ToFloat64(HTTPErrors.WithLabelValues("/api/v1/actions/{name}", http.MethodPost)); got < 1 {
		t.Fatalf("server errors not counted: %v", got)
	}

	srv := httptest.NewServer(Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "bnbagent_http_requests_total") {
		t.Fatalf("metrics output missing request counter:\n%s", body)
	}
}

func TestStartServerRequiresAddress(t *testing.T) {
	if err := StartServer(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty address")
	}
}
