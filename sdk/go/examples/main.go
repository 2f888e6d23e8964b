package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"BNBChain-Agent/sdk/go/bnbagent"
)

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/actions", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"actions": []bnbagent.Action{
			{Name: "GET_BALANCE", State: "enabled"},
			{Name: "TRANSFER", State: "enabled"},
		}})
	})
	mux.HandleFunc("/api/v1/actions/GET_BALANCE", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(bnbagent.Response{
			RequestID: "demo",
			Action:    "GET_BALANCE",
			Result: bnbagent.Result{
				Success: true,
				Text:    "Balance of 0x1234 on bsc: 1.5 BNB",
				Content: map[string]any{"chain": "bsc", "balance": "1.5", "token": "BNB"},
			},
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := bnbagent.NewClient(srv.URL, srv.Client())
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	actions, err := client.Actions(ctx)
	if err != nil {
		panic(err)
	}
	for _, a := range actions {
		fmt.Printf("action %s (%s)\n", a.Name, a.State)
	}

	resp, err := client.Dispatch(ctx, "GET_BALANCE", bnbagent.Request{Text: "what is my BNB balance on bsc"})
	if err != nil {
		panic(err)
	}
	fmt.Printf("%s: %s\n", resp.Action, resp.Result.Text)
}
