package web3

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestParseChainAliases(t *testing.T) {
	cases := map[string]Chain{
		"bsc":             ChainBSC,
		" BSC ":           ChainBSC,
		"bnb smart chain": ChainBSC,
		"bscTestnet":      ChainBSCTestnet,
		"opBNB":           ChainOpBNB,
		"opbnb-testnet":   ChainOpBNBTestnet,
	}
	for in, want := range cases {
		got, ok := ParseChain(in)
		if !ok || got != want {
			t.Fatalf("ParseChain(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseChain("ethereum"); ok {
		t.Fatal("ethereum must not be supported")
	}
	if _, ok := ParseChain(""); ok {
		t.Fatal("empty chain must not parse")
	}
}

func TestExplorerURLs(t *testing.T) {
	if got := TxURL(ChainBSC, "0xabc"); got != "https://bscscan.com/tx/0xabc" {
		t.Fatalf("unexpected tx url %s", got)
	}
	if got := AddressURL(ChainOpBNBTestnet, "0x1"); got != "https://opbnb-testnet.bscscan.com/address/0x1" {
		t.Fatalf("unexpected address url %s", got)
	}
	if got := TxURL(Chain("nope"), "0xabc"); got != "" {
		t.Fatalf("unknown chain must yield empty url, got %s", got)
	}
}

func TestSpaceIDResolver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/getAddress" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("domain") == "alice" {
			_, _ = w.Write([]byte(`{"code":0,"msg":"ok","address":"0x00000000000000000000000000000000000000a1"}`))
			return
		}
		_, _ = w.Write([]byte(`{"code":1,"msg":"not found","address":""}`))
	}))
	defer server.Close()

	resolver := NewSpaceIDResolver(WithSpaceIDBaseURL(server.URL), WithSpaceIDHTTPClient(server.Client()))
	addr, err := resolver.Resolve(context.Background(), "Alice.bnb")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if addr != common.HexToAddress("0x00000000000000000000000000000000000000a1") {
		t.Fatalf("unexpected address %s", addr.Hex())
	}
	if _, err := resolver.Resolve(context.Background(), "bob.bnb"); !errors.Is(err, ErrNameNotFound) {
		t.Fatalf("expected ErrNameNotFound, got %v", err)
	}
	if _, err := resolver.Resolve(context.Background(), "bob.eth"); !errors.Is(err, ErrNameNotFound) {
		t.Fatalf("non .bnb names must not resolve, got %v", err)
	}
}

func TestChainResolversFallThrough(t *testing.T) {
	book, err := NewAddressBook(map[string]string{"Treasury": "0x00000000000000000000000000000000000000b2"})
	if err != nil {
		t.Fatalf("address book: %v", err)
	}
	chain := ChainResolvers{AddressBook{}, book}
	addr, err := chain.Resolve(context.Background(), "treasury")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if addr != common.HexToAddress("0x00000000000000000000000000000000000000b2") {
		t.Fatalf("unexpected address %s", addr.Hex())
	}
	if _, err := chain.Resolve(context.Background(), "unknown"); !errors.Is(err, ErrNameNotFound) {
		t.Fatalf("expected ErrNameNotFound, got %v", err)
	}
	if _, err := NewAddressBook(map[string]string{"bad": "0x12"}); err == nil {
		t.Fatal("expected invalid address to be rejected")
	}
}

func TestLoadChainDefinitions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chains.yaml")
	content := "chains:\n  bsc:\n    rpc_url: https://bsc.example\n  opBNB:\n    rpc_url: https://opbnb.example\n    gas_multiplier: 1.5\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	defs, err := LoadChainDefinitions(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if defs.Chains["opBNB"].GasMultiplier != 1.5 {
		t.Fatalf("unexpected definitions %+v", defs)
	}

	merged := defs.Merge(map[Chain]string{ChainBSC: "https://override.example", ChainBSCTestnet: ""})
	if merged.Chains["bsc"].RPCURL != "https://override.example" {
		t.Fatalf("override not applied: %+v", merged.Chains["bsc"])
	}
	if _, ok := merged.Chains["bscTestnet"]; ok {
		t.Fatal("empty override must not create a chain")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("chains:\n  ethereum:\n    rpc_url: x\n"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	if _, err := LoadChainDefinitions(bad); err == nil {
		t.Fatal("expected unsupported chain to be rejected")
	}
}
