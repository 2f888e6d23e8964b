package routing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/tokens"
	"BNBChain-Agent/internal/web3"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routesBody = `{"routes":[{"id":"r1","fromChainId":56,"toChainId":56,"fromAmount":"500000000000000000",
"toAmount":"300000000","toAmountMin":"290000000",
"steps":[{"id":"s1","type":"swap","tool":"pancakeswap","extra":{"keep":true},
"action":{"fromChainId":56,"toChainId":56,"fromAmount":"500000000000000000",
"fromToken":{"address":"0x0000000000000000000000000000000000000000","symbol":"BNB","decimals":18,"chainId":56},
"toToken":{"address":"0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d","symbol":"USDC","decimals":18,"chainId":56}},
"estimate":{"approvalAddress":"0x1231DEB6f5749EF6cE6943a275A1D3E7486F4EaE","fromAmount":"500000000000000000"}}]}]}`

func TestGetRoutesAndStepTransaction(t *testing.T) {
	var stepPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-lifi-api-key"))
		switch r.URL.Path {
		case "/advanced/routes":
			var req RouteRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, int64(56), req.FromChainID)
			assert.Equal(t, 0.05, req.Options.Slippage)
			assert.Equal(t, "RECOMMENDED", req.Options.Order)
			_, _ = io.WriteString(w, routesBody)
		case "/advanced/stepTransaction":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&stepPayload))
			_, _ = io.WriteString(w, `{"id":"s1","tool":"pancakeswap","action":{"fromToken":{"address":"0x0000000000000000000000000000000000000000"}},
"transactionRequest":{"to":"0x1231DEB6f5749EF6cE6943a275A1D3E7486F4EaE","data":"0x01","value":"0x06f05b59d3b20000","gasLimit":"0x030d40"}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "secret"})
	routes, err := client.GetRoutes(context.Background(), RouteRequest{
		FromChainID:      56,
		ToChainID:        56,
		FromTokenAddress: "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE",
		ToTokenAddress:   "0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d",
		FromAmount:       "500000000000000000",
		Options:          &RouteOptions{Slippage: 0.05},
	})
	require.NoError(t, err)
	require.Len(t, routes, 1)
	require.Len(t, routes[0].Steps, 1)
	step := routes[0].Steps[0]
	assert.False(t, step.NeedsApproval(), "native input never needs approval")

	populated, err := client.StepTransaction(context.Background(), step)
	require.NoError(t, err)
	assert.Contains(t, stepPayload, "extra", "the step must round-trip unchanged")
	value, err := DecodeQuantity(populated.TransactionRequest.Value)
	require.NoError(t, err)
	assert.Equal(t, "500000000000000000", value.String())
	gas, err := DecodeQuantity(populated.TransactionRequest.GasLimit)
	require.NoError(t, err)
	assert.Equal(t, int64(200000), gas.Int64())
}

func TestGetRoutesEmptyIsRouteNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"routes":[]}`)
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL}).GetRoutes(context.Background(), RouteRequest{})
	require.Error(t, err)
	assert.Equal(t, xerrors.CodeRouteNotFound, xerrors.CodeOf(err))
	assert.Equal(t, xerrors.CodeRouteNotFound, xerrors.Classify(err, xerrors.RouteFinding()).Kind)
}

func TestStatusErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("token") {
		case "BUSY":
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, `{"message":"Too many requests"}`)
		case "GONE":
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"Token not found"}`)
		default:
			_, _ = io.WriteString(w, `{"address":"0x55d398326f99059fF775485246999027B3197955","symbol":"usdt","decimals":18,"chainId":56,"name":"Tether USD"}`)
		}
	}))
	defer server.Close()
	client := NewClient(Config{BaseURL: server.URL})

	_, err := client.Token(context.Background(), 56, "BUSY")
	assert.Equal(t, xerrors.CodeRateLimited, xerrors.CodeOf(err))

	_, err = client.Lookup(context.Background(), web3.ChainBSC, "GONE")
	assert.ErrorIs(t, err, tokens.ErrNotFound)

	token, err := client.Lookup(context.Background(), web3.ChainBSC, "usdt")
	require.NoError(t, err)
	assert.Equal(t, "USDT", token.Symbol)
	assert.Equal(t, common.HexToAddress("0x55d398326f99059fF775485246999027B3197955"), token.Address)
	assert.Equal(t, web3.ChainBSC, token.Chain)
}

func TestDecodeQuantity(t *testing.T) {
	for in, want := range map[string]string{"": "0", "0x": "0", "0x00": "0", "0x0a": "10", "42": "42"} {
		got, err := DecodeQuantity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}
	_, err := DecodeQuantity("nope")
	assert.Error(t, err)
}

func TestNeedsApproval(t *testing.T) {
	step := Step{
		Action:   StepAction{FromToken: Token{Address: "0x55d398326f99059fF775485246999027B3197955"}},
		Estimate: StepEstimate{ApprovalAddress: "0x1231DEB6f5749EF6cE6943a275A1D3E7486F4EaE"},
	}
	assert.True(t, step.NeedsApproval())
	step.Action.FromToken.Address = strings.ToLower("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")
	assert.False(t, step.NeedsApproval())
}
