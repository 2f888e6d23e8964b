package routing

import (
	"encoding/json"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Token is the token shape used in route payloads.
type Token struct {
	Address  string `json:"address"`
	ChainID  int64  `json:"chainId"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name,omitempty"`
	Decimals int    `json:"decimals"`
	PriceUSD string `json:"priceUSD,omitempty"`
}

// RouteRequest asks for swap or bridge routes between two tokens.
type RouteRequest struct {
	FromChainID      int64         `json:"fromChainId"`
	ToChainID        int64         `json:"toChainId"`
	FromTokenAddress string        `json:"fromTokenAddress"`
	ToTokenAddress   string        `json:"toTokenAddress"`
	FromAmount       string        `json:"fromAmount"`
	FromAddress      string        `json:"fromAddress,omitempty"`
	ToAddress        string        `json:"toAddress,omitempty"`
	Options          *RouteOptions `json:"options,omitempty"`
}

type RouteOptions struct {
	Slippage   float64 `json:"slippage,omitempty"`
	Order      string  `json:"order,omitempty"`
	Integrator string  `json:"integrator,omitempty"`
}

// Route is one candidate path. Steps run in order.
type Route struct {
	ID          string `json:"id"`
	FromChainID int64  `json:"fromChainId"`
	ToChainID   int64  `json:"toChainId"`
	FromAmount  string `json:"fromAmount"`
	ToAmount    string `json:"toAmount"`
	ToAmountMin string `json:"toAmountMin"`
	FromToken   Token  `json:"fromToken"`
	ToToken     Token  `json:"toToken"`
	Steps       []Step `json:"steps"`
}

type StepAction struct {
	FromChainID int64   `json:"fromChainId"`
	ToChainID   int64   `json:"toChainId"`
	FromToken   Token   `json:"fromToken"`
	ToToken     Token   `json:"toToken"`
	FromAmount  string  `json:"fromAmount"`
	Slippage    float64 `json:"slippage,omitempty"`
}

type StepEstimate struct {
	ApprovalAddress string `json:"approvalAddress"`
	FromAmount      string `json:"fromAmount"`
	ToAmount        string `json:"toAmount"`
	ToAmountMin     string `json:"toAmountMin"`
}

// TransactionRequest is the unsigned transaction of a step. Numeric fields
// are hex quantities.
type TransactionRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	GasLimit string `json:"gasLimit"`
	GasPrice string `json:"gasPrice"`
	ChainID  int64  `json:"chainId"`
}

// Step is a single hop of a route. The raw payload is kept because the
// step transaction endpoint expects the step back as it was received.
type Step struct {
	ID                 string              `json:"id"`
	Type               string              `json:"type"`
	Tool               string              `json:"tool"`
	Action             StepAction          `json:"action"`
	Estimate           StepEstimate        `json:"estimate"`
	TransactionRequest *TransactionRequest `json:"transactionRequest,omitempty"`

	raw json.RawMessage
}

type stepAlias Step

func (s *Step) UnmarshalJSON(data []byte) error {
	var alias stepAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*s = Step(alias)
	s.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (s Step) MarshalJSON() ([]byte, error) {
	if len(s.raw) > 0 {
		return s.raw, nil
	}
	return json.Marshal(stepAlias(s))
}

// NeedsApproval reports whether the step spends an ERC20 token through an
// approval address.
func (s Step) NeedsApproval() bool {
	if strings.TrimSpace(s.Estimate.ApprovalAddress) == "" {
		return false
	}
	return !IsNativeAddress(s.Action.FromToken.Address)
}

var nativeAddresses = map[common.Address]struct{}{
	{}: {},
	common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"): {},
}

// IsNativeAddress reports whether addr denotes the native asset in routing payloads.
func IsNativeAddress(addr string) bool {
	if !common.IsHexAddress(addr) {
		return strings.TrimSpace(addr) == ""
	}
	_, ok := nativeAddresses[common.HexToAddress(addr)]
	return ok
}

// DecodeQuantity parses hex or decimal quantities. Empty input is zero.
func DecodeQuantity(v string) (*big.Int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return new(big.Int), nil
	}
	if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
		digits := strings.TrimLeft(v[2:], "0")
		if digits == "" {
			return new(big.Int), nil
		}
		return hexutil.DecodeBig("0x" + digits)
	}
	out, ok := new(big.Int).SetString(v, 10)
	if !ok {
		return nil, hexutil.ErrSyntax
	}
	return out, nil
}
