package extract

import (
	"fmt"
	"regexp"

	"BNBChain-Agent/internal/normalize"
	"BNBChain-Agent/internal/web3"
)

var (
	bridgePattern        = regexp.MustCompile(`(?i)\bbridge\s+(?:(?P<amount>` + amountExpr + `)\s*)?(?:(?P<token>` + tokenExpr + `)\s+)?from\s+(?P<from>` + chainExpr + `)\s+to\s+(?P<to>` + chainExpr + `)\b`)
	bridgeFromPattern    = regexp.MustCompile(`(?i)\bfrom\s+(?P<from>` + chainExpr + `)\b`)
	bridgeToChainPattern = regexp.MustCompile(`(?i)\bto\s+(?P<to>` + chainExpr + `)\b`)
	bridgeToTokenPattern = regexp.MustCompile(`(?i)\b(?:to\s+token|receive\s+token|l2\s+token|l1\s+token)\s+(?P<token>` + addressExpr + `)`)
)

// BridgeDirection is the side of the canonical bridge a transfer starts from.
type BridgeDirection int

const (
	// BridgeDeposit moves funds from BSC to opBNB.
	BridgeDeposit BridgeDirection = iota + 1
	// BridgeWithdraw moves funds from opBNB back to BSC.
	BridgeWithdraw
)

func (d BridgeDirection) String() string {
	switch d {
	case BridgeDeposit:
		return "deposit"
	case BridgeWithdraw:
		return "withdraw"
	default:
		return "unknown"
	}
}

type chainPair struct{ from, to web3.Chain }

var bridgeRoutes = map[chainPair]BridgeDirection{
	{web3.ChainBSC, web3.ChainOpBNB}:               BridgeDeposit,
	{web3.ChainOpBNB, web3.ChainBSC}:               BridgeWithdraw,
	{web3.ChainBSCTestnet, web3.ChainOpBNBTestnet}: BridgeDeposit,
	{web3.ChainOpBNBTestnet, web3.ChainBSCTestnet}: BridgeWithdraw,
}

var bridgeCounterpart = map[web3.Chain]web3.Chain{
	web3.ChainBSC:          web3.ChainOpBNB,
	web3.ChainOpBNB:        web3.ChainBSC,
	web3.ChainBSCTestnet:   web3.ChainOpBNBTestnet,
	web3.ChainOpBNBTestnet: web3.ChainBSCTestnet,
}

// BridgeParams describes a transfer over the opBNB canonical bridge.
type BridgeParams struct {
	FromChain web3.Chain
	ToChain   web3.Chain
	Direction BridgeDirection
	FromToken normalize.TokenRef
	ToToken   normalize.TokenRef
	Amount    string
	// To is empty when the caller bridges to its own address.
	To string
}

// Bridge extracts cross-chain bridge parameters from src.
func Bridge(src Source) (BridgeParams, error) {
	fromChain, err := resolveChain(src.Resolve(Field{
		Name:  "fromChain",
		Keys:  []string{"fromChain"},
		Rules: []Rule{{Pattern: bridgePattern, Group: "from"}, {Pattern: bridgeFromPattern, Group: "from"}},
	}), "fromChain")
	if err != nil {
		return BridgeParams{}, err
	}
	toValue := src.Resolve(Field{
		Name:  "toChain",
		Keys:  []string{"toChain"},
		Rules: []Rule{{Pattern: bridgePattern, Group: "to"}, {Pattern: bridgeToChainPattern, Group: "to"}},
	})
	toChain := bridgeCounterpart[fromChain]
	if toValue.Found() {
		if toChain, err = resolveChain(toValue, "toChain"); err != nil {
			return BridgeParams{}, err
		}
	}
	direction, ok := bridgeRoutes[chainPair{fromChain, toChain}]
	if !ok {
		return BridgeParams{}, invalid("toChain", fmt.Sprintf("unsupported bridge direction %s -> %s", fromChain, toChain))
	}

	fromToken := tokenRef(src.Resolve(Field{
		Name:  "fromToken",
		Keys:  []string{"fromToken", "token"},
		Rules: []Rule{{Pattern: bridgePattern, Group: "token"}},
	}))
	toToken := tokenRef(src.Resolve(Field{
		Name:  "toToken",
		Keys:  []string{"toToken"},
		Rules: []Rule{{Pattern: bridgeToTokenPattern, Group: "token"}},
	}))
	if !fromToken.IsNative() && toToken.IsNative() {
		return BridgeParams{}, missing("toToken")
	}
	if fromToken.IsNative() && !toToken.IsNative() {
		return BridgeParams{}, invalid("toToken", "native bridging cannot target a token contract")
	}

	amount, err := positiveAmount(src.Resolve(Field{
		Name:    "amount",
		Keys:    []string{"amount"},
		Numeric: true,
		Default: DefaultTradeAmount,
		Rules:   []Rule{{Pattern: bridgePattern, Group: "amount"}},
	}), "amount")
	if err != nil {
		return BridgeParams{}, err
	}
	recipient := src.Resolve(Field{
		Name:  "toAddress",
		Keys:  []string{"toAddress", "recipient"},
		Rules: []Rule{{Pattern: recipientPattern, Group: "to"}},
	})
	return BridgeParams{
		FromChain: fromChain,
		ToChain:   toChain,
		Direction: direction,
		FromToken: fromToken,
		ToToken:   toToken,
		Amount:    amount,
		To:        recipient.Raw,
	}, nil
}
