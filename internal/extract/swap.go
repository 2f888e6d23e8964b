package extract

import (
	"fmt"
	"regexp"
	"strconv"

	"BNBChain-Agent/internal/normalize"
	"BNBChain-Agent/internal/web3"
)

var (
	swapPattern         = regexp.MustCompile(`(?i)\bswap\s+(?P<amount>` + amountExpr + `)\s*(?P<from>` + tokenExpr + `)\s+(?:for|to|into)\s+(?P<to>` + tokenExpr + `)\b`)
	swapNoAmountPattern = regexp.MustCompile(`(?i)\bswap\s+(?:my\s+)?(?P<from>` + tokenExpr + `)\s+(?:for|to|into)\s+(?P<to>` + tokenExpr + `)\b`)
	slippagePattern     = regexp.MustCompile(`(?i)\b(?P<slippage>\d+(?:\.\d+)?)\s*%\s*slippage\b`)
	slippageOfPattern   = regexp.MustCompile(`(?i)\bslippage\s*(?:of|:|=)?\s*(?P<slippage>\d+(?:\.\d+)?)\s*%`)
)

// SwapParams describes a same-chain token exchange. Slippage is a fraction.
type SwapParams struct {
	Chain    web3.Chain
	From     normalize.TokenRef
	To       normalize.TokenRef
	Amount   string
	Slippage float64
}

// Swap extracts token swap parameters from src.
func Swap(src Source) (SwapParams, error) {
	chain, err := resolveChain(src.Resolve(chainField()), "chain")
	if err != nil {
		return SwapParams{}, err
	}
	from := src.Resolve(Field{
		Name:  "inputToken",
		Keys:  []string{"inputToken", "fromToken"},
		Upper: true,
		Rules: []Rule{{Pattern: swapPattern, Group: "from"}, {Pattern: swapNoAmountPattern, Group: "from"}},
	})
	to := src.Resolve(Field{
		Name:  "outputToken",
		Keys:  []string{"outputToken", "toToken"},
		Upper: true,
		Rules: []Rule{{Pattern: swapPattern, Group: "to"}, {Pattern: swapNoAmountPattern, Group: "to"}},
	})
	if !to.Found() {
		return SwapParams{}, missing("outputToken")
	}
	amount, err := positiveAmount(src.Resolve(Field{
		Name:    "amount",
		Keys:    []string{"amount"},
		Numeric: true,
		Default: DefaultTradeAmount,
		Rules:   []Rule{{Pattern: swapPattern, Group: "amount"}},
	}), "amount")
	if err != nil {
		return SwapParams{}, err
	}
	slippageValue := src.Resolve(Field{
		Name:    "slippage",
		Keys:    []string{"slippage"},
		Numeric: true,
		Default: DefaultSlippage,
		Rules: []Rule{
			{Pattern: slippagePattern, Group: "slippage", Convert: percentToFraction},
			{Pattern: slippageOfPattern, Group: "slippage", Convert: percentToFraction},
		},
	})
	slippage, err := strconv.ParseFloat(slippageValue.Raw, 64)
	if err != nil || slippage <= 0 || slippage > MaxSlippage {
		return SwapParams{}, invalid("slippage", fmt.Sprintf("slippage %q must be a fraction in (0, %g]", slippageValue.Raw, MaxSlippage))
	}

	params := SwapParams{Chain: chain, From: tokenRef(from), To: tokenRef(to), Amount: amount, Slippage: slippage}
	if params.From.IsNative() == params.To.IsNative() && params.From.Display() == params.To.Display() {
		return SwapParams{}, invalid("outputToken", "input and output tokens must differ")
	}
	return params, nil
}
