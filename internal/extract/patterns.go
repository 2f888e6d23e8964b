package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/normalize"
	"BNBChain-Agent/internal/web3"
)

const (
	amountExpr  = `\d+(?:\.\d+)?|\.\d+`
	addressExpr = `0x[0-9a-fA-F]{40}`
	tokenExpr   = addressExpr + `|[A-Za-z][A-Za-z0-9]{0,15}`
	nameExpr    = `[A-Za-z0-9-]+\.bnb`
	// Known unsupported chains are matched on purpose so that naming them
	// fails validation instead of falling back to the default chain.
	chainExpr = `bnb\s+smart\s+chain\s+testnet|bsc[\s-]?testnet|opbnb[\s-]?testnet|bnb\s+smart\s+chain|opbnb|bsc|` +
		`ethereum|polygon|arbitrum|optimism|avalanche|solana|base|tron`
)

var (
	onChainPattern   = regexp.MustCompile(`(?i)\bon\s+(?:the\s+)?(?P<chain>` + chainExpr + `)\b`)
	recipientPattern = regexp.MustCompile(`(?i)\bto\s+(?P<to>` + addressExpr + `|` + nameExpr + `)\b`)
)

// Defaults applied when neither text nor model yields a value.
const (
	DefaultTradeAmount  = "0.001"
	DefaultSlippage     = "0.05"
	DefaultDecimals     = "18"
	DefaultTotalSupply  = "1000000000"
	MaxSlippage         = 0.5
	DefaultVisibility   = "private"
	DefaultFaucetSymbol = web3.NativeSymbol
)

func chainField(keys ...string) Field {
	if len(keys) == 0 {
		keys = []string{"chain"}
	}
	return Field{Name: "chain", Keys: keys, Rules: []Rule{{Pattern: onChainPattern, Group: "chain"}}}
}

// resolveChain defaults an absent chain to the primary mainnet and rejects
// a present but unsupported one.
func resolveChain(v Value, field string) (web3.Chain, error) {
	if !v.Found() {
		return web3.DefaultChain, nil
	}
	chain, ok := web3.ParseChain(v.Raw)
	if !ok {
		return "", invalid(field, fmt.Sprintf("unsupported chain %q", v.Raw))
	}
	return chain, nil
}

func invalid(field, msg string) error {
	return xerrors.New(xerrors.CodeValidationFailed, msg, xerrors.WithMetadata("field", field))
}

func missing(field string) error {
	return invalid(field, fmt.Sprintf("%s is required", field))
}

func tokenRef(v Value) normalize.TokenRef {
	if !v.Found() {
		return normalize.TokenRef{Kind: normalize.TokenUnset}
	}
	return normalize.ParseTokenRef(v.Raw)
}

// checkAmount validates syntax without knowing decimals yet.
func checkAmount(v Value, field string) (string, error) {
	if !v.Found() {
		return "", nil
	}
	if _, err := normalize.ToBaseUnits(v.Raw, 36); err != nil {
		return "", invalid(field, fmt.Sprintf("invalid %s %q", field, v.Raw))
	}
	return v.Raw, nil
}

func positiveAmount(v Value, field string) (string, error) {
	amount, err := checkAmount(v, field)
	if err != nil {
		return "", err
	}
	if amount == "" {
		return "", missing(field)
	}
	if value, _ := normalize.ToBaseUnits(amount, 36); value.Sign() <= 0 {
		return "", invalid(field, fmt.Sprintf("%s must be greater than zero", field))
	}
	return amount, nil
}

func percentToFraction(s string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(f/100, 'f', -1, 64)
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
