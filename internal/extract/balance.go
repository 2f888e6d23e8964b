package extract

import (
	"regexp"

	"BNBChain-Agent/internal/normalize"
	"BNBChain-Agent/internal/web3"
)

var (
	balanceTokenPattern   = regexp.MustCompile(`\b(?P<token>[A-Z][A-Z0-9]{1,15})\s+(?i:balance)\b`)
	balanceOfTokenPattern = regexp.MustCompile(`(?i:balance\s+(?:of|in)\s+)(?P<token>[A-Z][A-Z0-9]{1,15})\b`)
	balanceAddrPattern    = regexp.MustCompile(`(?i)\b(?:of|for|at)\s+(?:address\s+)?(?P<address>` + addressExpr + `|` + nameExpr + `)\b`)
)

// BalanceParams selects the account and asset whose balance is read.
type BalanceParams struct {
	Chain web3.Chain
	Token normalize.TokenRef
	// Address is empty for the wallet's own account.
	Address string
}

// Balance extracts the address and optional token for a balance query.
func Balance(src Source) (BalanceParams, error) {
	chain, err := resolveChain(src.Resolve(chainField()), "chain")
	if err != nil {
		return BalanceParams{}, err
	}
	token := src.Resolve(Field{
		Name: "token",
		Keys: []string{"token", "symbol"},
		Rules: []Rule{
			{Pattern: balanceTokenPattern, Group: "token"},
			{Pattern: balanceOfTokenPattern, Group: "token"},
		},
	})
	address := src.Resolve(Field{
		Name:  "address",
		Keys:  []string{"address", "account"},
		Rules: []Rule{{Pattern: balanceAddrPattern, Group: "address"}},
	})
	return BalanceParams{Chain: chain, Token: tokenRef(token), Address: address.Raw}, nil
}
