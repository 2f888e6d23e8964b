package extract

import (
	"fmt"
	"regexp"
	"strings"

	"BNBChain-Agent/internal/faucet"
	"BNBChain-Agent/internal/web3"
)

var (
	faucetTokenPattern = regexp.MustCompile(`(?i)\b(?P<token>` + strings.Join(faucet.SupportedTokens(), "|") + `)\b`)
	faucetToPattern    = regexp.MustCompile(`(?P<to>` + addressExpr + `)`)
)

// FaucetParams describes a testnet faucet request. To is empty for the
// wallet's own address.
type FaucetParams struct {
	Chain web3.Chain
	Token string
	To    string
}

// Faucet extracts the testnet faucet recipient from src.
func Faucet(src Source) (FaucetParams, error) {
	chainValue := src.Resolve(chainField())
	if chainValue.Found() {
		chain, err := resolveChain(chainValue, "chain")
		if err != nil {
			return FaucetParams{}, err
		}
		if chain != web3.ChainBSCTestnet {
			return FaucetParams{}, invalid("chain", fmt.Sprintf("the faucet only serves %s", web3.ChainBSCTestnet))
		}
	}
	token := src.Resolve(Field{
		Name:    "token",
		Keys:    []string{"token", "symbol"},
		Upper:   true,
		Default: DefaultFaucetSymbol,
		Rules:   []Rule{{Pattern: faucetTokenPattern, Group: "token"}},
	})
	if !faucet.Supports(token.Raw) {
		return FaucetParams{}, invalid("token", fmt.Sprintf("faucet does not provide %s; supported: %s",
			token.Raw, strings.Join(faucet.SupportedTokens(), ", ")))
	}
	to := src.Resolve(Field{
		Name:  "toAddress",
		Keys:  []string{"toAddress", "address", "recipient"},
		Rules: []Rule{{Pattern: faucetToPattern, Group: "to"}},
	})
	return FaucetParams{Chain: web3.ChainBSCTestnet, Token: strings.ToUpper(token.Raw), To: to.Raw}, nil
}
