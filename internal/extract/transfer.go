package extract

import (
	"regexp"
	"strings"

	"BNBChain-Agent/internal/normalize"
	"BNBChain-Agent/internal/web3"
)

var (
	transferPattern    = regexp.MustCompile(`(?i)\b(?:send|transfer|pay)\s+(?P<amount>` + amountExpr + `)\s*(?P<token>` + tokenExpr + `)?\s+to\s+(?P<to>` + addressExpr + `|` + nameExpr + `)`)
	transferAllPattern = regexp.MustCompile(`(?i)\b(?:send|transfer)\s+all\s+(?:of\s+)?(?:my\s+)?(?P<token>` + tokenExpr + `)\s+to\b`)
	calldataPattern    = regexp.MustCompile(`(?i)\b(?:data|calldata)\s*[:=]?\s*(?P<data>0x[0-9a-fA-F]*)`)
)

// TransferParams describes a native or ERC20 transfer. An empty Amount
// sends the whole spendable balance.
type TransferParams struct {
	Chain  web3.Chain
	Token  normalize.TokenRef
	To     string
	Amount string
	Data   string
}

// Transfer extracts native or token transfer parameters from src.
func Transfer(src Source) (TransferParams, error) {
	chain, err := resolveChain(src.Resolve(chainField()), "chain")
	if err != nil {
		return TransferParams{}, err
	}
	token := src.Resolve(Field{
		Name: "token",
		Keys: []string{"token", "symbol"},
		Rules: []Rule{
			{Pattern: transferPattern, Group: "token"},
			{Pattern: transferAllPattern, Group: "token"},
		},
	})
	to := src.Resolve(Field{
		Name: "toAddress",
		Keys: []string{"toAddress", "to", "recipient"},
		Rules: []Rule{
			{Pattern: transferPattern, Group: "to"},
			{Pattern: recipientPattern, Group: "to"},
		},
	})
	if !to.Found() {
		return TransferParams{}, missing("toAddress")
	}
	amount, err := checkAmount(src.Resolve(Field{
		Name:    "amount",
		Keys:    []string{"amount"},
		Numeric: true,
		Rules:   []Rule{{Pattern: transferPattern, Group: "amount"}},
	}), "amount")
	if err != nil {
		return TransferParams{}, err
	}
	data := src.Resolve(Field{
		Name:  "data",
		Keys:  []string{"data"},
		Rules: []Rule{{Pattern: calldataPattern, Group: "data"}},
	})
	if data.Found() && !strings.HasPrefix(data.Raw, "0x") {
		return TransferParams{}, invalid("data", "calldata must be 0x-prefixed hex")
	}
	return TransferParams{
		Chain:  chain,
		Token:  tokenRef(token),
		To:     to.Raw,
		Amount: amount,
		Data:   data.Raw,
	}, nil
}
