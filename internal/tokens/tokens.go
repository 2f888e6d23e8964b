package tokens

import (
	"context"
	"errors"
	"strings"

	"BNBChain-Agent/internal/web3"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNotFound is returned when a directory has no entry for a symbol.
var ErrNotFound = errors.New("token not found")

// Token is a fungible token deployed on a supported chain.
type Token struct {
	Chain    web3.Chain     `json:"chain"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name,omitempty"`
	Address  common.Address `json:"address"`
	Decimals int            `json:"decimals"`
}

// Directory resolves token symbols to deployed contracts.
type Directory interface {
	Lookup(ctx context.Context, chain web3.Chain, symbol string) (Token, error)
}

// Layered consults each directory in order. ErrNotFound falls through to
// the next layer; other errors are returned immediately.
type Layered []Directory

func (l Layered) Lookup(ctx context.Context, chain web3.Chain, symbol string) (Token, error) {
	for _, dir := range l {
		if dir == nil {
			continue
		}
		token, err := dir.Lookup(ctx, chain, symbol)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Token{}, err
		}
	}
	return Token{}, ErrNotFound
}

// NormalizeSymbol trims and upper-cases a symbol for use as a lookup key.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
