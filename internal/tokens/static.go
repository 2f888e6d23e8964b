package tokens

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"BNBChain-Agent/internal/web3"

	"github.com/ethereum/go-ethereum/common"
)

//go:embed default_tokens.json
var defaultTokens []byte

type staticEntry struct {
	Chain    string `json:"chain"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
}

// StaticDirectory serves tokens from an in-memory table loaded from JSON.
type StaticDirectory struct {
	items map[web3.Chain]map[string]Token
}

// NewStaticDirectory builds a directory from tokens. Later entries win.
func NewStaticDirectory(tokens []Token) *StaticDirectory {
	d := &StaticDirectory{items: make(map[web3.Chain]map[string]Token)}
	for _, token := range tokens {
		bySymbol, ok := d.items[token.Chain]
		if !ok {
			bySymbol = make(map[string]Token)
			d.items[token.Chain] = bySymbol
		}
		token.Symbol = NormalizeSymbol(token.Symbol)
		bySymbol[token.Symbol] = token
	}
	return d
}

// DefaultStaticDirectory returns the built-in list of well-known tokens.
func DefaultStaticDirectory() (*StaticDirectory, error) {
	tokens, err := decodeEntries(defaultTokens)
	if err != nil {
		return nil, fmt.Errorf("decode built-in tokens: %w", err)
	}
	return NewStaticDirectory(tokens), nil
}

// LoadStaticDirectory reads a JSON array of token entries from path and
// layers it over the built-in list.
func LoadStaticDirectory(path string) (*StaticDirectory, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultStaticDirectory()
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve token file path: %w", err)
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	extra, err := decodeEntries(content)
	if err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	builtin, err := decodeEntries(defaultTokens)
	if err != nil {
		return nil, fmt.Errorf("decode built-in tokens: %w", err)
	}
	return NewStaticDirectory(append(builtin, extra...)), nil
}

func decodeEntries(content []byte) ([]Token, error) {
	var entries []staticEntry
	if err := json.Unmarshal(content, &entries); err != nil {
		return nil, err
	}
	out := make([]Token, 0, len(entries))
	for i, entry := range entries {
		chain, ok := web3.ParseChain(entry.Chain)
		if !ok {
			return nil, fmt.Errorf("entry %d: unsupported chain %q", i, entry.Chain)
		}
		if !common.IsHexAddress(entry.Address) {
			return nil, fmt.Errorf("entry %d (%s): invalid address %q", i, entry.Symbol, entry.Address)
		}
		if entry.Decimals < 0 || entry.Decimals > 36 {
			return nil, fmt.Errorf("entry %d (%s): invalid decimals %d", i, entry.Symbol, entry.Decimals)
		}
		out = append(out, Token{
			Chain:    chain,
			Symbol:   entry.Symbol,
			Name:     entry.Name,
			Address:  common.HexToAddress(entry.Address),
			Decimals: entry.Decimals,
		})
	}
	return out, nil
}

func (d *StaticDirectory) Lookup(_ context.Context, chain web3.Chain, symbol string) (Token, error) {
	if d == nil {
		return Token{}, ErrNotFound
	}
	token, ok := d.items[chain][NormalizeSymbol(symbol)]
	if !ok {
		return Token{}, ErrNotFound
	}
	return token, nil
}

var _ Directory = (*StaticDirectory)(nil)
