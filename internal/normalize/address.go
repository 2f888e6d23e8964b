package normalize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/tokens"
	"BNBChain-Agent/internal/web3"

	"github.com/ethereum/go-ethereum/common"
)

// NativeRouteAddress stands for the native asset in route-finding requests.
// It is never used as a transfer target.
var NativeRouteAddress = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// IsHexAddress accepts 0x-prefixed 40 hex digit strings. Checksums are not
// verified.
func IsHexAddress(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) == 42 && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) && common.IsHexAddress(s)
}

// TokenKind distinguishes an explicit native marker from an absent token.
type TokenKind int

const (
	TokenUnset TokenKind = iota
	TokenNative
	TokenSymbol
	TokenAddress
)

// TokenRef is a token as the user named it.
type TokenRef struct {
	Kind  TokenKind
	Value string
}

// ParseTokenRef classifies raw user or model input.
func ParseTokenRef(raw string) TokenRef {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return TokenRef{Kind: TokenUnset}
	case strings.EqualFold(raw, web3.NativeSymbol):
		return TokenRef{Kind: TokenNative, Value: web3.NativeSymbol}
	case IsHexAddress(raw):
		return TokenRef{Kind: TokenAddress, Value: common.HexToAddress(raw).Hex()}
	default:
		return TokenRef{Kind: TokenSymbol, Value: tokens.NormalizeSymbol(raw)}
	}
}

// IsNative reports whether the reference denotes the native asset.
func (t TokenRef) IsNative() bool {
	return t.Kind == TokenUnset || t.Kind == TokenNative
}

// Display is the label used in responses.
func (t TokenRef) Display() string {
	if t.IsNative() {
		return web3.NativeSymbol
	}
	return t.Value
}

// HumanNames resolves human-readable names. web3.Provider satisfies it.
type HumanNames interface {
	ResolveHumanName(ctx context.Context, name string) (common.Address, error)
}

// Resolver turns user supplied recipients and tokens into addresses.
type Resolver struct {
	names     HumanNames
	directory tokens.Directory
}

// NewResolver wires the name service and token directory.
func NewResolver(names HumanNames, directory tokens.Directory) *Resolver {
	return &Resolver{names: names, directory: directory}
}

// ResolveAddress returns hex input unchanged and resolves anything else
// through the name service.
func (r *Resolver) ResolveAddress(ctx context.Context, input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return common.Address{}, xerrors.New(xerrors.CodeValidationFailed, "address is required",
			xerrors.WithMetadata("field", "address"))
	}
	if IsHexAddress(input) {
		return common.HexToAddress(input), nil
	}
	if r.names == nil {
		return common.Address{}, xerrors.New(xerrors.CodeResolutionFailed, fmt.Sprintf("cannot resolve %q: no name service", input))
	}
	addr, err := r.names.ResolveHumanName(ctx, input)
	if err != nil {
		if errors.Is(err, web3.ErrNameNotFound) {
			return common.Address{}, xerrors.New(xerrors.CodeResolutionFailed, fmt.Sprintf("name %q could not be resolved", input),
				xerrors.WithMetadata("name", input))
		}
		return common.Address{}, xerrors.Wrap(xerrors.CodeResolutionFailed, err, fmt.Sprintf("resolve name %q", input),
			xerrors.WithMetadata("name", input))
	}
	return addr, nil
}

// ResolveTokenAddress resolves a token for route finding. Native references
// map to NativeRouteAddress without consulting the directory.
func (r *Resolver) ResolveTokenAddress(ctx context.Context, chain web3.Chain, ref TokenRef) (common.Address, error) {
	if ref.IsNative() {
		return NativeRouteAddress, nil
	}
	if ref.Kind == TokenAddress {
		return common.HexToAddress(ref.Value), nil
	}
	token, err := r.lookup(ctx, chain, ref.Value)
	if err != nil {
		return common.Address{}, err
	}
	return token.Address, nil
}

// ResolveToken resolves a non-native symbol to its directory entry. Address
// references are returned with unknown decimals (-1) for the caller to read
// from chain.
func (r *Resolver) ResolveToken(ctx context.Context, chain web3.Chain, ref TokenRef) (tokens.Token, error) {
	switch ref.Kind {
	case TokenUnset, TokenNative:
		return tokens.Token{}, xerrors.New(xerrors.CodeValidationFailed, "native asset has no token contract")
	case TokenAddress:
		return tokens.Token{Chain: chain, Address: common.HexToAddress(ref.Value), Decimals: -1}, nil
	default:
		return r.lookup(ctx, chain, ref.Value)
	}
}

func (r *Resolver) lookup(ctx context.Context, chain web3.Chain, symbol string) (tokens.Token, error) {
	if r.directory == nil {
		return tokens.Token{}, xerrors.New(xerrors.CodeResolutionFailed, fmt.Sprintf("token %s on %s: no token directory", symbol, chain))
	}
	token, err := r.directory.Lookup(ctx, chain, symbol)
	if err != nil {
		if errors.Is(err, tokens.ErrNotFound) {
			return tokens.Token{}, xerrors.New(xerrors.CodeResolutionFailed, fmt.Sprintf("token %s not found on %s", symbol, chain),
				xerrors.WithMetadata("token", symbol), xerrors.WithMetadata("chain", string(chain)))
		}
		return tokens.Token{}, xerrors.Wrap(xerrors.CodeResolutionFailed, err, fmt.Sprintf("look up token %s on %s", symbol, chain))
	}
	return token, nil
}
