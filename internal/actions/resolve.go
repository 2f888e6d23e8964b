package actions

import (
	"context"
	"math/big"

	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/executor"
	"BNBChain-Agent/internal/normalize"
	"BNBChain-Agent/internal/tokens"
	"BNBChain-Agent/internal/web3"
)

// resolveToken resolves a non-native token and its decimals, reading them
// from chain when the directory does not know them.
func (e *Env) resolveToken(ctx context.Context, pub web3.PublicClient, chain web3.Chain, ref normalize.TokenRef) (tokens.Token, int, error) {
	token, err := e.Resolver.ResolveToken(ctx, chain, ref)
	if err != nil {
		return tokens.Token{}, 0, err
	}
	if token.Decimals >= 0 {
		return token, token.Decimals, nil
	}
	decimals, err := executor.TokenDecimals(ctx, pub, token.Address)
	if err != nil {
		return tokens.Token{}, 0, xerrors.Wrap(xerrors.CodeResolutionFailed, err, "read decimals of "+token.Address.Hex())
	}
	token.Decimals = decimals
	return token, decimals, nil
}

// baseUnits converts an optional amount. An empty amount yields nil.
func baseUnits(amount string, decimals int) (*big.Int, error) {
	if amount == "" {
		return nil, nil
	}
	return normalize.ToPositiveBaseUnits(amount, decimals)
}
