package actions

import (
	"context"
	"fmt"
	"log/slog"

	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/extract"
	"BNBChain-Agent/internal/faucet"
	"BNBChain-Agent/internal/web3"
	"BNBChain-Agent/pkg/plugin"

	"github.com/ethereum/go-ethereum/common"
)

// Faucet requests testnet tokens on BSC testnet.
type Faucet struct {
	env *Env
	log *slog.Logger
}

func NewFaucet(env *Env) *Faucet {
	return &Faucet{env: env, log: env.logger().With(slog.String("action", NameFaucet))}
}

func (a *Faucet) Info() plugin.Info {
	return plugin.Info{
		Name:         NameFaucet,
		Description:  fmt.Sprintf("Request testnet tokens on BSC testnet. Supported tokens: %v.", faucet.SupportedTokens()),
		Similes:      []string{"TESTNET_FAUCET", "GET_TEST_TOKENS"},
		Examples:     []plugin.Example{{User: "Get some test USDT", Agent: "Requested USDT from the BSC testnet faucet."}},
		Capabilities: []plugin.Capability{plugin.CapabilityNetwork},
	}
}

func (a *Faucet) Handle(ctx context.Context, msg plugin.Message) plugin.Result {
	params, err := extract.Faucet(a.env.source(ctx, NameFaucet, msg))
	if err != nil {
		return failure(ctx, a.log, NameFaucet, err, nil)
	}
	content := map[string]any{"chain": string(params.Chain), "token": params.Token}
	if a.env.Faucet == nil {
		return failure(ctx, a.log, NameFaucet, xerrors.New(xerrors.CodeInitializationFailure, "no faucet configured"), content)
	}

	to := a.env.Provider.Address()
	if params.To != "" {
		if to, err = a.env.Resolver.ResolveAddress(ctx, params.To); err != nil {
			return failure(ctx, a.log, NameFaucet, err, content)
		}
	}
	if to == (common.Address{}) {
		return failure(ctx, a.log, NameFaucet, xerrors.New(xerrors.CodeValidationFailed, "a receiving address is required",
			xerrors.WithMetadata("field", "toAddress")), content)
	}
	content["to"] = to.Hex()

	out, err := a.env.Faucet.Request(ctx, to, params.Token)
	if err != nil {
		return failure(ctx, a.log, NameFaucet, err, content)
	}
	content["hash"] = out.TxHash
	content["explorerUrl"] = web3.TxURL(params.Chain, out.TxHash)
	return success(fmt.Sprintf("Requested %s from the BSC testnet faucet for %s. Transaction: %s",
		out.Token, to.Hex(), content["explorerUrl"]), content)
}
