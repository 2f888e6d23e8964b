package actions

import (
	"context"
	"fmt"
	"log/slog"

	"BNBChain-Agent/internal/executor"
	"BNBChain-Agent/internal/extract"
	"BNBChain-Agent/internal/normalize"
	"BNBChain-Agent/internal/web3"
	"BNBChain-Agent/pkg/plugin"

	"github.com/ethereum/go-ethereum/common"
)

// Bridge moves BNB or ERC20 tokens between BSC and opBNB over the canonical
// bridge.
type Bridge struct {
	env *Env
	log *slog.Logger
}

func NewBridge(env *Env) *Bridge {
	return &Bridge{env: env, log: env.logger().With(slog.String("action", NameBridge))}
}

func (a *Bridge) Info() plugin.Info {
	return plugin.Info{
		Name:         NameBridge,
		Description:  "Bridge BNB or ERC20 tokens between BSC and opBNB, mainnet or testnet.",
		Similes:      []string{"BRIDGE_TOKENS", "CROSS_CHAIN_TRANSFER"},
		Examples:     []plugin.Example{{User: "Bridge 0.1 BNB from bsc to opBNB", Agent: "Bridged 0.1 BNB from bsc to opBNB."}},
		Capabilities: []plugin.Capability{plugin.CapabilityNetwork, plugin.CapabilitySigning},
	}
}

func (a *Bridge) Handle(ctx context.Context, msg plugin.Message) plugin.Result {
	params, err := extract.Bridge(a.env.source(ctx, NameBridge, msg))
	if err != nil {
		return failure(ctx, a.log, NameBridge, err, nil)
	}
	res := executor.TransactionResult{Chain: params.FromChain, Token: params.FromToken.Display()}
	content := func() map[string]any {
		c := txContent(&res, -1)
		c["fromChain"] = string(params.FromChain)
		c["toChain"] = string(params.ToChain)
		c["direction"] = params.Direction.String()
		return c
	}

	pub, wallet, err := a.env.clients(params.FromChain)
	if err != nil {
		return failure(ctx, a.log, NameBridge, err, content())
	}
	req, decimals, err := a.request(ctx, pub, params)
	if err != nil {
		return failure(ctx, a.log, NameBridge, err, content())
	}

	variant, err := a.env.Executor.Bridge(ctx, pub, wallet, req, &res)
	recipient := req.To
	if recipient == (common.Address{}) {
		recipient = wallet.Account()
	}
	result := finishTx(ctx, a.log, NameBridge, &res, decimals, err,
		fmt.Sprintf("Bridged %s %s from %s to %s for %s.", params.Amount, params.FromToken.Display(), params.FromChain, params.ToChain, recipient.Hex()))
	result.Content["fromChain"] = string(params.FromChain)
	result.Content["toChain"] = string(params.ToChain)
	result.Content["direction"] = params.Direction.String()
	result.Content["variant"] = variant.String()
	result.Content["to"] = recipient.Hex()
	return result
}

func (a *Bridge) request(ctx context.Context, pub web3.PublicClient, params extract.BridgeParams) (executor.BridgeRequest, int, error) {
	req := executor.BridgeRequest{
		Chain:    params.FromChain,
		Withdraw: params.Direction == extract.BridgeWithdraw,
	}
	if params.To != "" {
		to, err := a.env.Resolver.ResolveAddress(ctx, params.To)
		if err != nil {
			return req, 0, err
		}
		req.To = to
	}

	decimals := 18
	if !params.FromToken.IsNative() {
		source, d, err := a.env.resolveToken(ctx, pub, params.FromChain, params.FromToken)
		if err != nil {
			return req, 0, err
		}
		dest, err := a.destination(ctx, params)
		if err != nil {
			return req, 0, err
		}
		req.SourceToken, req.DestToken, decimals = source.Address, dest, d
	}

	amount, err := normalize.ToPositiveBaseUnits(params.Amount, decimals)
	if err != nil {
		return req, 0, err
	}
	req.Amount = amount
	return req, decimals, nil
}

// destination resolves the counterpart of an ERC20 token on the receiving
// chain.
func (a *Bridge) destination(ctx context.Context, params extract.BridgeParams) (common.Address, error) {
	return a.env.Resolver.ResolveTokenAddress(ctx, params.ToChain, params.ToToken)
}
