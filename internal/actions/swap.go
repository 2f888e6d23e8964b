package actions

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/executor"
	"BNBChain-Agent/internal/extract"
	"BNBChain-Agent/internal/normalize"
	"BNBChain-Agent/internal/routing"
	"BNBChain-Agent/internal/web3"
	"BNBChain-Agent/pkg/plugin"
)

// Swap exchanges tokens on one chain through the route finder.
type Swap struct {
	env *Env
	log *slog.Logger
}

func NewSwap(env *Env) *Swap {
	return &Swap{env: env, log: env.logger().With(slog.String("action", NameSwap))}
}

func (a *Swap) Info() plugin.Info {
	return plugin.Info{
		Name:         NameSwap,
		Description:  "Swap tokens on BSC or opBNB using the best available route.",
		Similes:      []string{"SWAP_TOKENS", "EXCHANGE", "TRADE"},
		Examples:     []plugin.Example{{User: "Swap 0.5 BNB for USDC", Agent: "Swapped 0.5 BNB for 301.2 USDC on bsc."}},
		Capabilities: []plugin.Capability{plugin.CapabilityNetwork, plugin.CapabilitySigning},
	}
}

func (a *Swap) Handle(ctx context.Context, msg plugin.Message) plugin.Result {
	params, err := extract.Swap(a.env.source(ctx, NameSwap, msg))
	if err != nil {
		return failure(ctx, a.log, NameSwap, err, nil)
	}
	res := executor.TransactionResult{Chain: params.Chain, Token: params.From.Display()}
	content := func() map[string]any {
		c := txContent(&res, -1)
		c["fromToken"] = params.From.Display()
		c["toToken"] = params.To.Display()
		c["amount"] = params.Amount
		c["slippage"] = params.Slippage
		return c
	}
	if a.env.Router == nil {
		return failure(ctx, a.log, NameSwap, xerrors.New(xerrors.CodeInitializationFailure, "no route finder configured"), content())
	}

	pub, wallet, err := a.env.clients(params.Chain)
	if err != nil {
		return failure(ctx, a.log, NameSwap, err, content())
	}
	req, err := a.routeRequest(ctx, pub, params, wallet.Account().Hex())
	if err != nil {
		return failure(ctx, a.log, NameSwap, err, content(), xerrors.RouteFinding())
	}
	routes, err := a.env.Router.GetRoutes(ctx, req)
	if err != nil {
		return failure(ctx, a.log, NameSwap, err, content(), xerrors.RouteFinding())
	}
	if len(routes) == 0 {
		err = xerrors.New(xerrors.CodeRouteNotFound, fmt.Sprintf("No routes found from %s to %s", params.From.Display(), params.To.Display()))
		return failure(ctx, a.log, NameSwap, err, content(), xerrors.RouteFinding())
	}
	route := routes[0]
	a.log.InfoContext(ctx, "route selected",
		slog.String("route", route.ID),
		slog.Int("steps", len(route.Steps)),
		slog.String("to_amount", route.ToAmount))

	steps, err := a.env.Executor.ExecuteRoute(ctx, pub, wallet, a.env.Router, route, &res)
	received := quoted(route.ToAmount, route.ToToken.Decimals)
	result := finishTx(ctx, a.log, NameSwap, &res, -1, err,
		fmt.Sprintf("Swapped %s %s for %s %s on %s.", params.Amount, params.From.Display(), received, params.To.Display(), params.Chain),
		xerrors.RouteFinding())
	for k, v := range content() {
		if _, set := result.Content[k]; !set {
			result.Content[k] = v
		}
	}
	result.Content["amount"] = params.Amount
	result.Content["toAmount"] = received
	result.Content["toAmountMin"] = quoted(route.ToAmountMin, route.ToToken.Decimals)
	result.Content["steps"] = stepContent(steps)
	return result
}

func (a *Swap) routeRequest(ctx context.Context, pub web3.PublicClient, params extract.SwapParams, from string) (routing.RouteRequest, error) {
	fromToken, err := a.env.Resolver.ResolveTokenAddress(ctx, params.Chain, params.From)
	if err != nil {
		return routing.RouteRequest{}, err
	}
	toToken, err := a.env.Resolver.ResolveTokenAddress(ctx, params.Chain, params.To)
	if err != nil {
		return routing.RouteRequest{}, err
	}
	if fromToken == toToken {
		return routing.RouteRequest{}, xerrors.New(xerrors.CodeValidationFailed, "input and output tokens are the same",
			xerrors.WithMetadata("field", "outputToken"))
	}

	decimals := 18
	if !params.From.IsNative() {
		if _, decimals, err = a.env.resolveToken(ctx, pub, params.Chain, params.From); err != nil {
			return routing.RouteRequest{}, err
		}
	}
	amount, err := normalize.ToPositiveBaseUnits(params.Amount, decimals)
	if err != nil {
		return routing.RouteRequest{}, err
	}

	chainID := web3.MustInfo(params.Chain).ID
	return routing.RouteRequest{
		FromChainID:      chainID,
		ToChainID:        chainID,
		FromTokenAddress: fromToken.Hex(),
		ToTokenAddress:   toToken.Hex(),
		FromAmount:       amount.String(),
		FromAddress:      from,
		ToAddress:        from,
		Options:          &routing.RouteOptions{Slippage: params.Slippage},
	}, nil
}

func quoted(amount string, decimals int) string {
	v, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return amount
	}
	return normalize.FromBaseUnits(v, decimals)
}

func stepContent(steps []executor.StepStatus) []map[string]any {
	out := make([]map[string]any, 0, len(steps))
	for _, s := range steps {
		out = append(out, map[string]any{"index": s.Index, "tool": s.Tool, "hash": s.Hash, "state": s.State.String()})
	}
	return out
}
