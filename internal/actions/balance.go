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
	"BNBChain-Agent/internal/web3"
	"BNBChain-Agent/pkg/plugin"

	"github.com/ethereum/go-ethereum/common"
)

// Balance reports native or token balances of any account.
type Balance struct {
	env *Env
	log *slog.Logger
}

func NewBalance(env *Env) *Balance {
	return &Balance{env: env, log: env.logger().With(slog.String("action", NameBalance))}
}

func (a *Balance) Info() plugin.Info {
	return plugin.Info{
		Name:         NameBalance,
		Description:  "Get the BNB or token balance of the wallet or any address on BSC and opBNB.",
		Similes:      []string{"CHECK_BALANCE", "BALANCE"},
		Examples:     []plugin.Example{{User: "What is my USDT balance on bsc?", Agent: "Your balance is 12.5 USDT."}},
		Capabilities: []plugin.Capability{plugin.CapabilityNetwork},
	}
}

func (a *Balance) Handle(ctx context.Context, msg plugin.Message) plugin.Result {
	params, err := extract.Balance(a.env.source(ctx, NameBalance, msg))
	if err != nil {
		return failure(ctx, a.log, NameBalance, err, nil)
	}
	content := map[string]any{"chain": string(params.Chain), "token": params.Token.Display()}

	owner, err := a.owner(ctx, params)
	if err != nil {
		return failure(ctx, a.log, NameBalance, err, content)
	}
	content["address"] = owner.Hex()
	content["explorerUrl"] = web3.AddressURL(params.Chain, owner.Hex())

	if err := a.env.Provider.SwitchChain(params.Chain); err != nil {
		return failure(ctx, a.log, NameBalance, err, content)
	}
	pub, err := a.env.Provider.PublicClient(params.Chain)
	if err != nil {
		return failure(ctx, a.log, NameBalance, err, content)
	}

	value, decimals, symbol, err := a.read(ctx, pub, params, owner)
	if err != nil {
		return failure(ctx, a.log, NameBalance, err, content)
	}
	amount := normalize.FromBaseUnits(value, decimals)
	content["token"] = symbol
	content["balance"] = amount
	content["decimals"] = decimals
	return success(fmt.Sprintf("Balance of %s on %s: %s %s", owner.Hex(), params.Chain, amount, symbol), content)
}

func (a *Balance) owner(ctx context.Context, params extract.BalanceParams) (common.Address, error) {
	if params.Address != "" {
		return a.env.Resolver.ResolveAddress(ctx, params.Address)
	}
	owner := a.env.Provider.Address()
	if owner == (common.Address{}) {
		return common.Address{}, xerrors.New(xerrors.CodeValidationFailed, "no wallet is configured; name the address to inspect",
			xerrors.WithMetadata("field", "address"))
	}
	return owner, nil
}

func (a *Balance) read(ctx context.Context, pub web3.PublicClient, params extract.BalanceParams, owner common.Address) (*big.Int, int, string, error) {
	if params.Token.IsNative() {
		value, err := pub.GetBalance(ctx, owner)
		if err != nil {
			return nil, 0, "", err
		}
		return value, 18, web3.NativeSymbol, nil
	}
	token, decimals, err := a.env.resolveToken(ctx, pub, params.Chain, params.Token)
	if err != nil {
		return nil, 0, "", err
	}
	value, err := executor.TokenBalance(ctx, pub, token.Address, owner)
	if err != nil {
		return nil, 0, "", err
	}
	symbol := token.Symbol
	if symbol == "" {
		symbol = params.Token.Display()
	}
	return value, decimals, symbol, nil
}
