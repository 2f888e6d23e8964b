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
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Transfer sends BNB or an ERC20 token.
type Transfer struct {
	env *Env
	log *slog.Logger
}

func NewTransfer(env *Env) *Transfer {
	return &Transfer{env: env, log: env.logger().With(slog.String("action", NameTransfer))}
}

func (a *Transfer) Info() plugin.Info {
	return plugin.Info{
		Name:         NameTransfer,
		Description:  "Transfer BNB or ERC20 tokens to an address or .bnb name. Without an amount the whole balance is sent.",
		Similes:      []string{"SEND_TOKENS", "SEND"},
		Examples:     []plugin.Example{{User: "Send 0.01 BNB to alice.bnb", Agent: "Transferred 0.01 BNB to 0x… on bsc."}},
		Capabilities: []plugin.Capability{plugin.CapabilityNetwork, plugin.CapabilitySigning},
	}
}

func (a *Transfer) Handle(ctx context.Context, msg plugin.Message) plugin.Result {
	params, err := extract.Transfer(a.env.source(ctx, NameTransfer, msg))
	if err != nil {
		return failure(ctx, a.log, NameTransfer, err, nil)
	}
	res := executor.TransactionResult{Chain: params.Chain, Token: params.Token.Display()}

	to, err := a.env.Resolver.ResolveAddress(ctx, params.To)
	if err != nil {
		return failure(ctx, a.log, NameTransfer, err, txContent(&res, -1))
	}
	pub, wallet, err := a.env.clients(params.Chain)
	if err != nil {
		return failure(ctx, a.log, NameTransfer, err, txContent(&res, -1))
	}

	req, decimals, err := a.request(ctx, pub, params, to)
	if err != nil {
		return failure(ctx, a.log, NameTransfer, err, txContent(&res, -1))
	}

	err = a.env.Executor.Transfer(ctx, pub, wallet, req, &res)
	amount := ""
	if v, ok := new(big.Int).SetString(res.Amount, 10); ok {
		amount = normalize.FromBaseUnits(v, decimals)
	}
	result := finishTx(ctx, a.log, NameTransfer, &res, decimals, err,
		fmt.Sprintf("Transferred %s %s to %s on %s.", amount, res.Token, to.Hex(), params.Chain))
	result.Content["to"] = to.Hex()
	return result
}

func (a *Transfer) request(ctx context.Context, pub web3.PublicClient, params extract.TransferParams, to common.Address) (executor.TransferRequest, int, error) {
	var data []byte
	if params.Data != "" {
		decoded, err := hexutil.Decode(params.Data)
		if err != nil {
			return executor.TransferRequest{}, 0, xerrors.Wrap(xerrors.CodeValidationFailed, err, "invalid calldata",
				xerrors.WithMetadata("field", "data"))
		}
		data = decoded
	}

	if params.Token.IsNative() {
		amount, err := baseUnits(params.Amount, 18)
		if err != nil {
			return executor.TransferRequest{}, 0, err
		}
		return executor.TransferRequest{Kind: executor.NativeTransfer, To: to, Amount: amount, Data: data}, 18, nil
	}
	if data != nil {
		return executor.TransferRequest{}, 0, xerrors.New(xerrors.CodeValidationFailed, "calldata is only supported on native transfers",
			xerrors.WithMetadata("field", "data"))
	}
	token, decimals, err := a.env.resolveToken(ctx, pub, params.Chain, params.Token)
	if err != nil {
		return executor.TransferRequest{}, 0, err
	}
	amount, err := baseUnits(params.Amount, decimals)
	if err != nil {
		return executor.TransferRequest{}, 0, err
	}
	return executor.TransferRequest{Kind: executor.ERC20Transfer, Token: token.Address, To: to, Amount: amount}, decimals, nil
}
