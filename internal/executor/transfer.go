package executor

import (
	"context"
	"fmt"
	"math/big"

	"BNBChain-Agent/internal/contracts"
	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/normalize"
	"BNBChain-Agent/internal/web3"

	"github.com/ethereum/go-ethereum/common"
)

// Gas reserve kept back when a native transfer sends the whole balance.
const (
	NativeTransferGas uint64 = 21000
	ReserveGasPrice   int64  = 3_000_000_000
)

// TransferKind selects the transfer call shape.
type TransferKind int

const (
	NativeTransfer TransferKind = iota + 1
	ERC20Transfer
)

// TransferRequest is a resolved transfer. A nil Amount sends everything
// spendable.
type TransferRequest struct {
	Kind   TransferKind
	Token  common.Address
	To     common.Address
	Amount *big.Int
	Data   []byte
}

type transferBuilder func(req TransferRequest) (web3.Call, error)

var transferBuilders = map[TransferKind]transferBuilder{
	NativeTransfer: func(req TransferRequest) (web3.Call, error) {
		to := req.To
		return web3.Call{To: &to, Value: req.Amount, Data: req.Data}, nil
	},
	ERC20Transfer: func(req TransferRequest) (web3.Call, error) {
		return web3.ContractCall{Address: req.Token, ABI: contracts.ERC20, Method: "transfer", Args: []any{req.To, req.Amount}}.Pack()
	},
}

// NativeReserve is the fixed amount kept for gas on a send-all transfer.
func NativeReserve() *big.Int {
	return normalize.GasReserve(NativeTransferGas, big.NewInt(ReserveGasPrice))
}

// Spendable returns what a send-all transfer moves: the native balance minus
// the gas reserve, or the whole token balance.
func Spendable(ctx context.Context, pub web3.PublicClient, kind TransferKind, token, owner common.Address) (*big.Int, error) {
	switch kind {
	case NativeTransfer:
		balance, err := pub.GetBalance(ctx, owner)
		if err != nil {
			return nil, err
		}
		spendable := new(big.Int).Sub(balance, NativeReserve())
		if spendable.Sign() <= 0 {
			return nil, xerrors.New(xerrors.CodeInsufficientFunds,
				fmt.Sprintf("insufficient funds: balance %s wei does not cover the gas reserve", balance))
		}
		return spendable, nil
	case ERC20Transfer:
		balance, err := TokenBalance(ctx, pub, token, owner)
		if err != nil {
			return nil, err
		}
		if balance.Sign() <= 0 {
			return nil, xerrors.New(xerrors.CodeInsufficientFunds, "insufficient funds: token balance is zero")
		}
		return balance, nil
	default:
		return nil, fmt.Errorf("unknown transfer kind %d", kind)
	}
}

// Transfer sends native currency or an ERC20 token.
func (e *Executor) Transfer(ctx context.Context, pub web3.PublicClient, wallet web3.WalletClient, req TransferRequest, res *TransactionResult) error {
	build, ok := transferBuilders[req.Kind]
	if !ok {
		return xerrors.New(xerrors.CodeValidationFailed, fmt.Sprintf("unknown transfer kind %d", req.Kind))
	}
	if req.Amount == nil {
		amount, err := Spendable(ctx, pub, req.Kind, req.Token, wallet.Account())
		if err != nil {
			return err
		}
		req.Amount = amount
	}
	if req.Amount.Sign() <= 0 {
		return xerrors.New(xerrors.CodeValidationFailed, "transfer amount must be greater than zero")
	}
	call, err := build(req)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeValidationFailed, err, "encode transfer")
	}
	res.Label = "transfer"
	res.Amount = req.Amount.String()
	return e.Execute(ctx, pub, wallet, call, res)
}
