// Package executor drives transactions through simulate, submit and confirm
// and selects the contract call for each action variant.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"BNBChain-Agent/internal/contracts"
	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/web3"
	"BNBChain-Agent/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
)

// Observer is notified whenever a transaction changes state.
type Observer interface {
	TransactionUpdated(ctx context.Context, res TransactionResult)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, res TransactionResult)

func (f ObserverFunc) TransactionUpdated(ctx context.Context, res TransactionResult) { f(ctx, res) }

// Option customises an Executor.
type Option func(*Executor)

// WithObserver registers observers for state changes.
func WithObserver(observers ...Observer) Option {
	return func(e *Executor) {
		for _, o := range observers {
			if o != nil {
				e.observers = append(e.observers, o)
			}
		}
	}
}

// WithLogger overrides the executor logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Executor) {
		if log != nil {
			e.log = log
		}
	}
}

// Executor holds no per-request state and is safe for concurrent use.
type Executor struct {
	log       *slog.Logger
	observers []Observer
}

func New(opts ...Option) *Executor {
	e := &Executor{log: logger.Named("executor")}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *Executor) transition(ctx context.Context, res *TransactionResult, state State) {
	res.State = state
	e.log.Debug("transaction state",
		slog.String("label", res.Label),
		slog.String("chain", string(res.Chain)),
		slog.String("state", state.String()),
		slog.String("hash", res.HashHex()))
	if state == StateBuilt || state == StateSimulated {
		return
	}
	for _, o := range e.observers {
		o.TransactionUpdated(ctx, *res)
	}
}

// Execute runs call through the lifecycle. No step is retried. A failed
// receipt wait leaves res in StateSubmitted with the hash and returns
// ConfirmationUnknown.
func (e *Executor) Execute(ctx context.Context, pub web3.PublicClient, wallet web3.WalletClient, call web3.Call, res *TransactionResult) error {
	e.transition(ctx, res, StateBuilt)

	if _, err := pub.SimulateContract(ctx, wallet.Account(), call); err != nil {
		e.transition(ctx, res, StateFailed)
		return xerrors.Wrap(xerrors.CodeSimulationFailed, err, "simulate "+res.Label)
	}
	e.transition(ctx, res, StateSimulated)

	hash, err := wallet.WriteContract(ctx, call)
	if err != nil {
		e.transition(ctx, res, StateFailed)
		return xerrors.Wrap(xerrors.CodeSubmissionFailed, err, "submit "+res.Label)
	}
	e.submitted(ctx, res, hash)

	return e.confirm(ctx, pub, res, hash)
}

func (e *Executor) submitted(ctx context.Context, res *TransactionResult, hash common.Hash) {
	res.Hash = &hash
	res.Explorer = web3.TxURL(res.Chain, hash.Hex())
	e.transition(ctx, res, StateSubmitted)
}

func (e *Executor) confirm(ctx context.Context, pub web3.PublicClient, res *TransactionResult, hash common.Hash) error {
	receipt, err := pub.WaitForTransactionReceipt(ctx, hash)
	if err != nil {
		e.log.Warn("receipt not observed", slog.String("hash", hash.Hex()), slog.Any("error", err))
		return xerrors.Wrap(xerrors.CodeConfirmationUnknown, err, "wait for receipt "+hash.Hex(),
			xerrors.WithMetadata("hash", hash.Hex()))
	}
	status := receipt.Status
	res.Status = &status
	if status != coretypes.ReceiptStatusSuccessful {
		e.transition(ctx, res, StateFailed)
		return xerrors.New(xerrors.CodeExecutionReverted, fmt.Sprintf("%s reverted in transaction %s", res.Label, hash.Hex()),
			xerrors.WithMetadata("hash", hash.Hex()))
	}
	e.transition(ctx, res, StateConfirmed)
	return nil
}

// Allowance reads the live ERC20 allowance.
func Allowance(ctx context.Context, pub web3.PublicClient, token, owner, spender common.Address) (*big.Int, error) {
	return readUint(ctx, pub, web3.ContractCall{Address: token, ABI: contracts.ERC20, Method: "allowance", Args: []any{owner, spender}})
}

// TokenBalance reads the ERC20 balance of owner.
func TokenBalance(ctx context.Context, pub web3.PublicClient, token, owner common.Address) (*big.Int, error) {
	return readUint(ctx, pub, web3.ContractCall{Address: token, ABI: contracts.ERC20, Method: "balanceOf", Args: []any{owner}})
}

// TokenDecimals reads the decimals of an ERC20 contract.
func TokenDecimals(ctx context.Context, pub web3.PublicClient, token common.Address) (int, error) {
	out, err := pub.ReadContract(ctx, web3.ContractCall{Address: token, ABI: contracts.ERC20, Method: "decimals"})
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("decimals of %s: empty result", token.Hex())
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals of %s: unexpected type %T", token.Hex(), out[0])
	}
	return int(d), nil
}

// EnsureAllowance approves exactly amount for spender when the live
// allowance is below it, and waits for the approval to confirm.
func (e *Executor) EnsureAllowance(ctx context.Context, pub web3.PublicClient, wallet web3.WalletClient, chain web3.Chain, token, spender common.Address, amount *big.Int) (bool, error) {
	current, err := Allowance(ctx, pub, token, wallet.Account(), spender)
	if err != nil {
		return false, xerrors.Wrap(xerrors.CodeSimulationFailed, err, "read allowance")
	}
	if current.Cmp(amount) >= 0 {
		return false, nil
	}

	call, err := web3.ContractCall{Address: token, ABI: contracts.ERC20, Method: "approve", Args: []any{spender, amount}}.Pack()
	if err != nil {
		return false, xerrors.Wrap(xerrors.CodeValidationFailed, err, "encode approve")
	}
	approval := &TransactionResult{Chain: chain, Label: "approve", Token: token.Hex(), Amount: amount.String()}
	if err := e.Execute(ctx, pub, wallet, call, approval); err != nil {
		return false, err
	}
	e.log.Info("allowance approved", slog.String("token", token.Hex()), slog.String("spender", spender.Hex()), slog.String("hash", approval.HashHex()))
	return true, nil
}

func readUint(ctx context.Context, pub web3.PublicClient, call web3.ContractCall) (*big.Int, error) {
	out, err := pub.ReadContract(ctx, call)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty result", call.Method)
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected type %T", call.Method, out[0])
	}
	return v, nil
}
