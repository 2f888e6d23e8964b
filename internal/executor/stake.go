package executor

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"reflect"

	"BNBChain-Agent/internal/contracts"
	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/web3"

	"github.com/ethereum/go-ethereum/common"
)

// StakeOp is a liquid staking operation.
type StakeOp string

const (
	StakeDeposit  StakeOp = "deposit"
	StakeWithdraw StakeOp = "withdraw"
	StakeClaim    StakeOp = "claim"
)

// StakeRequest is a resolved staking request. Amount is unused for claims.
type StakeRequest struct {
	Chain  web3.Chain
	Op     StakeOp
	Amount *big.Int
}

type stakeHandler func(e *Executor, ctx context.Context, pub web3.PublicClient, wallet web3.WalletClient, req StakeRequest, res *TransactionResult) (*ClaimReport, error)

var stakeHandlers = map[StakeOp]stakeHandler{
	StakeDeposit:  (*Executor).stakeDeposit,
	StakeWithdraw: (*Executor).stakeWithdraw,
	StakeClaim:    (*Executor).stakeClaim,
}

// Stake dispatches req to its operation. The report is only set for claims.
func (e *Executor) Stake(ctx context.Context, pub web3.PublicClient, wallet web3.WalletClient, req StakeRequest, res *TransactionResult) (*ClaimReport, error) {
	handle, ok := stakeHandlers[req.Op]
	if !ok {
		return nil, xerrors.New(xerrors.CodeValidationFailed, fmt.Sprintf("unsupported staking action %q", req.Op))
	}
	if req.Op != StakeClaim && (req.Amount == nil || req.Amount.Sign() <= 0) {
		return nil, xerrors.New(xerrors.CodeValidationFailed, "stake amount must be greater than zero")
	}
	res.Label = "stake " + string(req.Op)
	return handle(e, ctx, pub, wallet, req, res)
}

func (e *Executor) stakeDeposit(ctx context.Context, pub web3.PublicClient, wallet web3.WalletClient, req StakeRequest, res *TransactionResult) (*ClaimReport, error) {
	call, err := stakeCall("deposit", req.Amount).Pack()
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeValidationFailed, err, "encode deposit")
	}
	res.Amount = req.Amount.String()
	return nil, e.Execute(ctx, pub, wallet, call, res)
}

func (e *Executor) stakeWithdraw(ctx context.Context, pub web3.PublicClient, wallet web3.WalletClient, req StakeRequest, res *TransactionResult) (*ClaimReport, error) {
	if _, err := e.EnsureAllowance(ctx, pub, wallet, req.Chain, contracts.SlisBNBAddress, contracts.StakeManagerAddress, req.Amount); err != nil {
		return nil, err
	}
	call, err := stakeCall("requestWithdraw", nil, req.Amount).Pack()
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeValidationFailed, err, "encode requestWithdraw")
	}
	res.Amount = req.Amount.String()
	return nil, e.Execute(ctx, pub, wallet, call, res)
}

// stakeClaim reads request statuses in order and stops at the first entry
// that is not claimable. Claims are then sent from the highest index down
// so that removals inside the contract never shift a pending index.
func (e *Executor) stakeClaim(ctx context.Context, pub web3.PublicClient, wallet web3.WalletClient, req StakeRequest, res *TransactionResult) (*ClaimReport, error) {
	account := wallet.Account()
	pending, err := WithdrawalRequestCount(ctx, pub, account)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeSimulationFailed, err, "read withdrawal requests")
	}
	report := &ClaimReport{Pending: pending}

	var claimable []uint64
	for idx := 0; idx < pending; idx++ {
		ok, err := RequestClaimable(ctx, pub, account, uint64(idx))
		if err != nil {
			return report, xerrors.Wrap(xerrors.CodeSimulationFailed, err, fmt.Sprintf("read request status %d", idx))
		}
		if !ok {
			break
		}
		claimable = append(claimable, uint64(idx))
	}
	if len(claimable) == 0 {
		return report, xerrors.New(xerrors.CodeValidationFailed, "no withdrawal requests are claimable yet")
	}

	for i := len(claimable) - 1; i >= 0; i-- {
		idx := claimable[i]
		call, err := stakeCall("claimWithdraw", nil, new(big.Int).SetUint64(idx)).Pack()
		if err != nil {
			return report, xerrors.Wrap(xerrors.CodeValidationFailed, err, "encode claimWithdraw")
		}
		step := &TransactionResult{Chain: req.Chain, Label: fmt.Sprintf("claim request %d", idx)}
		if err := e.Execute(ctx, pub, wallet, call, step); err != nil {
			*res = mergeClaim(*res, *step)
			return report, err
		}
		report.Claimed = append(report.Claimed, idx)
		report.Hashes = append(report.Hashes, step.HashHex())
		*res = mergeClaim(*res, *step)
		e.log.Info("withdrawal claimed", slog.Uint64("index", idx), slog.String("hash", step.HashHex()))
	}
	return report, nil
}

// mergeClaim keeps the caller's labels and copies the lifecycle fields of
// the latest claim transaction.
func mergeClaim(res, step TransactionResult) TransactionResult {
	res.Hash = step.Hash
	res.Status = step.Status
	res.State = step.State
	res.Explorer = step.Explorer
	return res
}

func stakeCall(method string, value *big.Int, args ...any) web3.ContractCall {
	return web3.ContractCall{Address: contracts.StakeManagerAddress, ABI: contracts.StakeManager, Method: method, Args: args, Value: value}
}

// WithdrawalRequestCount returns the number of pending withdrawal requests.
func WithdrawalRequestCount(ctx context.Context, pub web3.PublicClient, account common.Address) (int, error) {
	out, err := pub.ReadContract(ctx, stakeCall("getUserWithdrawalRequests", nil, account))
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	list := reflect.ValueOf(out[0])
	if list.Kind() != reflect.Slice && list.Kind() != reflect.Array {
		return 0, fmt.Errorf("getUserWithdrawalRequests: unexpected type %T", out[0])
	}
	return list.Len(), nil
}

// RequestClaimable reports whether withdrawal request idx can be claimed.
func RequestClaimable(ctx context.Context, pub web3.PublicClient, account common.Address, idx uint64) (bool, error) {
	out, err := pub.ReadContract(ctx, stakeCall("getUserRequestStatus", nil, account, new(big.Int).SetUint64(idx)))
	if err != nil {
		return false, err
	}
	if len(out) == 0 {
		return false, fmt.Errorf("getUserRequestStatus: empty result")
	}
	ok, isBool := out[0].(bool)
	if !isBool {
		return false, fmt.Errorf("getUserRequestStatus: unexpected type %T", out[0])
	}
	return ok, nil
}
