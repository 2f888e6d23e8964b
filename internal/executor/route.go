package executor

import (
	"context"
	"fmt"
	"math/big"

	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/routing"
	"BNBChain-Agent/internal/web3"

	"github.com/ethereum/go-ethereum/common"
)

// StepTransactor fills in the transaction of a route step.
type StepTransactor interface {
	StepTransaction(ctx context.Context, step routing.Step) (routing.Step, error)
}

// ExecuteRoute runs every step of route in order. res carries the last
// step; the returned statuses cover every step that was attempted.
func (e *Executor) ExecuteRoute(ctx context.Context, pub web3.PublicClient, wallet web3.WalletClient, router StepTransactor, route routing.Route, res *TransactionResult) ([]StepStatus, error) {
	if len(route.Steps) == 0 {
		return nil, xerrors.New(xerrors.CodeRouteNotFound, "No routes found: route has no steps")
	}
	statuses := make([]StepStatus, 0, len(route.Steps))
	for i, step := range route.Steps {
		populated, err := router.StepTransaction(ctx, step)
		if err != nil {
			return statuses, xerrors.Wrap(xerrors.CodeSubmissionFailed, err, fmt.Sprintf("prepare step %d", i))
		}
		call, err := stepCall(populated)
		if err != nil {
			return statuses, xerrors.Wrap(xerrors.CodeValidationFailed, err, fmt.Sprintf("decode step %d transaction", i))
		}

		if populated.NeedsApproval() {
			token := common.HexToAddress(populated.Action.FromToken.Address)
			spender := common.HexToAddress(populated.Estimate.ApprovalAddress)
			amount, err := routing.DecodeQuantity(populated.Action.FromAmount)
			if err != nil || amount.Sign() <= 0 {
				return statuses, xerrors.New(xerrors.CodeValidationFailed, fmt.Sprintf("step %d has no spend amount", i))
			}
			if _, err := e.EnsureAllowance(ctx, pub, wallet, res.Chain, token, spender, amount); err != nil {
				return statuses, err
			}
		}

		stepRes := &TransactionResult{Chain: res.Chain, Label: fmt.Sprintf("swap step %d via %s", i, populated.Tool), Token: res.Token, Amount: res.Amount}
		err = e.Execute(ctx, pub, wallet, call, stepRes)
		statuses = append(statuses, StepStatus{Index: i, Tool: populated.Tool, Hash: stepRes.HashHex(), State: stepRes.State})
		res.Hash, res.Status, res.State, res.Explorer = stepRes.Hash, stepRes.Status, stepRes.State, stepRes.Explorer
		if err != nil {
			return statuses, err
		}
	}
	return statuses, nil
}

func stepCall(step routing.Step) (web3.Call, error) {
	tx := step.TransactionRequest
	if tx == nil {
		return web3.Call{}, fmt.Errorf("step %s has no transaction request", step.ID)
	}
	if !common.IsHexAddress(tx.To) {
		return web3.Call{}, fmt.Errorf("invalid step target %q", tx.To)
	}
	value, err := routing.DecodeQuantity(tx.Value)
	if err != nil {
		return web3.Call{}, fmt.Errorf("value: %w", err)
	}
	gas, err := routing.DecodeQuantity(tx.GasLimit)
	if err != nil {
		return web3.Call{}, fmt.Errorf("gas limit: %w", err)
	}
	to := common.HexToAddress(tx.To)
	call := web3.Call{To: &to, Data: common.FromHex(tx.Data), Value: value}
	if gas.IsUint64() {
		call.Gas = gas.Uint64()
	}
	if value.Sign() == 0 {
		call.Value = new(big.Int)
	}
	return call, nil
}
