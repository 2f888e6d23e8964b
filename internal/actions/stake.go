package actions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/executor"
	"BNBChain-Agent/internal/extract"
	"BNBChain-Agent/internal/normalize"
	"BNBChain-Agent/pkg/plugin"
)

var stakeOps = map[extract.StakeAction]executor.StakeOp{
	extract.StakeDeposit:  executor.StakeDeposit,
	extract.StakeWithdraw: executor.StakeWithdraw,
	extract.StakeClaim:    executor.StakeClaim,
}

// Stake deposits BNB into Lista DAO liquid staking, requests withdrawals and
// claims finished ones.
type Stake struct {
	env *Env
	log *slog.Logger
}

func NewStake(env *Env) *Stake {
	return &Stake{env: env, log: env.logger().With(slog.String("action", NameStake))}
}

func (a *Stake) Info() plugin.Info {
	return plugin.Info{
		Name:         NameStake,
		Description:  "Stake BNB for slisBNB with Lista DAO on BSC, request a withdrawal, or claim finished withdrawals.",
		Similes:      []string{"LIQUID_STAKE", "UNSTAKE", "CLAIM_STAKE"},
		Examples:     []plugin.Example{{User: "Stake 1 BNB", Agent: "Deposited 1 BNB into Lista DAO staking."}},
		Capabilities: []plugin.Capability{plugin.CapabilityNetwork, plugin.CapabilitySigning},
	}
}

func (a *Stake) Handle(ctx context.Context, msg plugin.Message) plugin.Result {
	params, err := extract.Stake(a.env.source(ctx, NameStake, msg))
	if err != nil {
		return failure(ctx, a.log, NameStake, err, nil)
	}
	op, ok := stakeOps[params.Action]
	if !ok {
		return failure(ctx, a.log, NameStake, xerrors.New(xerrors.CodeValidationFailed,
			fmt.Sprintf("unsupported staking action %q", params.Action), xerrors.WithMetadata("field", "action")), nil)
	}
	res := executor.TransactionResult{Chain: params.Chain, Token: stakeToken(op)}

	pub, wallet, err := a.env.clients(params.Chain)
	if err != nil {
		return failure(ctx, a.log, NameStake, err, txContent(&res, 18))
	}
	req := executor.StakeRequest{Chain: params.Chain, Op: op}
	if op != executor.StakeClaim {
		if req.Amount, err = normalize.ToPositiveBaseUnits(params.Amount, 18); err != nil {
			return failure(ctx, a.log, NameStake, err, txContent(&res, 18))
		}
	}

	report, err := a.env.Executor.Stake(ctx, pub, wallet, req, &res)
	result := finishTx(ctx, a.log, NameStake, &res, 18, err, stakeSummary(op, params.Amount, report))
	result.Content["action"] = string(op)
	if report != nil {
		result.Content["claimed"] = report.Claimed
		result.Content["hashes"] = report.Hashes
		result.Content["pending"] = report.Pending
	}
	return result
}

func stakeToken(op executor.StakeOp) string {
	if op == executor.StakeWithdraw {
		return "slisBNB"
	}
	return "BNB"
}

func stakeSummary(op executor.StakeOp, amount string, report *executor.ClaimReport) string {
	switch op {
	case executor.StakeDeposit:
		return fmt.Sprintf("Deposited %s BNB into Lista DAO staking.", amount)
	case executor.StakeWithdraw:
		return fmt.Sprintf("Requested withdrawal of %s slisBNB.", amount)
	default:
		if report == nil || len(report.Claimed) == 0 {
			return "No withdrawals were claimed."
		}
		ids := make([]string, 0, len(report.Claimed))
		for _, idx := range report.Claimed {
			ids = append(ids, fmt.Sprint(idx))
		}
		return fmt.Sprintf("Claimed %d withdrawal request(s): %s.", len(report.Claimed), strings.Join(ids, ", "))
	}
}
