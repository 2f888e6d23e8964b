package extract

import (
	"fmt"
	"regexp"

	"BNBChain-Agent/internal/web3"
)

// StakeAction selects the liquid staking operation.
type StakeAction string

const (
	StakeDeposit  StakeAction = "deposit"
	StakeWithdraw StakeAction = "withdraw"
	StakeClaim    StakeAction = "claim"
)

var stakeActions = map[string]StakeAction{
	"deposit":  StakeDeposit,
	"stake":    StakeDeposit,
	"withdraw": StakeWithdraw,
	"unstake":  StakeWithdraw,
	"redeem":   StakeWithdraw,
	"claim":    StakeClaim,
}

var (
	stakeActionPattern = regexp.MustCompile(`(?i)\b(?P<action>deposit|stake|withdraw|unstake|redeem|claim)\b`)
	stakeAmountPattern = regexp.MustCompile(`(?i)\b(?:deposit|stake|withdraw|unstake|redeem)\s+(?P<amount>` + amountExpr + `)`)
)

// StakeParams describes a liquid staking request. Amount is empty for claims.
type StakeParams struct {
	Chain  web3.Chain
	Action StakeAction
	Amount string
}

// Stake extracts staking parameters from src.
func Stake(src Source) (StakeParams, error) {
	chain, err := resolveChain(src.Resolve(chainField()), "chain")
	if err != nil {
		return StakeParams{}, err
	}
	if chain != web3.ChainBSC {
		return StakeParams{}, invalid("chain", fmt.Sprintf("staking is only available on %s", web3.ChainBSC))
	}
	actionValue := src.Resolve(Field{
		Name:  "action",
		Keys:  []string{"action"},
		Rules: []Rule{{Pattern: stakeActionPattern, Group: "action"}},
	})
	if !actionValue.Found() {
		return StakeParams{}, missing("action")
	}
	action, ok := stakeActions[lower(actionValue.Raw)]
	if !ok {
		return StakeParams{}, invalid("action", fmt.Sprintf("unsupported staking action %q", actionValue.Raw))
	}
	params := StakeParams{Chain: chain, Action: action}
	if action == StakeClaim {
		return params, nil
	}
	params.Amount, err = positiveAmount(src.Resolve(Field{
		Name:    "amount",
		Keys:    []string{"amount"},
		Numeric: true,
		Default: DefaultTradeAmount,
		Rules:   []Rule{{Pattern: stakeAmountPattern, Group: "amount"}},
	}), "amount")
	if err != nil {
		return StakeParams{}, err
	}
	return params, nil
}
