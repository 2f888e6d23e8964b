package executor

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"BNBChain-Agent/internal/contracts"
	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/web3"

	"github.com/ethereum/go-ethereum/common"
)

// BridgeVariant is one call shape of the opBNB canonical bridge.
type BridgeVariant int

const (
	DepositNativeSelf BridgeVariant = iota + 1
	DepositNativeOther
	DepositERC20Self
	DepositERC20Other
	WithdrawNative
	WithdrawERC20
)

func (v BridgeVariant) String() string {
	switch v {
	case DepositNativeSelf:
		return "depositETH"
	case DepositNativeOther:
		return "depositETHTo"
	case DepositERC20Self:
		return "depositERC20"
	case DepositERC20Other:
		return "depositERC20To"
	case WithdrawNative:
		return "withdrawNative"
	case WithdrawERC20:
		return "withdrawERC20"
	default:
		return "unknown"
	}
}

// SelectBridgeVariant picks the call shape from the direction, the asset
// kind and whether the recipient is the caller.
func SelectBridgeVariant(withdraw, native, self bool) BridgeVariant {
	switch {
	case withdraw && native:
		return WithdrawNative
	case withdraw:
		return WithdrawERC20
	case native && self:
		return DepositNativeSelf
	case native:
		return DepositNativeOther
	case self:
		return DepositERC20Self
	default:
		return DepositERC20Other
	}
}

// BridgeRequest is a resolved bridge transfer. SourceToken is the token on
// the sending chain and DestToken its counterpart; both are zero for the
// native asset.
type BridgeRequest struct {
	Chain       web3.Chain
	Withdraw    bool
	SourceToken common.Address
	DestToken   common.Address
	To          common.Address
	Amount      *big.Int
	MinGasLimit uint32
}

// Native reports whether the request moves the native asset.
func (r BridgeRequest) Native() bool { return r.SourceToken == (common.Address{}) }

type bridgePlan struct {
	bridge  common.Address
	call    web3.ContractCall
	approve bool
}

type bridgeBuilder func(req BridgeRequest, bridge common.Address, fee *big.Int) bridgePlan

var bridgeBuilders = map[BridgeVariant]bridgeBuilder{
	DepositNativeSelf: func(req BridgeRequest, bridge common.Address, _ *big.Int) bridgePlan {
		return bridgePlan{bridge: bridge, call: l1Call(bridge, "depositETH", req.Amount, req.MinGasLimit, []byte{})}
	},
	DepositNativeOther: func(req BridgeRequest, bridge common.Address, _ *big.Int) bridgePlan {
		return bridgePlan{bridge: bridge, call: l1Call(bridge, "depositETHTo", req.Amount, req.To, req.MinGasLimit, []byte{})}
	},
	DepositERC20Self: func(req BridgeRequest, bridge common.Address, _ *big.Int) bridgePlan {
		return bridgePlan{bridge: bridge, approve: true,
			call: l1Call(bridge, "depositERC20", nil, req.SourceToken, req.DestToken, req.Amount, req.MinGasLimit, []byte{})}
	},
	DepositERC20Other: func(req BridgeRequest, bridge common.Address, _ *big.Int) bridgePlan {
		return bridgePlan{bridge: bridge, approve: true,
			call: l1Call(bridge, "depositERC20To", nil, req.SourceToken, req.DestToken, req.To, req.Amount, req.MinGasLimit, []byte{})}
	},
	WithdrawNative: func(req BridgeRequest, bridge common.Address, fee *big.Int) bridgePlan {
		value := new(big.Int).Add(req.Amount, fee)
		return bridgePlan{bridge: bridge, call: l2Call(bridge, value, contracts.LegacyL2Native, req.To, req.Amount, req.MinGasLimit)}
	},
	WithdrawERC20: func(req BridgeRequest, bridge common.Address, fee *big.Int) bridgePlan {
		return bridgePlan{bridge: bridge, approve: true,
			call: l2Call(bridge, new(big.Int).Set(fee), req.SourceToken, req.To, req.Amount, req.MinGasLimit)}
	},
}

func l1Call(bridge common.Address, method string, value *big.Int, args ...any) web3.ContractCall {
	return web3.ContractCall{Address: bridge, ABI: contracts.L1StandardBridge, Method: method, Args: args, Value: value}
}

func l2Call(bridge common.Address, value *big.Int, l2Token, to common.Address, amount *big.Int, minGas uint32) web3.ContractCall {
	return web3.ContractCall{
		Address: bridge,
		ABI:     contracts.L2StandardBridgeBot,
		Method:  "withdrawTo",
		Args:    []any{l2Token, to, amount, minGas, []byte{}},
		Value:   value,
	}
}

// DelegationFee reads the withdrawal fee charged by the L2 bridge bot.
func DelegationFee(ctx context.Context, pub web3.PublicClient, bridge common.Address) (*big.Int, error) {
	return readUint(ctx, pub, web3.ContractCall{Address: bridge, ABI: contracts.L2StandardBridgeBot, Method: "delegationFee"})
}

// Bridge moves funds over the canonical bridge of req.Chain, the sending chain.
func (e *Executor) Bridge(ctx context.Context, pub web3.PublicClient, wallet web3.WalletClient, req BridgeRequest, res *TransactionResult) (BridgeVariant, error) {
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return 0, xerrors.New(xerrors.CodeValidationFailed, "bridge amount must be greater than zero")
	}
	self := req.To == (common.Address{}) || req.To == wallet.Account()
	if req.To == (common.Address{}) {
		req.To = wallet.Account()
	}
	if req.MinGasLimit == 0 {
		req.MinGasLimit = contracts.DefaultMinGasLimit
	}

	lookup := contracts.L1Bridge
	if req.Withdraw {
		lookup = contracts.L2Bridge
	}
	bridge, ok := lookup(req.Chain)
	if !ok {
		return 0, xerrors.New(xerrors.CodeValidationFailed, fmt.Sprintf("no bridge contract on %s", req.Chain))
	}

	variant := SelectBridgeVariant(req.Withdraw, req.Native(), self)
	fee := new(big.Int)
	if req.Withdraw {
		var err error
		if fee, err = DelegationFee(ctx, pub, bridge); err != nil {
			return variant, xerrors.Wrap(xerrors.CodeSimulationFailed, err, "read delegation fee")
		}
	}
	plan := bridgeBuilders[variant](req, bridge, fee)

	if plan.approve {
		if _, err := e.EnsureAllowance(ctx, pub, wallet, req.Chain, req.SourceToken, plan.bridge, req.Amount); err != nil {
			return variant, err
		}
	}
	call, err := plan.call.Pack()
	if err != nil {
		return variant, xerrors.Wrap(xerrors.CodeValidationFailed, err, "encode "+variant.String())
	}
	e.log.Info("bridge call selected", slog.String("variant", variant.String()), slog.String("chain", string(req.Chain)), slog.String("fee", fee.String()))

	res.Label = variant.String()
	res.Amount = req.Amount.String()
	return variant, e.Execute(ctx, pub, wallet, call, res)
}
