package executor

import (
	"context"

	"BNBChain-Agent/internal/contracts"
	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/web3"
)

// Deploy creates a contract from art. The creation is simulated first.
func (e *Executor) Deploy(ctx context.Context, pub web3.PublicClient, wallet web3.WalletClient, art contracts.Artifact, args []any, res *DeployResult) error {
	res.Label = "deploy " + art.Name
	e.transition(ctx, &res.TransactionResult, StateBuilt)

	packed, err := art.ABI.Pack("", args...)
	if err != nil {
		e.transition(ctx, &res.TransactionResult, StateFailed)
		return xerrors.Wrap(xerrors.CodeValidationFailed, err, "encode constructor of "+art.Name)
	}
	initCode := append(append([]byte{}, art.Bytecode...), packed...)
	if _, err := pub.SimulateContract(ctx, wallet.Account(), web3.Call{Data: initCode}); err != nil {
		e.transition(ctx, &res.TransactionResult, StateFailed)
		return xerrors.Wrap(xerrors.CodeSimulationFailed, err, "simulate "+res.Label)
	}
	e.transition(ctx, &res.TransactionResult, StateSimulated)

	address, hash, err := wallet.DeployContract(ctx, art.ABI, art.Bytecode, args...)
	if err != nil {
		e.transition(ctx, &res.TransactionResult, StateFailed)
		return xerrors.Wrap(xerrors.CodeSubmissionFailed, err, "submit "+res.Label)
	}
	res.Address = address
	e.submitted(ctx, &res.TransactionResult, hash)
	return e.confirm(ctx, pub, &res.TransactionResult, hash)
}
