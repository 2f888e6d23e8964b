package executor

import (
	"BNBChain-Agent/internal/web3"

	"github.com/ethereum/go-ethereum/common"
)

// State is the lifecycle position of a transaction.
type State int

const (
	StateBuilt State = iota + 1
	StateSimulated
	StateSubmitted
	StateConfirmed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateSimulated:
		return "simulated"
	case StateSubmitted:
		return "submitted"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TransactionResult is filled in as the lifecycle progresses. Hash stays set
// once the network accepted the transaction, whatever happens afterwards.
type TransactionResult struct {
	Chain    web3.Chain
	Label    string
	Hash     *common.Hash
	Amount   string
	Token    string
	Status   *uint64
	State    State
	Explorer string
}

// HashHex returns the hash or an empty string.
func (r *TransactionResult) HashHex() string {
	if r == nil || r.Hash == nil {
		return ""
	}
	return r.Hash.Hex()
}

// StepStatus reports one executed route step.
type StepStatus struct {
	Index int
	Tool  string
	Hash  string
	State State
}

// DeployResult is a TransactionResult plus the created contract address.
type DeployResult struct {
	TransactionResult
	Address common.Address
}

// ClaimReport lists the withdrawal requests claimed by a stake claim.
type ClaimReport struct {
	Pending int
	Claimed []uint64
	Hashes  []string
}
