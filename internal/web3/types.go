package web3

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrNameNotFound is returned by name resolvers that have no record.
var ErrNameNotFound = errors.New("name not found")

// Call is a raw transaction request. A nil To deploys.
type Call struct {
	To    *common.Address
	Data  []byte
	Value *big.Int
	Gas   uint64
}

// ContractCall describes a method invocation on a deployed contract.
type ContractCall struct {
	Address common.Address
	ABI     *abi.ABI
	Method  string
	Args    []any
	Value   *big.Int
}

// Pack encodes the invocation into a raw Call.
func (c ContractCall) Pack() (Call, error) {
	if c.ABI == nil {
		return Call{}, fmt.Errorf("contract call %s: abi is required", c.Method)
	}
	data, err := c.ABI.Pack(c.Method, c.Args...)
	if err != nil {
		return Call{}, fmt.Errorf("pack %s: %w", c.Method, err)
	}
	to := c.Address
	return Call{To: &to, Data: data, Value: c.Value}, nil
}

// PublicClient is the read side of a chain connection.
type PublicClient interface {
	ReadContract(ctx context.Context, call ContractCall) ([]any, error)
	SimulateContract(ctx context.Context, from common.Address, call Call) ([]byte, error)
	GetBalance(ctx context.Context, account common.Address) (*big.Int, error)
	WaitForTransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// WalletClient is the signing side of a chain connection.
type WalletClient interface {
	Account() common.Address
	WriteContract(ctx context.Context, call Call) (common.Hash, error)
	DeployContract(ctx context.Context, contractABI abi.ABI, bytecode []byte, args ...any) (common.Address, common.Hash, error)
}

// Provider is the chain capability handed to action handlers. Handlers
// borrow it per call and never close it.
type Provider interface {
	SwitchChain(chain Chain) error
	PublicClient(chain Chain) (PublicClient, error)
	WalletClient(chain Chain) (WalletClient, error)
	Address() common.Address
	ResolveHumanName(ctx context.Context, name string) (common.Address, error)
}

// NameResolver maps human readable names such as "alice.bnb" onto addresses.
type NameResolver interface {
	Resolve(ctx context.Context, name string) (common.Address, error)
}
