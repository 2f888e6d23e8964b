package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"BNBChain-Agent/internal/web3"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

const (
	defaultPollInterval   = 2 * time.Second
	defaultReceiptTimeout = 2 * time.Minute
	defaultGasMultiplier  = 1.2
)

// Backend is the subset of ethclient used by Client. Both *ethclient.Client
// and the simulated backend client satisfy it.
type Backend interface {
	bind.ContractBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*coretypes.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Config describes how to construct an EVM compatible client.
type Config struct {
	Name           string
	RPCURL         string
	PrivateKey     string
	GasMultiplier  float64
	PollInterval   time.Duration
	ReceiptTimeout time.Duration
}

// Client implements web3.PublicClient and, when a key is configured,
// web3.WalletClient for a single EVM chain.
type Client struct {
	name           string
	rpcClient      *gethrpc.Client
	backend        Backend
	chainID        *big.Int
	key            *ecdsa.PrivateKey
	account        common.Address
	gasMultiplier  float64
	pollInterval   time.Duration
	receiptTimeout time.Duration

	// mu serialises nonce allocation for outgoing transactions.
	mu sync.Mutex
}

// NewClient dials the configured RPC endpoint and returns a ready-to-use client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	rpcURL := strings.TrimSpace(cfg.RPCURL)
	if rpcURL == "" {
		return nil, fmt.Errorf("chain %s: rpc url is not configured", cfg.Name)
	}

	rpcClient, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Name, err)
	}
	eth := ethclient.NewClient(rpcClient)
	chainID, err := eth.ChainID(ctx)
	if err != nil {
		rpcClient.Close()
		return nil, fmt.Errorf("chain %s: read chain id: %w", cfg.Name, err)
	}

	client, err := NewBackendClient(cfg.Name, chainID, eth, cfg)
	if err != nil {
		rpcClient.Close()
		return nil, err
	}
	client.rpcClient = rpcClient
	return client, nil
}

// NewBackendClient wraps an existing backend, such as the simulated one used in tests.
func NewBackendClient(name string, chainID *big.Int, backend Backend, cfg Config) (*Client, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	c := &Client{
		name:           name,
		backend:        backend,
		chainID:        new(big.Int).Set(chainID),
		gasMultiplier:  cfg.GasMultiplier,
		pollInterval:   cfg.PollInterval,
		receiptTimeout: cfg.ReceiptTimeout,
	}
	if c.gasMultiplier < 1 {
		c.gasMultiplier = defaultGasMultiplier
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.receiptTimeout <= 0 {
		c.receiptTimeout = defaultReceiptTimeout
	}
	if hexKey := strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x"); hexKey != "" {
		key, err := crypto.HexToECDSA(hexKey)
		if err != nil {
			return nil, fmt.Errorf("chain %s: parse private key: %w", name, err)
		}
		c.key = key
		c.account = crypto.PubkeyToAddress(key.PublicKey)
	}
	return c, nil
}

// Name returns the chain name the client was registered under.
func (c *Client) Name() string { return c.name }

// ChainID returns the numeric chain id read at dial time.
func (c *Client) ChainID() *big.Int { return new(big.Int).Set(c.chainID) }

// CanSign reports whether a private key is configured.
func (c *Client) CanSign() bool { return c.key != nil }

// Account returns the signing address, or the zero address without a key.
func (c *Client) Account() common.Address { return c.account }

// Close releases network connections held by the client.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rpcClient != nil {
		c.rpcClient.Close()
		c.rpcClient = nil
	}
}

// GetBalance returns the native balance of account at the latest block.
func (c *Client) GetBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := c.backend.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("read balance on %s: %w", c.name, err)
	}
	return balance, nil
}

// ReadContract performs an eth_call and decodes the outputs of the method.
func (c *Client) ReadContract(ctx context.Context, call web3.ContractCall) ([]any, error) {
	raw, err := call.Pack()
	if err != nil {
		return nil, err
	}
	out, err := c.backend.CallContract(ctx, gethcore.CallMsg{From: c.account, To: raw.To, Data: raw.Data, Value: raw.Value}, nil)
	if err != nil {
		return nil, fmt.Errorf("read %s on %s: %w", call.Method, c.name, err)
	}
	values, err := call.ABI.Unpack(call.Method, out)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", call.Method, err)
	}
	return values, nil
}

// SimulateContract executes call against the latest state without submitting it.
// The revert reason, when present, is kept in the returned error.
func (c *Client) SimulateContract(ctx context.Context, from common.Address, call web3.Call) ([]byte, error) {
	msg := gethcore.CallMsg{From: from, To: call.To, Data: call.Data, Value: call.Value, Gas: call.Gas}
	out, err := c.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WriteContract signs and broadcasts call from the configured account.
func (c *Client) WriteContract(ctx context.Context, call web3.Call) (common.Hash, error) {
	if c.key == nil {
		return common.Hash{}, fmt.Errorf("chain %s: no signing key configured", c.name)
	}
	if call.To == nil {
		return common.Hash{}, errors.New("write contract: recipient is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	value := call.Value
	if value == nil {
		value = new(big.Int)
	}
	nonce, err := c.backend.PendingNonceAt(ctx, c.account)
	if err != nil {
		return common.Hash{}, fmt.Errorf("read nonce: %w", err)
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest gas price: %w", err)
	}
	gas := call.Gas
	if gas == 0 {
		estimate, err := c.backend.EstimateGas(ctx, gethcore.CallMsg{From: c.account, To: call.To, Data: call.Data, Value: value})
		if err != nil {
			return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
		}
		gas = uint64(float64(estimate) * c.gasMultiplier)
	}

	tx := coretypes.NewTx(&coretypes.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       call.To,
		Value:    value,
		Data:     call.Data,
	})
	signed, err := coretypes.SignTx(tx, coretypes.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}
	return signed.Hash(), nil
}

// DeployContract sends the contract creation transaction and returns the
// predicted address together with the transaction hash.
func (c *Client) DeployContract(ctx context.Context, contractABI abi.ABI, bytecode []byte, args ...any) (common.Address, common.Hash, error) {
	if c.key == nil {
		return common.Address{}, common.Hash{}, fmt.Errorf("chain %s: no signing key configured", c.name)
	}
	if len(bytecode) == 0 {
		return common.Address{}, common.Hash{}, errors.New("contract bytecode is empty")
	}

	auth, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return common.Address{}, common.Hash{}, fmt.Errorf("build transactor: %w", err)
	}
	auth.Context = ctx

	c.mu.Lock()
	defer c.mu.Unlock()

	address, tx, _, err := bind.DeployContract(auth, contractABI, bytecode, c.backend, args...)
	if err != nil {
		return common.Address{}, common.Hash{}, fmt.Errorf("deploy contract: %w", err)
	}
	return address, tx.Hash(), nil
}

// WaitForTransactionReceipt polls until the receipt of hash is available or
// the receipt timeout elapses.
func (c *Client) WaitForTransactionReceipt(ctx context.Context, hash common.Hash) (*coretypes.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, gethcore.NotFound) {
			return nil, fmt.Errorf("read receipt %s: %w", hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for receipt %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

var (
	_ web3.PublicClient = (*Client)(nil)
	_ web3.WalletClient = (*Client)(nil)
)
