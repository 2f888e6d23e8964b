package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"BNBChain-Agent/internal/contracts"
	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/executor"
	"BNBChain-Agent/internal/faucet"
	"BNBChain-Agent/internal/greenfield"
	"BNBChain-Agent/internal/llm"
	"BNBChain-Agent/internal/normalize"
	"BNBChain-Agent/internal/routing"
	"BNBChain-Agent/internal/tokens"
	"BNBChain-Agent/internal/web3"
	"BNBChain-Agent/pkg/plugin"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	wallet    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	recipient = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	usdc      = common.HexToAddress("0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d")
)

type chainStub struct {
	mu          sync.Mutex
	balance     *big.Int
	reads       map[string]func(args []any) []any
	simulateErr error
	waitErr     error
	writes      []web3.Call
	deployed    int
}

func newChainStub() *chainStub {
	return &chainStub{balance: new(big.Int), reads: map[string]func([]any) []any{}}
}

func (c *chainStub) ReadContract(_ context.Context, call web3.ContractCall) ([]any, error) {
	c.mu.Lock()
	read, ok := c.reads[call.Method]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unexpected read %s", call.Method)
	}
	return read(call.Args), nil
}

func (c *chainStub) SimulateContract(context.Context, common.Address, web3.Call) ([]byte, error) {
	return nil, c.simulateErr
}

func (c *chainStub) GetBalance(context.Context, common.Address) (*big.Int, error) {
	return new(big.Int).Set(c.balance), nil
}

func (c *chainStub) WaitForTransactionReceipt(_ context.Context, hash common.Hash) (*coretypes.Receipt, error) {
	if c.waitErr != nil {
		return nil, c.waitErr
	}
	return &coretypes.Receipt{Status: coretypes.ReceiptStatusSuccessful, TxHash: hash}, nil
}

func (c *chainStub) Account() common.Address { return wallet }

func (c *chainStub) WriteContract(_ context.Context, call web3.Call) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, call)
	return common.BigToHash(big.NewInt(int64(len(c.writes)))), nil
}

func (c *chainStub) DeployContract(context.Context, abi.ABI, []byte, ...any) (common.Address, common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deployed++
	return recipient, common.HexToHash("0xdead"), nil
}

type providerStub struct {
	chain    *chainStub
	switched []web3.Chain
	names    map[string]common.Address
}

func (p *providerStub) SwitchChain(chain web3.Chain) error {
	p.switched = append(p.switched, chain)
	return nil
}

func (p *providerStub) PublicClient(web3.Chain) (web3.PublicClient, error) { return p.chain, nil }
func (p *providerStub) WalletClient(web3.Chain) (web3.WalletClient, error) { return p.chain, nil }
func (p *providerStub) Address() common.Address                          { return wallet }

func (p *providerStub) ResolveHumanName(_ context.Context, name string) (common.Address, error) {
	if addr, ok := p.names[strings.ToLower(name)]; ok {
		return addr, nil
	}
	return common.Address{}, web3.ErrNameNotFound
}

type modelStub struct {
	content string
	err     error
	calls   int
}

func (m *modelStub) Generate(context.Context, llm.Request) (*llm.Response, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &llm.Response{Content: m.content}, nil
}

func newEnv(t *testing.T) (*Env, *providerStub) {
	t.Helper()
	provider := &providerStub{chain: newChainStub(), names: map[string]common.Address{"alice.bnb": recipient}}
	directory := tokens.NewStaticDirectory([]tokens.Token{{Chain: web3.ChainBSC, Symbol: "USDC", Address: usdc, Decimals: 18}})
	return &Env{
		Provider: provider,
		Resolver: normalize.NewResolver(provider, directory),
		Executor: executor.New(),
		Model:    &modelStub{err: errors.New("model offline")},
	}, provider
}

func TestBalanceToleratesModelFailure(t *testing.T) {
	env, provider := newEnv(t)
	provider.chain.balance = new(big.Int).Mul(big.NewInt(3), big.NewInt(1e18))

	res := NewBalance(env).Handle(context.Background(), plugin.Message{Text: "what is my balance"})
	require.True(t, res.Success, res.Text)
	assert.Equal(t, "3", res.Content["balance"])
	assert.Equal(t, "BNB", res.Content["token"])
	assert.Equal(t, "bsc", res.Content["chain"])
	assert.Equal(t, 1, env.Model.(*modelStub).calls)
}

func TestBalanceOfERC20(t *testing.T) {
	env, provider := newEnv(t)
	provider.chain.reads["balanceOf"] = func([]any) []any { return []any{big.NewInt(2_500_000_000_000_000_000)} }

	res := NewBalance(env).Handle(context.Background(), plugin.Message{Options: map[string]any{"token": "usdc", "address": "alice.bnb"}})
	require.True(t, res.Success, res.Text)
	assert.Equal(t, "2.5", res.Content["balance"])
	assert.Equal(t, recipient.Hex(), res.Content["address"])
}

func TestTransferSendsAllMinusReserve(t *testing.T) {
	env, provider := newEnv(t)
	provider.chain.balance = new(big.Int).Mul(big.NewInt(5), big.NewInt(1e18))

	res := NewTransfer(env).Handle(context.Background(), plugin.Message{Options: map[string]any{"toAddress": recipient.Hex()}})
	require.True(t, res.Success, res.Text)
	assert.Equal(t, "4.999937", res.Content["amount"])
	assert.Equal(t, "BNB", res.Content["token"])
	assert.NotEmpty(t, res.Content["hash"])
	assert.True(t, strings.HasPrefix(res.Content["explorerUrl"].(string), "https://bscscan.com/tx/0x"))
	require.Len(t, provider.chain.writes, 1)
	assert.Equal(t, "4999937000000000000", provider.chain.writes[0].Value.String())
}

func TestTransferConfirmationUnknownKeepsHash(t *testing.T) {
	env, provider := newEnv(t)
	provider.chain.waitErr = context.DeadlineExceeded

	res := NewTransfer(env).Handle(context.Background(), plugin.Message{Options: map[string]any{"toAddress": "alice.bnb", "amount": "0.1"}})
	require.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, string(xerrors.CodeConfirmationUnknown), res.Error.Kind)
	hash, _ := res.Content["hash"].(string)
	require.NotEmpty(t, hash)
	assert.Contains(t, res.Text, hash)
	assert.Equal(t, "submitted", res.Content["state"])
}

func TestTransferClassifiesInsufficientFunds(t *testing.T) {
	env, provider := newEnv(t)
	provider.chain.simulateErr = errors.New("insufficient funds for gas * price + value")

	res := NewTransfer(env).Handle(context.Background(), plugin.Message{Options: map[string]any{"toAddress": recipient.Hex(), "amount": "1"}})
	require.False(t, res.Success)
	assert.Equal(t, string(xerrors.CodeInsufficientFunds), res.Error.Kind)
	assert.Empty(t, provider.chain.writes)
}

func TestTransferUnresolvedName(t *testing.T) {
	env, _ := newEnv(t)
	res := NewTransfer(env).Handle(context.Background(), plugin.Message{Options: map[string]any{"toAddress": "nobody.bnb", "amount": "1"}})
	require.False(t, res.Success)
	assert.Equal(t, string(xerrors.CodeResolutionFailed), res.Error.Kind)
}

type routerStub struct {
	req    routing.RouteRequest
	routes []routing.Route
	err    error
}

func (r *routerStub) GetRoutes(_ context.Context, req routing.RouteRequest) ([]routing.Route, error) {
	r.req = req
	return r.routes, r.err
}

func (r *routerStub) StepTransaction(_ context.Context, step routing.Step) (routing.Step, error) {
	step.TransactionRequest = &routing.TransactionRequest{To: recipient.Hex(), Data: "0x01", Value: "0x06f05b59d3b20000", GasLimit: "0x030d40"}
	return step, nil
}

func TestSwapScenario(t *testing.T) {
	env, provider := newEnv(t)
	router := &routerStub{routes: []routing.Route{{
		ID:          "r1",
		ToAmount:    "301200000000000000000",
		ToAmountMin: "300000000000000000000",
		ToToken:     routing.Token{Symbol: "USDC", Decimals: 18},
		Steps:       []routing.Step{{ID: "s1", Tool: "pancakeswap", Action: routing.StepAction{FromToken: routing.Token{Address: common.Address{}.Hex()}}}},
	}}}
	env.Router = router
	env.Model = &modelStub{content: "this is not json"}

	res := NewSwap(env).Handle(context.Background(), plugin.Message{Text: "swap 0.5 BNB for USDC"})
	require.True(t, res.Success, res.Text)
	assert.Equal(t, normalize.NativeRouteAddress.Hex(), router.req.FromTokenAddress)
	assert.Equal(t, usdc.Hex(), router.req.ToTokenAddress)
	assert.Equal(t, "500000000000000000", router.req.FromAmount)
	assert.Equal(t, int64(56), router.req.FromChainID)
	assert.InDelta(t, 0.05, router.req.Options.Slippage, 1e-9)
	assert.Equal(t, "301.2", res.Content["toAmount"])
	assert.Equal(t, "0.5", res.Content["amount"])
	require.Len(t, provider.chain.writes, 1)
	assert.Equal(t, uint64(200000), provider.chain.writes[0].Gas)
}

func TestSwapNoRoute(t *testing.T) {
	env, _ := newEnv(t)
	env.Router = &routerStub{err: xerrors.New(xerrors.CodeRouteNotFound, "No routes found from BNB to USDC")}

	res := NewSwap(env).Handle(context.Background(), plugin.Message{Text: "swap 0.5 BNB for USDC"})
	require.False(t, res.Success)
	assert.Equal(t, string(xerrors.CodeRouteNotFound), res.Error.Kind)
}

func TestBridgeSameChainFailsBeforeChainCalls(t *testing.T) {
	env, provider := newEnv(t)
	res := NewBridge(env).Handle(context.Background(), plugin.Message{Options: map[string]any{"fromChain": "bsc", "toChain": "bsc", "amount": "1"}})
	require.False(t, res.Success)
	assert.Equal(t, string(xerrors.CodeValidationFailed), res.Error.Kind)
	assert.Contains(t, res.Text, "unsupported bridge direction")
	assert.Empty(t, provider.switched)
}

func TestBridgeNativeDeposit(t *testing.T) {
	env, provider := newEnv(t)
	res := NewBridge(env).Handle(context.Background(), plugin.Message{Options: map[string]any{"fromChain": "bsc", "toChain": "opBNB", "amount": "0.2"}})
	require.True(t, res.Success, res.Text)
	assert.Equal(t, "DepositNativeSelf", res.Content["variant"])
	assert.Equal(t, "0.2", res.Content["amount"])
	require.Len(t, provider.chain.writes, 1)
	assert.Equal(t, "200000000000000000", provider.chain.writes[0].Value.String())
}

func TestStakeClaimReportsClaimedRequests(t *testing.T) {
	env, provider := newEnv(t)
	provider.chain.reads["getUserWithdrawalRequests"] = func([]any) []any { return []any{[]struct{}{{}, {}, {}}} }
	provider.chain.reads["getUserRequestStatus"] = func(args []any) []any {
		idx := args[1].(*big.Int).Int64()
		return []any{idx < 2, big.NewInt(1)}
	}

	res := NewStake(env).Handle(context.Background(), plugin.Message{Options: map[string]any{"action": "claim"}})
	require.True(t, res.Success, res.Text)
	assert.Equal(t, []uint64{1, 0}, res.Content["claimed"])
	assert.Equal(t, 3, res.Content["pending"])
	assert.Len(t, provider.chain.writes, 2)
}

type faucetStub struct {
	token string
	to    common.Address
}

func (f *faucetStub) Request(_ context.Context, to common.Address, token string) (faucet.Result, error) {
	f.to, f.token = to, token
	return faucet.Result{TxHash: "0xbeef", Token: token, To: to}, nil
}

func TestFaucetUsesWalletByDefault(t *testing.T) {
	env, _ := newEnv(t)
	stub := &faucetStub{}
	env.Faucet = stub

	res := NewFaucet(env).Handle(context.Background(), plugin.Message{Options: map[string]any{"token": "usdt"}})
	require.True(t, res.Success, res.Text)
	assert.Equal(t, wallet, stub.to)
	assert.Equal(t, "USDT", stub.token)
	assert.Equal(t, "https://testnet.bscscan.com/tx/0xbeef", res.Content["explorerUrl"])
}

type compilerStub struct{ art contracts.Artifact }

func (c compilerStub) Compile(name string) (contracts.Artifact, error) {
	if name != contracts.ERC20Template {
		return contracts.Artifact{}, contracts.ErrArtifactNotFound
	}
	return c.art, nil
}

func TestDeployERC20(t *testing.T) {
	env, provider := newEnv(t)
	parsed, err := abi.JSON(strings.NewReader(`[{"type":"constructor","inputs":[{"name":"name","type":"string"},{"name":"symbol","type":"string"},{"name":"decimals","type":"uint8"},{"name":"supply","type":"uint256"}]}]`))
	require.NoError(t, err)
	env.Compiler = compilerStub{art: contracts.Artifact{Name: contracts.ERC20Template, ABI: parsed, Bytecode: []byte{0x60, 0x00}}}

	res := NewDeploy(env).Handle(context.Background(), plugin.Message{Options: map[string]any{
		"contractType": "ERC20", "name": "Moon", "symbol": "MOON", "totalSupply": "1000",
	}})
	require.True(t, res.Success, res.Text)
	assert.Equal(t, recipient.Hex(), res.Content["address"])
	assert.Equal(t, 1, provider.chain.deployed)

	res = NewDeploy(env).Handle(context.Background(), plugin.Message{Options: map[string]any{"contractType": "ERC721", "name": "Art", "symbol": "ART"}})
	require.False(t, res.Success)
	assert.Equal(t, string(xerrors.CodeInitializationFailure), res.Error.Kind)
}

type storageStub struct {
	buckets []greenfield.Bucket
	put     string
}

func (s *storageStub) ListBuckets(context.Context, common.Address) ([]greenfield.Bucket, error) {
	return s.buckets, nil
}

func (s *storageStub) ListObjects(context.Context, string, common.Address) ([]greenfield.Object, error) {
	return nil, nil
}

func (s *storageStub) CreateBucket(context.Context, string, string) (string, error) { return "0x01", nil }

func (s *storageStub) PutObject(_ context.Context, bucket, object string, body io.Reader, _ int64, _ string) (string, error) {
	data, _ := io.ReadAll(body)
	s.put = bucket + "/" + object + ":" + string(data)
	return "0x02", nil
}

func (s *storageStub) CreateFolder(context.Context, string, string) (string, error) { return "0x03", nil }
func (s *storageStub) DeleteObject(context.Context, string, string) (string, error) { return "0x04", nil }
func (s *storageStub) DeleteBucket(context.Context, string) (string, error)         { return "0x05", nil }
func (s *storageStub) Explorer(hash string) string                                  { return "https://greenfieldscan.com/tx/" + hash }

func TestStorageOperations(t *testing.T) {
	env, _ := newEnv(t)
	res := NewStorage(env).Handle(context.Background(), plugin.Message{Options: map[string]any{"operation": "listBuckets"}})
	require.False(t, res.Success)
	assert.Equal(t, string(xerrors.CodeInitializationFailure), res.Error.Kind)

	stub := &storageStub{buckets: []greenfield.Bucket{{Name: "photos"}, {Name: "docs"}}}
	env.Storage = stub
	res = NewStorage(env).Handle(context.Background(), plugin.Message{Options: map[string]any{"operation": "listBuckets"}})
	require.True(t, res.Success, res.Text)
	assert.Contains(t, res.Text, "photos, docs")

	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))
	res = NewStorage(env).Handle(context.Background(), plugin.Message{Options: map[string]any{
		"operation": "uploadObject", "bucketName": "photos", "filePath": path,
	}})
	require.True(t, res.Success, res.Text)
	assert.Equal(t, "photos/note.txt:hello", stub.put)
	assert.Equal(t, "https://greenfieldscan.com/tx/0x02", res.Content["explorerUrl"])
}

func TestAllActionsAreDistinct(t *testing.T) {
	env, _ := newEnv(t)
	seen := map[string]bool{}
	for _, action := range All(env) {
		name := action.Info().Name
		assert.False(t, seen[name], name)
		seen[name] = true
		assert.NotEmpty(t, templates[name], name)
	}
	assert.Len(t, seen, 8)
}
