package tokens

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"BNBChain-Agent/internal/web3"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return "", errCacheMiss
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

type countingDirectory struct {
	calls int
	token Token
	err   error
}

func (c *countingDirectory) Lookup(context.Context, web3.Chain, string) (Token, error) {
	c.calls++
	return c.token, c.err
}

func TestDefaultStaticDirectory(t *testing.T) {
	dir, err := DefaultStaticDirectory()
	require.NoError(t, err)

	token, err := dir.Lookup(context.Background(), web3.ChainBSC, " usdt ")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x55d398326f99059fF775485246999027B3197955"), token.Address)
	assert.Equal(t, 18, token.Decimals)

	_, err = dir.Lookup(context.Background(), web3.ChainOpBNBTestnet, "USDT")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadStaticDirectoryOverlaysBuiltins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	content := `[{"chain":"bscTestnet","symbol":"FOO","address":"0x00000000000000000000000000000000000000f0","decimals":6}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	dir, err := LoadStaticDirectory(path)
	require.NoError(t, err)

	foo, err := dir.Lookup(context.Background(), web3.ChainBSCTestnet, "foo")
	require.NoError(t, err)
	assert.Equal(t, 6, foo.Decimals)

	_, err = dir.Lookup(context.Background(), web3.ChainBSC, "CAKE")
	require.NoError(t, err)
}

func TestLoadStaticDirectoryRejectsBadEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"chain":"ethereum","symbol":"X","address":"0x00000000000000000000000000000000000000f0"}]`), 0o600))
	_, err := LoadStaticDirectory(path)
	require.Error(t, err)
}

func TestCachedDirectoryMemoises(t *testing.T) {
	next := &countingDirectory{token: Token{Chain: web3.ChainBSC, Symbol: "CAKE", Decimals: 18}}
	cache := newCachedDirectory(&memoryStore{}, next, "", 0)

	for i := 0; i < 3; i++ {
		token, err := cache.Lookup(context.Background(), web3.ChainBSC, "cake")
		require.NoError(t, err)
		assert.Equal(t, "CAKE", token.Symbol)
	}
	assert.Equal(t, 1, next.calls)
}

func TestCachedDirectoryToleratesStoreFailure(t *testing.T) {
	next := &countingDirectory{token: Token{Symbol: "USDT"}}
	cache := newCachedDirectory(&memoryStore{getErr: errors.New("connection refused")}, next, "", 0)

	token, err := cache.Lookup(context.Background(), web3.ChainBSC, "USDT")
	require.NoError(t, err)
	assert.Equal(t, "USDT", token.Symbol)
}

func TestCachedDirectoryDoesNotCacheMisses(t *testing.T) {
	next := &countingDirectory{err: ErrNotFound}
	cache := newCachedDirectory(&memoryStore{}, next, "", 0)

	for i := 0; i < 2; i++ {
		_, err := cache.Lookup(context.Background(), web3.ChainBSC, "NOPE")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 2, next.calls)
}

func TestLayeredFallsThroughOnNotFound(t *testing.T) {
	first := &countingDirectory{err: ErrNotFound}
	second := &countingDirectory{token: Token{Symbol: "ETH"}}
	token, err := Layered{first, second}.Lookup(context.Background(), web3.ChainBSC, "ETH")
	require.NoError(t, err)
	assert.Equal(t, "ETH", token.Symbol)

	failing := &countingDirectory{err: errors.New("upstream down")}
	_, err = Layered{failing, second}.Lookup(context.Background(), web3.ChainBSC, "ETH")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
