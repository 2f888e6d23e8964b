package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/web3"
	"BNBChain-Agent/internal/web3/ethereum"

	"github.com/ethereum/go-ethereum/common"
)

// Config controls registry construction.
type Config struct {
	Definitions    web3.ChainDefinitions
	PrivateKey     string
	DefaultChain   web3.Chain
	PollInterval   time.Duration
	ReceiptTimeout time.Duration
	Names          web3.NameResolver
}

// Registry manages one client per configured chain and implements web3.Provider.
type Registry struct {
	mu      sync.RWMutex
	active  web3.Chain
	clients map[web3.Chain]*ethereum.Client
	account common.Address
	names   web3.NameResolver
}

// NewRegistry dials every configured chain.
func NewRegistry(ctx context.Context, cfg Config) (*Registry, error) {
	clients := make(map[web3.Chain]*ethereum.Client)
	for name, def := range cfg.Definitions.Chains {
		chain := web3.Chain(name)
		if strings.TrimSpace(def.RPCURL) == "" {
			continue
		}
		client, err := ethereum.NewClient(ctx, ethereum.Config{
			Name:           name,
			RPCURL:         def.RPCURL,
			PrivateKey:     cfg.PrivateKey,
			GasMultiplier:  def.GasMultiplier,
			PollInterval:   cfg.PollInterval,
			ReceiptTimeout: cfg.ReceiptTimeout,
		})
		if err != nil {
			closeAll(clients)
			return nil, fmt.Errorf("init chain %s: %w", name, err)
		}
		if want := web3.MustInfo(chain).ID; client.ChainID().Int64() != want {
			client.Close()
			closeAll(clients)
			return nil, fmt.Errorf("chain %s: endpoint reports chain id %s, expected %d", name, client.ChainID(), want)
		}
		clients[chain] = client
	}
	if len(clients) == 0 {
		return nil, errors.New("no chain rpc endpoints configured")
	}
	return New(clients, cfg.DefaultChain, cfg.Names)
}

// New builds a registry from ready clients.
func New(clients map[web3.Chain]*ethereum.Client, active web3.Chain, names web3.NameResolver) (*Registry, error) {
	if active == "" {
		active = web3.DefaultChain
	}
	r := &Registry{active: active, clients: clients, names: names}
	for _, client := range clients {
		if client.CanSign() {
			r.account = client.Account()
			break
		}
	}
	return r, nil
}

// SwitchChain records chain as active. The chain must be configured.
func (r *Registry) SwitchChain(chain web3.Chain) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[chain]; !ok {
		return xerrors.New(xerrors.CodeInitializationFailure, fmt.Sprintf("chain %s is not configured", chain))
	}
	r.active = chain
	return nil
}

// Active returns the chain selected by the last SwitchChain.
func (r *Registry) Active() web3.Chain {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

func (r *Registry) client(chain web3.Chain) (*ethereum.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[chain]
	if !ok {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, fmt.Sprintf("chain %s is not configured", chain))
	}
	return client, nil
}

func (r *Registry) PublicClient(chain web3.Chain) (web3.PublicClient, error) {
	return r.client(chain)
}

func (r *Registry) WalletClient(chain web3.Chain) (web3.WalletClient, error) {
	client, err := r.client(chain)
	if err != nil {
		return nil, err
	}
	if !client.CanSign() {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, fmt.Sprintf("no wallet configured for %s", chain))
	}
	return client, nil
}

// Address returns the wallet address, or the zero address in read-only mode.
func (r *Registry) Address() common.Address {
	return r.account
}

// ResolveHumanName delegates to the configured name resolver.
func (r *Registry) ResolveHumanName(ctx context.Context, name string) (common.Address, error) {
	if r.names == nil {
		return common.Address{}, web3.ErrNameNotFound
	}
	return r.names.Resolve(ctx, name)
}

// Chains returns the configured chains in a stable order.
func (r *Registry) Chains() []web3.Chain {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]web3.Chain, 0, len(r.clients))
	for chain := range r.clients {
		out = append(out, chain)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Close releases all clients managed by the registry. Only the process
// owner calls it.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	closeAll(r.clients)
	r.clients = map[web3.Chain]*ethereum.Client{}
}

func closeAll(clients map[web3.Chain]*ethereum.Client) {
	for _, client := range clients {
		if client != nil {
			client.Close()
		}
	}
}

var _ web3.Provider = (*Registry)(nil)
