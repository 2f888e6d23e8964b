package web3

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// AddressBook resolves names from a fixed table. Lookups are case-insensitive.
type AddressBook map[string]common.Address

func (b AddressBook) Resolve(_ context.Context, name string) (common.Address, error) {
	addr, ok := b[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return common.Address{}, ErrNameNotFound
	}
	return addr, nil
}

// NewAddressBook lower-cases the keys of entries.
func NewAddressBook(entries map[string]string) (AddressBook, error) {
	book := make(AddressBook, len(entries))
	for name, hex := range entries {
		if !common.IsHexAddress(hex) {
			return nil, fmt.Errorf("address book: %s has invalid address %q", name, hex)
		}
		book[strings.ToLower(strings.TrimSpace(name))] = common.HexToAddress(hex)
	}
	return book, nil
}

// SpaceIDResolver resolves .bnb names through the SPACE ID HTTP API.
type SpaceIDResolver struct {
	baseURL    string
	httpClient *http.Client
}

// SpaceIDOption customises the resolver.
type SpaceIDOption func(*SpaceIDResolver)

// WithSpaceIDBaseURL overrides the API endpoint.
func WithSpaceIDBaseURL(base string) SpaceIDOption {
	return func(r *SpaceIDResolver) {
		if strings.TrimSpace(base) != "" {
			r.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithSpaceIDHTTPClient overrides the HTTP client.
func WithSpaceIDHTTPClient(client *http.Client) SpaceIDOption {
	return func(r *SpaceIDResolver) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// NewSpaceIDResolver returns a resolver for the .bnb TLD.
func NewSpaceIDResolver(opts ...SpaceIDOption) *SpaceIDResolver {
	r := &SpaceIDResolver{
		baseURL:    "https://api.prd.space.id/v1",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

type spaceIDResponse struct {
	Code    int    `json:"code"`
	Msg     string `json:"msg"`
	Address string `json:"address"`
}

func (r *SpaceIDResolver) Resolve(ctx context.Context, name string) (common.Address, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if !strings.HasSuffix(name, ".bnb") {
		return common.Address{}, ErrNameNotFound
	}
	query := url.Values{}
	query.Set("tld", "bnb")
	query.Set("domain", strings.TrimSuffix(name, ".bnb"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/getAddress?"+query.Encode(), nil)
	if err != nil {
		return common.Address{}, fmt.Errorf("build name request: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return common.Address{}, fmt.Errorf("resolve %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return common.Address{}, fmt.Errorf("resolve %s: status %d", name, resp.StatusCode)
	}
	var payload spaceIDResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return common.Address{}, fmt.Errorf("decode name response: %w", err)
	}
	if payload.Code != 0 || !common.IsHexAddress(payload.Address) {
		return common.Address{}, ErrNameNotFound
	}
	addr := common.HexToAddress(payload.Address)
	if addr == (common.Address{}) {
		return common.Address{}, ErrNameNotFound
	}
	return addr, nil
}

// ChainResolvers tries each resolver in order. ErrNameNotFound moves on to
// the next resolver; any other error stops the chain.
type ChainResolvers []NameResolver

func (c ChainResolvers) Resolve(ctx context.Context, name string) (common.Address, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		addr, err := r.Resolve(ctx, name)
		if err == nil {
			return addr, nil
		}
		if !errors.Is(err, ErrNameNotFound) {
			return common.Address{}, err
		}
	}
	return common.Address{}, ErrNameNotFound
}
