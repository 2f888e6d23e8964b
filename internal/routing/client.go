package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/tokens"
	"BNBChain-Agent/internal/web3"
	"BNBChain-Agent/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
)

const (
	defaultBaseURL = "https://li.quest/v1"
	defaultTimeout = 30 * time.Second
	defaultOrder   = "RECOMMENDED"
)

// Config describes how to reach the LI.FI API.
type Config struct {
	BaseURL    string
	APIKey     string
	Integrator string
	Timeout    time.Duration
}

// Client wraps the LI.FI REST API: route finding, step transactions and
// token lookup.
type Client struct {
	baseURL    string
	apiKey     string
	integrator string
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		integrator: strings.TrimSpace(cfg.Integrator),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.Named("routing"),
	}
}

// GetRoutes returns candidate routes. An empty result is RouteNotFound.
func (c *Client) GetRoutes(ctx context.Context, req RouteRequest) ([]Route, error) {
	if req.Options == nil {
		req.Options = &RouteOptions{}
	}
	if req.Options.Order == "" {
		req.Options.Order = defaultOrder
	}
	if req.Options.Integrator == "" {
		req.Options.Integrator = c.integrator
	}

	var decoded struct {
		Routes []Route `json:"routes"`
	}
	if err := c.do(ctx, http.MethodPost, "/advanced/routes", req, &decoded); err != nil {
		return nil, err
	}
	if len(decoded.Routes) == 0 {
		return nil, xerrors.New(xerrors.CodeRouteNotFound,
			fmt.Sprintf("No routes found from %s to %s", req.FromTokenAddress, req.ToTokenAddress))
	}
	c.log.Debug("routes found", slog.Int("count", len(decoded.Routes)), slog.String("first", decoded.Routes[0].ID))
	return decoded.Routes, nil
}

// StepTransaction fills in the transaction request of step.
func (c *Client) StepTransaction(ctx context.Context, step Step) (Step, error) {
	var populated Step
	if err := c.do(ctx, http.MethodPost, "/advanced/stepTransaction", step, &populated); err != nil {
		return Step{}, err
	}
	if populated.TransactionRequest == nil {
		return Step{}, fmt.Errorf("step %s: response has no transaction request", step.ID)
	}
	return populated, nil
}

// Token looks up a token by chain and symbol or address.
func (c *Client) Token(ctx context.Context, chainID int64, token string) (Token, error) {
	query := url.Values{}
	query.Set("chain", strconv.FormatInt(chainID, 10))
	query.Set("token", token)
	var out Token
	if err := c.do(ctx, http.MethodGet, "/token?"+query.Encode(), nil, &out); err != nil {
		return Token{}, err
	}
	return out, nil
}

// Lookup implements tokens.Directory.
func (c *Client) Lookup(ctx context.Context, chain web3.Chain, symbol string) (tokens.Token, error) {
	info, ok := web3.Info(chain)
	if !ok {
		return tokens.Token{}, fmt.Errorf("%w: unknown chain %s", tokens.ErrNotFound, chain)
	}
	out, err := c.Token(ctx, info.ID, tokens.NormalizeSymbol(symbol))
	if err != nil {
		if xerrors.CodeOf(err) == xerrors.CodeNotFound {
			return tokens.Token{}, fmt.Errorf("%w: %s on %s", tokens.ErrNotFound, symbol, chain)
		}
		return tokens.Token{}, err
	}
	if !common.IsHexAddress(out.Address) {
		return tokens.Token{}, fmt.Errorf("%w: %s on %s has no contract address", tokens.ErrNotFound, symbol, chain)
	}
	return tokens.Token{
		Chain:    chain,
		Symbol:   tokens.NormalizeSymbol(out.Symbol),
		Name:     out.Name,
		Address:  common.HexToAddress(out.Address),
		Decimals: out.Decimals,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("x-lifi-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return statusError(resp.StatusCode, raw)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func statusError(status int, raw []byte) error {
	var decoded struct {
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Message != "" {
		msg = decoded.Message
	}
	switch {
	case status == http.StatusTooManyRequests:
		return xerrors.New(xerrors.CodeRateLimited, fmt.Sprintf("rate limit exceeded (429): %s", msg))
	case status == http.StatusNotFound && strings.Contains(strings.ToLower(msg), "no routes"):
		return xerrors.New(xerrors.CodeRouteNotFound, msg)
	case status == http.StatusNotFound:
		return xerrors.New(xerrors.CodeNotFound, msg)
	default:
		return errors.New("routing service returned status " + strconv.Itoa(status) + ": " + msg)
	}
}

var _ tokens.Directory = (*Client)(nil)
