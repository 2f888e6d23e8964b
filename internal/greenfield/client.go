// Package greenfield talks to BNB Greenfield storage providers. Listings
// are read over the storage provider HTTP API; state changing operations
// are delegated to a Submitter that signs Greenfield transactions.
package greenfield

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
)

const (
	defaultTimeout = 20 * time.Second
	statusPath     = "/status"
	userHeader     = "X-Gnfd-User-Address"
)

// Default storage provider endpoints.
var (
	MainnetEndpoints = []string{
		"https://greenfield-sp.bnbchain.org",
		"https://greenfield-sp.nodereal.io",
		"https://greenfield-sp.ninicoin.io",
	}
	TestnetEndpoints = []string{
		"https://gnfd-testnet-sp1.bnbchain.org",
		"https://gnfd-testnet-sp2.bnbchain.org",
		"https://gnfd-testnet-sp3.bnbchain.org",
	}
)

// Submitter signs and broadcasts Greenfield transactions. Each method
// returns the transaction hash.
type Submitter interface {
	CreateBucket(ctx context.Context, bucket, visibility string) (string, error)
	PutObject(ctx context.Context, bucket, object string, body io.Reader, size int64, visibility string) (string, error)
	CreateFolder(ctx context.Context, bucket, folder string) (string, error)
	DeleteObject(ctx context.Context, bucket, object string) (string, error)
	DeleteBucket(ctx context.Context, bucket string) (string, error)
}

// Config configures the storage client.
type Config struct {
	Testnet   bool
	Endpoints []string
	Timeout   time.Duration
	Submitter Submitter
}

// Client reads listings from the first healthy storage provider.
type Client struct {
	testnet    bool
	endpoints  []string
	httpClient *http.Client
	submitter  Submitter
	log        *slog.Logger

	mu       sync.Mutex
	selected string
}

func New(cfg Config) *Client {
	endpoints := cfg.Endpoints
	if len(endpoints) == 0 {
		endpoints = MainnetEndpoints
		if cfg.Testnet {
			endpoints = TestnetEndpoints
		}
	}
	cleaned := make([]string, 0, len(endpoints))
	for _, ep := range endpoints {
		if ep = strings.TrimRight(strings.TrimSpace(ep), "/"); ep != "" {
			cleaned = append(cleaned, ep)
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		testnet:    cfg.Testnet,
		endpoints:  cleaned,
		httpClient: &http.Client{Timeout: timeout},
		submitter:  cfg.Submitter,
		log:        logger.Named("greenfield"),
	}
}

// Testnet reports whether the client targets the Greenfield testnet.
func (c *Client) Testnet() bool { return c.testnet }

// Explorer returns the Greenfield explorer link for a transaction.
func (c *Client) Explorer(hash string) string {
	if hash == "" {
		return ""
	}
	if c.testnet {
		return "https://testnet.greenfieldscan.com/tx/" + hash
	}
	return "https://greenfieldscan.com/tx/" + hash
}

// Endpoint probes the configured providers in order and returns the first
// healthy one. The choice is kept until a request against it fails.
func (c *Client) Endpoint(ctx context.Context) (string, error) {
	c.mu.Lock()
	selected := c.selected
	c.mu.Unlock()
	if selected != "" {
		return selected, nil
	}

	var errs []error
	for _, ep := range c.endpoints {
		if err := c.probe(ctx, ep); err != nil {
			c.log.Debug("storage provider unhealthy", slog.String("endpoint", ep), slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		c.mu.Lock()
		c.selected = ep
		c.mu.Unlock()
		c.log.Info("storage provider selected", slog.String("endpoint", ep))
		return ep, nil
	}
	return "", xerrors.Wrap(xerrors.CodeInitializationFailure, errors.Join(errs...), "no healthy storage provider")
}

func (c *Client) probe(ctx context.Context, endpoint string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+statusPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%s: status %d", endpoint, resp.StatusCode)
	}
	return nil
}

func (c *Client) forget(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == endpoint {
		c.selected = ""
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, owner common.Address) ([]byte, error) {
	endpoint, err := c.Endpoint(ctx)
	if err != nil {
		return nil, err
	}
	target := endpoint + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if owner != (common.Address{}) {
		req.Header.Set(userHeader, owner.Hex())
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.forget(endpoint)
		return nil, fmt.Errorf("storage provider request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read storage provider response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if resp.StatusCode >= http.StatusInternalServerError {
			c.forget(endpoint)
		}
		return nil, xerrors.New(xerrors.CodeStorageFailure,
			fmt.Sprintf("storage provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	return body, nil
}

// ListBuckets lists the buckets owned by owner.
func (c *Client) ListBuckets(ctx context.Context, owner common.Address) ([]Bucket, error) {
	body, err := c.get(ctx, "/", url.Values{"include-removed": {"false"}}, owner)
	if err != nil {
		return nil, err
	}
	buckets, err := ParseBuckets(body)
	if errors.Is(err, ErrUnknownShape) {
		c.log.Warn("unrecognised bucket listing", slog.Int("bytes", len(body)))
		return []Bucket{}, nil
	}
	return buckets, err
}

// ListObjects lists the objects of bucket.
func (c *Client) ListObjects(ctx context.Context, bucket string, owner common.Address) ([]Object, error) {
	body, err := c.get(ctx, "/"+url.PathEscape(bucket), url.Values{"max-keys": {"1000"}}, owner)
	if err != nil {
		return nil, err
	}
	objects, err := ParseObjects(body)
	if errors.Is(err, ErrUnknownShape) {
		c.log.Warn("unrecognised object listing", slog.String("bucket", bucket), slog.Int("bytes", len(body)))
		return []Object{}, nil
	}
	return objects, err
}

func (c *Client) writer() (Submitter, error) {
	if c.submitter == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "no Greenfield transaction submitter configured")
	}
	return c.submitter, nil
}

func (c *Client) CreateBucket(ctx context.Context, bucket, visibility string) (string, error) {
	w, err := c.writer()
	if err != nil {
		return "", err
	}
	return w.CreateBucket(ctx, bucket, visibility)
}

func (c *Client) PutObject(ctx context.Context, bucket, object string, body io.Reader, size int64, visibility string) (string, error) {
	w, err := c.writer()
	if err != nil {
		return "", err
	}
	return w.PutObject(ctx, bucket, object, body, size, visibility)
}

// CreateFolder creates an empty object whose name ends in "/".
func (c *Client) CreateFolder(ctx context.Context, bucket, folder string) (string, error) {
	w, err := c.writer()
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(folder, "/") {
		folder += "/"
	}
	return w.CreateFolder(ctx, bucket, folder)
}

func (c *Client) DeleteObject(ctx context.Context, bucket, object string) (string, error) {
	w, err := c.writer()
	if err != nil {
		return "", err
	}
	return w.DeleteObject(ctx, bucket, object)
}

func (c *Client) DeleteBucket(ctx context.Context, bucket string) (string, error) {
	w, err := c.writer()
	if err != nil {
		return "", err
	}
	return w.DeleteBucket(ctx, bucket)
}
