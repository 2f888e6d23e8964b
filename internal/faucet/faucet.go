package faucet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
)

const (
	// DefaultURL is the BNB Smart Chain testnet faucet endpoint.
	DefaultURL     = "wss://testnet.bnbchain.org/faucet-smart/api"
	DefaultTimeout = 15 * time.Second
	defaultCaptcha = "noCaptchaToken"
)

var supported = []string{"BNB", "BTC", "BUSD", "DAI", "ETH", "USDC", "USDT"}

// SupportedTokens lists the symbols the testnet faucet dispenses.
func SupportedTokens() []string {
	out := make([]string, len(supported))
	copy(out, supported)
	return out
}

// Supports reports whether symbol is dispensed by the faucet.
func Supports(symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, s := range supported {
		if s == symbol {
			return true
		}
	}
	return false
}

// Config controls the faucet client.
type Config struct {
	URL     string
	Timeout time.Duration
	Captcha string
}

type conn interface {
	WriteJSON(v any) error
	ReadMessage() (int, []byte, error)
	Close() error
}

type dialFunc func(ctx context.Context, url string) (conn, error)

func dialWebsocket(ctx context.Context, url string) (conn, error) {
	c, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Client requests testnet funds over the faucet WebSocket API.
type Client struct {
	url     string
	timeout time.Duration
	captcha string
	dial    dialFunc
	log     *slog.Logger
}

// Result is a successful faucet response.
type Result struct {
	TxHash string
	Token  string
	To     common.Address
}

// New returns a faucet client with defaults applied.
func New(cfg Config) *Client {
	c := &Client{
		url:     cfg.URL,
		timeout: cfg.Timeout,
		captcha: cfg.Captcha,
		dial:    dialWebsocket,
		log:     logger.Named("faucet"),
	}
	if c.url == "" {
		c.url = DefaultURL
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.captcha == "" {
		c.captcha = defaultCaptcha
	}
	return c
}

type request struct {
	Tx      string `json:"tx"`
	URL     string `json:"url"`
	Symbol  string `json:"symbol"`
	Captcha string `json:"captcha"`
}

type message struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Hash   string `json:"hash"`
	TxHash string `json:"txHash"`
}

type outcome struct {
	hash string
	err  error
}

// Request asks the faucet to send token to address. The call fails with
// TIMEOUT when no final answer arrives within the configured timeout. A
// caller cancelling ctx is not a timeout. The socket is closed exactly once
// on every path.
func (c *Client) Request(ctx context.Context, address common.Address, token string) (Result, error) {
	token = strings.ToUpper(strings.TrimSpace(token))
	if !Supports(token) {
		return Result{}, xerrors.New(xerrors.CodeValidationFailed, fmt.Sprintf("faucet does not provide %s", token))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ws, err := c.dial(ctx, c.url)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, xerrors.Wrap(xerrors.CodeTimeout, err, "faucet connection timed out")
		}
		return Result{}, xerrors.Wrap(xerrors.CodeSubmissionFailed, err, "connect to faucet")
	}
	closeConn := sync.OnceFunc(func() {
		if err := ws.Close(); err != nil {
			c.log.Debug("close faucet socket", slog.Any("error", err))
		}
	})
	defer closeConn()

	if err := ws.WriteJSON(request{URL: address.Hex(), Symbol: token, Captcha: c.captcha}); err != nil {
		return Result{}, xerrors.Wrap(xerrors.CodeSubmissionFailed, err, "send faucet request")
	}

	results := make(chan outcome, 1)
	go func() {
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				results <- outcome{err: err}
				return
			}
			hash, done, err := parseMessage(data)
			if !done {
				continue
			}
			results <- outcome{hash: hash, err: err}
			return
		}
	}()

	select {
	case <-ctx.Done():
		closeConn()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, xerrors.New(xerrors.CodeTimeout, fmt.Sprintf("faucet did not respond within %s", c.timeout))
		}
		return Result{}, xerrors.Wrap(xerrors.CodeUnknown, ctx.Err(), "faucet request cancelled")
	case out := <-results:
		if out.err != nil {
			if _, ok := xerrors.From(out.err); ok {
				return Result{}, out.err
			}
			return Result{}, xerrors.Wrap(xerrors.CodeSubmissionFailed, out.err, "read faucet response")
		}
		c.log.Info("faucet request accepted", slog.String("token", token), slog.String("to", address.Hex()), slog.String("tx", out.hash))
		return Result{TxHash: out.hash, Token: token, To: address}, nil
	}
}

// parseMessage reports done once the faucet sent a final answer. Progress
// messages are skipped.
func parseMessage(data []byte) (string, bool, error) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", false, nil
	}
	if msg.Error != "" {
		return "", true, xerrors.New(xerrors.CodeSubmissionFailed, "faucet rejected request: "+msg.Error)
	}
	status := strings.ToLower(msg.Status)
	if status == "error" || status == "failed" {
		return "", true, xerrors.New(xerrors.CodeSubmissionFailed, "faucet rejected request")
	}
	if hash := firstNonEmpty(msg.TxHash, msg.Hash); hash != "" {
		return hash, true, nil
	}
	if status == "ok" || status == "success" || status == "sent" {
		return "", true, nil
	}
	return "", false, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
