// Package signer submits Greenfield storage transactions with the
// configured wallet key through the Greenfield Go SDK.
package signer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/greenfield"
	"BNBChain-Agent/pkg/logger"

	storageTypes "github.com/bnb-chain/greenfield/x/storage/types"
)

// Network defaults.
const (
	MainnetChainID = "greenfield_1017-1"
	MainnetRPC     = "https://greenfield-chain.bnbchain.org:443"
	TestnetChainID = "greenfield_5600-1"
	TestnetRPC     = "https://gnfd-testnet-fullnode-tendermint-us.bnbchain.org:443"

	accountName = "bnbagent"
)

// chain is the part of the Greenfield SDK the signer drives.
type chain interface {
	PrimaryProviders(ctx context.Context) ([]string, error)
	CreateBucket(ctx context.Context, bucket, primarySP string, visibility storageTypes.VisibilityType) (string, error)
	CreateObject(ctx context.Context, bucket, object string, body io.Reader, visibility storageTypes.VisibilityType) (string, error)
	WaitForTx(ctx context.Context, hash string) error
	UploadObject(ctx context.Context, bucket, object, txHash string, size int64, body io.Reader) error
	CreateFolder(ctx context.Context, bucket, folder string) (string, error)
	DeleteObject(ctx context.Context, bucket, object string) (string, error)
	DeleteBucket(ctx context.Context, bucket string) (string, error)
}

// Config configures the signer.
type Config struct {
	PrivateKey string
	Testnet    bool
	ChainID    string
	RPCURL     string
	// PrimarySP pins the operator address new buckets are placed on. When
	// empty the first in-service provider is used.
	PrimarySP string
}

// Signer implements greenfield.Submitter.
type Signer struct {
	chain     chain
	primarySP string
	log       *slog.Logger

	mu       sync.Mutex
	resolved string
}

var _ greenfield.Submitter = (*Signer)(nil)

// New connects to the Greenfield chain with cfg.PrivateKey as the default
// account.
func New(cfg Config) (*Signer, error) {
	key := strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x")
	if key == "" {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "greenfield signer requires a private key")
	}
	chainID, rpc := cfg.ChainID, cfg.RPCURL
	if chainID == "" {
		chainID = MainnetChainID
		if cfg.Testnet {
			chainID = TestnetChainID
		}
	}
	if rpc == "" {
		rpc = MainnetRPC
		if cfg.Testnet {
			rpc = TestnetRPC
		}
	}
	c, err := dialSDK(chainID, rpc, key)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "connect to greenfield chain",
			xerrors.WithMetadata("chain_id", chainID))
	}
	return newSigner(c, cfg.PrimarySP), nil
}

func newSigner(c chain, primarySP string) *Signer {
	return &Signer{chain: c, primarySP: strings.TrimSpace(primarySP), log: logger.Named("greenfield.signer")}
}

func visibilityOf(v string) (storageTypes.VisibilityType, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "public", "public-read":
		return storageTypes.VISIBILITY_TYPE_PUBLIC_READ, nil
	case "private":
		return storageTypes.VISIBILITY_TYPE_PRIVATE, nil
	case "", "inherit":
		return storageTypes.VISIBILITY_TYPE_INHERIT, nil
	}
	return storageTypes.VISIBILITY_TYPE_UNSPECIFIED, xerrors.New(xerrors.CodeValidationFailed,
		fmt.Sprintf("unsupported visibility %q", v))
}

func (s *Signer) primary(ctx context.Context) (string, error) {
	if s.primarySP != "" {
		return s.primarySP, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolved != "" {
		return s.resolved, nil
	}
	providers, err := s.chain.PrimaryProviders(ctx)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeStorageFailure, err, "list storage providers")
	}
	if len(providers) == 0 {
		return "", xerrors.New(xerrors.CodeStorageFailure, "no storage provider in service")
	}
	s.resolved = providers[0]
	s.log.Info("primary storage provider selected", slog.String("operator", s.resolved))
	return s.resolved, nil
}

func (s *Signer) CreateBucket(ctx context.Context, bucket, visibility string) (string, error) {
	vis, err := visibilityOf(visibility)
	if err != nil {
		return "", err
	}
	sp, err := s.primary(ctx)
	if err != nil {
		return "", err
	}
	hash, err := s.chain.CreateBucket(ctx, bucket, sp, vis)
	if err != nil {
		return "", submitFailed(err, "create bucket", bucket)
	}
	return hash, nil
}

// PutObject creates the object on chain, waits for the transaction, and
// then uploads the payload to the primary provider. The returned hash is
// the creation transaction.
func (s *Signer) PutObject(ctx context.Context, bucket, object string, body io.Reader, size int64, visibility string) (string, error) {
	vis, err := visibilityOf(visibility)
	if err != nil {
		return "", err
	}
	// The SDK hashes the payload before upload, so it is read twice.
	payload, err := io.ReadAll(body)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeValidationFailed, err, "read object payload")
	}
	if size >= 0 && int64(len(payload)) != size {
		return "", xerrors.New(xerrors.CodeValidationFailed,
			fmt.Sprintf("object payload is %d bytes, expected %d", len(payload), size))
	}
	hash, err := s.chain.CreateObject(ctx, bucket, object, bytes.NewReader(payload), vis)
	if err != nil {
		return "", submitFailed(err, "create object", bucket)
	}
	if err := s.chain.WaitForTx(ctx, hash); err != nil {
		return hash, xerrors.Wrap(xerrors.CodeConfirmationUnknown, err, "wait for object creation",
			xerrors.WithMetadata("tx_hash", hash))
	}
	if err := s.chain.UploadObject(ctx, bucket, object, hash, int64(len(payload)), bytes.NewReader(payload)); err != nil {
		return hash, xerrors.Wrap(xerrors.CodeStorageFailure, err, "upload object payload",
			xerrors.WithMetadata("bucket", bucket), xerrors.WithMetadata("tx_hash", hash))
	}
	s.log.Info("object stored", slog.String("bucket", bucket), slog.String("object", object), slog.Int("bytes", len(payload)))
	return hash, nil
}

func (s *Signer) CreateFolder(ctx context.Context, bucket, folder string) (string, error) {
	if !strings.HasSuffix(folder, "/") {
		folder += "/"
	}
	hash, err := s.chain.CreateFolder(ctx, bucket, folder)
	if err != nil {
		return "", submitFailed(err, "create folder", bucket)
	}
	return hash, nil
}

func (s *Signer) DeleteObject(ctx context.Context, bucket, object string) (string, error) {
	hash, err := s.chain.DeleteObject(ctx, bucket, object)
	if err != nil {
		return "", submitFailed(err, "delete object", bucket)
	}
	return hash, nil
}

func (s *Signer) DeleteBucket(ctx context.Context, bucket string) (string, error) {
	hash, err := s.chain.DeleteBucket(ctx, bucket)
	if err != nil {
		return "", submitFailed(err, "delete bucket", bucket)
	}
	return hash, nil
}

func submitFailed(err error, op, bucket string) error {
	return xerrors.Wrap(xerrors.CodeSubmissionFailed, err, op, xerrors.WithMetadata("bucket", bucket))
}
