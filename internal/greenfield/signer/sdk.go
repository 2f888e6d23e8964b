package signer

import (
	"context"
	"io"

	"github.com/bnb-chain/greenfield-go-sdk/client"
	"github.com/bnb-chain/greenfield-go-sdk/types"
	storageTypes "github.com/bnb-chain/greenfield/x/storage/types"
)

// sdkChain adapts client.IClient to chain.
type sdkChain struct {
	cli client.IClient
}

func dialSDK(chainID, rpc, hexKey string) (*sdkChain, error) {
	account, err := types.NewAccountFromPrivateKey(accountName, hexKey)
	if err != nil {
		return nil, err
	}
	cli, err := client.New(chainID, rpc, client.Option{DefaultAccount: account})
	if err != nil {
		return nil, err
	}
	return &sdkChain{cli: cli}, nil
}

func (c *sdkChain) PrimaryProviders(ctx context.Context) ([]string, error) {
	sps, err := c.cli.ListStorageProviders(ctx, true)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(sps))
	for _, sp := range sps {
		if addr := sp.GetOperatorAddress(); addr != "" {
			out = append(out, addr)
		}
	}
	return out, nil
}

func (c *sdkChain) CreateBucket(ctx context.Context, bucket, primarySP string, visibility storageTypes.VisibilityType) (string, error) {
	return c.cli.CreateBucket(ctx, bucket, primarySP, types.CreateBucketOptions{Visibility: visibility})
}

func (c *sdkChain) CreateObject(ctx context.Context, bucket, object string, body io.Reader, visibility storageTypes.VisibilityType) (string, error) {
	return c.cli.CreateObject(ctx, bucket, object, body, types.CreateObjectOptions{Visibility: visibility})
}

func (c *sdkChain) WaitForTx(ctx context.Context, hash string) error {
	_, err := c.cli.WaitForTx(ctx, hash)
	return err
}

func (c *sdkChain) UploadObject(ctx context.Context, bucket, object, txHash string, size int64, body io.Reader) error {
	return c.cli.PutObject(ctx, bucket, object, size, body, types.PutObjectOptions{TxnHash: txHash})
}

func (c *sdkChain) CreateFolder(ctx context.Context, bucket, folder string) (string, error) {
	return c.cli.CreateFolder(ctx, bucket, folder, types.CreateObjectOptions{})
}

func (c *sdkChain) DeleteObject(ctx context.Context, bucket, object string) (string, error) {
	return c.cli.DeleteObject(ctx, bucket, object, types.DeleteObjectOption{})
}

func (c *sdkChain) DeleteBucket(ctx context.Context, bucket string) (string, error) {
	return c.cli.DeleteBucket(ctx, bucket, types.DeleteBucketOption{})
}
