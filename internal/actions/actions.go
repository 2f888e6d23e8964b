// Package actions implements the agent actions: balance, transfer, swap,
// bridge, stake, faucet, contract deployment and Greenfield storage. Every
// handler runs the same pipeline (model call, decode, extract, normalize,
// execute, classify) and reports through a plugin.Result; none of them
// returns a Go error.
package actions

import (
	"context"
	"io"
	"log/slog"
	"time"

	"BNBChain-Agent/internal/contracts"
	"BNBChain-Agent/internal/executor"
	"BNBChain-Agent/internal/extract"
	"BNBChain-Agent/internal/faucet"
	"BNBChain-Agent/internal/greenfield"
	"BNBChain-Agent/internal/llm"
	"BNBChain-Agent/internal/normalize"
	"BNBChain-Agent/internal/routing"
	"BNBChain-Agent/internal/web3"
	"BNBChain-Agent/pkg/logger"
	"BNBChain-Agent/pkg/plugin"

	"github.com/ethereum/go-ethereum/common"
)

// Action names.
const (
	NameBalance  = "GET_BALANCE"
	NameTransfer = "TRANSFER"
	NameSwap     = "SWAP"
	NameBridge   = "BRIDGE"
	NameStake    = "STAKE"
	NameFaucet   = "FAUCET"
	NameDeploy   = "DEPLOY_CONTRACT"
	NameStorage  = "STORAGE"
)

const defaultModelTimeout = 30 * time.Second

// Router finds swap routes and fills in their step transactions.
type Router interface {
	GetRoutes(ctx context.Context, req routing.RouteRequest) ([]routing.Route, error)
	executor.StepTransactor
}

// FaucetClient requests testnet funds.
type FaucetClient interface {
	Request(ctx context.Context, address common.Address, token string) (faucet.Result, error)
}

// StorageClient is the Greenfield collaborator.
type StorageClient interface {
	ListBuckets(ctx context.Context, owner common.Address) ([]greenfield.Bucket, error)
	ListObjects(ctx context.Context, bucket string, owner common.Address) ([]greenfield.Object, error)
	CreateBucket(ctx context.Context, bucket, visibility string) (string, error)
	PutObject(ctx context.Context, bucket, object string, body io.Reader, size int64, visibility string) (string, error)
	CreateFolder(ctx context.Context, bucket, folder string) (string, error)
	DeleteObject(ctx context.Context, bucket, object string) (string, error)
	DeleteBucket(ctx context.Context, bucket string) (string, error)
	Explorer(hash string) string
}

// Memory supplies recent actions as model context.
type Memory interface {
	Recent(ctx context.Context, limit int) []llm.HistoryEntry
}

// Env holds the collaborators shared by every action. Provider is borrowed
// and never closed here.
type Env struct {
	Provider     web3.Provider
	Resolver     *normalize.Resolver
	Executor     *executor.Executor
	Model        llm.Client
	ModelTimeout time.Duration
	Memory       Memory
	Router       Router
	Faucet       FaucetClient
	Storage      StorageClient
	Compiler     contracts.Compiler
	Log          *slog.Logger
}

func (e *Env) logger() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logger.Named("actions")
}

// All returns one handler per action.
func All(env *Env) []plugin.Action {
	return []plugin.Action{
		NewBalance(env),
		NewTransfer(env),
		NewSwap(env),
		NewBridge(env),
		NewStake(env),
		NewFaucet(env),
		NewDeploy(env),
		NewStorage(env),
	}
}

// source gathers the two extraction inputs. Structured options supplied by
// the caller replace the model call. Model failures are logged and the
// extraction continues on text alone.
func (e *Env) source(ctx context.Context, action string, msg plugin.Message) extract.Source {
	src := extract.Source{Text: msg.Text, Fields: extract.Fields{}}
	if len(msg.Options) > 0 {
		src.Fields = extract.Fields(msg.Options)
		return src
	}
	if e.Model == nil {
		return src
	}

	log := e.logger().With(slog.String("action", action), slog.String("request_id", msg.RequestID))
	timeout := e.ModelTimeout
	if timeout <= 0 {
		timeout = defaultModelTimeout
	}
	mctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := llm.Request{
		Action:      action,
		Instruction: templates[action],
		Text:        msg.Text,
	}
	if e.Provider != nil {
		if account := e.Provider.Address(); account != (common.Address{}) {
			req.Account = account.Hex()
		}
	}
	if e.Memory != nil {
		req.History = e.Memory.Recent(ctx, 5)
	}
	resp, err := e.Model.Generate(mctx, req)
	if err != nil {
		log.Warn("model call failed, using text extraction only", slog.Any("error", err))
		return src
	}
	fields, err := extract.DecodeModelOutput(resp.Content)
	if err != nil {
		log.Warn("model output ignored", slog.Any("error", err))
		return src
	}
	src.Fields = fields
	return src
}

// clients switches to chain and borrows both sides of its connection.
func (e *Env) clients(chain web3.Chain) (web3.PublicClient, web3.WalletClient, error) {
	if err := e.Provider.SwitchChain(chain); err != nil {
		return nil, nil, err
	}
	pub, err := e.Provider.PublicClient(chain)
	if err != nil {
		return nil, nil, err
	}
	wallet, err := e.Provider.WalletClient(chain)
	if err != nil {
		return nil, nil, err
	}
	return pub, wallet, nil
}
