package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BNBChain-Agent/internal/actions"
	"BNBChain-Agent/internal/agent"
	"BNBChain-Agent/internal/api"
	"BNBChain-Agent/internal/auth"
	"BNBChain-Agent/internal/config"
	"BNBChain-Agent/internal/contracts"
	"BNBChain-Agent/internal/events"
	"BNBChain-Agent/internal/executor"
	"BNBChain-Agent/internal/faucet"
	"BNBChain-Agent/internal/greenfield"
	"BNBChain-Agent/internal/greenfield/signer"
	"BNBChain-Agent/internal/history"
	"BNBChain-Agent/internal/llm"
	"BNBChain-Agent/internal/llm/openai"
	"BNBChain-Agent/internal/llm/pythonbridge"
	"BNBChain-Agent/internal/normalize"
	"BNBChain-Agent/internal/observability/metrics"
	"BNBChain-Agent/internal/routing"
	"BNBChain-Agent/internal/tokens"
	"BNBChain-Agent/internal/web3"
	"BNBChain-Agent/internal/web3/provider"
	"BNBChain-Agent/pkg/logger"
	"BNBChain-Agent/pkg/plugin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "bnbagentd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logger()); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Named("bnbagentd")

	if err := os.MkdirAll(cfg.Runtime.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	registry, err := newRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer registry.Close()

	router := routing.NewClient(routing.Config{
		BaseURL:    cfg.Routing.BaseURL,
		APIKey:     cfg.Routing.APIKey,
		Integrator: cfg.Routing.Integrator,
		Timeout:    config.Seconds(cfg.Routing.TimeoutSeconds),
	})
	directory, closeDirectory, err := newDirectory(ctx, cfg, router)
	if err != nil {
		return err
	}
	defer closeDirectory()

	store, err := newHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	publishers, closePublishers, err := newPublishers(cfg)
	if err != nil {
		return err
	}
	defer closePublishers()

	exec := executor.New(
		executor.WithObserver(metrics.TransactionObserver{}, events.NewFanout(publishers...)),
		executor.WithLogger(logger.Named("executor")),
	)

	model, err := newModel(cfg)
	if err != nil {
		return err
	}

	env := &actions.Env{
		Provider:     registry,
		Resolver:     normalize.NewResolver(registry, directory),
		Executor:     exec,
		Model:        model,
		ModelTimeout: config.Seconds(cfg.LLM.TimeoutSeconds),
		Router:       router,
		Faucet:       faucet.New(faucet.Config{URL: cfg.Faucet.URL, Captcha: cfg.Faucet.Captcha, Timeout: config.Seconds(cfg.Faucet.TimeoutSeconds)}),
		Storage:      newStorage(cfg, log),
		Log:          logger.Named("actions"),
	}
	if cfg.Contracts.ArtifactDir != "" {
		env.Compiler = contracts.NewDirCompiler(cfg.Contracts.ArtifactDir)
	}

	manager, err := newManager(cfg)
	if err != nil {
		return err
	}
	for _, action := range actions.All(env) {
		if err := manager.Register(action); err != nil {
			return fmt.Errorf("register action: %w", err)
		}
	}

	ag := agent.New(manager,
		agent.WithHistory(store),
		agent.WithMemoryDepth(cfg.Runtime.MemoryDepth),
		agent.WithAuditLogger(logger.Audit()),
	)
	env.Memory = ag

	for _, d := range ag.Actions() {
		if d.State != plugin.StateEnabled {
			log.Warn("action disabled", slog.String("action", d.Name), slog.String("reason", d.Reason))
		}
	}
	log.Info("agent ready",
		slog.String("wallet", registry.Address().Hex()),
		slog.Any("chains", registry.Chains()),
		slog.String("llm", cfg.LLM.Provider),
		slog.String("history", cfg.History.Driver))

	guard, err := auth.NewService(cfg.Server.Auth)
	if err != nil {
		return err
	}
	if !guard.Enabled() {
		log.Warn("api keys not configured, the api is unauthenticated")
	}
	return api.NewServer(cfg.Server.Address, ag, api.WithAuth(guard)).Start(ctx)
}

func newRegistry(ctx context.Context, cfg *config.Config) (*provider.Registry, error) {
	defs, err := web3.LoadChainDefinitions(cfg.Chains.DefinitionsPath)
	if err != nil {
		return nil, err
	}
	defaultChain, _ := web3.ParseChain(cfg.Chains.DefaultChain)

	var names web3.ChainResolvers
	if len(cfg.Chains.AddressBook) > 0 {
		book, err := web3.NewAddressBook(cfg.Chains.AddressBook)
		if err != nil {
			return nil, err
		}
		names = append(names, book)
	}
	if cfg.Chains.SpaceID {
		names = append(names, web3.NewSpaceIDResolver())
	}

	return provider.NewRegistry(ctx, provider.Config{
		Definitions:    defs.Merge(cfg.RPCOverrides()),
		PrivateKey:     cfg.Chains.PrivateKey,
		DefaultChain:   defaultChain,
		PollInterval:   time.Duration(cfg.Chains.PollIntervalMillis) * time.Millisecond,
		ReceiptTimeout: config.Seconds(cfg.Chains.ReceiptTimeoutSeconds),
		Names:          names,
	})
}

// newDirectory layers the static token list over LI.FI lookups, behind the
// Redis cache when one is configured.
func newDirectory(ctx context.Context, cfg *config.Config, router *routing.Client) (tokens.Directory, func(), error) {
	var (
		static *tokens.StaticDirectory
		err    error
	)
	if cfg.Tokens.DirectoryPath != "" {
		static, err = tokens.LoadStaticDirectory(cfg.Tokens.DirectoryPath)
	} else {
		static, err = tokens.DefaultStaticDirectory()
	}
	if err != nil {
		return nil, nil, err
	}
	layered := tokens.Layered{static, router}

	redisCfg := cfg.Tokens.Redis
	if redisCfg.Address == "" {
		return layered, func() {}, nil
	}
	cached, err := tokens.NewRedisCache(ctx, tokens.RedisConfig{
		Address:  redisCfg.Address,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
		Prefix:   redisCfg.Prefix,
		TTL:      config.Seconds(redisCfg.TTLSeconds),
	}, layered)
	if err != nil {
		return nil, nil, err
	}
	return cached, func() { _ = cached.Close() }, nil
}

// newStorage signs Greenfield writes with the wallet key. Listings keep
// working when the chain cannot be reached at startup.
func newStorage(cfg *config.Config, log *slog.Logger) *greenfield.Client {
	gcfg := greenfield.Config{
		Testnet:   cfg.Greenfield.Testnet,
		Endpoints: cfg.Greenfield.Endpoints,
		Timeout:   config.Seconds(cfg.Greenfield.TimeoutSeconds),
	}
	if cfg.Chains.PrivateKey != "" {
		sub, err := signer.New(signer.Config{
			PrivateKey: cfg.Chains.PrivateKey,
			Testnet:    cfg.Greenfield.Testnet,
			ChainID:    cfg.Greenfield.ChainID,
			RPCURL:     cfg.Greenfield.RPCURL,
			PrimarySP:  cfg.Greenfield.PrimarySP,
		})
		if err != nil {
			log.Warn("greenfield writes disabled", slog.Any("error", err))
		} else {
			gcfg.Submitter = sub
		}
	}
	return greenfield.New(gcfg)
}

func newHistory(ctx context.Context, cfg *config.Config) (history.Store, error) {
	switch cfg.History.Driver {
	case "mysql":
		return history.NewSQLStore(ctx, history.MySQLConfig{
			DSN:             cfg.History.DSN,
			MaxOpenConns:    cfg.History.MaxOpenConns,
			MaxIdleConns:    cfg.History.MaxIdleConns,
			ConnMaxLifetime: config.Seconds(cfg.History.ConnMaxLifetime),
		})
	default:
		return history.NewMemoryStore(cfg.Runtime.DataDir)
	}
}

func newPublishers(cfg *config.Config) ([]events.Publisher, func(), error) {
	var publishers []events.Publisher
	if cfg.Events.Log {
		publishers = append(publishers, &events.LogPublisher{Logger: logger.Audit()})
	}
	amqpCfg := cfg.Events.AMQP
	if amqpCfg.URL == "" {
		return publishers, func() {}, nil
	}
	pub, err := events.NewAMQPPublisher(events.AMQPConfig{
		URL:        amqpCfg.URL,
		Exchange:   amqpCfg.Exchange,
		Queue:      amqpCfg.Queue,
		RoutingKey: amqpCfg.RoutingKey,
		Durable:    amqpCfg.Durable,
	})
	if err != nil {
		return nil, nil, err
	}
	return append(publishers, pub), func() { _ = pub.Close() }, nil
}

func newModel(cfg *config.Config) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:  cfg.LLM.OpenAI.APIKey,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
			Model:   cfg.LLM.OpenAI.Model,
			Timeout: config.Seconds(cfg.LLM.TimeoutSeconds),
		})
	case "python_bridge":
		script := pythonbridge.ResolveScriptPath(cfg.LLM.Python.WorkingDir, cfg.LLM.Python.ScriptPath)
		return pythonbridge.NewClient(cfg.LLM.Python.PythonExecutable, script, cfg.LLM.Python.WorkingDir)
	default:
		return nil, nil
	}
}

func newManager(cfg *config.Config) (*plugin.Manager, error) {
	if cfg.Plugins.ConfigPath == "" {
		return plugin.NewManager(plugin.ManagerConfig{})
	}
	mc, err := plugin.LoadManagerConfig(cfg.Plugins.ConfigPath)
	if err != nil {
		return nil, err
	}
	return plugin.NewManager(mc)
}
