package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"BNBChain-Agent/internal/auth"
	"BNBChain-Agent/internal/web3"
	"BNBChain-Agent/pkg/logger"

	"github.com/joho/godotenv"
)

const (
	// EnvConfigPath overrides DefaultPath.
	EnvConfigPath = "BNBAGENT_CONFIG"
	DefaultPath   = "configs/bnbagent.json"
)

// Config is everything the daemon needs at start-up.
type Config struct {
	Server     ServerConfig     `json:"server"`
	Chains     ChainsConfig     `json:"chains"`
	LLM        LLMConfig        `json:"llm"`
	Routing    RoutingConfig    `json:"routing"`
	Tokens     TokensConfig     `json:"tokens"`
	Faucet     FaucetConfig     `json:"faucet"`
	Greenfield GreenfieldConfig `json:"greenfield"`
	Contracts  ContractsConfig  `json:"contracts"`
	History    HistoryConfig    `json:"history"`
	Events     EventsConfig     `json:"events"`
	Logging    LoggingConfig    `json:"logging"`
	Plugins    PluginsConfig    `json:"plugins"`
	Runtime    RuntimeConfig    `json:"runtime"`
}

// ServerConfig controls the API listener.
type ServerConfig struct {
	Address string      `json:"address"`
	Auth    auth.Config `json:"auth"`
}

// ChainsConfig selects the RPC endpoints and the signing wallet.
type ChainsConfig struct {
	DefinitionsPath       string            `json:"definitions_path"`
	DefaultChain          string            `json:"default_chain"`
	PrivateKey            string            `json:"-"`
	RPC                   map[string]string `json:"rpc"`
	PollIntervalMillis    int               `json:"poll_interval_ms"`
	ReceiptTimeoutSeconds int               `json:"receipt_timeout_seconds"`
	AddressBook           map[string]string `json:"address_book"`
	SpaceID               bool              `json:"space_id"`
}

// LLMConfig selects the model backend. Provider is openai, python_bridge or
// none.
type LLMConfig struct {
	Provider       string             `json:"provider"`
	TimeoutSeconds int                `json:"timeout_seconds"`
	OpenAI         OpenAIConfig       `json:"openai"`
	Python         PythonBridgeConfig `json:"python_bridge"`
}

// OpenAIConfig configures the Chat Completions client.
type OpenAIConfig struct {
	APIKey  string `json:"-"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

// PythonBridgeConfig describes inference through a Python script.
type PythonBridgeConfig struct {
	PythonExecutable string `json:"python_executable"`
	ScriptPath       string `json:"script_path"`
	WorkingDir       string `json:"working_dir"`
}

// RoutingConfig configures the LI.FI client.
type RoutingConfig struct {
	BaseURL        string `json:"base_url"`
	APIKey         string `json:"-"`
	Integrator     string `json:"integrator"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// TokensConfig configures the token directory.
type TokensConfig struct {
	DirectoryPath string      `json:"directory_path"`
	Redis         RedisConfig `json:"redis"`
}

// RedisConfig enables the token lookup cache when Address is set.
type RedisConfig struct {
	Address    string `json:"address"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	Prefix     string `json:"prefix"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// FaucetConfig configures the testnet faucet.
type FaucetConfig struct {
	URL            string `json:"url"`
	Captcha        string `json:"captcha"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// GreenfieldConfig configures storage provider access.
type GreenfieldConfig struct {
	Testnet        bool     `json:"testnet"`
	Endpoints      []string `json:"endpoints"`
	TimeoutSeconds int      `json:"timeout_seconds"`
	// ChainID and RPCURL override the network defaults used for signing.
	ChainID   string `json:"chain_id"`
	RPCURL    string `json:"rpc_url"`
	PrimarySP string `json:"primary_sp"`
}

// ContractsConfig points at compiled contract artifacts.
type ContractsConfig struct {
	ArtifactDir string `json:"artifact_dir"`
}

// HistoryConfig selects the history store. Driver is memory or mysql.
type HistoryConfig struct {
	Driver          string `json:"driver"`
	DSN             string `json:"dsn"`
	MaxOpenConns    int    `json:"max_open_conns"`
	MaxIdleConns    int    `json:"max_idle_conns"`
	ConnMaxLifetime int    `json:"conn_max_lifetime_seconds"`
}

// EventsConfig configures transaction event publishing.
type EventsConfig struct {
	Log  bool       `json:"log"`
	AMQP AMQPConfig `json:"amqp"`
}

// AMQPConfig enables the RabbitMQ publisher when URL is set.
type AMQPConfig struct {
	URL        string `json:"url"`
	Exchange   string `json:"exchange"`
	Queue      string `json:"queue"`
	RoutingKey string `json:"routing_key"`
	Durable    bool   `json:"durable"`
}

// LoggingConfig mirrors logger.Config.
type LoggingConfig struct {
	Level       string   `json:"level"`
	Format      string   `json:"format"`
	OutputPaths []string `json:"output_paths"`
	NoColor     bool     `json:"no_color"`
	Audit       struct {
		Enabled    bool   `json:"enabled"`
		Path       string `json:"path"`
		MaxSizeMB  int    `json:"max_size_mb"`
		MaxBackups int    `json:"max_backups"`
		MaxAgeDays int    `json:"max_age_days"`
	} `json:"audit"`
}

// PluginsConfig points at the action manager YAML file.
type PluginsConfig struct {
	ConfigPath string `json:"config_path"`
}

// RuntimeConfig holds general runtime parameters.
type RuntimeConfig struct {
	DataDir     string `json:"data_dir"`
	MemoryDepth int    `json:"memory_depth"`
}

// Path returns the configuration file path from the environment, or
// DefaultPath.
func Path() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	return DefaultPath
}

// Load parses the JSON file at path, loads a .env file from the same
// directory when present and applies environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	baseDir := filepath.Dir(path)
	if err := godotenv.Load(filepath.Join(baseDir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv(os.LookupEnv)
	cfg.applyDefaults(baseDir)

	return &cfg, cfg.Validate()
}

var rpcEnv = map[web3.Chain]string{
	web3.ChainBSC:          "BSC_PROVIDER_URL",
	web3.ChainBSCTestnet:   "BSC_TESTNET_PROVIDER_URL",
	web3.ChainOpBNB:        "OPBNB_PROVIDER_URL",
	web3.ChainOpBNBTestnet: "OPBNB_TESTNET_PROVIDER_URL",
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	if v, ok := get("PRIVATE_KEY"); ok {
		c.Chains.PrivateKey = v
	}
	for chain, key := range rpcEnv {
		if v, ok := get(key); ok {
			if c.Chains.RPC == nil {
				c.Chains.RPC = map[string]string{}
			}
			c.Chains.RPC[string(chain)] = v
		}
	}
	if v, ok := get("GREENFIELD_RPC_URL"); ok {
		c.Greenfield.RPCURL = v
	}
	if v, ok := get("OPENAI_API_KEY"); ok {
		c.LLM.OpenAI.APIKey = v
	}
	if v, ok := get("LIFI_API_KEY"); ok {
		c.Routing.APIKey = v
	}
	if v, ok := get("BNBAGENT_API_KEY"); ok {
		c.Server.Auth.Keys = append(c.Server.Auth.Keys, auth.KeyConfig{
			Name:        "env",
			SHA256:      auth.Digest(v),
			Permissions: []string{auth.PermissionAll},
		})
	}
}

func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}

	if c.Chains.DefaultChain == "" {
		c.Chains.DefaultChain = string(web3.DefaultChain)
	}
	if c.Chains.PollIntervalMillis <= 0 {
		c.Chains.PollIntervalMillis = 1000
	}
	if c.Chains.ReceiptTimeoutSeconds <= 0 {
		c.Chains.ReceiptTimeoutSeconds = 120
	}
	c.Chains.DefinitionsPath = resolve(baseDir, c.Chains.DefinitionsPath)

	if c.LLM.Provider == "" {
		if c.LLM.OpenAI.APIKey != "" {
			c.LLM.Provider = "openai"
		} else {
			c.LLM.Provider = "none"
		}
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = 30
	}
	if c.LLM.Python.PythonExecutable == "" {
		c.LLM.Python.PythonExecutable = "python3"
	}
	if c.LLM.Python.WorkingDir == "" {
		c.LLM.Python.WorkingDir = baseDir
	} else {
		c.LLM.Python.WorkingDir = resolve(baseDir, c.LLM.Python.WorkingDir)
	}
	c.LLM.Python.ScriptPath = resolve(baseDir, c.LLM.Python.ScriptPath)

	if c.Routing.Integrator == "" {
		c.Routing.Integrator = "bnbchain-agent"
	}
	c.Tokens.DirectoryPath = resolve(baseDir, c.Tokens.DirectoryPath)
	if c.Tokens.Redis.TTLSeconds <= 0 {
		c.Tokens.Redis.TTLSeconds = 3600
	}
	c.Contracts.ArtifactDir = resolve(baseDir, c.Contracts.ArtifactDir)

	if c.History.Driver == "" {
		c.History.Driver = "memory"
	}

	if c.Logging.Audit.Enabled && c.Logging.Audit.Path != "" {
		c.Logging.Audit.Path = resolve(baseDir, c.Logging.Audit.Path)
	}
	c.Plugins.ConfigPath = resolve(baseDir, c.Plugins.ConfigPath)

	if c.Runtime.DataDir == "" {
		c.Runtime.DataDir = filepath.Join(baseDir, "data")
	} else {
		c.Runtime.DataDir = resolve(baseDir, c.Runtime.DataDir)
	}
}

func resolve(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	if _, ok := web3.ParseChain(c.Chains.DefaultChain); !ok {
		return fmt.Errorf("unsupported default chain %q", c.Chains.DefaultChain)
	}
	for name := range c.Chains.RPC {
		if _, ok := web3.ParseChain(name); !ok {
			return fmt.Errorf("unsupported chain %q in rpc overrides", name)
		}
	}
	switch c.LLM.Provider {
	case "none":
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return errors.New("llm provider openai requires OPENAI_API_KEY")
		}
	case "python_bridge":
		if c.LLM.Python.ScriptPath == "" {
			return errors.New("llm provider python_bridge requires script_path")
		}
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	switch c.History.Driver {
	case "memory":
	case "mysql":
		if c.History.DSN == "" {
			return errors.New("history driver mysql requires a dsn")
		}
	default:
		return fmt.Errorf("unsupported history driver %q", c.History.Driver)
	}
	return nil
}

// RPCOverrides returns endpoints keyed by chain, for ChainDefinitions.Merge.
func (c *Config) RPCOverrides() map[web3.Chain]string {
	out := make(map[web3.Chain]string, len(c.Chains.RPC))
	for name, url := range c.Chains.RPC {
		if chain, ok := web3.ParseChain(name); ok {
			out[chain] = url
		}
	}
	return out
}

// Logger converts the logging section.
func (c *Config) Logger() logger.Config {
	l := c.Logging
	return logger.Config{
		Level:       l.Level,
		Format:      l.Format,
		OutputPaths: l.OutputPaths,
		NoColor:     l.NoColor,
		Audit: logger.AuditConfig{
			Enabled:    l.Audit.Enabled,
			Path:       l.Audit.Path,
			MaxSizeMB:  l.Audit.MaxSizeMB,
			MaxBackups: l.Audit.MaxBackups,
			MaxAgeDays: l.Audit.MaxAgeDays,
		},
	}
}

// Seconds converts a configured number of seconds.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
