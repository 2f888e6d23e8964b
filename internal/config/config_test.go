package config

import (
	"os"
	"path/filepath"
	"testing"

	"BNBChain-Agent/internal/auth"
	"BNBChain-Agent/internal/web3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadAppliesDefaults(t *testing.T) {
	for _, key := range []string{"PRIVATE_KEY", "OPENAI_API_KEY", "LIFI_API_KEY", "BSC_PROVIDER_URL", "BNBAGENT_API_KEY"} {
		unsetEnv(t, key)
	}
	dir := t.TempDir()
	path := writeFile(t, dir, "bnbagent.json", `{"chains":{"definitions_path":"chains.yaml"},"runtime":{"data_dir":"state"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "bsc", cfg.Chains.DefaultChain)
	assert.Equal(t, filepath.Join(dir, "chains.yaml"), cfg.Chains.DefinitionsPath)
	assert.Equal(t, filepath.Join(dir, "state"), cfg.Runtime.DataDir)
	assert.Equal(t, "none", cfg.LLM.Provider)
	assert.Equal(t, "memory", cfg.History.Driver)
	assert.Equal(t, "python3", cfg.LLM.Python.PythonExecutable)
	assert.Equal(t, dir, cfg.LLM.Python.WorkingDir)
}

func TestLoadReadsEnvironment(t *testing.T) {
	unsetEnv(t, "LIFI_API_KEY")
	unsetEnv(t, "OPBNB_PROVIDER_URL")
	t.Setenv("PRIVATE_KEY", "0xkey")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("BSC_TESTNET_PROVIDER_URL", "https://testnet.example")
	t.Setenv("BNBAGENT_API_KEY", "secret")
	t.Setenv("GREENFIELD_RPC_URL", "https://gnfd.example:443")

	dir := t.TempDir()
	writeFile(t, dir, ".env", "LIFI_API_KEY=lifi-test\nOPBNB_PROVIDER_URL=https://opbnb.example\nPRIVATE_KEY=ignored\n")
	path := writeFile(t, dir, "bnbagent.json", `{"chains":{"rpc":{"bsc":"https://bsc.example"}}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0xkey", cfg.Chains.PrivateKey, "process environment wins over .env")
	assert.Equal(t, "lifi-test", cfg.Routing.APIKey)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	require.Len(t, cfg.Server.Auth.Keys, 1)
	assert.Equal(t, auth.Digest("secret"), cfg.Server.Auth.Keys[0].SHA256)
	assert.Equal(t, "https://gnfd.example:443", cfg.Greenfield.RPCURL)
	assert.Equal(t, map[web3.Chain]string{
		web3.ChainBSC:        "https://bsc.example",
		web3.ChainBSCTestnet: "https://testnet.example",
		web3.ChainOpBNB:      "https://opbnb.example",
	}, cfg.RPCOverrides())
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	unsetEnv(t, "OPENAI_API_KEY")
	dir := t.TempDir()

	cases := map[string]string{
		"chain":   `{"chains":{"default_chain":"ethereum"}}`,
		"llm":     `{"llm":{"provider":"openai"}}`,
		"bridge":  `{"llm":{"provider":"python_bridge"}}`,
		"history": `{"history":{"driver":"mysql"}}`,
		"json":    `{`,
	}
	for name, body := range cases {
		path := writeFile(t, dir, name+".json", body)
		_, err := Load(path)
		assert.Error(t, err, name)
	}

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
	_, err = Load("")
	assert.Error(t, err)
}

func TestPathFromEnvironment(t *testing.T) {
	unsetEnv(t, EnvConfigPath)
	assert.Equal(t, DefaultPath, Path())
	t.Setenv(EnvConfigPath, "/etc/bnbagent.json")
	assert.Equal(t, "/etc/bnbagent.json", Path())
}

func TestLoggerSection(t *testing.T) {
	var cfg Config
	cfg.Logging.Level = "debug"
	cfg.Logging.Audit.Enabled = true
	cfg.Logging.Audit.Path = "/var/log/audit.log"

	lc := cfg.Logger()
	assert.Equal(t, "debug", lc.Level)
	assert.True(t, lc.Audit.Enabled)
	assert.Equal(t, "/var/log/audit.log", lc.Audit.Path)
}
