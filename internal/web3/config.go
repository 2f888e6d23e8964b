package web3

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ChainDefinitions models the structure of configs/chains.yaml.
type ChainDefinitions struct {
	Chains map[string]ChainDefinition `yaml:"chains"`
}

// ChainDefinition describes the endpoint of a single chain.
type ChainDefinition struct {
	RPCURL      string `yaml:"rpc_url"`
	Description string `yaml:"description"`
	// GasMultiplier pads gas estimates, 1.2 when unset.
	GasMultiplier float64 `yaml:"gas_multiplier"`
}

// LoadChainDefinitions parses the YAML file containing chain endpoints.
// Unknown chain names are rejected so typos surface at start-up.
func LoadChainDefinitions(path string) (ChainDefinitions, error) {
	if strings.TrimSpace(path) == "" {
		return ChainDefinitions{Chains: map[string]ChainDefinition{}}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return ChainDefinitions{}, fmt.Errorf("read chain definitions: %w", err)
	}

	var defs ChainDefinitions
	if err := yaml.Unmarshal(content, &defs); err != nil {
		return ChainDefinitions{}, fmt.Errorf("parse chain definitions: %w", err)
	}
	if defs.Chains == nil {
		defs.Chains = map[string]ChainDefinition{}
	}
	for name := range defs.Chains {
		if _, ok := Info(Chain(name)); !ok {
			return ChainDefinitions{}, fmt.Errorf("chain definitions: unsupported chain %q", name)
		}
	}
	return defs, nil
}

// Merge overlays non-empty RPC URLs from overrides, keyed by chain.
func (d ChainDefinitions) Merge(overrides map[Chain]string) ChainDefinitions {
	out := ChainDefinitions{Chains: make(map[string]ChainDefinition, len(d.Chains)+len(overrides))}
	for name, def := range d.Chains {
		out.Chains[name] = def
	}
	for chain, url := range overrides {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		def := out.Chains[string(chain)]
		def.RPCURL = url
		out.Chains[string(chain)] = def
	}
	return out
}
