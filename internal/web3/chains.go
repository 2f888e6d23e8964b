package web3

import (
	"fmt"
	"sort"
	"strings"
)

// Chain is the canonical identifier of a supported network.
type Chain string

const (
	ChainBSC          Chain = "bsc"
	ChainBSCTestnet   Chain = "bscTestnet"
	ChainOpBNB        Chain = "opBNB"
	ChainOpBNBTestnet Chain = "opBNBTestnet"
)

// DefaultChain is used when a request names no chain.
const DefaultChain = ChainBSC

// NativeSymbol is the gas token symbol on every supported chain.
const NativeSymbol = "BNB"

// ChainInfo is the static metadata of a supported chain.
type ChainInfo struct {
	Chain    Chain
	ID       int64
	Name     string
	Explorer string
	Testnet  bool
}

var chains = map[Chain]ChainInfo{
	ChainBSC:          {Chain: ChainBSC, ID: 56, Name: "BNB Smart Chain", Explorer: "https://bscscan.com"},
	ChainBSCTestnet:   {Chain: ChainBSCTestnet, ID: 97, Name: "BNB Smart Chain Testnet", Explorer: "https://testnet.bscscan.com", Testnet: true},
	ChainOpBNB:        {Chain: ChainOpBNB, ID: 204, Name: "opBNB", Explorer: "https://opbnb.bscscan.com"},
	ChainOpBNBTestnet: {Chain: ChainOpBNBTestnet, ID: 5611, Name: "opBNB Testnet", Explorer: "https://opbnb-testnet.bscscan.com", Testnet: true},
}

var aliases = map[string]Chain{
	"bsc":                     ChainBSC,
	"bnb":                     ChainBSC,
	"bnb chain":               ChainBSC,
	"bnb smart chain":         ChainBSC,
	"bsc mainnet":             ChainBSC,
	"bsctestnet":              ChainBSCTestnet,
	"bsc-testnet":             ChainBSCTestnet,
	"bsc testnet":             ChainBSCTestnet,
	"bnb testnet":             ChainBSCTestnet,
	"opbnb":                   ChainOpBNB,
	"opbnb mainnet":           ChainOpBNB,
	"opbnbtestnet":            ChainOpBNBTestnet,
	"opbnb-testnet":           ChainOpBNBTestnet,
	"opbnb testnet":           ChainOpBNBTestnet,
	"bnb smart chain testnet": ChainBSCTestnet,
}

// ParseChain maps a user or model supplied chain name onto a supported chain.
func ParseChain(name string) (Chain, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", false
	}
	c, ok := aliases[key]
	return c, ok
}

// Info returns the metadata of c.
func Info(c Chain) (ChainInfo, bool) {
	info, ok := chains[c]
	return info, ok
}

// MustInfo is Info for chains known to be valid.
func MustInfo(c Chain) ChainInfo {
	info, ok := chains[c]
	if !ok {
		panic(fmt.Sprintf("web3: unknown chain %q", c))
	}
	return info
}

// Chains lists the supported chains in a stable order.
func Chains() []Chain {
	out := make([]Chain, 0, len(chains))
	for c := range chains {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return chains[out[i]].ID < chains[out[j]].ID })
	return out
}

// TxURL returns the explorer link of a transaction.
func TxURL(c Chain, hash string) string {
	info, ok := chains[c]
	if !ok || hash == "" {
		return ""
	}
	return info.Explorer + "/tx/" + hash
}

// AddressURL returns the explorer link of an account or contract.
func AddressURL(c Chain, address string) string {
	info, ok := chains[c]
	if !ok || address == "" {
		return ""
	}
	return info.Explorer + "/address/" + address
}
