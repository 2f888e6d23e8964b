package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"BNBChain-Agent/internal/web3"
)

// ContractKind selects the token standard to deploy.
type ContractKind string

const (
	ContractERC20   ContractKind = "ERC20"
	ContractERC721  ContractKind = "ERC721"
	ContractERC1155 ContractKind = "ERC1155"
)

var (
	deployKindPattern     = regexp.MustCompile(`(?i)\b(?P<kind>erc-?20|erc-?721|erc-?1155)\b`)
	deployNamePattern     = regexp.MustCompile(`(?i)\bnamed?\s*[:=]?\s*"(?P<name>[^"]+)"`)
	deploySymbolPattern   = regexp.MustCompile(`(?i)\bsymbol\s*[:=]?\s*"?(?P<symbol>[A-Za-z0-9]{1,11})"?`)
	deployDecimalsPattern = regexp.MustCompile(`(?i)\b(?P<decimals>\d{1,2})\s+decimals\b`)
	deployDecimalsKV      = regexp.MustCompile(`(?i)\bdecimals\s*[:=]?\s*(?P<decimals>\d{1,2})\b`)
	deploySupplyPattern   = regexp.MustCompile(`(?i)\b(?:total\s*supply|supply)\s*(?:of\s*)?[:=]?\s*(?P<supply>\d+(?:\.\d+)?)`)
	deployURIPattern      = regexp.MustCompile(`(?i)\b(?:base\s*uri|uri)\s*[:=]?\s*"?(?P<uri>(?:https?|ipfs)://[^\s"]+)`)
)

// DeployParams describes a token contract deployment.
type DeployParams struct {
	Chain       web3.Chain
	Kind        ContractKind
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply string
	BaseURI     string
}

func normalizeKind(raw string) ContractKind {
	return ContractKind(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(raw)), "-", ""))
}

// Deploy extracts token deployment parameters from src.
func Deploy(src Source) (DeployParams, error) {
	chain, err := resolveChain(src.Resolve(chainField()), "chain")
	if err != nil {
		return DeployParams{}, err
	}
	kindValue := src.Resolve(Field{
		Name:  "contractType",
		Keys:  []string{"contractType", "type", "standard"},
		Rules: []Rule{{Pattern: deployKindPattern, Group: "kind"}},
	})
	if !kindValue.Found() {
		return DeployParams{}, missing("contractType")
	}
	kind := normalizeKind(kindValue.Raw)
	switch kind {
	case ContractERC20, ContractERC721, ContractERC1155:
	default:
		return DeployParams{}, invalid("contractType", fmt.Sprintf("unsupported contract type %q", kindValue.Raw))
	}

	name := src.Resolve(Field{Name: "name", Keys: []string{"name"}, Rules: []Rule{{Pattern: deployNamePattern, Group: "name"}}})
	if !name.Found() {
		return DeployParams{}, missing("name")
	}
	symbol := src.Resolve(Field{
		Name:  "symbol",
		Keys:  []string{"symbol"},
		Upper: true,
		Rules: []Rule{{Pattern: deploySymbolPattern, Group: "symbol"}},
	})
	if kind != ContractERC1155 && !symbol.Found() {
		return DeployParams{}, missing("symbol")
	}

	params := DeployParams{Chain: chain, Kind: kind, Name: name.Raw, Symbol: symbol.Raw}
	switch kind {
	case ContractERC20:
		decimals := src.Resolve(Field{
			Name:    "decimals",
			Keys:    []string{"decimals"},
			Numeric: true,
			Default: DefaultDecimals,
			Rules:   []Rule{{Pattern: deployDecimalsPattern, Group: "decimals"}, {Pattern: deployDecimalsKV, Group: "decimals"}},
		})
		d, err := strconv.ParseUint(decimals.Raw, 10, 8)
		if err != nil || d > 36 {
			return DeployParams{}, invalid("decimals", fmt.Sprintf("invalid decimals %q", decimals.Raw))
		}
		params.Decimals = uint8(d)
		params.TotalSupply, err = positiveAmount(src.Resolve(Field{
			Name:    "totalSupply",
			Keys:    []string{"totalSupply", "supply"},
			Numeric: true,
			Default: DefaultTotalSupply,
			Rules:   []Rule{{Pattern: deploySupplyPattern, Group: "supply"}},
		}), "totalSupply")
		if err != nil {
			return DeployParams{}, err
		}
	case ContractERC721, ContractERC1155:
		uri := src.Resolve(Field{
			Name:  "baseURI",
			Keys:  []string{"baseURI", "uri"},
			Rules: []Rule{{Pattern: deployURIPattern, Group: "uri"}},
		})
		params.BaseURI = uri.Raw
	}
	return params, nil
}
