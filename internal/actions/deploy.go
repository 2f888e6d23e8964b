package actions

import (
	"context"
	"fmt"
	"log/slog"

	"BNBChain-Agent/internal/contracts"
	xerrors "BNBChain-Agent/internal/errors"
	"BNBChain-Agent/internal/executor"
	"BNBChain-Agent/internal/extract"
	"BNBChain-Agent/internal/normalize"
	"BNBChain-Agent/internal/web3"
	"BNBChain-Agent/pkg/plugin"
)

var deployTemplates = map[extract.ContractKind]string{
	extract.ContractERC20:   contracts.ERC20Template,
	extract.ContractERC721:  contracts.ERC721Template,
	extract.ContractERC1155: contracts.ERC1155Template,
}

// Deploy creates ERC20, ERC721 or ERC1155 token contracts from compiled
// templates.
type Deploy struct {
	env *Env
	log *slog.Logger
}

func NewDeploy(env *Env) *Deploy {
	return &Deploy{env: env, log: env.logger().With(slog.String("action", NameDeploy))}
}

func (a *Deploy) Info() plugin.Info {
	return plugin.Info{
		Name:         NameDeploy,
		Description:  "Deploy an ERC20, ERC721 or ERC1155 token contract on BSC or opBNB.",
		Similes:      []string{"DEPLOY_TOKEN", "CREATE_TOKEN", "DEPLOY_NFT"},
		Examples:     []plugin.Example{{User: `Deploy an ERC20 named "Moon" symbol MOON with supply 1000000`, Agent: "Deployed Moon (MOON) at 0x…"}},
		Capabilities: []plugin.Capability{plugin.CapabilityNetwork, plugin.CapabilitySigning},
	}
}

func (a *Deploy) Handle(ctx context.Context, msg plugin.Message) plugin.Result {
	params, err := extract.Deploy(a.env.source(ctx, NameDeploy, msg))
	if err != nil {
		return failure(ctx, a.log, NameDeploy, err, nil)
	}
	res := executor.DeployResult{TransactionResult: executor.TransactionResult{Chain: params.Chain, Token: params.Symbol}}
	content := func() map[string]any {
		c := txContent(&res.TransactionResult, -1)
		c["contractType"] = string(params.Kind)
		c["name"] = params.Name
		return c
	}
	if a.env.Compiler == nil {
		return failure(ctx, a.log, NameDeploy, xerrors.New(xerrors.CodeInitializationFailure, "no contract compiler configured"), content())
	}

	art, err := a.env.Compiler.Compile(deployTemplates[params.Kind])
	if err != nil {
		return failure(ctx, a.log, NameDeploy, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "compile "+string(params.Kind)), content())
	}
	args, err := constructorArgs(params)
	if err != nil {
		return failure(ctx, a.log, NameDeploy, err, content())
	}
	pub, wallet, err := a.env.clients(params.Chain)
	if err != nil {
		return failure(ctx, a.log, NameDeploy, err, content())
	}

	err = a.env.Executor.Deploy(ctx, pub, wallet, art, args, &res)
	result := finishTx(ctx, a.log, NameDeploy, &res.TransactionResult, -1, err,
		fmt.Sprintf("Deployed %s %s at %s on %s.", params.Kind, params.Name, res.Address.Hex(), params.Chain))
	result.Content["contractType"] = string(params.Kind)
	result.Content["name"] = params.Name
	if res.Hash != nil {
		result.Content["address"] = res.Address.Hex()
		result.Content["contractUrl"] = web3.AddressURL(params.Chain, res.Address.Hex())
	}
	return result
}

// constructorArgs matches the constructors of the bundled templates.
func constructorArgs(params extract.DeployParams) ([]any, error) {
	switch params.Kind {
	case extract.ContractERC20:
		supply, err := normalize.ToPositiveBaseUnits(params.TotalSupply, int(params.Decimals))
		if err != nil {
			return nil, err
		}
		return []any{params.Name, params.Symbol, params.Decimals, supply}, nil
	case extract.ContractERC721:
		return []any{params.Name, params.Symbol, params.BaseURI}, nil
	case extract.ContractERC1155:
		return []any{params.BaseURI}, nil
	default:
		return nil, xerrors.New(xerrors.CodeValidationFailed, fmt.Sprintf("unsupported contract type %q", params.Kind),
			xerrors.WithMetadata("field", "contractType"))
	}
}
