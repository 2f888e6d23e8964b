package actions

// templates tell the model which keys to return for each action.
var templates = map[string]string{
	NameBalance: `Return {"chain": string|null, "token": string|null, "address": string|null}.
chain is one of bsc, bscTestnet, opBNB, opBNBTestnet. token is a symbol such as BNB or USDT, or a contract address.
address is the account to inspect, a 0x address or a .bnb name; null means the wallet itself.`,

	NameTransfer: `Return {"chain": string|null, "token": string|null, "toAddress": string|null, "amount": string|null, "data": string|null}.
token is BNB for the native asset, a symbol, or a contract address. toAddress is a 0x address or a .bnb name.
amount is a decimal string in whole tokens; null sends the whole balance. data is optional 0x calldata.`,

	NameSwap: `Return {"chain": string|null, "inputToken": string|null, "outputToken": string|null, "amount": string|null, "slippage": number|null}.
Tokens are symbols or contract addresses; BNB is the native asset. amount is in whole input tokens.
slippage is a fraction, e.g. 0.01 for 1%.`,

	NameBridge: `Return {"fromChain": string|null, "toChain": string|null, "fromToken": string|null, "toToken": string|null, "amount": string|null, "toAddress": string|null}.
Bridging is only possible between bsc and opBNB, or between bscTestnet and opBNBTestnet.
fromToken and toToken are the token contract addresses on each side; null means BNB.`,

	NameStake: `Return {"chain": string|null, "action": "deposit"|"withdraw"|"claim"|null, "amount": string|null}.
Staking uses Lista DAO on bsc. deposit stakes BNB for slisBNB, withdraw requests slisBNB redemption, claim collects finished withdrawals.`,

	NameFaucet: `Return {"token": string|null, "toAddress": string|null}.
token is one of BNB, BTC, BUSD, DAI, ETH, USDC, USDT. toAddress is the receiving 0x address; null means the wallet itself.`,

	NameDeploy: `Return {"chain": string|null, "contractType": "ERC20"|"ERC721"|"ERC1155"|null, "name": string|null, "symbol": string|null, "decimals": number|null, "totalSupply": string|null, "baseURI": string|null}.`,

	NameStorage: `Return {"operation": string|null, "bucketName": string|null, "objectName": string|null, "filePath": string|null, "folderName": string|null, "visibility": "public"|"private"|null}.
operation is one of createBucket, listBuckets, listObjects, uploadObject, createFolder, deleteObject, deleteBucket.`,
}
