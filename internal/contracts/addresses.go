package contracts

import (
	"BNBChain-Agent/internal/web3"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultMinGasLimit is the L2 gas budget forwarded with bridge messages.
const DefaultMinGasLimit uint32 = 1

var (
	// LegacyL2Native is the token address the opBNB bridge uses for BNB.
	LegacyL2Native = common.HexToAddress("0xDeadDeAddeAddEAddeadDEaDDEAdDeaDDEAdDeaDDeAD0000")

	// StakeManagerAddress and SlisBNBAddress are BSC mainnet only.
	StakeManagerAddress = common.HexToAddress("0x1adB950d8bB3dA4bE104211D5AB038628e477fE6")
	SlisBNBAddress      = common.HexToAddress("0xB0b84D294e0C75A6abe60171b70edEb2EFd14A1B")

	l1Bridges = map[web3.Chain]common.Address{
		web3.ChainBSC:        common.HexToAddress("0xF05F0e4362859c3331Cb9395CBC201E3Fa6757Ea"),
		web3.ChainBSCTestnet: common.HexToAddress("0x677311Fd2cCc511Bbc0f581E8d9a07B033D5E840"),
	}

	// The bridge bot is deployed at the same address on both opBNB networks.
	l2Bridges = map[web3.Chain]common.Address{
		web3.ChainOpBNB:        common.HexToAddress("0xa4D4Bb2b1A8cFb9f8F11CE5E1D7217a4C1b5D99D"),
		web3.ChainOpBNBTestnet: common.HexToAddress("0xa4D4Bb2b1A8cFb9f8F11CE5E1D7217a4C1b5D99D"),
	}
)

// L1Bridge returns the deposit bridge deployed on chain.
func L1Bridge(chain web3.Chain) (common.Address, bool) {
	addr, ok := l1Bridges[chain]
	return addr, ok
}

// L2Bridge returns the withdrawal bridge deployed on chain.
func L2Bridge(chain web3.Chain) (common.Address, bool) {
	addr, ok := l2Bridges[chain]
	return addr, ok
}
