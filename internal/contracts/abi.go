// Package contracts holds the ABI tables and well-known addresses of the
// contracts the executor talks to, plus the artifact loader used for
// token deployments.
package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20JSON = `[
  {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

// L1StandardBridge on BSC, the deposit side of the opBNB canonical bridge.
const l1BridgeJSON = `[
  {"type":"function","name":"depositETH","stateMutability":"payable","inputs":[{"name":"_minGasLimit","type":"uint32"},{"name":"_extraData","type":"bytes"}],"outputs":[]},
  {"type":"function","name":"depositETHTo","stateMutability":"payable","inputs":[{"name":"_to","type":"address"},{"name":"_minGasLimit","type":"uint32"},{"name":"_extraData","type":"bytes"}],"outputs":[]},
  {"type":"function","name":"depositERC20","stateMutability":"nonpayable","inputs":[{"name":"_l1Token","type":"address"},{"name":"_l2Token","type":"address"},{"name":"_amount","type":"uint256"},{"name":"_minGasLimit","type":"uint32"},{"name":"_extraData","type":"bytes"}],"outputs":[]},
  {"type":"function","name":"depositERC20To","stateMutability":"nonpayable","inputs":[{"name":"_l1Token","type":"address"},{"name":"_l2Token","type":"address"},{"name":"_to","type":"address"},{"name":"_amount","type":"uint256"},{"name":"_minGasLimit","type":"uint32"},{"name":"_extraData","type":"bytes"}],"outputs":[]}
]`

// L2StandardBridgeBot on opBNB. Withdrawals pay delegationFee on top of the
// bridged value.
const l2BridgeJSON = `[
  {"type":"function","name":"delegationFee","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"withdrawTo","stateMutability":"payable","inputs":[{"name":"_l2Token","type":"address"},{"name":"_to","type":"address"},{"name":"_amount","type":"uint256"},{"name":"_minGasLimit","type":"uint32"},{"name":"_extraData","type":"bytes"}],"outputs":[]}
]`

// Lista DAO liquid staking manager.
const stakeManagerJSON = `[
  {"type":"function","name":"deposit","stateMutability":"payable","inputs":[],"outputs":[]},
  {"type":"function","name":"requestWithdraw","stateMutability":"nonpayable","inputs":[{"name":"_amountInSlisBnb","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"claimWithdraw","stateMutability":"nonpayable","inputs":[{"name":"_idx","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"getUserWithdrawalRequests","stateMutability":"view","inputs":[{"name":"_address","type":"address"}],"outputs":[{"name":"","type":"tuple[]","components":[{"name":"uuid","type":"uint256"},{"name":"amountInSnBnb","type":"uint256"},{"name":"startTime","type":"uint256"}]}]},
  {"type":"function","name":"getUserRequestStatus","stateMutability":"view","inputs":[{"name":"_user","type":"address"},{"name":"_idx","type":"uint256"}],"outputs":[{"name":"_isClaimable","type":"bool"},{"name":"_amount","type":"uint256"}]}
]`

var (
	ERC20               = mustParse("erc20", erc20JSON)
	L1StandardBridge    = mustParse("L1StandardBridge", l1BridgeJSON)
	L2StandardBridgeBot = mustParse("L2StandardBridgeBot", l2BridgeJSON)
	StakeManager        = mustParse("StakeManager", stakeManagerJSON)
)

func mustParse(name, raw string) *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("contracts: parse " + name + " abi: " + err.Error())
	}
	return &parsed
}
