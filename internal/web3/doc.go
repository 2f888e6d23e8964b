// Package web3 defines the chain capability consumed by the action core:
// the supported BNB Chain networks, raw and contract call shapes, the
// public/wallet client split, and human-readable name resolution. Concrete
// go-ethereum clients live in web3/ethereum; the multi-chain provider in
// web3/provider.
package web3
