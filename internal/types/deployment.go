package types

import "github.com/ethereum/go-ethereum/common"

// Deployment locates the Hyper protocol contract and the forwarder that
// relays payloads to it.
type Deployment struct {
	Hyper     common.Address `json:"hyper"`
	Forwarder common.Address `json:"forwarder"`
	ChainId   uint64         `json:"chainId"`
}

func (d Deployment) IsZero() bool {
	return d.Hyper == (common.Address{}) && d.Forwarder == (common.Address{})
}
