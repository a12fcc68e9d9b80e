package client

import (
	"github.com/shieldedpay/core/internal/address"
	"github.com/shieldedpay/core/internal/field"
)

// Address returns the wallet's zk address: the receiving pubkey notes are
// addressed to, paired with the viewing key needed to decrypt them.
func (c *ShieldedClient) Address() (address.ZkAddress, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateUninitialized {
		return address.ZkAddress{}, newError(NotInitialized, "address", nil)
	}

	var a address.ZkAddress
	a.ReceivingPubkey = field.FieldToBytes(c.spendingKey.OwnerPubkey)
	a.ViewingKey = c.viewingKey
	return a, nil
}
