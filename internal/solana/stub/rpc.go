package stub

import (
	"context"
	"errors"

	"token-safety-oracle/internal/solana"
)

// ErrUnavailable simulates an RPC node failure.
var ErrUnavailable = errors.New("rpc unavailable")

// RPCClient implements solana.AccountReader for testing.
type RPCClient struct {
	Accounts map[string]*solana.AccountInfo
	Fail     bool // every call returns ErrUnavailable
	Calls    int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts: make(map[string]*solana.AccountInfo),
	}
}

// GetAccountInfo retrieves an account from the stub store. Unknown accounts return nil.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.Calls++
	if c.Fail {
		return nil, ErrUnavailable
	}
	return c.Accounts[pubkey], nil
}

// AddAccount adds base64-encoded account data to the stub store.
func (c *RPCClient) AddAccount(pubkey, data string) {
	c.Accounts[pubkey] = &solana.AccountInfo{Data: data}
}

var _ solana.AccountReader = (*RPCClient)(nil)
