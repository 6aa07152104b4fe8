package service

import (
	"regexp"
	"strings"

	"token-safety-oracle/internal/chain"
	"token-safety-oracle/internal/solana"
)

var evmAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// validateAddress checks the address format for a chain family.
func validateAddress(d chain.Descriptor, address string) error {
	if d.IsEVM() {
		if !evmAddressPattern.MatchString(address) {
			return &ValidationError{Err: ErrInvalidAddress, Value: address}
		}
		return nil
	}
	if err := solana.ValidateAddress(address); err != nil {
		return &ValidationError{Err: ErrInvalidAddress, Value: address}
	}
	return nil
}

// canonicalAddress returns the cache and result key for an address.
// EVM hex is case-insensitive; base58 is not.
func canonicalAddress(d chain.Descriptor, address string) string {
	if d.IsEVM() {
		return strings.ToLower(address)
	}
	return address
}
