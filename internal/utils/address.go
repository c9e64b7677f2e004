package utils

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NormalizeAddress lowercases an account address for storage and comparison.
// All addresses are accepted case-insensitively and stored lowercase; every
// mirror write and every lookup goes through this.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// NormalizeAddresses lowercases every address in the slice, preserving order.
func NormalizeAddresses(addresses []string) []string {
	out := make([]string, len(addresses))
	for i, a := range addresses {
		out[i] = NormalizeAddress(a)
	}
	return out
}

// IsValidAddress checks if an account address is well-formed.
func IsValidAddress(address string) bool {
	return common.IsHexAddress(address)
}

// ValidateAddress returns an error naming the field when the address is malformed.
func ValidateAddress(field, address string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("invalid %s address: %s", field, address)
	}
	return nil
}

// ShortAddress renders 0x1234...abcd for notification payloads and logs.
func ShortAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
