package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "0xabcdef1234567890abcdef1234567890abcdef12",
		NormalizeAddress("  0xABCDEF1234567890abcdef1234567890ABCDEF12 "))
	assert.Equal(t, "", NormalizeAddress("  "))
}

func TestNormalizeAddresses(t *testing.T) {
	out := NormalizeAddresses([]string{"0xAAA", "0xBBB"})
	assert.Equal(t, []string{"0xaaa", "0xbbb"}, out)
	assert.Empty(t, NormalizeAddresses(nil))
}

func TestIsValidAddress(t *testing.T) {
	assert.True(t, IsValidAddress("0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb1"))
	assert.True(t, IsValidAddress("0x742d35cc6634c0532925a3b844bc9e7595f0beb1"))
	assert.False(t, IsValidAddress("0x742d35"))
	assert.False(t, IsValidAddress("not-an-address"))
	assert.False(t, IsValidAddress(""))
}

func TestValidateAddress(t *testing.T) {
	assert.NoError(t, ValidateAddress("recipient", "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb1"))

	err := ValidateAddress("recipient", "0xzz")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "recipient")
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "0x742d...beb1", ShortAddress("0x742d35cc6634c0532925a3b844bc9e7595f0beb1"))
	assert.Equal(t, "0x1234", ShortAddress("0x1234"))
}
