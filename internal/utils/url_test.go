package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExplorerAddressURL(t *testing.T) {
	assert.Equal(t, "https://sepolia.etherscan.io/address/0xabc",
		ExplorerAddressURL("https://sepolia.etherscan.io", "0xabc"))
	assert.Equal(t, "https://sepolia.etherscan.io/address/0xabc",
		ExplorerAddressURL("https://sepolia.etherscan.io/", "0xabc"))
	assert.Equal(t, "", ExplorerAddressURL("", "0xabc"))
	assert.Equal(t, "", ExplorerAddressURL("https://sepolia.etherscan.io", ""))
}

func TestExplorerTxURL(t *testing.T) {
	assert.Equal(t, "https://etherscan.io/tx/0xhash",
		ExplorerTxURL("https://etherscan.io/", "0xhash"))
	assert.Equal(t, "", ExplorerTxURL("", "0xhash"))
}
