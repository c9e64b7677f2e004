package utils

import (
	"fmt"
	"strings"
)

// ExplorerAddressURL builds a ledger-explorer link for an account address.
// Returns "" when the network has no explorer configured; notification
// payloads simply omit the link in that case.
func ExplorerAddressURL(explorerBase, address string) string {
	if explorerBase == "" || address == "" {
		return ""
	}
	return fmt.Sprintf("%s/address/%s", strings.TrimRight(explorerBase, "/"), address)
}

// ExplorerTxURL builds a ledger-explorer link for a transaction hash.
func ExplorerTxURL(explorerBase, txHash string) string {
	if explorerBase == "" || txHash == "" {
		return ""
	}
	return fmt.Sprintf("%s/tx/%s", strings.TrimRight(explorerBase, "/"), txHash)
}
