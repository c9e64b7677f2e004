package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ContactRegistrationMessage is the message an owner signs to prove control
// of the address when registering a contact email.
func ContactRegistrationMessage(email string) string {
	return fmt.Sprintf("I am registering %s as my approval contact at %d", email, time.Now().Unix())
}

// RecoverSigner recovers the account address that produced an EIP-191
// personal-message signature over message.
func RecoverSigner(signature, message string) (string, error) {
	if !strings.HasPrefix(signature, "0x") {
		return "", fmt.Errorf("signature must start with 0x")
	}
	if len(strings.TrimPrefix(signature, "0x")) != 130 { // 65 bytes
		return "", fmt.Errorf("signature must be 65 bytes (130 hex characters)")
	}

	sigData, err := hexutil.Decode(signature)
	if err != nil {
		return "", fmt.Errorf("failed to decode signature: %w", err)
	}

	// Wallets set the recovery id to 27/28; go-ethereum expects 0/1.
	if sigData[64] == 27 || sigData[64] == 28 {
		sigData[64] -= 27
	}

	msgHash := accounts.TextHash([]byte(message))
	pubKey, err := crypto.SigToPub(msgHash, sigData)
	if err != nil {
		return "", fmt.Errorf("failed to recover public key: %w", err)
	}

	return NormalizeAddress(crypto.PubkeyToAddress(*pubKey).Hex()), nil
}

// VerifySignedBy checks that signature over message was produced by address.
func VerifySignedBy(signature, message, address string) (bool, error) {
	recovered, err := RecoverSigner(signature, message)
	if err != nil {
		return false, err
	}
	return recovered == NormalizeAddress(address), nil
}
