package utils

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signPersonal(t *testing.T, message string) (signature, address string) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)

	return hexutil.Encode(sig), NormalizeAddress(crypto.PubkeyToAddress(key.PublicKey).Hex())
}

func TestRecoverSigner(t *testing.T) {
	message := "I am registering alice@example.com as my approval contact at 1700000000"

	t.Run("recovers signer with raw recovery id", func(t *testing.T) {
		sig, addr := signPersonal(t, message)

		recovered, err := RecoverSigner(sig, message)
		require.NoError(t, err)
		assert.Equal(t, addr, recovered)
	})

	t.Run("recovers signer with wallet-style recovery id", func(t *testing.T) {
		sig, addr := signPersonal(t, message)

		// Shift V to 27/28 the way browser wallets emit it.
		raw, err := hexutil.Decode(sig)
		require.NoError(t, err)
		raw[64] += 27
		walletSig := hexutil.Encode(raw)

		recovered, err := RecoverSigner(walletSig, message)
		require.NoError(t, err)
		assert.Equal(t, addr, recovered)
	})

	t.Run("different message recovers a different address", func(t *testing.T) {
		sig, addr := signPersonal(t, message)

		recovered, err := RecoverSigner(sig, "some other message")
		require.NoError(t, err)
		assert.NotEqual(t, addr, recovered)
	})

	t.Run("rejects missing 0x prefix", func(t *testing.T) {
		_, err := RecoverSigner("deadbeef", message)
		assert.Error(t, err)
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := RecoverSigner("0xdeadbeef", message)
		assert.Error(t, err)
	})
}

func TestVerifySignedBy(t *testing.T) {
	message := "I am registering bob@example.com as my approval contact at 1700000000"
	sig, addr := signPersonal(t, message)

	ok, err := VerifySignedBy(sig, message, addr)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifySignedBy(sig, message, "0x742d35cc6634c0532925a3b844bc9e7595f0beb1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContactRegistrationMessage(t *testing.T) {
	msg := ContactRegistrationMessage("alice@example.com")
	assert.Contains(t, msg, "alice@example.com")
}
