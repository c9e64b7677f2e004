package services

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/safekeep-labs/multisig-mcp/internal/models"
	"github.com/safekeep-labs/multisig-mcp/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signWith(t *testing.T, key *ecdsa.PrivateKey, email string) (message, signature string) {
	t.Helper()

	message = utils.ContactRegistrationMessage(email)
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	return message, hexutil.Encode(sig)
}

func signedRegistration(t *testing.T, email string) (owner, message, signature string) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	message, signature = signWith(t, key, email)
	return utils.NormalizeAddress(crypto.PubkeyToAddress(key.PublicKey).Hex()), message, signature
}

func TestRegisterContact(t *testing.T) {
	t.Run("registers a signed contact as verified", func(t *testing.T) {
		db := setupTestDB(t)
		service := NewContactService(db)
		owner, message, sig := signedRegistration(t, "alice@example.com")

		contact, err := service.RegisterContact(RegisterContactRequest{
			OwnerAddress: owner,
			Email:        "alice@example.com",
			Message:      message,
			Signature:    sig,
		})
		require.NoError(t, err)
		assert.Equal(t, owner, contact.OwnerAddress)
		assert.Equal(t, "alice@example.com", contact.Email)
		assert.True(t, contact.Verified)
	})

	t.Run("re-registration updates the email in place", func(t *testing.T) {
		db := setupTestDB(t)
		service := NewContactService(db)

		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		owner := utils.NormalizeAddress(crypto.PubkeyToAddress(key.PublicKey).Hex())

		message, sig := signWith(t, key, "alice@example.com")
		_, err = service.RegisterContact(RegisterContactRequest{
			OwnerAddress: owner, Email: "alice@example.com", Message: message, Signature: sig,
		})
		require.NoError(t, err)

		message2, sig2 := signWith(t, key, "alice@corp.example.com")
		updated, err := service.RegisterContact(RegisterContactRequest{
			OwnerAddress: owner, Email: "alice@corp.example.com", Message: message2, Signature: sig2,
		})
		require.NoError(t, err)
		assert.Equal(t, "alice@corp.example.com", updated.Email)

		var count int64
		db.Model(&models.OwnerContact{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("signature from another key is rejected", func(t *testing.T) {
		db := setupTestDB(t)
		service := NewContactService(db)
		_, message, sig := signedRegistration(t, "mallory@example.com")

		_, err := service.RegisterContact(RegisterContactRequest{
			OwnerAddress: testOwnerA,
			Email:        "mallory@example.com",
			Message:      message,
			Signature:    sig,
		})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "signature", vErr.Field)
	})

	t.Run("message must mention the email", func(t *testing.T) {
		db := setupTestDB(t)
		service := NewContactService(db)
		owner, _, sig := signedRegistration(t, "alice@example.com")

		_, err := service.RegisterContact(RegisterContactRequest{
			OwnerAddress: owner,
			Email:        "alice@example.com",
			Message:      "unrelated text",
			Signature:    sig,
		})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "message", vErr.Field)
	})

	t.Run("malformed email is rejected", func(t *testing.T) {
		db := setupTestDB(t)
		service := NewContactService(db)
		owner, message, sig := signedRegistration(t, "alice@example.com")

		_, err := service.RegisterContact(RegisterContactRequest{
			OwnerAddress: owner,
			Email:        "not-an-email",
			Message:      message,
			Signature:    sig,
		})
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestGetContact(t *testing.T) {
	db := setupTestDB(t)
	service := NewContactService(db)
	owner, message, sig := signedRegistration(t, "bob@example.com")

	_, err := service.RegisterContact(RegisterContactRequest{
		OwnerAddress: owner, Email: "bob@example.com", Message: message, Signature: sig,
	})
	require.NoError(t, err)

	contact, err := service.GetContact(owner)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", contact.Email)
}
