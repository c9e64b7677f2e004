package services

import (
	"errors"
	"strings"

	"github.com/safekeep-labs/multisig-mcp/internal/models"
	"github.com/safekeep-labs/multisig-mcp/internal/utils"
	"gorm.io/gorm"
)

// ContactService manages owner contact emails. Registration requires a
// personal-message signature from the owner address; a contact registered
// with a valid signature is immediately verified.
type ContactService interface {
	RegisterContact(req RegisterContactRequest) (*models.OwnerContact, error)
	GetContact(ownerAddress string) (*models.OwnerContact, error)
}

type RegisterContactRequest struct {
	OwnerAddress string `json:"owner_address"`
	Email        string `json:"email"`
	// Message is the exact signed text; Signature is the EIP-191
	// personal-message signature over it.
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

type contactService struct {
	db *gorm.DB
}

// NewContactService creates a new ContactService
func NewContactService(db *gorm.DB) ContactService {
	return &contactService{db: db}
}

// RegisterContact verifies the ownership signature and upserts the contact.
func (s *contactService) RegisterContact(req RegisterContactRequest) (*models.OwnerContact, error) {
	owner := utils.NormalizeAddress(req.OwnerAddress)
	if !utils.IsValidAddress(owner) {
		return nil, &ValidationError{Field: "owner_address", Reason: "malformed address"}
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, &ValidationError{Field: "email", Reason: "malformed email"}
	}
	if !strings.Contains(req.Message, email) {
		return nil, &ValidationError{Field: "message", Reason: "signed message does not mention the email"}
	}

	signedByOwner, err := utils.VerifySignedBy(req.Signature, req.Message, owner)
	if err != nil {
		return nil, &ValidationError{Field: "signature", Reason: err.Error()}
	}
	if !signedByOwner {
		return nil, &ValidationError{Field: "signature", Reason: "not signed by the owner address"}
	}

	contact := &models.OwnerContact{
		OwnerAddress: owner,
		Email:        email,
		Verified:     true,
		Signature:    req.Signature,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.OwnerContact
		err := tx.Where("owner_address = ?", owner).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(contact).Error
		} else if err != nil {
			return err
		}

		contact.ID = existing.ID
		return tx.Model(&existing).Updates(map[string]interface{}{
			"email":     email,
			"verified":  true,
			"signature": req.Signature,
		}).Error
	})
	if err != nil {
		return nil, &MirrorWriteError{Err: err}
	}

	return contact, nil
}

// GetContact returns the contact on file for an owner address.
func (s *contactService) GetContact(ownerAddress string) (*models.OwnerContact, error) {
	var contact models.OwnerContact
	err := s.db.Where("owner_address = ?", utils.NormalizeAddress(ownerAddress)).First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}
