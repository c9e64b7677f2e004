package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// AddressList is an ordered set of lowercase account addresses stored as JSON.
type AddressList []string

// Implement the driver.Valuer interface for AddressList
func (l AddressList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Implement the sql.Scanner interface for AddressList
func (l *AddressList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}

	if len(bytes) == 0 {
		*l = nil
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// Contains reports whether addr (already lowercase) is in the list.
func (l AddressList) Contains(addr string) bool {
	for _, a := range l {
		if a == addr {
			return true
		}
	}
	return false
}

// Chain represents blockchain network configurations
type Chain struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Network     string         `gorm:"uniqueIndex;not null" json:"network"` // canonical name, e.g. "sepolia"
	RPC         string         `gorm:"not null" json:"rpc"`
	ChainID     string         `gorm:"column:chain_id" json:"chain_id"`
	ExplorerURL string         `json:"explorer_url"`
	IsActive    bool           `gorm:"default:false" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// Wallet mirrors one on-chain multi-owner wallet. Rows are created either
// at deployment time or lazily when the reconciler first sees the address.
// Owners and threshold are ledger-owned; the mirror never edits them.
type Wallet struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	ContractAddress string      `gorm:"uniqueIndex:idx_wallet_addr_network;not null" json:"contract_address"` // lowercase
	Network         string      `gorm:"uniqueIndex:idx_wallet_addr_network;not null" json:"network"`
	Owners          AddressList `gorm:"type:text;not null" json:"owners"`
	Threshold       uint64      `gorm:"not null" json:"threshold"`
	CreatedBy       string      `gorm:"index" json:"created_by"` // lowercase address of the user who caused creation
	Label           string      `json:"label"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// WalletTransaction mirrors one proposal in the wallet's transaction list.
// TxIndex must equal the ledger's own index for the proposal; the unique
// index on (wallet_id, tx_index) turns a lost submission race into a
// detectable conflict instead of silent corruption.
type WalletTransaction struct {
	ID                    uint              `gorm:"primaryKey" json:"id"`
	WalletID              uint              `gorm:"uniqueIndex:idx_tx_wallet_index;not null" json:"wallet_id"`
	TxIndex               uint64            `gorm:"uniqueIndex:idx_tx_wallet_index;not null" json:"tx_index"`
	To                    string            `gorm:"not null" json:"to"` // lowercase
	Value                 string            `gorm:"not null" json:"value"` // decimal string, smallest unit
	AssetType             AssetType         `gorm:"not null;default:native" json:"asset_type"`
	AssetAddress          *string           `json:"asset_address,omitempty"` // nil for native
	SubmittedBy           string            `gorm:"index;not null" json:"submitted_by"` // lowercase
	Status                TransactionStatus `gorm:"default:pending" json:"status"`
	CurrentConfirmations  uint64            `gorm:"default:0" json:"current_confirmations"`
	RequiredConfirmations uint64            `gorm:"not null" json:"required_confirmations"` // wallet threshold at creation
	ExpirationTime        *time.Time        `json:"expiration_time,omitempty"`
	TransactionHash       string            `json:"transaction_hash"` // hash of the proposing call
	ExecutedBy            *string           `json:"executed_by,omitempty"`
	ExecutionHash         *string           `json:"execution_hash,omitempty"`
	ExecutedAt            *time.Time        `json:"executed_at,omitempty"`
	GasUsed               *string           `json:"gas_used,omitempty"`  // executing call, decimal string
	GasPrice              *string           `json:"gas_price,omitempty"` // wei, decimal string
	NotificationSentAt    *time.Time        `json:"notification_sent_at,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`

	Wallet Wallet `gorm:"foreignKey:WalletID" json:"wallet,omitempty"`
}

// Executable reports whether the mirror considers the proposal to have
// reached quorum. Derived, never stored.
func (t *WalletTransaction) Executable() bool {
	return t.CurrentConfirmations >= t.RequiredConfirmations
}

// Expired reports whether the proposal's expiration time has passed.
func (t *WalletTransaction) Expired(now time.Time) bool {
	return t.ExpirationTime != nil && now.After(*t.ExpirationTime)
}

// Approval records one owner's confirmation of a proposal. At most one row
// per (transaction, owner); revocation deletes the row.
type Approval struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	TransactionID   uint      `gorm:"uniqueIndex:idx_approval_tx_owner;not null" json:"transaction_id"`
	ApprovedBy      string    `gorm:"uniqueIndex:idx_approval_tx_owner;not null" json:"approved_by"` // lowercase
	TransactionHash string    `json:"transaction_hash"` // hash of the approving call, optional
	ApprovedAt      time.Time `json:"approved_at"`

	Transaction WalletTransaction `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
}

// OwnerContact holds the verified email address for an owner. Registration
// requires a message signed by the owner's key; only verified contacts
// receive approval notifications.
type OwnerContact struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OwnerAddress string    `gorm:"uniqueIndex;not null" json:"owner_address"` // lowercase
	Email        string    `gorm:"not null" json:"email"`
	Verified     bool      `gorm:"default:false" json:"verified"`
	Signature    string    `json:"-"` // proof of address ownership presented at registration
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
