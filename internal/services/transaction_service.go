package services

import (
	"errors"
	"time"

	"github.com/safekeep-labs/multisig-mcp/internal/logger"
	"github.com/safekeep-labs/multisig-mcp/internal/models"
	"github.com/safekeep-labs/multisig-mcp/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TransactionService is the mirror store for proposal records: creation,
// lookup, owner-scoped listings, and the expiration sweep.
type TransactionService interface {
	CreateTransaction(tx *models.WalletTransaction) error
	GetTransactionByID(id uint) (*models.WalletTransaction, error)
	GetTransactionByIndex(walletID uint, txIndex uint64) (*models.WalletTransaction, error)
	ListTransactionsForOwner(owner string) ([]models.WalletTransaction, error)
	ListPendingApprovalsFor(owner string) ([]models.WalletTransaction, error)
	MarkNotified(id uint, at time.Time) error
	MarkExpired(now time.Time) (int64, error)
}

type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(db *gorm.DB) TransactionService {
	return &transactionService{db: db}
}

// CreateTransaction inserts a proposal record. The unique
// (wallet_id, tx_index) constraint rejects a duplicate insert from a retry
// or a lost index race as ErrIndexConflict.
func (s *transactionService) CreateTransaction(tx *models.WalletTransaction) error {
	tx.To = utils.NormalizeAddress(tx.To)
	tx.SubmittedBy = utils.NormalizeAddress(tx.SubmittedBy)
	if tx.Status == "" {
		tx.Status = models.TransactionStatusPending
	}

	if err := s.db.Create(tx).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrIndexConflict
		}
		return &MirrorWriteError{Err: err}
	}
	return nil
}

// GetTransactionByID returns a proposal record with its wallet preloaded.
func (s *transactionService) GetTransactionByID(id uint) (*models.WalletTransaction, error) {
	var tx models.WalletTransaction
	err := s.db.Preload("Wallet").First(&tx, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	} else if err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetTransactionByIndex returns the proposal mirrored at a ledger index.
func (s *transactionService) GetTransactionByIndex(walletID uint, txIndex uint64) (*models.WalletTransaction, error) {
	var tx models.WalletTransaction
	err := s.db.Preload("Wallet").
		Where("wallet_id = ? AND tx_index = ?", walletID, txIndex).
		First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	} else if err != nil {
		return nil, err
	}
	return &tx, nil
}

// ListTransactionsForOwner returns every proposal on wallets the owner
// belongs to, newest first.
func (s *transactionService) ListTransactionsForOwner(owner string) ([]models.WalletTransaction, error) {
	owner = utils.NormalizeAddress(owner)

	var txs []models.WalletTransaction
	err := s.db.Preload("Wallet").
		Joins("JOIN wallets ON wallets.id = wallet_transactions.wallet_id").
		Where("wallets.owners LIKE ?", "%\""+owner+"\"%").
		Order("wallet_transactions.created_at DESC").
		Find(&txs).Error
	return txs, err
}

// ListPendingApprovalsFor returns proposals still awaiting the owner's
// approval: pending status, not expired, not yet approved by this owner,
// and not submitted by them.
func (s *transactionService) ListPendingApprovalsFor(owner string) ([]models.WalletTransaction, error) {
	owner = utils.NormalizeAddress(owner)
	now := time.Now()

	var txs []models.WalletTransaction
	err := s.db.Preload("Wallet").
		Joins("JOIN wallets ON wallets.id = wallet_transactions.wallet_id").
		Where("wallets.owners LIKE ?", "%\""+owner+"\"%").
		Where("wallet_transactions.status = ?", models.TransactionStatusPending).
		Where("wallet_transactions.submitted_by <> ?", owner).
		Where("wallet_transactions.expiration_time IS NULL OR wallet_transactions.expiration_time > ?", now).
		Where("wallet_transactions.id NOT IN (?)",
			s.db.Model(&models.Approval{}).Select("transaction_id").Where("approved_by = ?", owner)).
		Order("wallet_transactions.created_at ASC").
		Find(&txs).Error
	return txs, err
}

// MarkNotified stamps the dispatch completion time.
func (s *transactionService) MarkNotified(id uint, at time.Time) error {
	return s.db.Model(&models.WalletTransaction{}).
		Where("id = ?", id).
		Update("notification_sent_at", at).Error
}

// MarkExpired flips pending proposals whose expiration time has passed to
// expired. Mirror-side bookkeeping only; the ledger row is untouched.
func (s *transactionService) MarkExpired(now time.Time) (int64, error) {
	result := s.db.Model(&models.WalletTransaction{}).
		Where("status = ?", models.TransactionStatusPending).
		Where("expiration_time IS NOT NULL AND expiration_time <= ?", now).
		Update("status", models.TransactionStatusExpired)
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		logger.Info("expired stale proposals", zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}
