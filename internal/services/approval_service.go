package services

import (
	"errors"
	"time"

	"github.com/safekeep-labs/multisig-mcp/internal/models"
	"github.com/safekeep-labs/multisig-mcp/internal/utils"
	"gorm.io/gorm"
)

// ApprovalService keeps the mirror's confirmation accounting in lockstep
// with the ledger, one approval at a time. Every operation here assumes the
// corresponding ledger call already succeeded; none of them can grant a
// capability the ledger did not itself grant.
type ApprovalService interface {
	RecordApproval(transactionID uint, approver, approvalHash string) (*models.WalletTransaction, error)
	RecordRevocation(transactionID uint, approver string) (*models.WalletTransaction, error)
	RecordExecution(transactionID uint, executor, executionHash string, gas GasInfo) (*models.WalletTransaction, error)
	ListApprovals(transactionID uint) ([]models.Approval, error)
}

// GasInfo carries the optional gas accounting of a confirmed execute call.
// The zero value means the caller did not report it.
type GasInfo struct {
	GasUsed  string
	GasPrice string
}

type approvalService struct {
	db *gorm.DB
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(db *gorm.DB) ApprovalService {
	return &approvalService{db: db}
}

// RecordApproval inserts the approval record and bumps the transaction's
// confirmation count by exactly one. The bump is a relative mutation, not a
// ledger re-read: the approving call has already been confirmed on-chain.
// A second approval by the same owner is rejected by the unique
// (transaction_id, approved_by) index, never by a mutex. The counter never
// exceeds required_confirmations: a post-quorum approval by a further owner
// is recorded but does not inflate the count.
func (s *approvalService) RecordApproval(transactionID uint, approver, approvalHash string) (*models.WalletTransaction, error) {
	approver = utils.NormalizeAddress(approver)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var record models.WalletTransaction
		if err := tx.First(&record, transactionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}

		approval := &models.Approval{
			TransactionID:   transactionID,
			ApprovedBy:      approver,
			TransactionHash: approvalHash,
			ApprovedAt:      time.Now(),
		}
		if err := tx.Create(approval).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyApproved
			}
			return &MirrorWriteError{Err: err}
		}

		return tx.Model(&models.WalletTransaction{}).
			Where("id = ? AND current_confirmations < required_confirmations", transactionID).
			UpdateColumn("current_confirmations", gorm.Expr("current_confirmations + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	return s.getTransaction(transactionID)
}

// RecordRevocation deletes the owner's approval record and decrements the
// confirmation count, the exact inverse of RecordApproval. The counter only
// drops while it exceeds the surviving approval records, so revoking an
// approval that never counted (recorded past quorum) leaves it untouched.
// Revoking an approval that was never recorded is the benign ErrNotApproved.
func (s *approvalService) RecordRevocation(transactionID uint, approver string) (*models.WalletTransaction, error) {
	approver = utils.NormalizeAddress(approver)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("transaction_id = ? AND approved_by = ?", transactionID, approver).
			Delete(&models.Approval{})
		if result.Error != nil {
			return &MirrorWriteError{Err: result.Error}
		}
		if result.RowsAffected == 0 {
			return ErrNotApproved
		}

		var remaining int64
		if err := tx.Model(&models.Approval{}).
			Where("transaction_id = ?", transactionID).
			Count(&remaining).Error; err != nil {
			return err
		}

		return tx.Model(&models.WalletTransaction{}).
			Where("id = ? AND current_confirmations > ?", transactionID, remaining).
			UpdateColumn("current_confirmations", gorm.Expr("current_confirmations - 1")).Error
	})
	if err != nil {
		return nil, err
	}

	return s.getTransaction(transactionID)
}

// RecordExecution marks the proposal executed and stores who executed it,
// with which call, and the reported gas accounting. No quorum check happens
// here: the ledger already enforced it before accepting the execute call;
// the mirror only records the outcome.
func (s *approvalService) RecordExecution(transactionID uint, executor, executionHash string, gas GasInfo) (*models.WalletTransaction, error) {
	executor = utils.NormalizeAddress(executor)
	now := time.Now()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var record models.WalletTransaction
		if err := tx.First(&record, transactionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		if record.Status == models.TransactionStatusExecuted {
			return ErrAlreadyExecuted
		}

		updates := map[string]interface{}{
			"status":         models.TransactionStatusExecuted,
			"executed_by":    executor,
			"execution_hash": executionHash,
			"executed_at":    now,
		}
		if gas.GasUsed != "" {
			updates["gas_used"] = gas.GasUsed
		}
		if gas.GasPrice != "" {
			updates["gas_price"] = gas.GasPrice
		}

		return tx.Model(&models.WalletTransaction{}).
			Where("id = ?", transactionID).
			Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	return s.getTransaction(transactionID)
}

// ListApprovals returns the approval records for a transaction.
func (s *approvalService) ListApprovals(transactionID uint) ([]models.Approval, error) {
	var approvals []models.Approval
	err := s.db.Where("transaction_id = ?", transactionID).
		Order("approved_at ASC").
		Find(&approvals).Error
	return approvals, err
}

func (s *approvalService) getTransaction(id uint) (*models.WalletTransaction, error) {
	var tx models.WalletTransaction
	if err := s.db.Preload("Wallet").First(&tx, id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}
