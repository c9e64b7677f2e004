package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"github.com/safekeep-labs/multisig-mcp/internal/logger"
	"github.com/safekeep-labs/multisig-mcp/internal/models"
	"github.com/safekeep-labs/multisig-mcp/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EmailSender is the email collaborator. Fire-and-forget per recipient; no
// delivery guarantee beyond "attempted". Rendering and transport live
// outside this engine.
type EmailSender interface {
	Send(ctx context.Context, recipient string, payload models.NotificationPayload) error
}

// NotificationService computes the eligible recipient set for a newly
// submitted proposal and fans out one message per recipient. Each send is
// an independent unit of work; one recipient's failure never affects
// another's delivery or the transaction's recorded status.
type NotificationService interface {
	Notify(ctx context.Context, transactionID uint, approverAddresses []string) (models.NotificationResult, error)
}

type notificationService struct {
	db           *gorm.DB
	chains       ChainService
	assets       AssetService
	transactions TransactionService
	sender       EmailSender
	pool         pond.Pool
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(db *gorm.DB, chains ChainService, assets AssetService, transactions TransactionService, sender EmailSender) NotificationService {
	return &notificationService{
		db:           db,
		chains:       chains,
		assets:       assets,
		transactions: transactions,
		sender:       sender,
		pool:         pond.NewPool(8),
	}
}

// Notify dispatches approval-request emails for the transaction. Recipient
// set is the selected approvers when provided, else all wallet owners;
// recipients without a verified contact and the submitter are filtered out.
// The notification_sent_at stamp is written once dispatch completes,
// regardless of individual failures.
func (s *notificationService) Notify(ctx context.Context, transactionID uint, approverAddresses []string) (models.NotificationResult, error) {
	tx, err := s.transactions.GetTransactionByID(transactionID)
	if err != nil {
		return models.NotificationResult{}, err
	}
	wallet := tx.Wallet

	recipients := utils.NormalizeAddresses(approverAddresses)
	if len(recipients) == 0 {
		recipients = wallet.Owners
	}

	contacts, err := s.verifiedContacts(recipients, tx.SubmittedBy)
	if err != nil {
		return models.NotificationResult{}, err
	}

	payload := s.buildPayload(ctx, tx, &wallet)
	batchID := uuid.New().String()

	var sent int64
	group := s.pool.NewGroup()
	for _, contact := range contacts {
		c := contact
		group.Submit(func() {
			if err := s.sender.Send(ctx, c.Email, payload); err != nil {
				// Recorded, never fatal: the proposal is already on-chain.
				logger.Warn("notification send failed",
					zap.String("batch", batchID),
					zap.String("recipient", c.OwnerAddress),
					zap.Uint("transaction_id", transactionID),
					zap.Error(err))
				return
			}
			atomic.AddInt64(&sent, 1)
		})
	}
	_ = group.Wait()

	if err := s.transactions.MarkNotified(transactionID, time.Now()); err != nil {
		logger.Warn("failed to stamp notification time",
			zap.Uint("transaction_id", transactionID), zap.Error(err))
	}

	result := models.NotificationResult{Sent: int(atomic.LoadInt64(&sent)), Total: len(contacts)}
	logger.Info("notification dispatch complete",
		zap.String("batch", batchID),
		zap.Uint("transaction_id", transactionID),
		zap.Int("sent", result.Sent),
		zap.Int("total", result.Total))
	return result, nil
}

// verifiedContacts filters the recipient addresses down to those with a
// verified contact on file, excluding the submitter.
func (s *notificationService) verifiedContacts(recipients []string, submitter string) ([]models.OwnerContact, error) {
	submitter = utils.NormalizeAddress(submitter)

	filtered := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r != submitter {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		return nil, nil
	}

	var contacts []models.OwnerContact
	err := s.db.
		Where("owner_address IN ?", filtered).
		Where("verified = ?", true).
		Find(&contacts).Error
	return contacts, err
}

func (s *notificationService) buildPayload(ctx context.Context, tx *models.WalletTransaction, wallet *models.Wallet) models.NotificationPayload {
	tokenDecimals := 0
	symbol := ""
	if tx.AssetType == models.AssetTypeERC20 && tx.AssetAddress != nil {
		if ledger, err := s.chains.GetLedger(wallet.Network); err == nil {
			tokenDecimals, _ = ledger.GetTokenDecimals(ctx, *tx.AssetAddress)
			symbol, _ = ledger.GetTokenSymbol(ctx, *tx.AssetAddress)
		}
	}

	explorerURL := ""
	if chain, err := s.chains.GetChain(wallet.Network); err == nil {
		explorerURL = utils.ExplorerAddressURL(chain.ExplorerURL, wallet.ContractAddress)
	}

	return models.NotificationPayload{
		WalletAddress:   wallet.ContractAddress,
		WalletShort:     utils.ShortAddress(wallet.ContractAddress),
		Network:         wallet.Network,
		TxIndex:         tx.TxIndex,
		To:              tx.To,
		ToShort:         utils.ShortAddress(tx.To),
		FormattedAmount: s.assets.FormatAmount(tx.Value, tx.AssetType, tokenDecimals, symbol),
		SubmittedBy:     tx.SubmittedBy,
		ExplorerURL:     explorerURL,
	}
}
