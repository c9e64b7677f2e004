package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/safekeep-labs/multisig-mcp/internal/constants"
	"github.com/safekeep-labs/multisig-mcp/internal/logger"
	"github.com/safekeep-labs/multisig-mcp/internal/models"
	"github.com/safekeep-labs/multisig-mcp/internal/utils"
	"go.uber.org/zap"
)

// SubmissionService drives proposing a transfer: validation, payload
// encoding, the propose call, index-race resolution, mirror persistence,
// and notification hand-off.
type SubmissionService interface {
	SubmitTransfer(ctx context.Context, req SubmitTransferRequest) (*models.WalletTransaction, error)
}

type SubmitTransferRequest struct {
	ContractAddress string           `json:"contract_address" validate:"required"`
	Network         string           `json:"network" validate:"required"`
	To              string           `json:"to" validate:"required"`
	AssetType       models.AssetType `json:"asset_type" validate:"required,oneof=native erc20"`
	AssetAddress    string           `json:"asset_address,omitempty"`
	// Amount is the human decimal amount, e.g. "1.5".
	Amount string `json:"amount" validate:"required"`
	// BalanceSnapshot is the wallet's balance for the asset in smallest
	// units, obtained by the caller before invocation. The coordinator does
	// not re-fetch balances.
	BalanceSnapshot   string   `json:"balance_snapshot" validate:"required"`
	ExpirationDays    *int     `json:"expiration_days,omitempty"`
	SubmittedBy       string   `json:"submitted_by" validate:"required"`
	SelectedApprovers []string `json:"selected_approvers" validate:"required,min=1"`
}

type submissionService struct {
	validator     *validator.Validate
	chains        ChainService
	assets        AssetService
	wallets       WalletService
	transactions  TransactionService
	notifications NotificationService
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(chains ChainService, assets AssetService, wallets WalletService, transactions TransactionService, notifications NotificationService) SubmissionService {
	return &submissionService{
		validator:     validator.New(),
		chains:        chains,
		assets:        assets,
		wallets:       wallets,
		transactions:  transactions,
		notifications: notifications,
	}
}

// SubmitTransfer proposes a transfer on the ledger and mirrors it.
//
// The ledger's propose call returns a hash but not the resulting index; the
// transaction list can grow from concurrent submissions before this
// caller's confirmation lands. The count is therefore read before the call
// as a provisional index and re-read after confirmation, and the post-call
// count minus one wins on disagreement. Both reads go through the same
// ledger connection.
func (s *submissionService) SubmitTransfer(ctx context.Context, req SubmitTransferRequest) (*models.WalletTransaction, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	ledger, err := s.chains.GetLedger(req.Network)
	if err != nil {
		return nil, err
	}

	contract := utils.NormalizeAddress(req.ContractAddress)

	threshold, err := s.resolveThreshold(ctx, ledger, contract, req.Network)
	if err != nil {
		return nil, err
	}
	if uint64(len(req.SelectedApprovers)) < threshold {
		return nil, &ValidationError{
			Field:  "selected_approvers",
			Reason: fmt.Sprintf("need at least %d approvers, got %d", threshold, len(req.SelectedApprovers)),
		}
	}

	tokenDecimals := constants.NativeDecimals
	if req.AssetType == models.AssetTypeERC20 {
		tokenDecimals, err = ledger.GetTokenDecimals(ctx, req.AssetAddress)
		if err != nil {
			return nil, err
		}
	}

	amount, err := s.assets.ParseAmount(req.Amount, req.AssetType, tokenDecimals)
	if err != nil {
		return nil, err
	}

	snapshot, ok := new(big.Int).SetString(req.BalanceSnapshot, 10)
	if !ok {
		return nil, &ValidationError{Field: "balance_snapshot", Reason: "not a decimal integer"}
	}
	if amount.Cmp(snapshot) > 0 {
		return nil, &ValidationError{Field: "amount", Reason: "exceeds wallet balance"}
	}

	call, err := s.assets.BuildTransferCall(BuildTransferCallArgs{
		AssetType:    req.AssetType,
		To:           req.To,
		AssetAddress: req.AssetAddress,
		Amount:       amount,
	})
	if err != nil {
		return nil, err
	}

	var expirationTime *time.Time
	if req.ExpirationDays != nil && *req.ExpirationDays > 0 {
		t := time.Now().AddDate(0, 0, *req.ExpirationDays)
		expirationTime = &t
	}

	// Provisional index: the count observed strictly before the propose call.
	countBefore, err := ledger.GetTransactionCount(ctx, contract)
	if err != nil {
		return nil, err
	}

	callHash, err := ledger.ProposeTransfer(ctx, contract, call)
	if err != nil {
		return nil, err
	}

	if err := ledger.WaitConfirmed(ctx, callHash); err != nil {
		return nil, err
	}

	// Canonical resolution: the post-call count minus one. A mismatch with
	// the provisional index means other submissions interleaved; the ledger
	// remains authoritative either way.
	txIndex := countBefore
	if countAfter, err := ledger.GetTransactionCount(ctx, contract); err == nil && countAfter > 0 {
		txIndex = countAfter - 1
		if txIndex != countBefore {
			logger.Info("transaction index race resolved by post-call count",
				zap.String("contract", contract),
				zap.Uint64("provisional", countBefore),
				zap.Uint64("resolved", txIndex))
		}
	} else if err != nil {
		logger.Warn("post-call count re-read failed, keeping provisional index",
			zap.String("contract", contract),
			zap.Uint64("provisional", countBefore),
			zap.Error(err))
	}

	wallet, err := s.wallets.EnsureWallet(ctx, contract, req.Network)
	if err != nil {
		// The proposal is already on-chain; the mirror is behind, not wrong.
		return nil, &MirrorSyncError{CallHash: callHash, Err: err}
	}

	record := &models.WalletTransaction{
		WalletID:              wallet.ID,
		TxIndex:               txIndex,
		To:                    utils.NormalizeAddress(req.To),
		Value:                 amount.String(),
		AssetType:             req.AssetType,
		SubmittedBy:           utils.NormalizeAddress(req.SubmittedBy),
		Status:                models.TransactionStatusPending,
		CurrentConfirmations:  0,
		RequiredConfirmations: wallet.Threshold,
		ExpirationTime:        expirationTime,
		TransactionHash:       callHash,
	}
	if req.AssetType == models.AssetTypeERC20 {
		assetAddr := utils.NormalizeAddress(req.AssetAddress)
		record.AssetAddress = &assetAddr
	}

	if err := s.transactions.CreateTransaction(record); err != nil {
		return nil, &MirrorSyncError{CallHash: callHash, Err: err}
	}
	record.Wallet = *wallet

	// Dispatcher failures never roll back the submission: the proposal is
	// irreversibly on-chain.
	if _, err := s.notifications.Notify(ctx, record.ID, utils.NormalizeAddresses(req.SelectedApprovers)); err != nil {
		logger.Warn("notification dispatch failed",
			zap.Uint("transaction_id", record.ID), zap.Error(err))
	}

	return record, nil
}

func (s *submissionService) validate(req SubmitTransferRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	if err := utils.ValidateAddress("contract", req.ContractAddress); err != nil {
		return &ValidationError{Field: "contract_address", Reason: err.Error()}
	}
	if err := utils.ValidateAddress("recipient", req.To); err != nil {
		return &ValidationError{Field: "to", Reason: err.Error()}
	}
	if err := utils.ValidateAddress("submitter", req.SubmittedBy); err != nil {
		return &ValidationError{Field: "submitted_by", Reason: err.Error()}
	}
	if req.AssetType == models.AssetTypeERC20 {
		if err := utils.ValidateAddress("token", req.AssetAddress); err != nil {
			return &ValidationError{Field: "asset_address", Reason: err.Error()}
		}
	}
	for _, approver := range req.SelectedApprovers {
		if err := utils.ValidateAddress("approver", approver); err != nil {
			return &ValidationError{Field: "selected_approvers", Reason: err.Error()}
		}
	}
	return nil
}

// resolveThreshold prefers the mirrored wallet record; a never-seen wallet
// falls back to a ledger read without writing any partial record.
func (s *submissionService) resolveThreshold(ctx context.Context, ledger LedgerService, contract, network string) (uint64, error) {
	wallet, err := s.wallets.GetWallet(contract, network)
	if err == nil {
		return wallet.Threshold, nil
	}
	if !errors.Is(err, ErrWalletNotFound) {
		return 0, err
	}
	return ledger.GetThreshold(ctx, contract)
}
