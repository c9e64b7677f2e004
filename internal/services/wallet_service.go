package services

import (
	"context"
	"errors"

	"github.com/safekeep-labs/multisig-mcp/internal/logger"
	"github.com/safekeep-labs/multisig-mcp/internal/models"
	"github.com/safekeep-labs/multisig-mcp/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WalletService is the mirror side of the reconciler: CRUD over wallet
// records plus EnsureWallet, which lazily hydrates a record from the ledger
// when the mirror has never seen the contract.
type WalletService interface {
	CreateWallet(wallet *models.Wallet) error
	GetWallet(contractAddress, network string) (*models.Wallet, error)
	GetWalletByID(id uint) (*models.Wallet, error)
	ListWalletsByOwner(owner string) ([]models.Wallet, error)
	EnsureWallet(ctx context.Context, contractAddress, network string) (*models.Wallet, error)
}

type walletService struct {
	db     *gorm.DB
	chains ChainService
}

// NewWalletService creates a new WalletService
func NewWalletService(db *gorm.DB, chains ChainService) WalletService {
	return &walletService{db: db, chains: chains}
}

// CreateWallet inserts a wallet record created explicitly at deployment time.
func (s *walletService) CreateWallet(wallet *models.Wallet) error {
	wallet.ContractAddress = utils.NormalizeAddress(wallet.ContractAddress)
	wallet.Owners = utils.NormalizeAddresses(wallet.Owners)
	wallet.CreatedBy = utils.NormalizeAddress(wallet.CreatedBy)

	if err := s.db.Create(wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrIndexConflict
		}
		return &MirrorWriteError{Err: err}
	}
	return nil
}

// GetWallet returns the mirror record for a contract address on a network.
func (s *walletService) GetWallet(contractAddress, network string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.
		Where("contract_address = ? AND network = ?", utils.NormalizeAddress(contractAddress), network).
		First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	} else if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// GetWalletByID returns a wallet record by its mirror id.
func (s *walletService) GetWalletByID(id uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.First(&wallet, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	} else if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// ListWalletsByOwner returns every mirrored wallet whose owner set contains
// the address.
func (s *walletService) ListWalletsByOwner(owner string) ([]models.Wallet, error) {
	owner = utils.NormalizeAddress(owner)

	// Owners is a JSON text column; match on the quoted address. Addresses
	// are stored lowercase so the LIKE is exact.
	var wallets []models.Wallet
	err := s.db.Where("owners LIKE ?", "%\""+owner+"\"%").Find(&wallets).Error
	return wallets, err
}

// EnsureWallet guarantees a mirror record exists for the contract,
// hydrating it from the ledger when absent. Idempotent under concurrent
// invocation: the unique (contract_address, network) index decides the
// winner and the loser re-reads the winning row.
func (s *walletService) EnsureWallet(ctx context.Context, contractAddress, network string) (*models.Wallet, error) {
	contractAddress = utils.NormalizeAddress(contractAddress)

	wallet, err := s.GetWallet(contractAddress, network)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, ErrWalletNotFound) {
		return nil, err
	}

	ledger, err := s.chains.GetLedger(network)
	if err != nil {
		return nil, err
	}

	owners, err := ledger.GetOwners(ctx, contractAddress)
	if err != nil {
		return nil, err
	}
	if len(owners) == 0 {
		return nil, &LedgerReadError{Op: "getOwners", Err: errors.New("contract reports no owners; not a multi-owner wallet")}
	}

	threshold, err := ledger.GetThreshold(ctx, contractAddress)
	if err != nil {
		return nil, err
	}

	record := &models.Wallet{
		ContractAddress: contractAddress,
		Network:         network,
		Owners:          utils.NormalizeAddresses(owners),
		Threshold:       threshold,
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the insert race; the winner's row is the record.
			logger.Debug("wallet hydration lost insert race, re-reading",
				zap.String("contract", contractAddress), zap.String("network", network))
			return s.GetWallet(contractAddress, network)
		}
		return nil, &MirrorWriteError{Err: err}
	}

	logger.Info("hydrated wallet mirror from ledger",
		zap.String("contract", contractAddress),
		zap.String("network", network),
		zap.Int("owners", len(owners)),
		zap.Uint64("threshold", threshold))

	return record, nil
}
