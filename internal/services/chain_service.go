package services

import (
	"errors"
	"sync"

	"github.com/safekeep-labs/multisig-mcp/internal/models"
	"gorm.io/gorm"
)

// ChainService manages the network registry and resolves a network name to
// a LedgerService. Clients are cached per network so that every operation
// within one submission observes the same ledger connection.
type ChainService interface {
	UpsertChain(chain *models.Chain) error
	GetChain(network string) (*models.Chain, error)
	ListChains() ([]models.Chain, error)
	GetLedger(network string) (LedgerService, error)
}

type chainService struct {
	db     *gorm.DB
	signer TransactionSigner

	mu      sync.Mutex
	ledgers map[string]LedgerService
}

// NewChainService creates a new ChainService
func NewChainService(db *gorm.DB, signer TransactionSigner) ChainService {
	return &chainService{
		db:      db,
		signer:  signer,
		ledgers: make(map[string]LedgerService),
	}
}

// UpsertChain creates or updates the configuration for a network
func (s *chainService) UpsertChain(chain *models.Chain) error {
	var existing models.Chain
	err := s.db.Where("network = ?", chain.Network).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.db.Create(chain).Error; err != nil {
			return &MirrorWriteError{Err: err}
		}
		return nil
	} else if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"rpc":      chain.RPC,
		"chain_id": chain.ChainID,
	}
	if chain.ExplorerURL != "" {
		updates["explorer_url"] = chain.ExplorerURL
	}
	if err := s.db.Model(&existing).Updates(updates).Error; err != nil {
		return &MirrorWriteError{Err: err}
	}

	// Drop any cached client so the next GetLedger dials the new RPC.
	s.mu.Lock()
	delete(s.ledgers, chain.Network)
	s.mu.Unlock()

	return nil
}

// GetChain returns the configuration for a network
func (s *chainService) GetChain(network string) (*models.Chain, error) {
	var chain models.Chain
	err := s.db.Where("network = ?", network).First(&chain).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChainNotFound
	} else if err != nil {
		return nil, err
	}
	return &chain, nil
}

// ListChains returns all configured networks
func (s *chainService) ListChains() ([]models.Chain, error) {
	var chains []models.Chain
	err := s.db.Find(&chains).Error
	return chains, err
}

// GetLedger returns the cached LedgerService for a network, dialing it on
// first use.
func (s *chainService) GetLedger(network string) (LedgerService, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ledger, ok := s.ledgers[network]; ok {
		return ledger, nil
	}

	chain, err := s.GetChain(network)
	if err != nil {
		return nil, err
	}

	ledger, err := NewEthLedgerService(chain.RPC, s.signer)
	if err != nil {
		return nil, err
	}

	s.ledgers[network] = ledger
	return ledger, nil
}
