package services

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/safekeep-labs/multisig-mcp/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// In-memory SQLite; TranslateError must match production so duplicate
	// inserts surface as gorm.ErrDuplicatedKey.
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "Failed to connect to in-memory database")

	// A second pooled connection would see its own empty :memory: database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Chain{},
		&models.Wallet{},
		&models.WalletTransaction{},
		&models.Approval{},
		&models.OwnerContact{},
	)
	require.NoError(t, err, "Failed to run migrations")

	if testing.Verbose() {
		db = db.Debug()
	}

	return db
}

// fakeLedger is an in-memory LedgerService. GetTransactionCount returns the
// queued counts in order, repeating the last one; Propose/Approve/Execute
// return canned hashes.
type fakeLedger struct {
	mu sync.Mutex

	owners    []string
	threshold uint64

	counts    []uint64
	countErrs []error
	countIdx  int

	proposeHash string
	proposeErr  error
	waitErr     error

	tokenDecimals int
	tokenSymbol   string

	nativeBalance *big.Int
	tokenBalance  *big.Int

	ownersErr error
}

func (f *fakeLedger) GetOwners(ctx context.Context, contract string) ([]string, error) {
	if f.ownersErr != nil {
		return nil, f.ownersErr
	}
	return f.owners, nil
}

func (f *fakeLedger) GetThreshold(ctx context.Context, contract string) (uint64, error) {
	return f.threshold, nil
}

func (f *fakeLedger) GetTransactionCount(ctx context.Context, contract string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.countIdx
	if i >= len(f.counts) {
		i = len(f.counts) - 1
	}
	f.countIdx++

	if i < 0 {
		return 0, nil
	}
	if i < len(f.countErrs) && f.countErrs[i] != nil {
		return 0, f.countErrs[i]
	}
	return f.counts[i], nil
}

func (f *fakeLedger) GetTransaction(ctx context.Context, contract string, index uint64) (*models.LedgerTransaction, error) {
	return &models.LedgerTransaction{}, nil
}

func (f *fakeLedger) IsConfirmedBy(ctx context.Context, contract string, index uint64, owner string) (bool, error) {
	return false, nil
}

func (f *fakeLedger) GetNativeBalance(ctx context.Context, account string) (*big.Int, error) {
	if f.nativeBalance == nil {
		return big.NewInt(0), nil
	}
	return f.nativeBalance, nil
}

func (f *fakeLedger) GetTokenBalance(ctx context.Context, token, account string) (*big.Int, error) {
	if f.tokenBalance == nil {
		return big.NewInt(0), nil
	}
	return f.tokenBalance, nil
}

func (f *fakeLedger) GetTokenDecimals(ctx context.Context, token string) (int, error) {
	if f.tokenDecimals == 0 {
		return 18, nil
	}
	return f.tokenDecimals, nil
}

func (f *fakeLedger) GetTokenSymbol(ctx context.Context, token string) (string, error) {
	return f.tokenSymbol, nil
}

func (f *fakeLedger) ProposeTransfer(ctx context.Context, contract string, call models.TransferCall) (string, error) {
	if f.proposeErr != nil {
		return "", f.proposeErr
	}
	if f.proposeHash == "" {
		return "0xproposehash", nil
	}
	return f.proposeHash, nil
}

func (f *fakeLedger) Approve(ctx context.Context, contract string, index uint64) (string, error) {
	return "0xapprovehash", nil
}

func (f *fakeLedger) RevokeApproval(ctx context.Context, contract string, index uint64) (string, error) {
	return "0xrevokehash", nil
}

func (f *fakeLedger) Execute(ctx context.Context, contract string, index uint64) (string, error) {
	return "0xexecutehash", nil
}

func (f *fakeLedger) WaitConfirmed(ctx context.Context, txHash string) error {
	return f.waitErr
}

// fakeChains resolves every network to the same fake ledger.
type fakeChains struct {
	ledger *fakeLedger
	chain  *models.Chain
}

func (f *fakeChains) UpsertChain(chain *models.Chain) error { return nil }

func (f *fakeChains) GetChain(network string) (*models.Chain, error) {
	if f.chain == nil {
		return nil, ErrChainNotFound
	}
	return f.chain, nil
}

func (f *fakeChains) ListChains() ([]models.Chain, error) {
	if f.chain == nil {
		return nil, nil
	}
	return []models.Chain{*f.chain}, nil
}

func (f *fakeChains) GetLedger(network string) (LedgerService, error) {
	if f.ledger == nil {
		return nil, ErrChainNotFound
	}
	return f.ledger, nil
}

// recordingSender captures every dispatched message; recipients listed in
// failFor return an error instead.
type recordingSender struct {
	mu         sync.Mutex
	recipients []string
	failFor    map[string]error
}

func (s *recordingSender) Send(ctx context.Context, recipient string, payload models.NotificationPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.failFor[recipient]; ok {
		return err
	}
	s.recipients = append(s.recipients, recipient)
	return nil
}

func (s *recordingSender) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.recipients...)
}

// recordingNotifier stands in for the dispatcher in submission tests.
type recordingNotifier struct {
	mu        sync.Mutex
	calls     []uint
	approvers [][]string
	err       error
}

func (n *recordingNotifier) Notify(ctx context.Context, transactionID uint, approverAddresses []string) (models.NotificationResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls = append(n.calls, transactionID)
	n.approvers = append(n.approvers, approverAddresses)
	if n.err != nil {
		return models.NotificationResult{}, n.err
	}
	return models.NotificationResult{Sent: len(approverAddresses), Total: len(approverAddresses)}, nil
}
