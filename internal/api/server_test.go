package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"testing"

	"github.com/safekeep-labs/multisig-mcp/internal/models"
	"github.com/safekeep-labs/multisig-mcp/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stubLedger struct {
	owners    []string
	threshold uint64
	balance   *big.Int
}

func (s *stubLedger) GetOwners(ctx context.Context, contract string) ([]string, error) {
	return s.owners, nil
}
func (s *stubLedger) GetThreshold(ctx context.Context, contract string) (uint64, error) {
	return s.threshold, nil
}
func (s *stubLedger) GetTransactionCount(ctx context.Context, contract string) (uint64, error) {
	return 0, nil
}
func (s *stubLedger) GetTransaction(ctx context.Context, contract string, index uint64) (*models.LedgerTransaction, error) {
	return &models.LedgerTransaction{}, nil
}
func (s *stubLedger) IsConfirmedBy(ctx context.Context, contract string, index uint64, owner string) (bool, error) {
	return false, nil
}
func (s *stubLedger) GetNativeBalance(ctx context.Context, account string) (*big.Int, error) {
	return s.balance, nil
}
func (s *stubLedger) GetTokenBalance(ctx context.Context, token, account string) (*big.Int, error) {
	return s.balance, nil
}
func (s *stubLedger) GetTokenDecimals(ctx context.Context, token string) (int, error) {
	return 18, nil
}
func (s *stubLedger) GetTokenSymbol(ctx context.Context, token string) (string, error) {
	return "TOK", nil
}
func (s *stubLedger) ProposeTransfer(ctx context.Context, contract string, call models.TransferCall) (string, error) {
	return "0xproposehash", nil
}
func (s *stubLedger) Approve(ctx context.Context, contract string, index uint64) (string, error) {
	return "0xapprovehash", nil
}
func (s *stubLedger) RevokeApproval(ctx context.Context, contract string, index uint64) (string, error) {
	return "0xrevokehash", nil
}
func (s *stubLedger) Execute(ctx context.Context, contract string, index uint64) (string, error) {
	return "0xexecutehash", nil
}
func (s *stubLedger) WaitConfirmed(ctx context.Context, txHash string) error { return nil }

type stubChains struct {
	ledger services.LedgerService
}

func (s *stubChains) UpsertChain(chain *models.Chain) error { return nil }
func (s *stubChains) GetChain(network string) (*models.Chain, error) {
	return &models.Chain{Network: network, RPC: "http://localhost:8545"}, nil
}
func (s *stubChains) ListChains() ([]models.Chain, error) { return nil, nil }
func (s *stubChains) GetLedger(network string) (services.LedgerService, error) {
	return s.ledger, nil
}

type nopSender struct{}

func (nopSender) Send(ctx context.Context, recipient string, payload models.NotificationPayload) error {
	return nil
}

const (
	apiContract = "0x1111111111111111111111111111111111111111"
	apiOwnerA   = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	apiOwnerB   = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func newTestServer(t *testing.T) (*APIServer, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Chain{}, &models.Wallet{}, &models.WalletTransaction{},
		&models.Approval{}, &models.OwnerContact{},
	))

	chains := &stubChains{ledger: &stubLedger{
		owners:    []string{apiOwnerA, apiOwnerB},
		threshold: 2,
		balance:   big.NewInt(1000),
	}}
	wallets := services.NewWalletService(db, chains)
	transactions := services.NewTransactionService(db)
	approvals := services.NewApprovalService(db)
	contacts := services.NewContactService(db)

	assets, err := services.NewAssetService()
	require.NoError(t, err)

	notifications := services.NewNotificationService(db, chains, assets, transactions, nopSender{})
	submissions := services.NewSubmissionService(chains, assets, wallets, transactions, notifications)

	return NewAPIServer(chains, wallets, transactions, submissions, approvals, notifications, contacts), db
}

func doJSON(t *testing.T, server *APIServer, method, path string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEnsureWalletEndpoint(t *testing.T) {
	server, db := newTestServer(t)

	t.Run("hydrates a wallet", func(t *testing.T) {
		resp := doJSON(t, server, http.MethodPost, "/api/wallets/ensure", map[string]string{
			"address": apiContract,
			"network": "sepolia",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, apiContract, body["contract_address"])
		assert.Equal(t, float64(2), body["threshold"])

		var count int64
		db.Model(&models.Wallet{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("malformed address is a 400", func(t *testing.T) {
		resp := doJSON(t, server, http.MethodPost, "/api/wallets/ensure", map[string]string{
			"address": "nope",
			"network": "sepolia",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestApprovalEndpoints(t *testing.T) {
	server, db := newTestServer(t)

	wallet := &models.Wallet{
		ContractAddress: apiContract,
		Network:         "sepolia",
		Owners:          models.AddressList{apiOwnerA, apiOwnerB},
		Threshold:       2,
	}
	require.NoError(t, db.Create(wallet).Error)

	tx := &models.WalletTransaction{
		WalletID:              wallet.ID,
		TxIndex:               0,
		To:                    "0x9999999999999999999999999999999999999999",
		Value:                 "1",
		AssetType:             models.AssetTypeNative,
		SubmittedBy:           apiOwnerA,
		Status:                models.TransactionStatusPending,
		RequiredConfirmations: 2,
	}
	require.NoError(t, db.Create(tx).Error)

	path := fmt.Sprintf("/api/transactions/%d/approve", tx.ID)

	t.Run("records an approval", func(t *testing.T) {
		resp := doJSON(t, server, http.MethodPost, path, map[string]string{
			"approver":         apiOwnerB,
			"transaction_hash": "0xconfirm1",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, false, body["executable"])
	})

	t.Run("double approval is a benign 409", func(t *testing.T) {
		resp := doJSON(t, server, http.MethodPost, path, map[string]string{
			"approver": apiOwnerB,
		})
		require.Equal(t, http.StatusConflict, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, true, body["benign"])
	})

	t.Run("unknown transaction is a 404", func(t *testing.T) {
		resp := doJSON(t, server, http.MethodPost, "/api/transactions/999/approve", map[string]string{
			"approver": apiOwnerB,
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("execution marks the proposal executed", func(t *testing.T) {
		resp := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/transactions/%d/execute", tx.ID), map[string]string{
			"executor":         apiOwnerA,
			"transaction_hash": "0xexec1",
			"gas_used":         "21000",
			"gas_price":        "30000000000",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var record models.WalletTransaction
		require.NoError(t, db.First(&record, tx.ID).Error)
		assert.Equal(t, models.TransactionStatusExecuted, record.Status)
		require.NotNil(t, record.GasUsed)
		assert.Equal(t, "21000", *record.GasUsed)
		require.NotNil(t, record.GasPrice)
		assert.Equal(t, "30000000000", *record.GasPrice)
	})
}

func TestGetTransactionEndpoint(t *testing.T) {
	server, db := newTestServer(t)

	wallet := &models.Wallet{
		ContractAddress: apiContract,
		Network:         "sepolia",
		Owners:          models.AddressList{apiOwnerA, apiOwnerB},
		Threshold:       1,
	}
	require.NoError(t, db.Create(wallet).Error)
	tx := &models.WalletTransaction{
		WalletID: wallet.ID, TxIndex: 0,
		To: "0x9999999999999999999999999999999999999999", Value: "1",
		AssetType: models.AssetTypeNative, SubmittedBy: apiOwnerA,
		Status: models.TransactionStatusPending, RequiredConfirmations: 1,
	}
	require.NoError(t, db.Create(tx).Error)

	resp := doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/transactions/%d", tx.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.NotNil(t, body["transaction"])
	assert.Equal(t, false, body["executable"])
}
