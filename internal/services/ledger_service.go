package services

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/safekeep-labs/multisig-mcp/internal/constants"
	"github.com/safekeep-labs/multisig-mcp/internal/models"
	"github.com/safekeep-labs/multisig-mcp/internal/utils"
)

// TransactionSigner broadcasts a signed call and returns its hash. Key
// management lives entirely behind this interface; the engine never sees a
// private key.
type TransactionSigner interface {
	SubmitCall(ctx context.Context, to string, data []byte, value *big.Int) (string, error)
}

// LedgerService is the engine's read/call access to one network's
// multi-owner wallet and token contracts. Reads go straight to the node;
// chain-mutating operations are packed here and handed to the signer, and
// are never retried by the engine.
type LedgerService interface {
	GetOwners(ctx context.Context, contract string) ([]string, error)
	GetThreshold(ctx context.Context, contract string) (uint64, error)
	GetTransactionCount(ctx context.Context, contract string) (uint64, error)
	GetTransaction(ctx context.Context, contract string, index uint64) (*models.LedgerTransaction, error)
	IsConfirmedBy(ctx context.Context, contract string, index uint64, owner string) (bool, error)

	GetNativeBalance(ctx context.Context, account string) (*big.Int, error)
	GetTokenBalance(ctx context.Context, token, account string) (*big.Int, error)
	GetTokenDecimals(ctx context.Context, token string) (int, error)
	GetTokenSymbol(ctx context.Context, token string) (string, error)

	ProposeTransfer(ctx context.Context, contract string, call models.TransferCall) (string, error)
	Approve(ctx context.Context, contract string, index uint64) (string, error)
	RevokeApproval(ctx context.Context, contract string, index uint64) (string, error)
	Execute(ctx context.Context, contract string, index uint64) (string, error)

	// WaitConfirmed blocks until the call identified by txHash is mined,
	// polling receipts with exponential backoff. Read-only, safe to retry.
	WaitConfirmed(ctx context.Context, txHash string) error
}

type ethLedgerService struct {
	client    *ethclient.Client
	signer    TransactionSigner
	walletABI abi.ABI
	erc20ABI  abi.ABI
}

// NewEthLedgerService dials the network's RPC endpoint and wires the signer
// collaborator for call submission.
func NewEthLedgerService(rpcURL string, signer TransactionSigner) (LedgerService, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc %s: %w", rpcURL, err)
	}

	walletABI, err := abi.JSON(strings.NewReader(constants.MultiOwnerWalletABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse wallet ABI: %w", err)
	}

	erc20ABI, err := abi.JSON(strings.NewReader(constants.ERC20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC-20 ABI: %w", err)
	}

	return &ethLedgerService{
		client:    client,
		signer:    signer,
		walletABI: walletABI,
		erc20ABI:  erc20ABI,
	}, nil
}

func (s *ethLedgerService) GetOwners(ctx context.Context, contract string) ([]string, error) {
	var owners []common.Address
	if err := s.read(ctx, s.walletABI, contract, "getOwners", &owners); err != nil {
		return nil, &LedgerReadError{Op: "getOwners", Err: err}
	}

	out := make([]string, len(owners))
	for i, o := range owners {
		out[i] = utils.NormalizeAddress(o.Hex())
	}
	return out, nil
}

func (s *ethLedgerService) GetThreshold(ctx context.Context, contract string) (uint64, error) {
	var required *big.Int
	if err := s.read(ctx, s.walletABI, contract, "required", &required); err != nil {
		return 0, &LedgerReadError{Op: "required", Err: err}
	}
	return required.Uint64(), nil
}

func (s *ethLedgerService) GetTransactionCount(ctx context.Context, contract string) (uint64, error) {
	var count *big.Int
	if err := s.read(ctx, s.walletABI, contract, "transactionCount", &count); err != nil {
		return 0, &LedgerReadError{Op: "transactionCount", Err: err}
	}
	return count.Uint64(), nil
}

func (s *ethLedgerService) GetTransaction(ctx context.Context, contract string, index uint64) (*models.LedgerTransaction, error) {
	data, err := s.walletABI.Pack("transactions", new(big.Int).SetUint64(index))
	if err != nil {
		return nil, &LedgerReadError{Op: "transactions", Err: err}
	}

	raw, err := s.call(ctx, contract, data)
	if err != nil {
		return nil, &LedgerReadError{Op: "transactions", Err: err}
	}

	values, err := s.walletABI.Unpack("transactions", raw)
	if err != nil || len(values) != 4 {
		return nil, &LedgerReadError{Op: "transactions", Err: fmt.Errorf("failed to unpack transaction %d: %w", index, err)}
	}

	destination, _ := values[0].(common.Address)
	value, _ := values[1].(*big.Int)
	calldata, _ := values[2].([]byte)
	executed, _ := values[3].(bool)

	var confirmations *big.Int
	if err := s.read(ctx, s.walletABI, contract, "getConfirmationCount", &confirmations, new(big.Int).SetUint64(index)); err != nil {
		return nil, &LedgerReadError{Op: "getConfirmationCount", Err: err}
	}

	tx := &models.LedgerTransaction{
		To:            utils.NormalizeAddress(destination.Hex()),
		Value:         value.String(),
		Executed:      executed,
		Confirmations: confirmations.Uint64(),
	}
	if len(calldata) > 0 {
		tx.Data = hexutil.Encode(calldata)
	}
	return tx, nil
}

func (s *ethLedgerService) IsConfirmedBy(ctx context.Context, contract string, index uint64, owner string) (bool, error) {
	if !common.IsHexAddress(owner) {
		return false, &LedgerReadError{Op: "confirmations", Err: fmt.Errorf("invalid owner address %s", owner)}
	}

	var confirmed bool
	err := s.read(ctx, s.walletABI, contract, "confirmations", &confirmed,
		new(big.Int).SetUint64(index), common.HexToAddress(owner))
	if err != nil {
		return false, &LedgerReadError{Op: "confirmations", Err: err}
	}
	return confirmed, nil
}

func (s *ethLedgerService) GetNativeBalance(ctx context.Context, account string) (*big.Int, error) {
	if !common.IsHexAddress(account) {
		return nil, &LedgerReadError{Op: "getBalance", Err: fmt.Errorf("invalid address %s", account)}
	}

	balance, err := s.client.BalanceAt(ctx, common.HexToAddress(account), nil)
	if err != nil {
		return nil, &LedgerReadError{Op: "getBalance", Err: err}
	}
	return balance, nil
}

func (s *ethLedgerService) GetTokenBalance(ctx context.Context, token, account string) (*big.Int, error) {
	if !common.IsHexAddress(account) {
		return nil, &LedgerReadError{Op: "balanceOf", Err: fmt.Errorf("invalid address %s", account)}
	}

	var balance *big.Int
	if err := s.read(ctx, s.erc20ABI, token, "balanceOf", &balance, common.HexToAddress(account)); err != nil {
		return nil, &LedgerReadError{Op: "balanceOf", Err: err}
	}
	return balance, nil
}

func (s *ethLedgerService) GetTokenDecimals(ctx context.Context, token string) (int, error) {
	var decimals uint8
	if err := s.read(ctx, s.erc20ABI, token, "decimals", &decimals); err != nil {
		// Plenty of tokens omit decimals(); fall back rather than fail.
		return constants.DefaultTokenDecimals, nil
	}
	return int(decimals), nil
}

func (s *ethLedgerService) GetTokenSymbol(ctx context.Context, token string) (string, error) {
	var symbol string
	if err := s.read(ctx, s.erc20ABI, token, "symbol", &symbol); err != nil {
		return "", nil
	}
	return symbol, nil
}

func (s *ethLedgerService) ProposeTransfer(ctx context.Context, contract string, call models.TransferCall) (string, error) {
	value, ok := new(big.Int).SetString(call.Value, 10)
	if !ok {
		return "", &LedgerCallError{Op: "submitTransaction", Err: fmt.Errorf("invalid value %q", call.Value)}
	}

	var calldata []byte
	if call.Data != "" {
		decoded, err := hexutil.Decode(call.Data)
		if err != nil {
			return "", &LedgerCallError{Op: "submitTransaction", Err: fmt.Errorf("invalid calldata: %w", err)}
		}
		calldata = decoded
	}

	packed, err := s.walletABI.Pack("submitTransaction", common.HexToAddress(call.To), value, calldata)
	if err != nil {
		return "", &LedgerCallError{Op: "submitTransaction", Err: err}
	}

	hash, err := s.signer.SubmitCall(ctx, contract, packed, big.NewInt(0))
	if err != nil {
		return "", &LedgerCallError{Op: "submitTransaction", Err: err}
	}
	return hash, nil
}

func (s *ethLedgerService) Approve(ctx context.Context, contract string, index uint64) (string, error) {
	return s.submitIndexed(ctx, contract, "confirmTransaction", index)
}

func (s *ethLedgerService) RevokeApproval(ctx context.Context, contract string, index uint64) (string, error) {
	return s.submitIndexed(ctx, contract, "revokeConfirmation", index)
}

func (s *ethLedgerService) Execute(ctx context.Context, contract string, index uint64) (string, error) {
	return s.submitIndexed(ctx, contract, "executeTransaction", index)
}

func (s *ethLedgerService) WaitConfirmed(ctx context.Context, txHash string) error {
	hash := common.HexToHash(txHash)

	operation := func() error {
		receipt, err := s.client.TransactionReceipt(ctx, hash)
		if err != nil {
			// Not mined yet (or node lag); keep polling.
			return fmt.Errorf("receipt for %s not available: %w", txHash, err)
		}
		if receipt.Status == 0 {
			return backoff.Permanent(fmt.Errorf("call %s reverted", txHash))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 15 * time.Second
	b.MaxElapsedTime = 5 * time.Minute

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return &LedgerReadError{Op: "waitConfirmed", Err: err}
	}
	return nil
}

func (s *ethLedgerService) submitIndexed(ctx context.Context, contract, method string, index uint64) (string, error) {
	packed, err := s.walletABI.Pack(method, new(big.Int).SetUint64(index))
	if err != nil {
		return "", &LedgerCallError{Op: method, Err: err}
	}

	hash, err := s.signer.SubmitCall(ctx, contract, packed, big.NewInt(0))
	if err != nil {
		return "", &LedgerCallError{Op: method, Err: err}
	}
	return hash, nil
}

// read packs a view call, executes it, and unpacks the single result into out.
func (s *ethLedgerService) read(ctx context.Context, contractABI abi.ABI, contract, method string, out interface{}, args ...interface{}) error {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("failed to pack %s: %w", method, err)
	}

	raw, err := s.call(ctx, contract, data)
	if err != nil {
		return err
	}

	results, err := contractABI.Unpack(method, raw)
	if err != nil {
		return fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	if len(results) == 0 {
		return fmt.Errorf("%s returned no data", method)
	}

	return assignResult(out, results[0])
}

func (s *ethLedgerService) call(ctx context.Context, contract string, data []byte) ([]byte, error) {
	if !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("invalid contract address %s", contract)
	}

	to := common.HexToAddress(contract)
	return s.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

func assignResult(out, value interface{}) error {
	switch dst := out.(type) {
	case *[]common.Address:
		v, ok := value.([]common.Address)
		if !ok {
			return fmt.Errorf("expected []common.Address, got %T", value)
		}
		*dst = v
	case **big.Int:
		v, ok := value.(*big.Int)
		if !ok {
			return fmt.Errorf("expected *big.Int, got %T", value)
		}
		*dst = v
	case *bool:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		*dst = v
	case *uint8:
		v, ok := value.(uint8)
		if !ok {
			return fmt.Errorf("expected uint8, got %T", value)
		}
		*dst = v
	case *string:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		*dst = v
	default:
		return fmt.Errorf("unsupported result type %T", out)
	}
	return nil
}
