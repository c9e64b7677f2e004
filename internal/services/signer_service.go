package services

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// keyedSigner signs and broadcasts calls with a locally held key. Intended
// for development and single-operator deployments; production setups plug in
// their own TransactionSigner (HSM, remote signer, etc.).
type keyedSigner struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int

	mu sync.Mutex
}

// NewKeyedSigner dials rpcURL and signs with the given hex-encoded private
// key. The chain ID is fetched from the node once at construction.
func NewKeyedSigner(rpcURL, privateKeyHex string) (TransactionSigner, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial signer rpc %s: %w", rpcURL, err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid signer private key: %w", err)
	}

	chainID, err := client.ChainID(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain id: %w", err)
	}

	return &keyedSigner{
		client:  client,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
	}, nil
}

// SubmitCall broadcasts one signed call and returns its hash. Nonce fetch,
// sign, and send are serialized so concurrent submissions can't reuse a
// nonce.
func (s *keyedSigner) SubmitCall(ctx context.Context, to string, data []byte, value *big.Int) (string, error) {
	if !common.IsHexAddress(to) {
		return "", fmt.Errorf("invalid call target %s", to)
	}
	target := common.HexToAddress(to)

	s.mu.Lock()
	defer s.mu.Unlock()

	nonce, err := s.client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return "", fmt.Errorf("failed to fetch nonce: %w", err)
	}

	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch gas price: %w", err)
	}

	gasLimit, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  s.from,
		To:    &target,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return "", fmt.Errorf("gas estimation failed: %w", err)
	}

	tx := types.NewTransaction(nonce, target, value, gasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign call: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("failed to broadcast call: %w", err)
	}
	return signed.Hash().Hex(), nil
}
