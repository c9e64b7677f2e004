package services

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-playground/validator/v10"
	"github.com/safekeep-labs/multisig-mcp/internal/constants"
	"github.com/safekeep-labs/multisig-mcp/internal/models"
	"github.com/safekeep-labs/multisig-mcp/internal/utils"
)

// AssetService builds the call payload and value for a transfer of a given
// asset type, and converts amounts between human decimal strings and the
// asset's smallest unit.
type AssetService interface {
	BuildTransferCall(args BuildTransferCallArgs) (models.TransferCall, error)
	ParseAmount(amount string, assetType models.AssetType, tokenDecimals int) (*big.Int, error)
	FormatAmount(value string, assetType models.AssetType, tokenDecimals int, symbol string) string
}

type BuildTransferCallArgs struct {
	AssetType    models.AssetType `validate:"required,oneof=native erc20"`
	To           string           `validate:"required"`
	AssetAddress string           `validate:"omitempty"` // required for erc20
	// Amount in the asset's smallest unit.
	Amount *big.Int `validate:"required"`
}

type assetService struct {
	validator *validator.Validate
	erc20ABI  abi.ABI
}

// NewAssetService creates a new AssetService
func NewAssetService() (AssetService, error) {
	erc20ABI, err := abi.JSON(strings.NewReader(constants.ERC20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC-20 ABI: %w", err)
	}
	return &assetService{
		validator: validator.New(),
		erc20ABI:  erc20ABI,
	}, nil
}

// BuildTransferCall returns the proposal payload: a native transfer carries
// the value with empty calldata, a token transfer carries an encoded
// transfer(to, amount) call with zero value.
func (s *assetService) BuildTransferCall(args BuildTransferCallArgs) (models.TransferCall, error) {
	if err := s.validator.Struct(args); err != nil {
		return models.TransferCall{}, err
	}
	if err := utils.ValidateAddress("recipient", args.To); err != nil {
		return models.TransferCall{}, &ValidationError{Field: "to", Reason: err.Error()}
	}
	if args.Amount.Sign() <= 0 {
		return models.TransferCall{}, &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	switch args.AssetType {
	case models.AssetTypeNative:
		return models.TransferCall{
			To:    utils.NormalizeAddress(args.To),
			Value: args.Amount.String(),
			Data:  "",
		}, nil

	case models.AssetTypeERC20:
		if err := utils.ValidateAddress("token", args.AssetAddress); err != nil {
			return models.TransferCall{}, &ValidationError{Field: "asset_address", Reason: err.Error()}
		}

		calldata, err := s.erc20ABI.Pack("transfer", common.HexToAddress(args.To), args.Amount)
		if err != nil {
			return models.TransferCall{}, fmt.Errorf("failed to encode transfer call: %w", err)
		}

		return models.TransferCall{
			To:    utils.NormalizeAddress(args.AssetAddress),
			Value: "0",
			Data:  hexutil.Encode(calldata),
		}, nil

	default:
		return models.TransferCall{}, &ValidationError{Field: "asset_type", Reason: fmt.Sprintf("unsupported asset type %s", args.AssetType)}
	}
}

// ParseAmount converts a human decimal amount to the asset's smallest unit.
func (s *assetService) ParseAmount(amount string, assetType models.AssetType, tokenDecimals int) (*big.Int, error) {
	decimals := constants.NativeDecimals
	if assetType == models.AssetTypeERC20 {
		decimals = tokenDecimals
	}

	parsed, err := utils.ParseAmount(amount, decimals)
	if err != nil {
		return nil, &ValidationError{Field: "amount", Reason: err.Error()}
	}
	return parsed, nil
}

// FormatAmount renders a smallest-unit decimal string for display. Invalid
// input is returned as-is rather than hidden behind an error: display
// formatting must never fail a workflow.
func (s *assetService) FormatAmount(value string, assetType models.AssetType, tokenDecimals int, symbol string) string {
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return value
	}

	decimals := constants.NativeDecimals
	if assetType == models.AssetTypeERC20 {
		decimals = tokenDecimals
	}
	if symbol == "" && assetType == models.AssetTypeNative {
		symbol = "ETH"
	}

	return utils.FormatAmountWithSymbol(parsed, decimals, symbol)
}
