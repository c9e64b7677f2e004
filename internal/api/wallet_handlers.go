package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/safekeep-labs/multisig-mcp/internal/models"
	"github.com/safekeep-labs/multisig-mcp/internal/services"
	"github.com/safekeep-labs/multisig-mcp/internal/utils"
)

type ensureWalletRequest struct {
	Address string `json:"address"`
	Network string `json:"network"`
}

// handleEnsureWallet guarantees a mirror record exists for the contract,
// lazily hydrating from the ledger when the mirror has never seen it.
func (s *APIServer) handleEnsureWallet(c *fiber.Ctx) error {
	var req ensureWalletRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if !utils.IsValidAddress(req.Address) {
		return renderError(c, &services.ValidationError{Field: "address", Reason: "malformed address"})
	}
	if req.Network == "" {
		return renderError(c, &services.ValidationError{Field: "network", Reason: "required"})
	}

	wallet, err := s.wallets.EnsureWallet(c.Context(), req.Address, req.Network)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(wallet)
}

func (s *APIServer) handleGetWallet(c *fiber.Ctx) error {
	wallet, err := s.wallets.GetWallet(c.Params("address"), c.Params("network"))
	if err != nil {
		return renderError(c, err)
	}
	return c.JSON(wallet)
}

// handleWalletBalance returns the wallet's native balance, or a token
// balance when ?token= is given. Callers snapshot this before submitting.
func (s *APIServer) handleWalletBalance(c *fiber.Ctx) error {
	network := c.Params("network")
	address := c.Params("address")
	token := c.Query("token")

	if !utils.IsValidAddress(address) {
		return renderError(c, &services.ValidationError{Field: "address", Reason: "malformed address"})
	}

	ledger, err := s.chains.GetLedger(network)
	if err != nil {
		return renderError(c, err)
	}

	if token == "" {
		balance, err := ledger.GetNativeBalance(c.Context(), address)
		if err != nil {
			return renderError(c, err)
		}
		return c.JSON(fiber.Map{
			"address":    utils.NormalizeAddress(address),
			"network":    network,
			"asset_type": models.AssetTypeNative,
			"balance":    balance.String(),
		})
	}

	if !utils.IsValidAddress(token) {
		return renderError(c, &services.ValidationError{Field: "token", Reason: "malformed address"})
	}

	balance, err := ledger.GetTokenBalance(c.Context(), token, address)
	if err != nil {
		return renderError(c, err)
	}
	decimals, _ := ledger.GetTokenDecimals(c.Context(), token)
	symbol, _ := ledger.GetTokenSymbol(c.Context(), token)

	return c.JSON(fiber.Map{
		"address":    utils.NormalizeAddress(address),
		"network":    network,
		"asset_type": models.AssetTypeERC20,
		"token":      utils.NormalizeAddress(token),
		"balance":    balance.String(),
		"decimals":   decimals,
		"symbol":     symbol,
	})
}

func (s *APIServer) handleRegisterContact(c *fiber.Ctx) error {
	var req services.RegisterContactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	contact, err := s.contacts.RegisterContact(req)
	if err != nil {
		return renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(contact)
}
