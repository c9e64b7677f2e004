package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/safekeep-labs/multisig-mcp/internal/services"
)

// renderError maps the engine's error taxonomy onto HTTP responses.
// Idempotency guards come back as 409 with the benign flag so callers can
// treat them as no-ops; mirror-sync failures carry the explicit note that
// the on-chain action succeeded.
func renderError(c *fiber.Ctx, err error) error {
	var validationErr *services.ValidationError
	var ledgerReadErr *services.LedgerReadError
	var ledgerCallErr *services.LedgerCallError
	var mirrorSyncErr *services.MirrorSyncError
	var mirrorWriteErr *services.MirrorWriteError

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "validation_error", "message": validationErr.Error(),
		})

	case errors.Is(err, services.ErrAlreadyApproved),
		errors.Is(err, services.ErrAlreadyExecuted),
		errors.Is(err, services.ErrNotApproved),
		errors.Is(err, services.ErrIndexConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "idempotency_guard", "message": err.Error(), "benign": true,
		})

	case errors.Is(err, services.ErrWalletNotFound),
		errors.Is(err, services.ErrTransactionNotFound),
		errors.Is(err, services.ErrChainNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "not_found", "message": err.Error(),
		})

	case errors.As(err, &mirrorSyncErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":     "mirror_sync_failed",
			"message":   mirrorSyncErr.Error(),
			"call_hash": mirrorSyncErr.CallHash,
			// The ledger already accepted the action; only the mirror lags.
			"ledger_state": "authoritative",
		})

	case errors.As(err, &mirrorWriteErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "mirror_write_failed", "message": mirrorWriteErr.Error(),
		})

	case errors.As(err, &ledgerReadErr), errors.As(err, &ledgerCallErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "ledger_error", "message": err.Error(),
		})

	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_error", "message": err.Error(),
		})
	}
}
