package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/safekeep-labs/multisig-mcp/internal/services"
	"github.com/safekeep-labs/multisig-mcp/internal/utils"
)

// handleSubmitTransfer proposes a transfer and mirrors the resulting
// proposal. The request carries the caller's balance snapshot; the engine
// never re-fetches balances during submission.
func (s *APIServer) handleSubmitTransfer(c *fiber.Ctx) error {
	var req services.SubmitTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	record, err := s.submissions.SubmitTransfer(c.Context(), req)
	if err != nil {
		return renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

func (s *APIServer) handleGetTransaction(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}

	tx, err := s.transactions.GetTransactionByID(id)
	if err != nil {
		return renderError(c, err)
	}

	approvals, err := s.approvals.ListApprovals(id)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"transaction": tx,
		"approvals":   approvals,
		"executable":  tx.Executable(),
	})
}

type approvalRequest struct {
	Approver        string `json:"approver"`
	TransactionHash string `json:"transaction_hash"`
}

// handleApprove records an owner's already-confirmed on-chain approval.
func (s *APIServer) handleApprove(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}

	var req approvalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if !utils.IsValidAddress(req.Approver) {
		return renderError(c, &services.ValidationError{Field: "approver", Reason: "malformed address"})
	}

	tx, err := s.approvals.RecordApproval(id, req.Approver, req.TransactionHash)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"transaction": tx,
		"executable":  tx.Executable(),
	})
}

func (s *APIServer) handleRevoke(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}

	var req approvalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if !utils.IsValidAddress(req.Approver) {
		return renderError(c, &services.ValidationError{Field: "approver", Reason: "malformed address"})
	}

	tx, err := s.approvals.RecordRevocation(id, req.Approver)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"transaction": tx,
		"executable":  tx.Executable(),
	})
}

type executeRequest struct {
	Executor        string `json:"executor"`
	TransactionHash string `json:"transaction_hash"`
	GasUsed         string `json:"gas_used,omitempty"`
	GasPrice        string `json:"gas_price,omitempty"`
}

// handleExecute records an already-confirmed on-chain execution. No quorum
// check here; the ledger validated it before accepting the call.
func (s *APIServer) handleExecute(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return renderError(c, err)
	}

	var req executeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if !utils.IsValidAddress(req.Executor) {
		return renderError(c, &services.ValidationError{Field: "executor", Reason: "malformed address"})
	}

	tx, err := s.approvals.RecordExecution(id, req.Executor, req.TransactionHash, services.GasInfo{
		GasUsed:  req.GasUsed,
		GasPrice: req.GasPrice,
	})
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(fiber.Map{"transaction": tx})
}

func (s *APIServer) handleOwnerTransactions(c *fiber.Ctx) error {
	owner := c.Params("address")
	if !utils.IsValidAddress(owner) {
		return renderError(c, &services.ValidationError{Field: "address", Reason: "malformed address"})
	}

	txs, err := s.transactions.ListTransactionsForOwner(owner)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(fiber.Map{"transactions": txs, "count": len(txs)})
}

func (s *APIServer) handleOwnerPending(c *fiber.Ctx) error {
	owner := c.Params("address")
	if !utils.IsValidAddress(owner) {
		return renderError(c, &services.ValidationError{Field: "address", Reason: "malformed address"})
	}

	txs, err := s.transactions.ListPendingApprovalsFor(owner)
	if err != nil {
		return renderError(c, err)
	}

	return c.JSON(fiber.Map{"transactions": txs, "count": len(txs)})
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, &services.ValidationError{Field: "id", Reason: "not a numeric id"}
	}
	return uint(id), nil
}
