package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/safekeep-labs/multisig-mcp/internal/services"
	"github.com/safekeep-labs/multisig-mcp/internal/utils"
)

func NewApproveTransactionTool(approvals services.ApprovalService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("approve_transaction",
		mcp.WithDescription("Record an owner's on-chain approval (or revocation) of a pending proposal in the mirror. The ledger call must already be confirmed; this keeps the mirror's confirmation count in step."),
		mcp.WithString("transaction_id",
			mcp.Required(),
			mcp.Description("Mirror record id of the proposal"),
		),
		mcp.WithString("approver",
			mcp.Required(),
			mcp.Description("Owner address that confirmed on the ledger"),
		),
		mcp.WithString("mode",
			mcp.Description("'approve' (default) or 'revoke'"),
		),
		mcp.WithString("transaction_hash",
			mcp.Description("Hash of the confirmed approval call (approve mode only)"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rawID, err := request.RequireString("transaction_id")
		if err != nil {
			return nil, fmt.Errorf("transaction_id parameter is required: %w", err)
		}
		approver, err := request.RequireString("approver")
		if err != nil {
			return nil, fmt.Errorf("approver parameter is required: %w", err)
		}

		id, err := parseRecordID(rawID)
		if err != nil {
			return nil, err
		}
		if !utils.IsValidAddress(approver) {
			return nil, fmt.Errorf("approver is not a valid address: %s", approver)
		}

		mode := request.GetString("mode", "approve")
		switch mode {
		case "approve":
			tx, err := approvals.RecordApproval(id, approver, request.GetString("transaction_hash", ""))
			if err != nil {
				return &mcp.CallToolResult{
					Content: []mcp.Content{
						mcp.NewTextContent("Error: "),
						mcp.NewTextContent(fmt.Sprintf("Error recording approval: %v", err)),
					},
				}, nil
			}
			resultJSON, _ := json.Marshal(map[string]interface{}{
				"transaction": tx,
				"executable":  tx.Executable(),
			})
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Approval recorded: "),
					mcp.NewTextContent(string(resultJSON)),
				},
			}, nil

		case "revoke":
			tx, err := approvals.RecordRevocation(id, approver)
			if err != nil {
				return &mcp.CallToolResult{
					Content: []mcp.Content{
						mcp.NewTextContent("Error: "),
						mcp.NewTextContent(fmt.Sprintf("Error recording revocation: %v", err)),
					},
				}, nil
			}
			resultJSON, _ := json.Marshal(map[string]interface{}{
				"transaction": tx,
				"executable":  tx.Executable(),
			})
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Revocation recorded: "),
					mcp.NewTextContent(string(resultJSON)),
				},
			}, nil

		default:
			return nil, fmt.Errorf("mode must be 'approve' or 'revoke', got %q", mode)
		}
	}

	return tool, handler
}
