package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/safekeep-labs/multisig-mcp/internal/services"
	"github.com/safekeep-labs/multisig-mcp/internal/utils"
)

func NewExecuteTransactionTool(approvals services.ApprovalService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("execute_transaction",
		mcp.WithDescription("Record an already-confirmed on-chain execution in the mirror, marking the proposal executed. No quorum check is performed here; the ledger validated the execution before accepting it."),
		mcp.WithString("transaction_id",
			mcp.Required(),
			mcp.Description("Mirror record id of the proposal"),
		),
		mcp.WithString("executor",
			mcp.Required(),
			mcp.Description("Owner address that executed on the ledger"),
		),
		mcp.WithString("execution_hash",
			mcp.Description("Hash of the confirmed execution call"),
		),
		mcp.WithString("gas_used",
			mcp.Description("Gas used by the execution call, decimal string"),
		),
		mcp.WithString("gas_price",
			mcp.Description("Gas price of the execution call in wei, decimal string"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rawID, err := request.RequireString("transaction_id")
		if err != nil {
			return nil, fmt.Errorf("transaction_id parameter is required: %w", err)
		}
		executor, err := request.RequireString("executor")
		if err != nil {
			return nil, fmt.Errorf("executor parameter is required: %w", err)
		}

		id, err := parseRecordID(rawID)
		if err != nil {
			return nil, err
		}
		if !utils.IsValidAddress(executor) {
			return nil, fmt.Errorf("executor is not a valid address: %s", executor)
		}

		tx, err := approvals.RecordExecution(id, executor, request.GetString("execution_hash", ""), services.GasInfo{
			GasUsed:  request.GetString("gas_used", ""),
			GasPrice: request.GetString("gas_price", ""),
		})
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: "),
					mcp.NewTextContent(fmt.Sprintf("Error recording execution: %v", err)),
				},
			}, nil
		}

		resultJSON, _ := json.Marshal(tx)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent("Execution recorded: "),
				mcp.NewTextContent(string(resultJSON)),
			},
		}, nil
	}

	return tool, handler
}

func parseRecordID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("transaction_id must be a numeric mirror id, got %q", raw)
	}
	return uint(id), nil
}
