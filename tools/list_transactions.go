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

func NewListTransactionsTool(transactions services.TransactionService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("list_transactions",
		mcp.WithDescription("List mirrored proposals across every wallet the given owner belongs to, newest first."),
		mcp.WithString("owner",
			mcp.Required(),
			mcp.Description("Owner address to list proposals for"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, err := request.RequireString("owner")
		if err != nil {
			return nil, fmt.Errorf("owner parameter is required: %w", err)
		}
		if !utils.IsValidAddress(owner) {
			return nil, fmt.Errorf("owner is not a valid address: %s", owner)
		}

		txs, err := transactions.ListTransactionsForOwner(owner)
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: "),
					mcp.NewTextContent(fmt.Sprintf("Error listing transactions: %v", err)),
				},
			}, nil
		}

		resultJSON, _ := json.Marshal(map[string]interface{}{
			"transactions": txs,
			"count":        len(txs),
		})
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(fmt.Sprintf("Found %d transaction(s): ", len(txs))),
				mcp.NewTextContent(string(resultJSON)),
			},
		}, nil
	}

	return tool, handler
}
