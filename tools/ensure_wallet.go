package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/safekeep-labs/multisig-mcp/internal/services"
)

func NewEnsureWalletTool(wallets services.WalletService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("ensure_wallet",
		mcp.WithDescription("Guarantee a mirror record exists for a multi-owner wallet, reading owners and threshold from the ledger when the mirror has never seen the address. Idempotent."),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("The multi-owner wallet contract address"),
		),
		mcp.WithString("network",
			mcp.Required(),
			mcp.Description("Canonical network name the wallet lives on"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		address, err := request.RequireString("address")
		if err != nil {
			return nil, fmt.Errorf("address parameter is required: %w", err)
		}

		network, err := request.RequireString("network")
		if err != nil {
			return nil, fmt.Errorf("network parameter is required: %w", err)
		}

		wallet, err := wallets.EnsureWallet(ctx, address, network)
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: "),
					mcp.NewTextContent(fmt.Sprintf("Error ensuring wallet mirror: %v", err)),
				},
			}, nil
		}

		resultJSON, _ := json.Marshal(wallet)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent("Wallet mirror record: "),
				mcp.NewTextContent(string(resultJSON)),
			},
		}, nil
	}

	return tool, handler
}
