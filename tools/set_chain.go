package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/safekeep-labs/multisig-mcp/internal/models"
	"github.com/safekeep-labs/multisig-mcp/internal/services"
)

func NewSetChainTool(chains services.ChainService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("set_chain",
		mcp.WithDescription("Configure a target network with RPC endpoint and chain ID. Creates or updates the network configuration in the mirror store."),
		mcp.WithString("network",
			mcp.Required(),
			mcp.Description("Canonical network name (e.g. 'mainnet', 'sepolia')"),
		),
		mcp.WithString("rpc",
			mcp.Required(),
			mcp.Description("The RPC endpoint URL for the network"),
		),
		mcp.WithString("chain_id",
			mcp.Required(),
			mcp.Description("The chain ID (e.g. '1' for Ethereum mainnet, '11155111' for Sepolia)"),
		),
		mcp.WithString("explorer_url",
			mcp.Description("Optional block explorer base URL used in notification links"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		network, err := request.RequireString("network")
		if err != nil {
			return nil, fmt.Errorf("network parameter is required: %w", err)
		}

		rpc, err := request.RequireString("rpc")
		if err != nil {
			return nil, fmt.Errorf("rpc parameter is required: %w", err)
		}

		chainID, err := request.RequireString("chain_id")
		if err != nil {
			return nil, fmt.Errorf("chain_id parameter is required: %w", err)
		}

		explorerURL := request.GetString("explorer_url", "")

		chain := &models.Chain{
			Network:     network,
			RPC:         rpc,
			ChainID:     chainID,
			ExplorerURL: explorerURL,
		}
		if err := chains.UpsertChain(chain); err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: "),
					mcp.NewTextContent(fmt.Sprintf("Error configuring network: %v", err)),
				},
			}, nil
		}

		result := map[string]interface{}{
			"network":  network,
			"rpc":      rpc,
			"chain_id": chainID,
			"message":  fmt.Sprintf("Successfully configured network %s", network),
		}

		resultJSON, _ := json.Marshal(result)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent("Success message: "),
				mcp.NewTextContent(string(resultJSON)),
			},
		}, nil
	}

	return tool, handler
}
