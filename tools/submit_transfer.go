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

func NewSubmitTransferTool(submissions services.SubmissionService) (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("submit_transfer",
		mcp.WithDescription("Propose a transfer from a multi-owner wallet. Validates inputs, submits the propose call through the signer, resolves the ledger index, mirrors the proposal, and notifies the selected approvers."),
		mcp.WithString("contract_address",
			mcp.Required(),
			mcp.Description("The multi-owner wallet contract address"),
		),
		mcp.WithString("network",
			mcp.Required(),
			mcp.Description("Canonical network name"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient account address"),
		),
		mcp.WithString("asset_type",
			mcp.Required(),
			mcp.Description("Asset to transfer: 'native' or 'erc20'"),
		),
		mcp.WithString("asset_address",
			mcp.Description("ERC-20 token contract address (required for erc20 transfers)"),
		),
		mcp.WithString("amount",
			mcp.Required(),
			mcp.Description("Human decimal amount, e.g. '1.5'"),
		),
		mcp.WithString("balance_snapshot",
			mcp.Required(),
			mcp.Description("Wallet balance for the asset in smallest units, snapshotted by the caller before submission"),
		),
		mcp.WithString("submitted_by",
			mcp.Required(),
			mcp.Description("Address of the owner proposing the transfer"),
		),
		mcp.WithArray("selected_approvers",
			mcp.Required(),
			mcp.Description("Owner addresses asked to approve; must be at least the wallet threshold"),
		),
		mcp.WithNumber("expiration_days",
			mcp.Description("Days until the proposal expires in the mirror; omitted means never"),
		),
	)

	handler := func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		contractAddress, err := request.RequireString("contract_address")
		if err != nil {
			return nil, fmt.Errorf("contract_address parameter is required: %w", err)
		}
		network, err := request.RequireString("network")
		if err != nil {
			return nil, fmt.Errorf("network parameter is required: %w", err)
		}
		to, err := request.RequireString("to")
		if err != nil {
			return nil, fmt.Errorf("to parameter is required: %w", err)
		}
		assetType, err := request.RequireString("asset_type")
		if err != nil {
			return nil, fmt.Errorf("asset_type parameter is required: %w", err)
		}
		amount, err := request.RequireString("amount")
		if err != nil {
			return nil, fmt.Errorf("amount parameter is required: %w", err)
		}
		balanceSnapshot, err := request.RequireString("balance_snapshot")
		if err != nil {
			return nil, fmt.Errorf("balance_snapshot parameter is required: %w", err)
		}
		submittedBy, err := request.RequireString("submitted_by")
		if err != nil {
			return nil, fmt.Errorf("submitted_by parameter is required: %w", err)
		}

		approvers := request.GetStringSlice("selected_approvers", nil)
		if len(approvers) == 0 {
			return nil, fmt.Errorf("selected_approvers parameter is required")
		}

		req := services.SubmitTransferRequest{
			ContractAddress:   contractAddress,
			Network:           network,
			To:                to,
			AssetType:         models.AssetType(assetType),
			AssetAddress:      request.GetString("asset_address", ""),
			Amount:            amount,
			BalanceSnapshot:   balanceSnapshot,
			SubmittedBy:       submittedBy,
			SelectedApprovers: approvers,
		}
		if days := request.GetInt("expiration_days", 0); days > 0 {
			req.ExpirationDays = &days
		}

		record, err := submissions.SubmitTransfer(ctx, req)
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: "),
					mcp.NewTextContent(fmt.Sprintf("Error submitting transfer: %v", err)),
				},
			}, nil
		}

		resultJSON, _ := json.Marshal(record)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent("Proposal mirrored: "),
				mcp.NewTextContent(string(resultJSON)),
			},
		}, nil
	}

	return tool, handler
}
