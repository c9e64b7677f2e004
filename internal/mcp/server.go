package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/safekeep-labs/multisig-mcp/internal/services"
	"github.com/safekeep-labs/multisig-mcp/tools"
)

// Services bundles everything the MCP tools need.
type Services struct {
	Chains       services.ChainService
	Wallets      services.WalletService
	Transactions services.TransactionService
	Approvals    services.ApprovalService
	Submissions  services.SubmissionService
}

type MCPServer struct {
	server *server.MCPServer
	svc    Services
}

func NewMCPServer(svc Services) *MCPServer {
	mcpServer := &MCPServer{
		svc: svc,
	}
	mcpServer.InitializeTools(svc)
	return mcpServer
}

func (s *MCPServer) InitializeTools(svc Services) {
	srv := server.NewMCPServer(
		"Multi-Owner Wallet MCP Server",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	srv.AddPrompt(mcp.NewPrompt("multisig-mcp-usage",
		mcp.WithPromptDescription("Instructions and guidance for using the multi-owner wallet tools"),
		mcp.WithArgument("tool_category",
			mcp.ArgumentDescription("Category of tools to get instructions for (chain, wallet, proposal, or all)"),
			mcp.RequiredArgument(),
		),
	), func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		category := request.Params.Arguments["tool_category"]
		if category == "" {
			return nil, fmt.Errorf("tool_category is required")
		}

		instructions := getToolInstructions(category)

		return mcp.NewGetPromptResult(
			fmt.Sprintf("Multi-Owner Wallet Tools - %s", category),
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(
					mcp.RoleUser,
					mcp.NewTextContent(instructions),
				),
			},
		), nil
	})

	// Chain Management Tools
	setChainTool, setChainHandler := tools.NewSetChainTool(svc.Chains)
	srv.AddTool(setChainTool, setChainHandler)

	// Wallet Tools
	ensureWalletTool, ensureWalletHandler := tools.NewEnsureWalletTool(svc.Wallets)
	srv.AddTool(ensureWalletTool, ensureWalletHandler)

	// Proposal Lifecycle Tools
	submitTransferTool, submitTransferHandler := tools.NewSubmitTransferTool(svc.Submissions)
	srv.AddTool(submitTransferTool, submitTransferHandler)

	approveTool, approveHandler := tools.NewApproveTransactionTool(svc.Approvals)
	srv.AddTool(approveTool, approveHandler)

	executeTool, executeHandler := tools.NewExecuteTransactionTool(svc.Approvals)
	srv.AddTool(executeTool, executeHandler)

	// Read-only Listing Tools
	listTxTool, listTxHandler := tools.NewListTransactionsTool(svc.Transactions)
	srv.AddTool(listTxTool, listTxHandler)

	listPendingTool, listPendingHandler := tools.NewListPendingApprovalsTool(svc.Transactions)
	srv.AddTool(listPendingTool, listPendingHandler)

	s.server = srv
}

func getToolInstructions(category string) string {
	switch category {
	case "chain":
		return `Chain Management Tools:

1. set_chain - Configure a target network's RPC endpoint and chain ID
   Usage: Register the networks your wallets live on before any other tool`

	case "wallet":
		return `Wallet Tools:

1. ensure_wallet - Guarantee a mirror record exists for a wallet contract
   Usage: Call with any contract address; owners and threshold are read
   from the ledger the first time the mirror sees the address`

	case "proposal":
		return `Proposal Lifecycle Tools:

1. submit_transfer - Propose a native or ERC-20 transfer
   Usage: Provide recipient, amount, a balance snapshot, and the owners
   you want to approve; the proposal is submitted on-chain and mirrored

2. approve_transaction - Record an owner's confirmed approval or revocation
   Usage: mode 'approve' (default) or 'revoke'; call after the ledger
   confirmation so the mirror's count stays in step

3. execute_transaction - Record a confirmed execution
   Usage: Marks the mirrored proposal executed; the ledger already
   enforced quorum

4. list_transactions - List proposals across an owner's wallets
5. list_pending_approvals - List proposals still waiting for an owner`

	case "all":
		return `Multi-Owner Wallet MCP Tools Overview:

This MCP server provides 7 tools for driving multi-owner wallet workflows:

CHAIN MANAGEMENT (1 tool):
- set_chain: Configure network RPC endpoints

WALLET (1 tool):
- ensure_wallet: Lazily mirror a wallet contract

PROPOSAL LIFECYCLE (5 tools):
- submit_transfer: Propose a transfer and notify approvers
- approve_transaction: Record approvals and revocations
- execute_transaction: Record executions
- list_transactions: Browse an owner's proposals
- list_pending_approvals: See what still needs an owner's signature

The ledger is authoritative for all state; the mirror exists for fast
queries and notification dispatch. No private keys are handled by the
server - transaction signing is delegated to an external signer.`

	default:
		return `Invalid category. Available categories: chain, wallet, proposal, all`
	}
}

func (s *MCPServer) Start() error {
	return server.ServeStdio(s.server)
}
