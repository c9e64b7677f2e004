package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/joho/godotenv"
	"github.com/safekeep-labs/multisig-mcp/internal/api"
	"github.com/safekeep-labs/multisig-mcp/internal/logger"
	"github.com/safekeep-labs/multisig-mcp/internal/mcp"
	"github.com/safekeep-labs/multisig-mcp/internal/services"
	"go.uber.org/zap"
)

// Build information (set via ldflags)
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

func main() {
	var showVersion = flag.Bool("version", false, "Show version information")
	var showHelp = flag.Bool("help", false, "Show help information")
	var debug = flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Multi-Owner Wallet MCP Server\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", CommitHash)
		fmt.Printf("Built: %s\n", BuildTime)
		return
	}

	if *showHelp {
		fmt.Printf("Multi-Owner Wallet MCP Server\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		fmt.Printf("  --version    Show version information\n")
		fmt.Printf("  --help       Show this help message\n")
		fmt.Printf("  --debug      Enable debug logging\n\n")
		fmt.Printf("Description:\n")
		fmt.Printf("  Proposal, approval, and execution workflow engine for multi-owner\n")
		fmt.Printf("  on-chain wallets, with an off-chain mirror for fast queries and\n")
		fmt.Printf("  approval-request notifications.\n\n")
		fmt.Printf("Environment:\n")
		fmt.Printf("  DATABASE_URL         Mirror store (postgres:// URL or SQLite path, default ~/multisig.db)\n")
		fmt.Printf("  SIGNER_RPC_URL       RPC endpoint the built-in signer broadcasts through\n")
		fmt.Printf("  SIGNER_PRIVATE_KEY   Hex key for the built-in signer (omit to disable submission)\n")
		fmt.Printf("  SMTP_HOST/PORT/USER/PASSWORD/FROM  Notification email transport\n")
		fmt.Printf("  API_PORT             HTTP port (default: random free port)\n")
		fmt.Printf("  API_JWT_SECRET       Enables bearer-token auth on /api routes\n")
		return
	}

	_ = godotenv.Load()

	if err := logger.Initialize(logger.Config{Debug: *debug}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		homePath, err := os.UserHomeDir()
		if err != nil {
			logger.Fatal("failed to resolve home directory", zap.Error(err))
		}
		dsn = homePath + "/multisig.db"
	}

	dbService, err := services.NewDBService(dsn)
	if err != nil {
		logger.Fatal("failed to open mirror store", zap.Error(err))
	}
	defer dbService.Close()
	db := dbService.GetDB()

	signer := buildSigner()
	sender := buildEmailSender()

	chains := services.NewChainService(db, signer)
	wallets := services.NewWalletService(db, chains)
	transactions := services.NewTransactionService(db)
	approvals := services.NewApprovalService(db)
	contacts := services.NewContactService(db)

	assets, err := services.NewAssetService()
	if err != nil {
		logger.Fatal("failed to initialize asset codec", zap.Error(err))
	}

	notifications := services.NewNotificationService(db, chains, assets, transactions, sender)
	submissions := services.NewSubmissionService(chains, assets, wallets, transactions, notifications)

	// Hourly sweep flips pending proposals past their expiration time.
	scheduler := gocron.NewScheduler(time.UTC)
	_, err = scheduler.Every(1).Hour().Do(func() {
		expired, err := transactions.MarkExpired(time.Now())
		if err != nil {
			logger.Warn("expiration sweep failed", zap.Error(err))
			return
		}
		if expired > 0 {
			logger.Info("expiration sweep", zap.Int64("expired", expired))
		}
	})
	if err != nil {
		logger.Fatal("failed to schedule expiration sweep", zap.Error(err))
	}
	scheduler.StartAsync()
	defer scheduler.Stop()

	apiServer := api.NewAPIServer(chains, wallets, transactions, submissions, approvals, notifications, contacts)

	apiPort := 0
	if raw := os.Getenv("API_PORT"); raw != "" {
		apiPort, err = strconv.Atoi(raw)
		if err != nil {
			logger.Fatal("invalid API_PORT", zap.String("value", raw))
		}
	}

	port, err := apiServer.Start(apiPort)
	if err != nil {
		logger.Fatal("failed to start API server", zap.Error(err))
	}
	logger.Info("API server started", zap.Int("port", port))

	mcpServer := mcp.NewMCPServer(mcp.Services{
		Chains:       chains,
		Wallets:      wallets,
		Transactions: transactions,
		Approvals:    approvals,
		Submissions:  submissions,
	})

	go func() {
		if err := mcpServer.Start(); err != nil {
			logger.Fatal("failed to start MCP server", zap.Error(err))
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("shutting down")
	if err := apiServer.Shutdown(); err != nil {
		logger.Error(err, zap.String("component", "api"))
	}
}

// buildSigner wires the key-holding collaborator. Without a configured key
// the engine still serves reads and mirror operations; submission attempts
// fail with a clear error.
func buildSigner() services.TransactionSigner {
	rpcURL := os.Getenv("SIGNER_RPC_URL")
	keyHex := os.Getenv("SIGNER_PRIVATE_KEY")
	if rpcURL == "" || keyHex == "" {
		logger.Warn("SIGNER_RPC_URL/SIGNER_PRIVATE_KEY not set; call submission disabled")
		return disabledSigner{}
	}

	signer, err := services.NewKeyedSigner(rpcURL, keyHex)
	if err != nil {
		logger.Fatal("failed to initialize signer", zap.Error(err))
	}
	return signer
}

func buildEmailSender() services.EmailSender {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return services.NewLogSender()
	}

	port := 587
	if raw := os.Getenv("SMTP_PORT"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			port = parsed
		}
	}

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = "noreply@localhost"
	}

	return services.NewSMTPSender(host, port, os.Getenv("SMTP_USER"), os.Getenv("SMTP_PASSWORD"), from)
}

type disabledSigner struct{}

func (disabledSigner) SubmitCall(ctx context.Context, to string, data []byte, value *big.Int) (string, error) {
	return "", fmt.Errorf("no signer configured: set SIGNER_RPC_URL and SIGNER_PRIVATE_KEY")
}
