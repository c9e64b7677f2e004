package api

import (
	"fmt"
	"net"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/safekeep-labs/multisig-mcp/internal/api/middleware"
	"github.com/safekeep-labs/multisig-mcp/internal/services"
)

type APIServer struct {
	app           *fiber.App
	chains        services.ChainService
	wallets       services.WalletService
	transactions  services.TransactionService
	submissions   services.SubmissionService
	approvals     services.ApprovalService
	notifications services.NotificationService
	contacts      services.ContactService
	port          int
}

func NewAPIServer(
	chains services.ChainService,
	wallets services.WalletService,
	transactions services.TransactionService,
	submissions services.SubmissionService,
	approvals services.ApprovalService,
	notifications services.NotificationService,
	contacts services.ContactService,
) *APIServer {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Add middleware
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	if secret := os.Getenv("API_JWT_SECRET"); secret != "" {
		app.Use("/api", middleware.AuthMiddleware(middleware.AuthConfig{Secret: secret}))
	}

	server := &APIServer{
		app:           app,
		chains:        chains,
		wallets:       wallets,
		transactions:  transactions,
		submissions:   submissions,
		approvals:     approvals,
		notifications: notifications,
		contacts:      contacts,
	}
	server.setupRoutes()
	return server
}

func (s *APIServer) setupRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Wallet mirror
	s.app.Post("/api/wallets/ensure", s.handleEnsureWallet)
	s.app.Get("/api/wallets/:network/:address", s.handleGetWallet)
	s.app.Get("/api/wallets/:network/:address/balance", s.handleWalletBalance)

	// Transfer workflow
	s.app.Post("/api/transactions", s.handleSubmitTransfer)
	s.app.Get("/api/transactions/:id", s.handleGetTransaction)
	s.app.Post("/api/transactions/:id/approve", s.handleApprove)
	s.app.Post("/api/transactions/:id/revoke", s.handleRevoke)
	s.app.Post("/api/transactions/:id/execute", s.handleExecute)

	// Owner views
	s.app.Get("/api/owners/:address/transactions", s.handleOwnerTransactions)
	s.app.Get("/api/owners/:address/pending", s.handleOwnerPending)

	// Contact registration
	s.app.Post("/api/contacts", s.handleRegisterContact)
}

// Start begins listening. Port 0 asks the OS for a free port; the assigned
// port is returned either way.
func (s *APIServer) Start(port int) (int, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return 0, fmt.Errorf("failed to listen: %w", err)
	}
	s.port = listener.Addr().(*net.TCPAddr).Port

	go func() {
		_ = s.app.Listener(listener)
	}()

	return s.port, nil
}

func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *APIServer) App() *fiber.App {
	return s.app
}
