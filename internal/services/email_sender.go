package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/safekeep-labs/multisig-mcp/internal/logger"
	"github.com/safekeep-labs/multisig-mcp/internal/models"
	"go.uber.org/zap"
)

// smtpSender delivers approval-request emails over plain SMTP with a
// minimal built-in template.
type smtpSender struct {
	addr string
	auth smtp.Auth
	from string
}

// NewSMTPSender builds an EmailSender that delivers through the given SMTP
// server. Auth is skipped when username is empty.
func NewSMTPSender(host string, port int, username, password, from string) EmailSender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &smtpSender{
		addr: fmt.Sprintf("%s:%d", host, port),
		auth: auth,
		from: from,
	}
}

func (s *smtpSender) Send(ctx context.Context, recipient string, payload models.NotificationPayload) error {
	var body strings.Builder
	fmt.Fprintf(&body, "From: %s\r\n", s.from)
	fmt.Fprintf(&body, "To: %s\r\n", recipient)
	fmt.Fprintf(&body, "Subject: Approval requested: %s from wallet %s\r\n", payload.FormattedAmount, payload.WalletShort)
	body.WriteString("\r\n")
	fmt.Fprintf(&body, "%s proposed sending %s to %s (proposal #%d)\r\n",
		payload.SubmittedBy, payload.FormattedAmount, payload.ToShort, payload.TxIndex)
	fmt.Fprintf(&body, "Wallet: %s on %s\r\n", payload.WalletAddress, payload.Network)
	if payload.ExplorerURL != "" {
		fmt.Fprintf(&body, "Explorer: %s\r\n", payload.ExplorerURL)
	}

	return smtp.SendMail(s.addr, s.auth, s.from, []string{recipient}, []byte(body.String()))
}

// logSender is the no-transport fallback used when SMTP is not configured.
// Dispatch accounting still runs; messages land in the log instead of a
// mailbox.
type logSender struct{}

func NewLogSender() EmailSender {
	return logSender{}
}

func (logSender) Send(ctx context.Context, recipient string, payload models.NotificationPayload) error {
	logger.Info("approval notification (no SMTP configured)",
		zap.String("recipient", recipient),
		zap.String("wallet", payload.WalletShort),
		zap.Uint64("tx_index", payload.TxIndex),
		zap.String("amount", payload.FormattedAmount))
	return nil
}
