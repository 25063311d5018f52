// Package email delivers account verification mail.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/concord-chat/concord-server/internal/config"
)

// Mailer sends a verification link carrying the given registration token
// to the recipient address.
type Mailer interface {
	SendVerification(ctx context.Context, recipient, token string) error
}

// SMTPMailer sends verification email over plain SMTP with AUTH.
type SMTPMailer struct {
	cfg     config.SMTPConfig
	baseURL string
}

func NewSMTPMailer(cfg config.SMTPConfig, verificationBaseURL string) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, baseURL: verificationBaseURL}
}

func (m *SMTPMailer) SendVerification(ctx context.Context, recipient, token string) error {
	msg := fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: Verify your Concord account\r\n\r\n%s\r\n",
		m.cfg.SenderName, m.cfg.Sender, recipient, VerificationURL(m.baseURL, token),
	)

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	addr := m.cfg.Host + ":" + m.cfg.Port

	if err := smtp.SendMail(addr, auth, m.cfg.Sender, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("sending verification email: %w", err)
	}
	return nil
}

// LogMailer logs the verification URL instead of sending it.
// Development and tests only.
type LogMailer struct {
	BaseURL string
}

func (m *LogMailer) SendVerification(ctx context.Context, recipient, token string) error {
	slog.Info("verification email (not sent)",
		"recipient", recipient, "url", VerificationURL(m.BaseURL, token))
	return nil
}

// VerificationURL builds the link embedded in verification email.
func VerificationURL(baseURL, token string) string {
	return fmt.Sprintf("%s?token=%s", baseURL, token)
}
