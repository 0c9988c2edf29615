// File: internal/infra/notify/email.go
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"iptv-subscription-platform/internal/config"
	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/model"
	"iptv-subscription-platform/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*EmailNotifier)(nil)

// EmailNotifier delivers notifications over SMTP. When no host is configured
// it logs the message instead of failing, so development environments work
// without a mail server.
type EmailNotifier struct {
	host string
	port int
	user string
	pass string
	from string
	log  *zerolog.Logger
}

func NewEmailNotifier(cfg config.NotifyConfig, logger *zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.From,
		log:  logger,
	}
}

func (n *EmailNotifier) Send(ctx context.Context, user *model.User, kind model.NotificationKind, subject, body string) error {
	if user == nil || user.Email == "" {
		return domain.ErrInvalidArgument
	}
	if n.host == "" {
		n.log.Info().
			Str("to", user.Email).
			Str("kind", string(kind)).
			Str("subject", subject).
			Msg("smtp not configured, dropping notification")
		return nil
	}

	msg := buildMessage(n.from, user.Email, subject, body)

	var auth smtp.Auth
	if n.user != "" {
		auth = smtp.PlainAuth("", n.user, n.pass, n.host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(fmt.Sprintf("%s:%d", n.host, n.port), auth, n.from, []string{user.Email}, msg)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail: %v: %w", err, domain.ErrOperationFailed)
		}
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
