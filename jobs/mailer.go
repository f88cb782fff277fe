package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/hibiken/asynq"
)

// Mailer delivers queued emails over SMTP.
type Mailer struct {
	addr   string
	from   string
	logger *slog.Logger
	send   func(addr, from string, to []string, msg []byte) error
}

// NewMailer constructs a Mailer pointed at the configured SMTP relay.
func NewMailer(host string, port int, from string, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		addr:   fmt.Sprintf("%s:%d", host, port),
		from:   from,
		logger: logger,
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

// HandleSendEmail processes TaskTypeSendEmail tasks. Malformed payloads are
// dropped rather than retried; transport failures are returned so Asynq can
// retry delivery.
func (m *Mailer) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		m.logger.Error("send email: bad payload", slog.Any("error", err))
		return asynq.SkipRetry
	}
	msg := []byte("From: " + m.from + "\r\n" +
		"To: " + payload.To + "\r\n" +
		"Subject: " + payload.Subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		payload.HTML + "\r\n")
	if err := m.send(m.addr, m.from, []string{payload.To}, msg); err != nil {
		m.logger.Warn("send email", slog.String("to", payload.To), slog.Any("error", err))
		return err
	}
	m.logger.Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}
