// Package mailer delivers transactional email for the staffing service over
// SMTP. When no SMTP host is configured, delivery degrades to a logged no-op
// so local setups work without a mail server.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/example/pharmacy-staffing/internal/application"
)

// Mailer composes and sends invoice notification email.
type Mailer struct {
	host   string
	from   string
	send   func(addr, from, to string, msg []byte) error
	now    func() time.Time
	logger *slog.Logger
}

// NewMailer creates a Mailer targeting the given SMTP host. An empty host
// disables delivery.
func NewMailer(host, from string, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		host: host,
		from: from,
		send: func(addr, from, to string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, []string{to}, msg)
		},
		now:    time.Now,
		logger: logger,
	}
}

// Enabled reports whether a transport is configured.
func (m *Mailer) Enabled() bool {
	return m.host != ""
}

// SendInvoiceIssued mails the fee invoice notification to the pharmacy.
func (m *Mailer) SendInvoiceIssued(ctx context.Context, to string, fee application.Fee, deadline time.Time) error {
	if !m.Enabled() {
		m.logger.InfoContext(ctx, "mail transport disabled, skipping invoice email", "to", to, "fee_id", fee.ID)
		return nil
	}

	body := fmt.Sprintf(
		"人材紹介手数料の請求書を発行しました。\n\n請求金額: %d円\nお支払期限: %s\n\nマイページよりご確認ください。\n",
		fee.Amount, deadline.Format("2006年01月02日"))

	msg, err := m.compose(to, "【ご請求】人材紹介手数料のお知らせ", body)
	if err != nil {
		return fmt.Errorf("failed to compose invoice email: %w", err)
	}
	if err := m.send(m.host, m.from, to, msg); err != nil {
		return fmt.Errorf("failed to send invoice email: %w", err)
	}
	return nil
}

// compose builds an RFC 5322 message with a UTF-8 text body.
func (m *Mailer) compose(to, subject, body string) ([]byte, error) {
	var buf bytes.Buffer

	var header mail.Header
	header.SetDate(m.now())
	header.SetSubject(subject)

	fromAddr, err := mail.ParseAddress(m.from)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", m.from, err)
	}
	toAddr, err := mail.ParseAddress(to)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", to, err)
	}
	header.SetAddressList("From", []*mail.Address{fromAddr})
	header.SetAddressList("To", []*mail.Address{toAddr})

	writer, err := mail.CreateSingleInlineWriter(&buf, header)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(writer, body); err != nil {
		writer.Close()
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
