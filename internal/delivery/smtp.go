package delivery

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/lucasandrade/disparador/internal/config"
	"github.com/lucasandrade/disparador/internal/pkg/logger"
)

// SMTPBackend delivers messages over direct SMTP with STARTTLS. One
// connection per message, no pooling: campaigns are small and paced in
// seconds, and a fresh handshake per send keeps failure isolation per
// recipient.
type SMTPBackend struct {
	creds   Credentials
	timeout time.Duration
	debug   bool
}

// NewSMTPBackend validates the credential bundle and returns the SMTP
// transport for one batch.
func NewSMTPBackend(cfg config.SMTPConfig, creds Credentials) (*SMTPBackend, error) {
	if creds.Host == "" {
		creds.Host = cfg.Host
	}
	if creds.Port == 0 {
		creds.Port = cfg.Port
	}
	if err := creds.validateSMTP(); err != nil {
		return nil, err
	}
	return &SMTPBackend{
		creds:   creds,
		timeout: cfg.Timeout(),
		debug:   cfg.Debug,
	}, nil
}

// Send opens a connection, upgrades with STARTTLS, authenticates and
// transmits one message. The connection is torn down on every exit path.
func (b *SMTPBackend) Send(ctx context.Context, msg *Message) error {
	raw, err := buildMessage(msg, b.creds, loadAttachments(msg.Attachments))
	if err != nil {
		return fmt.Errorf("building message: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", b.creds.Host, b.creds.Port)
	dialer := &net.Dialer{Timeout: b.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("SMTP connect to %s: %w", addr, err)
	}
	// Bound the whole SMTP dialogue, not just the dial.
	_ = conn.SetDeadline(time.Now().Add(b.timeout))

	client, err := smtp.NewClient(conn, b.creds.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("SMTP client: %w", err)
	}
	defer client.Close()

	// StartTLS issues EHLO, upgrades, then re-issues EHLO on the
	// encrypted channel. A relay without STARTTLS is a refused send:
	// credentials never travel in the clear.
	if ok, _ := client.Extension("STARTTLS"); !ok {
		return fmt.Errorf("SMTP server %s does not offer STARTTLS", b.creds.Host)
	}
	if err := client.StartTLS(&tls.Config{ServerName: b.creds.Host}); err != nil {
		return fmt.Errorf("STARTTLS: %w", err)
	}

	auth := smtp.PlainAuth("", b.creds.Login, b.creds.Password, b.creds.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth: %w", err)
	}

	if err := client.Mail(b.creds.From()); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		// The server refusing the recipient is this message's failure,
		// not the batch's.
		return fmt.Errorf("RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("DATA close: %w", err)
	}

	if b.debug {
		logger.Debug("smtp message accepted", "email", msg.To, "bytes", fmt.Sprintf("%d", len(raw)))
	}
	return client.Quit()
}
