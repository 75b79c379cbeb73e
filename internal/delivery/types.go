// Package delivery hands one rendered message at a time to a mail system,
// either over SMTP or through the Mailjet Send API. The two transports are
// interchangeable behind the Backend interface; the caller picks one per
// batch, never per message.
package delivery

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/lucasandrade/disparador/internal/config"
)

// ErrMissingCredentials marks a batch that cannot start: transport
// credentials were not supplied. Checked before any contact is processed.
var ErrMissingCredentials = errors.New("missing transport credentials")

// Credentials is the per-batch transport identity. It is supplied fresh
// on every invocation and never persisted.
type Credentials struct {
	Login     string
	Password  string
	Host      string
	Port      int
	FromEmail string
	FromName  string
	ReplyTo   string
}

// From returns the effective envelope/From address: the explicit
// from-address override when present, the SMTP login otherwise.
func (c Credentials) From() string {
	if c.FromEmail != "" {
		return c.FromEmail
	}
	return c.Login
}

// validateSMTP reports whether the bundle can open an authenticated
// SMTP session.
func (c Credentials) validateSMTP() error {
	if strings.TrimSpace(c.Login) == "" || c.Password == "" || strings.TrimSpace(c.Host) == "" || c.Port <= 0 {
		return ErrMissingCredentials
	}
	return nil
}

// Message is one rendered, ready-to-send email. HTML being empty means
// the message is text-only. Attachments are local file paths; unreadable
// paths are skipped with a warning, not a failed send.
type Message struct {
	To              string
	Subject         string
	Text            string
	HTML            string
	Attachments     []string
	ListUnsubscribe string
}

// Backend sends one message to one recipient. A nil return means the
// message was accepted for delivery. Errors are per-recipient and must
// never abort the batch; the orchestrator records them as failed
// outcomes.
type Backend interface {
	Send(ctx context.Context, msg *Message) error
}

// httpDoer is satisfied by *http.Client; tests inject fakes. Sends are
// deliberately single-attempt: retrying a non-idempotent transmission
// risks delivering the same email twice.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// New builds the backend selected by configuration for one batch.
// The Mailjet API path needs its key pair; the SMTP path needs a full
// login bundle. Either way an incomplete setup fails here, before any
// contact is touched.
func New(cfg *config.Config, creds Credentials) (Backend, error) {
	if cfg.Mailjet.Enabled {
		return NewMailjetBackend(cfg.Mailjet, creds)
	}
	return NewSMTPBackend(cfg.SMTP, creds)
}
