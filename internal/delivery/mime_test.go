package delivery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lucasandrade/disparador/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smtpCreds() Credentials {
	return Credentials{
		Login:    "operador@dominio.com",
		Password: "app-pass",
		Host:     "in-v3.mailjet.com",
		Port:     587,
		FromName: "Lucas Andrade",
		ReplyTo:  "operador@dominio.com",
	}
}

func TestBuildMessageHeaders(t *testing.T) {
	msg := &Message{
		To:              "joao@empresa.com",
		Subject:         "Oportunidade de estágio",
		Text:            "Olá Joao",
		HTML:            "<p>Olá Joao</p>",
		ListUnsubscribe: "<mailto:ops+unsubscribe@dominio.com>",
	}

	raw, err := buildMessage(msg, smtpCreds(), nil)
	require.NoError(t, err)
	s := string(raw)

	assert.Contains(t, s, "From: \"Lucas Andrade\" <operador@dominio.com>\r\n")
	assert.Contains(t, s, "To: joao@empresa.com\r\n")
	assert.Contains(t, s, "Reply-To: operador@dominio.com\r\n")
	assert.Contains(t, s, "List-Unsubscribe: <mailto:ops+unsubscribe@dominio.com>\r\n")
	assert.Contains(t, s, "MIME-Version: 1.0\r\n")
	assert.Contains(t, s, "multipart/mixed")
	assert.Contains(t, s, "multipart/alternative")
	assert.Contains(t, s, "text/plain; charset=UTF-8")
	assert.Contains(t, s, "text/html; charset=UTF-8")
	// Non-ASCII subject is MIME-word encoded.
	assert.Contains(t, s, "Subject: =?utf-8?q?")
}

func TestBuildMessageTextOnly(t *testing.T) {
	msg := &Message{To: "joao@empresa.com", Subject: "Oi", Text: "corpo"}

	raw, err := buildMessage(msg, smtpCreds(), nil)
	require.NoError(t, err)
	s := string(raw)

	assert.Contains(t, s, "text/plain; charset=UTF-8")
	assert.NotContains(t, s, "text/html")
	assert.NotContains(t, s, "Reply-To: \r\n")
}

func TestBuildMessageNoDisplayName(t *testing.T) {
	creds := smtpCreds()
	creds.FromName = ""
	creds.FromEmail = "outro@dominio.com"

	raw, err := buildMessage(&Message{To: "a@b.co", Subject: "x", Text: "y"}, creds, nil)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "From: <outro@dominio.com>\r\n")
}

func TestBuildMessageAttachment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "curriculo.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644))

	atts := loadAttachments([]string{path, filepath.Join(dir, "missing.pdf"), ""})
	require.Len(t, atts, 1)
	assert.Equal(t, "curriculo.pdf", atts[0].Filename)
	assert.Equal(t, "application/pdf", atts[0].ContentType)

	raw, err := buildMessage(&Message{To: "a@b.co", Subject: "x", Text: "y"}, smtpCreds(), atts)
	require.NoError(t, err)
	s := string(raw)

	assert.Contains(t, s, "Content-Disposition: attachment; filename=\"curriculo.pdf\"")
	assert.Contains(t, s, "Content-Transfer-Encoding: base64")
}

func TestLoadAttachmentsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arquivo.zzz")
	require.NoError(t, os.WriteFile(path, []byte{0x1, 0x2}, 0o644))

	atts := loadAttachments([]string{path})
	require.Len(t, atts, 1)
	assert.Equal(t, "application/octet-stream", atts[0].ContentType)
}

func TestNewSMTPBackendValidation(t *testing.T) {
	cfg := config.SMTPConfig{Host: "in-v3.mailjet.com", Port: 587, TimeoutSeconds: 60}

	_, err := NewSMTPBackend(cfg, Credentials{Login: "user@dominio.com"})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	// Host and port fall back to configured defaults.
	b, err := NewSMTPBackend(cfg, Credentials{Login: "user@dominio.com", Password: "pass"})
	require.NoError(t, err)
	assert.Equal(t, "in-v3.mailjet.com", b.creds.Host)
	assert.Equal(t, 587, b.creds.Port)
	assert.Equal(t, "user@dominio.com", b.creds.From())
}

func TestSelectBackendByConfig(t *testing.T) {
	cfg := &config.Config{
		SMTP:    config.SMTPConfig{Host: "h", Port: 587, TimeoutSeconds: 10},
		Mailjet: config.MailjetConfig{Enabled: false, BaseURL: "http://x", TimeoutSeconds: 10},
	}

	b, err := New(cfg, smtpCreds())
	require.NoError(t, err)
	assert.IsType(t, &SMTPBackend{}, b)

	cfg.Mailjet.Enabled = true
	_, err = New(cfg, smtpCreds())
	assert.ErrorIs(t, err, ErrMissingCredentials)

	cfg.Mailjet.APIKey = "k"
	cfg.Mailjet.APISecret = "s"
	b, err = New(cfg, smtpCreds())
	require.NoError(t, err)
	assert.IsType(t, &MailjetBackend{}, b)
}
