package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lucasandrade/disparador/internal/config"
	"github.com/lucasandrade/disparador/internal/pkg/logger"
)

// MailjetBackend delivers messages through the Mailjet Send API v3.1.
// Docs: https://dev.mailjet.com/email/guides/send-api-v31/
type MailjetBackend struct {
	baseURL   string
	apiKey    string
	apiSecret string
	from      mjAddress
	replyTo   string
	client    httpDoer
}

// NewMailjetBackend validates the API key pair and returns the HTTP
// transport for one batch. The sender identity still comes from the
// per-batch credential bundle.
func NewMailjetBackend(cfg config.MailjetConfig, creds Credentials) (*MailjetBackend, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("%w: mailjet api key/secret", ErrMissingCredentials)
	}
	if creds.From() == "" {
		return nil, fmt.Errorf("%w: from address", ErrMissingCredentials)
	}
	b := &MailjetBackend{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		client:    &http.Client{Timeout: cfg.Timeout()},
	}
	b.from = mjAddress{Email: creds.From(), Name: strings.TrimSpace(creds.FromName)}
	if b.from.Name == "" {
		b.from.Name = b.from.Email
	}
	b.replyTo = creds.ReplyTo
	return b, nil
}

type mjAddress struct {
	Email string `json:"Email"`
	Name  string `json:"Name,omitempty"`
}

type mjAttachment struct {
	ContentType   string `json:"ContentType"`
	Filename      string `json:"Filename"`
	Base64Content string `json:"Base64Content"`
}

type mjMessage struct {
	From        mjAddress         `json:"From"`
	To          []mjAddress       `json:"To"`
	Subject     string            `json:"Subject"`
	TextPart    string            `json:"TextPart"`
	HTMLPart    string            `json:"HTMLPart,omitempty"`
	Headers     map[string]string `json:"Headers,omitempty"`
	Attachments []mjAttachment    `json:"Attachments,omitempty"`
}

type mjSendRequest struct {
	Messages []mjMessage `json:"Messages"`
}

type mjSendResponse struct {
	Messages []struct {
		Status string `json:"Status"`
	} `json:"Messages"`
}

// Send issues one authenticated POST per message. The provider must both
// answer 2xx and mark the message "success" in the response body; any
// other shape is a failed send.
func (b *MailjetBackend) Send(ctx context.Context, msg *Message) error {
	payload := mjSendRequest{Messages: []mjMessage{b.buildPayload(msg)}}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling send payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v3.1/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(b.apiKey, b.apiSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	logger.Debug("mailjet response", "status", fmt.Sprintf("%d", resp.StatusCode), "body", truncate(string(respBody), 500))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed mjSendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if len(parsed.Messages) == 0 {
		return fmt.Errorf("send API response has no Messages")
	}
	if !strings.EqualFold(parsed.Messages[0].Status, "success") {
		return fmt.Errorf("send not confirmed: status %q", parsed.Messages[0].Status)
	}
	return nil
}

func (b *MailjetBackend) buildPayload(msg *Message) mjMessage {
	m := mjMessage{
		From:     b.from,
		To:       []mjAddress{{Email: msg.To}},
		Subject:  msg.Subject,
		TextPart: msg.Text,
		HTMLPart: msg.HTML,
	}

	headers := map[string]string{}
	if b.replyTo != "" {
		headers["Reply-To"] = b.replyTo
	}
	if msg.ListUnsubscribe != "" {
		headers["List-Unsubscribe"] = msg.ListUnsubscribe
	}
	if len(headers) > 0 {
		m.Headers = headers
	}

	for _, att := range loadAttachments(msg.Attachments) {
		m.Attachments = append(m.Attachments, mjAttachment{
			ContentType:   att.ContentType,
			Filename:      att.Filename,
			Base64Content: base64.StdEncoding.EncodeToString(att.Data),
		})
	}
	return m
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
