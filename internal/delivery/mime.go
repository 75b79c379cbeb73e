package delivery

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"time"

	"github.com/google/uuid"
)

// buildMessage assembles the raw RFC 5322 message for the SMTP transport:
// a multipart/mixed container holding a multipart/alternative part with
// the text body (and HTML body when present), plus one part per
// attachment.
func buildMessage(msg *Message, creds Credentials, atts []attachment) ([]byte, error) {
	mixed := fmt.Sprintf("=_mixed_%s", uuid.New().String()[:16])
	alt := fmt.Sprintf("=_alt_%s", uuid.New().String()[:16])
	messageID := fmt.Sprintf("%s@%s", uuid.New().String(), creds.Host)

	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("From: %s\r\n", fromHeader(creds)))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject)))
	buf.WriteString(fmt.Sprintf("Message-ID: <%s>\r\n", messageID))
	buf.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	if creds.ReplyTo != "" {
		buf.WriteString(fmt.Sprintf("Reply-To: %s\r\n", creds.ReplyTo))
	}
	if msg.ListUnsubscribe != "" {
		// Carried verbatim from configuration.
		buf.WriteString(fmt.Sprintf("List-Unsubscribe: %s\r\n", msg.ListUnsubscribe))
	}
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n", mixed))
	buf.WriteString("\r\n")

	// Alternative container: text always, HTML only when rendered.
	buf.WriteString(fmt.Sprintf("--%s\r\n", mixed))
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", alt))
	buf.WriteString("\r\n")

	if err := writeTextPart(&buf, alt, "text/plain", msg.Text); err != nil {
		return nil, err
	}
	if msg.HTML != "" {
		if err := writeTextPart(&buf, alt, "text/html", msg.HTML); err != nil {
			return nil, err
		}
	}
	buf.WriteString(fmt.Sprintf("--%s--\r\n", alt))

	for _, att := range atts {
		buf.WriteString(fmt.Sprintf("--%s\r\n", mixed))
		buf.WriteString(fmt.Sprintf("Content-Type: %s; name=\"%s\"\r\n", att.ContentType, att.Filename))
		buf.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\r\n", att.Filename))
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		buf.WriteString("\r\n")
		writeBase64(&buf, att.Data)
	}

	buf.WriteString(fmt.Sprintf("--%s--\r\n", mixed))
	return buf.Bytes(), nil
}

// fromHeader wraps the from-address in a display name when one is
// configured; net/mail handles quoting and non-ASCII encoding.
func fromHeader(creds Credentials) string {
	addr := mail.Address{Name: creds.FromName, Address: creds.From()}
	return addr.String()
}

func writeTextPart(buf *bytes.Buffer, boundary, contentType, body string) error {
	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString(fmt.Sprintf("Content-Type: %s; charset=UTF-8\r\n", contentType))
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(buf)
	if _, err := qp.Write([]byte(body)); err != nil {
		return fmt.Errorf("encoding %s part: %w", contentType, err)
	}
	if err := qp.Close(); err != nil {
		return fmt.Errorf("encoding %s part: %w", contentType, err)
	}
	buf.WriteString("\r\n")
	return nil
}

// writeBase64 emits base64 wrapped at 76 columns per RFC 2045.
func writeBase64(buf *bytes.Buffer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")
}
