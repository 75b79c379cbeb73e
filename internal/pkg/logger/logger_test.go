package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureEntry(t *testing.T, fn func()) map[string]interface{} {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	fn()

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "ma***@empresa.com", MaskEmail("maria@empresa.com"))
	assert.Equal(t, "***@empresa.com", MaskEmail("ab@empresa.com"))
	assert.Equal(t, "***@***", MaskEmail("not-an-email"))
}

func TestLogRedactsCredentialFields(t *testing.T) {
	entry := captureEntry(t, func() {
		Error("smtp auth failed", "smtp_pass", "hunter2", "api_secret", "abc123")
	})

	assert.Equal(t, "[redacted]", entry["smtp_pass"])
	assert.Equal(t, "[redacted]", entry["api_secret"])
	assert.Equal(t, "ERROR", entry["level"])
}

func TestLogMasksRecipientAddresses(t *testing.T) {
	entry := captureEntry(t, func() {
		Warn("send failed", "email", "joao@empresa.com", "err", "550 joao@empresa.com rejected")
	})

	assert.Equal(t, "jo***@empresa.com", entry["email"])
	assert.Equal(t, "550 jo***@empresa.com rejected", entry["err"])
}

func TestLogLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetLevel(INFO)

	Debug("wire detail", "body", "ignored")
	assert.Zero(t, buf.Len())
}
