// Package logger provides structured JSON logging for the send pipeline.
// Recipient addresses and transport credentials routinely appear in log
// context, so redaction is on by default and only disabled for local
// debugging of a private deployment.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// Logger emits structured JSON log entries with optional redaction of
// recipient addresses and credential values.
type Logger struct {
	level  Level
	out    io.Writer
	mu     sync.Mutex
	redact bool
}

var defaultLogger = &Logger{level: INFO, out: os.Stderr, redact: true}

// SetLevel sets the minimum log level for the default logger.
func SetLevel(l Level) { defaultLogger.level = l }

// SetRedact enables or disables redaction for the default logger.
func SetRedact(r bool) { defaultLogger.redact = r }

// SetOutput redirects the default logger, used by tests.
func SetOutput(w io.Writer) { defaultLogger.out = w }

// Debug emits a DEBUG-level entry. Transport wire details (provider
// response snippets, SMTP dialogue) log at this level.
func Debug(msg string, fields ...interface{}) { defaultLogger.log(DEBUG, msg, fields...) }

// Info emits an INFO-level entry.
func Info(msg string, fields ...interface{}) { defaultLogger.log(INFO, msg, fields...) }

// Warn emits a WARN-level entry.
func Warn(msg string, fields ...interface{}) { defaultLogger.log(WARN, msg, fields...) }

// Error emits an ERROR-level entry.
func Error(msg string, fields ...interface{}) { defaultLogger.log(ERROR, msg, fields...) }

func (l *Logger) log(level Level, msg string, fields ...interface{}) {
	if level < l.level {
		return
	}

	entry := map[string]interface{}{
		"time":  time.Now().UTC().Format(time.RFC3339),
		"level": levelNames[level],
		"msg":   msg,
	}

	for i := 0; i < len(fields)-1; i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		val := fmt.Sprintf("%v", fields[i+1])
		if l.redact {
			val = redactValue(key, val)
		}
		entry[key] = val
	}

	data, _ := json.Marshal(entry)
	l.mu.Lock()
	fmt.Fprintln(l.out, string(data))
	l.mu.Unlock()
}

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// credentialKeys match field names whose values must never reach a log
// line, even partially. SMTP passwords and API secrets arrive per request,
// so a leaked log file must not compromise an operator's mail account.
var credentialKeys = []string{"pass", "secret", "token", "credential"}

func redactValue(key, val string) string {
	lower := strings.ToLower(key)
	for _, k := range credentialKeys {
		if strings.Contains(lower, k) {
			return "[redacted]"
		}
	}
	if strings.Contains(lower, "email") || strings.Contains(lower, "recipient") {
		return MaskEmail(val)
	}
	// Mask any addresses embedded in free-form fields (error strings).
	return emailRegex.ReplaceAllStringFunc(val, MaskEmail)
}
