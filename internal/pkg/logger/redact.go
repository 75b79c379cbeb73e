package logger

import "strings"

// MaskEmail masks a recipient address for safe logging.
// "maria.souza@empresa.com" → "ma***@empresa.com"
// Short local parts (≤2 chars) are fully masked: "ab@empresa.com" → "***@empresa.com"
func MaskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	local := parts[0]
	if len(local) > 2 {
		return local[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}
