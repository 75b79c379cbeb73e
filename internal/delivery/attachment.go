package delivery

import (
	"mime"
	"os"
	"path/filepath"

	"github.com/lucasandrade/disparador/internal/pkg/logger"
)

// attachment is one loaded attachment, ready for either transport.
type attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// loadAttachments reads each path, typing it by extension. Missing or
// unreadable files are skipped with a warning so one stale CV path does
// not fail the whole send.
func loadAttachments(paths []string) []attachment {
	var out []attachment
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("attachment skipped", "path", path, "err", err.Error())
			continue
		}
		ctype := mime.TypeByExtension(filepath.Ext(path))
		if ctype == "" {
			ctype = "application/octet-stream"
		}
		out = append(out, attachment{
			Filename:    filepath.Base(path),
			ContentType: ctype,
			Data:        data,
		})
	}
	return out
}
