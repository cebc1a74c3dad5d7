package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/convgate/convgate/models"
)

const copyChunkSize = 1 << 20 // 1 MiB

// Ingest streams src to a newly allocated scratch file, enforcing maxBytes
// mid-stream. The whole body is never buffered in memory. On overflow the
// partial file is deleted and ErrPayloadTooLarge returned. The returned
// extension is the lower-cased source extension without the dot.
func Ingest(src io.Reader, filename string, maxBytes int64, store *TempStore) (path string, ext string, err error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." {
		return "", "", models.ErrNoFile
	}
	ext = strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return "", "", models.ErrMissingExtension
	}

	path, err = store.Allocate(ext)
	if err != nil {
		return "", "", err
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", "", err
	}

	// Read one byte past the cap so overflow is detectable without trusting
	// any client-declared length.
	lr := &io.LimitedReader{R: src, N: maxBytes + 1}
	buf := make([]byte, copyChunkSize)
	written, err := io.CopyBuffer(out, lr, buf)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return "", "", err
	}
	if written > maxBytes {
		_ = out.Close()
		_ = os.Remove(path)
		return "", "", models.ErrPayloadTooLarge
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return "", "", err
	}
	return path, ext, nil
}
