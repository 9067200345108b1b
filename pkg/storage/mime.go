package storage

import (
	"bufio"
	"errors"
	"io"
	"net/http"
	"strings"
)

// MIMEOctetStream is what clients send when they do not know the type.
const MIMEOctetStream = "application/octet-stream"

// sniffLen is the most http.DetectContentType ever looks at.
const sniffLen = 512

// extensions lists the types the asset store can name on disk.
var extensions = map[string]string{
	"image/avif":    ".avif",
	"image/bmp":     ".bmp",
	"image/gif":     ".gif",
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/svg+xml": ".svg",
	"image/tiff":    ".tiff",
	"image/webp":    ".webp",
	"image/x-icon":  ".ico",
}

// Sniff classifies r by content and hands back a reader over the full stream.
// Only the sniffed prefix is held in memory.
func Sniff(r io.Reader) (string, io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	switch {
	case len(head) == 0 && (err == nil || errors.Is(err, io.EOF)):
		return "", nil, ErrEmptyStream
	case err != nil && !errors.Is(err, io.EOF):
		return "", nil, err
	}
	return NormalizeMIME(http.DetectContentType(head)), br, nil
}

// ExtFromMIME returns the stored file extension for mimeType, or "".
func ExtFromMIME(mimeType string) string {
	return extensions[NormalizeMIME(mimeType)]
}

// NormalizeMIME drops parameters and lowercases the media type.
func NormalizeMIME(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// MatchesMIME reports whether mimeType is listed in allowed. Entries of the
// form "type/*" match a whole top-level type.
func MatchesMIME(mimeType string, allowed []string) bool {
	mimeType = NormalizeMIME(mimeType)
	for _, a := range allowed {
		a = NormalizeMIME(a)
		if a == mimeType {
			return true
		}
		if top, ok := strings.CutSuffix(a, "/*"); ok && strings.HasPrefix(mimeType, top+"/") {
			return true
		}
	}
	return false
}
