// Package media stores generated images somewhere the app can link to for good.
package media

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var ErrEmptyImage = errors.New("image bytes are empty")

// Uploader puts image bytes in public storage and returns their URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, fileName string, contentType string) (string, error)
}

var fileNamePattern = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func objectKey(prefix string, now time.Time, fileName string) string {
	key := fmt.Sprintf("%d_%s_%s", now.Unix(), randomHex(4), sanitizeFileName(fileName))
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

func sanitizeFileName(fileName string) string {
	base := strings.TrimSpace(filepath.Base(fileName))
	if base == "" || base == "." || base == "/" {
		return "image.png"
	}
	base = fileNamePattern.ReplaceAllString(base, "_")
	if base == "" {
		return "image.png"
	}
	return base
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "r"
	}
	return hex.EncodeToString(buf)
}
