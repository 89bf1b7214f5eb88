package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrNotImage is returned when an upload is not a supported image format.
var ErrNotImage = errors.New("uploaded file is not a supported image")

var imageMimeTypes = []string{"image/jpeg", "image/png", "image/webp"}

// DetectImage sniffs the payload and returns its MIME type and extension
// (without dot). Only jpeg, png and webp are accepted.
func DetectImage(data []byte) (string, string, error) {
	if len(data) == 0 {
		return "", "", fmt.Errorf("%w: empty payload", ErrNotImage)
	}
	detected := mimetype.Detect(data)
	for _, allowed := range imageMimeTypes {
		if detected.Is(allowed) {
			return allowed, ExtensionFromMime(allowed), nil
		}
	}
	return "", "", fmt.Errorf("%w: detected %s", ErrNotImage, detected.String())
}

// ExtensionFromMime maps a MIME type to a file extension without dot.
func ExtensionFromMime(mimeType string) string {
	base := strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = strings.TrimSpace(base[:idx])
	}
	switch base {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "":
		return ""
	}
	if mt := mimetype.Lookup(base); mt != nil {
		return strings.TrimPrefix(mt.Extension(), ".")
	}
	return ""
}
