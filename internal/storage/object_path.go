package storage

import (
	"errors"
	"mime"
	"path"
	"strings"
)

func sanitizePathSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	builder := strings.Builder{}
	builder.Grow(len(value))
	for i := 0; i < len(value); i++ {
		ch := value[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			builder.WriteByte(ch)
		case ch == '-', ch == '_', ch == '.':
			builder.WriteByte(ch)
		}
	}
	return builder.String()
}

// cleanKey validates a slash separated key. Every segment must survive
// sanitizing unchanged, which rules out "..", empty segments and odd bytes.
func cleanKey(key string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(key), "/")
	if trimmed == "" {
		return "", errors.New("storage: empty key")
	}
	for _, segment := range strings.Split(trimmed, "/") {
		if segment == "" || segment == "." || segment == ".." || sanitizePathSegment(segment) != segment {
			return "", errors.New("storage: invalid key " + key)
		}
	}
	return trimmed, nil
}

func detectContentType(key string) string {
	ext := strings.ToLower(path.Ext(key))
	if ext == "" {
		return "application/octet-stream"
	}
	typeName := mime.TypeByExtension(ext)
	if typeName == "" {
		return "application/octet-stream"
	}
	return typeName
}

func contentTypeOrDetect(opts PutOptions, key string) string {
	if ct := strings.TrimSpace(opts.ContentType); ct != "" {
		return ct
	}
	return detectContentType(key)
}

func joinPrefix(prefix, key string) string {
	cleanPrefix := trimPrefix(prefix)
	if cleanPrefix == "" {
		return strings.TrimLeft(key, "/")
	}
	joined := path.Join(cleanPrefix, strings.TrimLeft(key, "/"))
	if strings.HasSuffix(key, "/") {
		joined += "/"
	}
	return joined
}

func stripPrefix(prefix, key string) string {
	cleanPrefix := trimPrefix(prefix)
	if cleanPrefix == "" {
		return key
	}
	return strings.TrimPrefix(strings.TrimPrefix(key, cleanPrefix), "/")
}

func trimPrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}
