package logger

import (
	"log/slog"
	"strings"
)

// Key fragments that mark an attribute as credential material.
var sensitiveKeyPatterns = []string{
	"password",
	"passwd",
	"secret",
	"authtok",
	"credential",
	"token",
	"hash",
}

// crypt(3) scheme prefixes. Values carrying one are masked to the prefix.
var hashPrefixes = []string{
	"$1$", "$5$", "$6$", "$2a$", "$2b$", "$2y$", "$y$", "$7$",
}

const redactedValue = "***REDACTED***"

func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if prefix, ok := hashPrefix(v); ok {
			return slog.String(a.Key, prefix+"***")
		}
		if v != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

func hashPrefix(v string) (string, bool) {
	for _, p := range hashPrefixes {
		if strings.HasPrefix(v, p) {
			return p, true
		}
	}
	return "", false
}

// RedactString masks a crypt hash down to its scheme prefix and returns
// any other value unchanged.
func RedactString(value string) string {
	if prefix, ok := hashPrefix(value); ok {
		return prefix + "***"
	}
	return value
}

// IsSensitiveKey reports whether a key name suggests credential content.
// Prompt texts are not sensitive even when they mention a password.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	if strings.HasSuffix(k, "prompt") {
		return false
	}
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(k, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether value looks like a crypt hash.
func IsSensitiveValue(value string) bool {
	_, ok := hashPrefix(value)
	return ok
}
