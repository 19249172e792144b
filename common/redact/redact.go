// Package redact strips sensitive values from log output.
//
// Two kinds of data must never reach a log line: credentials (the Matrix
// access token) and journal content. Redaction is best-effort and works on
// string representations; call sites should still avoid logging either.
package redact

import (
	"log/slog"
	"strings"
)

// Placeholder replaces every redacted value.
const Placeholder = "[REDACTED]"

// contentKeys are attribute names that carry user-written journal text.
var contentKeys = map[string]bool{
	"body":  true,
	"entry": true,
	"text":  true,
}

// String replaces every occurrence of each sensitive value in s with
// [REDACTED]. Values shorter than 4 characters are skipped to avoid
// spurious redaction of common substrings.
func String(s string, sensitiveValues ...string) string {
	for _, v := range sensitiveValues {
		if len(v) < 4 {
			continue
		}
		s = strings.ReplaceAll(s, v, Placeholder)
	}
	return s
}

// SensitiveKey reports whether an attribute named key holds a secret or
// journal text.
func SensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	if contentKeys[lower] {
		return true
	}
	for _, word := range []string{"password", "token", "secret", "credential", "auth"} {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// Attr is a slog ReplaceAttr hook. String values under sensitive keys become
// [REDACTED]; other strings and errors have sensitiveValues masked.
// Non-string values under sensitive keys (e.g. counts) pass through.
func Attr(a slog.Attr, sensitiveValues ...string) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if SensitiveKey(a.Key) && s != "" {
			return slog.String(a.Key, Placeholder)
		}
		if masked := String(s, sensitiveValues...); masked != s {
			return slog.String(a.Key, masked)
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			msg := err.Error()
			if masked := String(msg, sensitiveValues...); masked != msg {
				return slog.String(a.Key, masked)
			}
		}
	}
	return a
}
