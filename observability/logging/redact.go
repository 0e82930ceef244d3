package logging

import (
	"log/slog"
	"net/url"
	"sort"
	"strings"
)

// RedactedValue replaces secrets in log output.
const RedactedValue = "[REDACTED]"

// safeKeys are log keys whose values never carry secrets.
var safeKeys = map[string]struct{}{
	"method": {},
	"caller": {},
	"seq":    {},
	"root":   {},
	"kind":   {},
	"event":  {},
	"driver": {},
	"path":   {},
}

// IsAllowlisted reports whether values logged under key are emitted as is.
func IsAllowlisted(key string) bool {
	_, ok := safeKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// MaskField masks value unless key is allowlisted. Blank values pass through.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" || IsAllowlisted(key) {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}

// MaskURL keeps the scheme, user, host and path of a connection string or
// endpoint and masks the password and every query value. Strings that do not
// parse as URLs are masked whole.
func MaskURL(key, raw string) slog.Attr {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || IsAllowlisted(key) {
		return slog.String(key, raw)
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Opaque != "" {
		return slog.String(key, RedactedValue)
	}
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	if u.User != nil {
		b.WriteString(u.User.Username())
		if _, ok := u.User.Password(); ok {
			b.WriteString(":" + RedactedValue)
		}
		b.WriteByte('@')
	}
	b.WriteString(u.Host)
	b.WriteString(u.EscapedPath())
	if query := u.Query(); len(query) > 0 {
		names := make([]string, 0, len(query))
		for name := range query {
			names = append(names, name)
		}
		sort.Strings(names)
		for i, name := range names {
			if i == 0 {
				b.WriteByte('?')
			} else {
				b.WriteByte('&')
			}
			b.WriteString(name + "=" + RedactedValue)
		}
	}
	return slog.String(key, b.String())
}
