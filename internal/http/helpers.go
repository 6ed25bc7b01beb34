package http

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// queryParam returns the sanitized first value of key.
func queryParam(q url.Values, key string) string {
	return sanitizeInput(q.Get(key))
}

// multiParam collects a multi-select parameter. Values may repeat
// (?category=a&category=b) or be comma separated (?category=a,b).
func multiParam(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = sanitizeInput(v); v != "" && !slices.Contains(out, v) {
				out = append(out, v)
			}
		}
	}
	return out
}

// cacheKey normalizes the query string so equivalent requests share an
// entry. The minute is part of the key since every view depends on now.
func cacheKey(r *http.Request, now time.Time) string {
	return r.URL.Query().Encode() + "@" + now.Truncate(time.Minute).Format(time.RFC3339)
}

func sanitizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = sanitizeInput(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
