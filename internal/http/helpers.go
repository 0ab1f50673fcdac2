package http

import (
	"net"
	"net/http"
	"strconv"
	"strings"
)

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	return stripControl(strings.TrimSpace(s))
}

// stripControl removes control characters other than tab and newlines. Used
// for search text, where surrounding spaces are part of the query.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// clientIP returns the originating address, preferring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// confirmed reads the confirm query flag of a delete request.
func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}
