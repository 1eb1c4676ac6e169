package auth

import (
	"net/http"
	"strings"
)

const bearerPrefix = "bearer "

// ExtractBearerToken pulls the token out of an Authorization header value,
// tolerating either casing of the Bearer prefix. Returns "" when absent.
func ExtractBearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// ExtractToken resolves the request token, preferring the Authorization
// header and falling back to a query parameter. The query fallback exists
// for EventSource consumers, which cannot set headers on the handshake.
func ExtractToken(r *http.Request, queryParam string) string {
	if r == nil {
		return ""
	}
	if token := ExtractBearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if queryParam == "" {
		queryParam = "token"
	}
	if r.URL == nil {
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get(queryParam))
}
