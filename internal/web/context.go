package web

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/JonMunkholm/sheetnorm/internal/core"
)

// WithRequestMetadata adds client IP and User-Agent to ctx for the upload history.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithClientIP(ctx, clientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}

// clientIP strips the port from RemoteAddr. TrustedRealIP may already have
// replaced it with a bare address.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// wantsHTML reports whether the caller asked for an HTML page.
// Browsers submitting the upload form send ?format=html.
func wantsHTML(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("format"), "html")
}

// wantsCSV reports whether the caller asked for CSV output.
func wantsCSV(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		return true
	}
	return r.URL.Query().Get("format") == "" && strings.Contains(r.Header.Get("Accept"), "text/csv")
}
