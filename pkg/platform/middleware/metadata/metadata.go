package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"oncofeliz/pkg/requestcontext"
)

// Channels reported in the request context.
const (
	ChannelMobile = "mobile"
	ChannelWeb    = "web"
	ChannelAPI    = "api"
)

// ClientMetadata extracts client IP address, User-Agent and channel from the
// request and adds them to the context. Beneficiary families use the mobile
// app while staff use the web console; the channel is logged with every
// transition.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), ua, ChannelFromUserAgent(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ChannelFromUserAgent classifies a User-Agent string.
func ChannelFromUserAgent(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return ChannelAPI
	}
	parsed := useragent.New(ua)
	if parsed.Bot() {
		return ChannelAPI
	}
	if parsed.Mobile() {
		return ChannelMobile
	}
	if name, _ := parsed.Browser(); name == "" || parsed.OS() == "" {
		return ChannelAPI
	}
	return ChannelWeb
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port", or "[::1]:port" for IPv6
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}

	return "unknown"
}
