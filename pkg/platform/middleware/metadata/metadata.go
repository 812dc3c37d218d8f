package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"enrollment/pkg/requestcontext"
)

// ClientMetadata records client IP, User-Agent and the derived channel in the
// request context. Apply it early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), ua, ChannelFromUserAgent(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ChannelFromUserAgent classifies a User-Agent. Messaging gateways and other
// automated relays identify as bots.
func ChannelFromUserAgent(raw string) requestcontext.Channel {
	if strings.TrimSpace(raw) == "" {
		return requestcontext.ChannelUnknown
	}
	ua := useragent.New(raw)
	switch {
	case ua.Bot():
		return requestcontext.ChannelBot
	case ua.Mobile():
		return requestcontext.ChannelMobile
	default:
		return requestcontext.ChannelWeb
	}
}

// ClientIPFromRequest extracts the originating client IP behind proxies.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}
	return "unknown"
}
