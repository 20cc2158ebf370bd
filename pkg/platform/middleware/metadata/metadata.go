package metadata

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/mssola/useragent"

	"classreg/pkg/requestcontext"
)

// ClientMetadata extracts client IP address and User-Agent from the request
// and adds them to the context for use by handlers and services.
// This middleware should be applied early in the chain. Forwarding headers
// are honoured only when the socket peer is inside trusted.
func ClientMetadata(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r, trusted), r.Header.Get("User-Agent"))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIPFromRequest returns the client address. A peer outside trusted is
// the client, whatever headers it sends. Behind a trusted proxy the
// X-Forwarded-For chain is walked from the right and the first untrusted hop
// wins; X-Real-IP is the fallback.
func ClientIPFromRequest(r *http.Request, trusted []netip.Prefix) string {
	peer, ok := remoteAddr(r.RemoteAddr)
	if !ok {
		if r.RemoteAddr == "" {
			return "unknown"
		}
		return r.RemoteAddr
	}
	if !isTrusted(peer, trusted) {
		return peer.String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			hop = hop.Unmap()
			if !isTrusted(hop, trusted) {
				return hop.String()
			}
		}
	}

	if xri, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xri.Unmap().String()
	}

	return peer.String()
}

// remoteAddr parses "ip:port", "[::1]:port" or a bare address.
func remoteAddr(raw string) (netip.Addr, bool) {
	if ap, err := netip.ParseAddrPort(raw); err == nil {
		return ap.Addr().Unmap(), true
	}
	if addr, err := netip.ParseAddr(strings.Trim(raw, "[]")); err == nil {
		return addr.Unmap(), true
	}
	return netip.Addr{}, false
}

func isTrusted(addr netip.Addr, trusted []netip.Prefix) bool {
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ParseUserAgent renders a short "Browser on OS" label for logs.
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	if ua.Bot() {
		browser = "Bot " + browser
	}
	if browser == "" {
		browser = "Unknown Browser"
	}

	os := ua.OSInfo().Name
	if os == "" {
		os = ua.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}

	return strings.Join(strings.Fields(browser+" on "+os), " ")
}
