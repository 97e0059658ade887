package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// ProxyList is a set of networks whose forwarding headers are believed.
type ProxyList []*net.IPNet

// ParseProxyList parses CIDRs or bare IPs. Invalid entries are logged and
// skipped.
func ParseProxyList(entries []string) ProxyList {
	var nets ProxyList
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if _, network, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, network)
			continue
		}

		ip := net.ParseIP(entry)
		if ip == nil {
			slog.Warn("realip: invalid trusted proxy, skipping", "entry", entry)
			continue
		}
		bits := 128
		if ip.To4() != nil {
			ip, bits = ip.To4(), 32
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets
}

// Contains reports whether ip falls inside any trusted network.
func (p ProxyList) Contains(ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, network := range p {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the address of the client behind r. Forwarding headers
// are only honored when the connection comes from a trusted proxy; the
// result never carries a port.
func (p ProxyList) ClientIP(r *http.Request) string {
	remote := hostOnly(r.RemoteAddr)
	if !p.Contains(net.ParseIP(remote)) {
		return remote
	}

	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		if ip := net.ParseIP(rip); ip != nil {
			return ip.String()
		}
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	return remote
}

// TrustedRealIP rewrites r.RemoteAddr to the client address resolved by
// ClientIP. Untrusted callers cannot spoof it with X-Real-IP.
func TrustedRealIP(trusted []string) func(http.Handler) http.Handler {
	proxies := ParseProxyList(trusted)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.RemoteAddr = proxies.ClientIP(r)
			next.ServeHTTP(w, r)
		})
	}
}

func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
