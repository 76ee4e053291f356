package utils

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// AllowList holds the addresses allowed to reach guarded endpoints.
// Bare IPs are stored as single-address prefixes.
type AllowList struct {
	prefixes []netip.Prefix
}

// ParseAllowList parses IPs and CIDRs. Blank entries are skipped; any
// other unparsable entry is an error naming it.
func ParseAllowList(entries []string) (*AllowList, error) {
	l := &AllowList{}
	for _, raw := range entries {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			l.prefixes = append(l.prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("%q is neither an IP nor a CIDR", s)
		}
		addr = addr.Unmap()
		l.prefixes = append(l.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return l, nil
}

// Empty reports whether the list filters nothing.
func (l *AllowList) Empty() bool { return l == nil || len(l.prefixes) == 0 }

// Contains reports whether ip, in any textual form ClientIP returns,
// falls inside one of the prefixes.
func (l *AllowList) Contains(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil || l == nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range l.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// HostOnly strips an optional port from "host:port", "[v6]:port" or "host".
func HostOnly(s string) string {
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return strings.Trim(s, "[]")
}

// ClientIP returns the caller address. Proxy headers are read only when
// trustProxy is set, in order CF-Connecting-IP, the left-most
// X-Forwarded-For entry, X-Real-IP; otherwise RemoteAddr is used.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		xff, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
		for _, v := range []string{
			r.Header.Get("CF-Connecting-IP"),
			xff,
			r.Header.Get("X-Real-IP"),
		} {
			if v = strings.TrimSpace(v); v != "" {
				return HostOnly(v)
			}
		}
	}
	return HostOnly(r.RemoteAddr)
}
