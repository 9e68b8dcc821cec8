// Package net holds host classification helpers used by outbound HTTP clients.
package net

import (
	"net"
	"net/url"
	"strings"

	"playlistdl/internal/utils/logging"
)

// IsPrivateNetwork reports whether host (a host, host:port or URL) points at a LAN or loopback address.
func IsPrivateNetwork(host string) bool {
	h := hostOnly(host)
	if h == "" {
		return false
	}
	if strings.EqualFold(h, "localhost") {
		return true
	}

	if ip := net.ParseIP(h); ip != nil {
		return isPrivateIP(ip)
	}
	return isPrivateHostname(h)
}

// hostOnly strips scheme, port and brackets.
func hostOnly(host string) string {
	host = strings.TrimSpace(host)
	if strings.Contains(host, "://") {
		if u, err := url.Parse(host); err == nil {
			return u.Hostname()
		}
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.Trim(host, "[]")
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()
}

// isPrivateHostname resolves h and reports whether any address is private.
func isPrivateHostname(h string) bool {
	ips, err := net.LookupIP(h)
	if err != nil {
		logging.D(1, "Failed to resolve hostname %q: %v", h, err)
		return false
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			logging.D(2, "Host %q resolved to private IP address %q", h, ip)
			return true
		}
	}
	return false
}
