// Package privacy holds helpers for reducing personal data before it reaches
// logs or audit records.
package privacy

import (
	"net/netip"
	"strings"
)

// AnonymizeIP truncates an IP address to a network prefix safe for logging:
// /24 for IPv4, /48 for IPv6. Unparseable input reports as "invalid".
func AnonymizeIP(ip string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return "invalid"
	}

	bits := 24
	if addr.Is6() {
		bits = 48
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.String()
}

// MaskEmail keeps the first character of the local part and the full domain,
// so operators can correlate events without logging the address itself.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "invalid"
	}
	return email[:1] + "***@" + email[at+1:]
}
