// Package device derives human-readable device descriptions from User-Agent
// strings. Audit events carry the description so operators can answer "signed
// in from where?" without storing raw user agents.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent turns a raw User-Agent into a short "Browser on OS" display
// name. Unparseable and empty inputs degrade to stable placeholders rather
// than failing.
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)

	browser, _ := ua.Browser()
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

	return browser + " on " + os
}
