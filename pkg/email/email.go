// Package email normalizes optional contact addresses captured at intake.
package email

import (
	"net/mail"
	"strings"
)

// Normalize trims and lowercases addr and checks it is a bare address
// (no display name). An empty input yields "" and ok.
func Normalize(addr string) (string, bool) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", true
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Name != "" || parsed.Address != addr {
		return "", false
	}
	at := strings.LastIndexByte(addr, '@')
	if at <= 0 || !strings.Contains(addr[at+1:], ".") {
		return "", false
	}
	return strings.ToLower(addr), true
}
