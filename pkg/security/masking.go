// Package security redacts credentials and account identifiers before they reach the logs.
package security

import (
	"regexp"
	"strings"
)

const redacted = "***REDACTED***"

var (
	emailPattern  = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	jwtPattern    = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`)
	secretPattern = regexp.MustCompile(`(?i)(private[_-]?key|secret|token|password)["\s:=]+["']?([a-zA-Z0-9_-]{16,})["']?`)
	evmPattern    = regexp.MustCompile(`0x[a-fA-F0-9]{40}`)

	sensitiveHeaders = []string{"authorization", "x-api-key", "cookie", "set-cookie"}
)

// MaskString masks emails, JWTs, inline secrets and EVM addresses found in s
func MaskString(s string) string {
	s = emailPattern.ReplaceAllStringFunc(s, MaskEmail)
	s = jwtPattern.ReplaceAllString(s, "eyJ"+redacted)
	s = secretPattern.ReplaceAllString(s, "$1: "+redacted)
	s = evmPattern.ReplaceAllStringFunc(s, MaskAddress)
	return s
}

// MaskEmail keeps the first two characters of the local part and the top level domain
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return "***@***.***"
	}

	maskedLocal := maskPartial(local, 2)
	if i := strings.LastIndex(domain, "."); i > 0 {
		return maskedLocal + "@" + maskPartial(domain[:i], 1) + domain[i:]
	}
	return maskedLocal + "@" + maskPartial(domain, 2)
}

// MaskAddress shows the first 6 and last 4 characters of a wallet address
func MaskAddress(addr string) string {
	if len(addr) < 12 {
		return strings.Repeat("*", len(addr))
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// MaskSecret replaces a non-empty key or token
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return redacted
}

func maskPartial(s string, showChars int) string {
	if len(s) <= showChars {
		return strings.Repeat("*", len(s))
	}
	return s[:showChars] + strings.Repeat("*", len(s)-showChars)
}

// RedactHeaders flattens headers, hiding credentials
func RedactHeaders(headers map[string][]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if isSensitiveHeader(k) {
			out[k] = redacted
			continue
		}
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func isSensitiveHeader(name string) bool {
	lower := strings.ToLower(name)
	for _, sensitive := range sensitiveHeaders {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}
