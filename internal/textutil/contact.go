package textutil

import (
	"net/url"
	"strings"
)

// PhoneDigits is the number of trailing digits kept by NormalizePhone.
const PhoneDigits = 10

// NormalizePhone strips every non-digit and keeps the last ten digits so
// "+1 (555) 123-0000" and "555.123.0000" compare equal. Inputs with fewer
// digits are returned as-is after stripping.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > PhoneDigits {
		return digits[len(digits)-PhoneDigits:]
	}
	return digits
}

// NormalizeDomain reduces a website to its lowercase host without scheme,
// port, path, or a leading "www.". Returns "" for blank input.
func NormalizeDomain(website string) string {
	website = strings.TrimSpace(strings.ToLower(website))
	if website == "" {
		return ""
	}
	if !strings.Contains(website, "://") {
		website = "http://" + website
	}
	host := website
	if parsed, err := url.Parse(website); err == nil && parsed.Host != "" {
		host = parsed.Hostname()
	} else {
		host = host[strings.Index(host, "://")+3:]
		if idx := strings.IndexAny(host, "/:?#"); idx >= 0 {
			host = host[:idx]
		}
	}
	return strings.TrimPrefix(host, "www.")
}

// NormalizeEmail trims and lowercases an address. Returns "" when the value
// has no "@" with text on both sides.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ""
	}
	return email
}
