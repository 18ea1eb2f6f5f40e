package normalize

import (
	"errors"
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
)

// FormatPhone canonicalizes a North American phone number to "(NNN) NNN-NNNN".
// A leading country code 1 is dropped. Values without exactly ten digits
// cannot be canonicalized and return an error.
func FormatPhone(raw string) (string, error) {
	var digits []byte
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits = append(digits, byte(r))
		}
	}
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return "", fmt.Errorf("phone number must contain 10 digits, found %d", len(digits))
	}
	return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:]), nil
}

// FormatURL canonicalizes a web address: https scheme when none is given,
// lowercased scheme and host, default ports and bare trailing slashes
// removed. Path, query, and fragment are preserved as written.
func FormatURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("url is empty")
	}
	candidate := trimmed
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
	}
	host := strings.ToLower(parsed.Host)
	if host == "" {
		return "", errors.New("url has no host")
	}
	switch scheme {
	case "http":
		host = strings.TrimSuffix(host, ":80")
	case "https":
		host = strings.TrimSuffix(host, ":443")
	}
	parsed.Scheme = scheme
	parsed.Host = host
	if parsed.Path == "/" && parsed.RawQuery == "" && parsed.Fragment == "" {
		parsed.Path = ""
	}
	return parsed.String(), nil
}

// FormatEmail canonicalizes an email address to its lowercased bare form.
// Display-name forms like "Joe <joe@example.com>" reduce to the address.
func FormatEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("email is empty")
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse email: %w", err)
	}
	return strings.ToLower(addr.Address), nil
}

// FormatPrice canonicalizes a monetary value to "$1,234.50" form with two
// decimal places and comma-grouped dollars.
func FormatPrice(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return "", errors.New("price is empty")
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return "", fmt.Errorf("parse price: %w", err)
	}
	if amount < 0 {
		return "", errors.New("price cannot be negative")
	}
	cents := int64(math.Round(amount * 100))
	return "$" + groupThousands(cents/100) + fmt.Sprintf(".%02d", cents%100), nil
}

func groupThousands(value int64) string {
	digits := strconv.FormatInt(value, 10)
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
