// Package phone canonicalizes WhatsApp phone numbers to E.164.
//
// Normalization is best-effort for ambiguous lengths: anything without a
// leading + that is not a 12 digit number already carrying the default
// country code gets the default country code prepended. A 9 or 11 digit
// national number therefore turns into a wrong but well-formed E.164 value.
package phone

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultCountryCode is used when a number carries no country code.
const DefaultCountryCode = "91"

var e164 = regexp.MustCompile(`^\+\d{6,15}$`)

// Normalizer converts raw numbers to canonical +<cc><number> strings.
type Normalizer struct {
	country string
}

// NewNormalizer creates a normalizer for the given default country code.
// An empty code selects DefaultCountryCode.
func NewNormalizer(countryCode string) *Normalizer {
	countryCode = strings.TrimPrefix(strings.TrimSpace(countryCode), "+")
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	return &Normalizer{country: countryCode}
}

// Normalize returns the canonical form of raw, or false when it cannot be
// made into a valid number. raw may be a string or any integer type.
func (n *Normalizer) Normalize(raw any) (string, bool) {
	var s string
	switch v := raw.(type) {
	case nil:
		return "", false
	case string:
		s = v
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}

	s = strings.TrimSpace(strings.ReplaceAll(s, "＋", "+"))
	if s == "" {
		return "", false
	}

	plus := strings.HasPrefix(s, "+")
	digits := strings.TrimLeft(digitsOnly(s), "0")

	var out string
	switch {
	case plus:
		out = "+" + digits
	case len(digits) == 12 && strings.HasPrefix(digits, n.country):
		out = "+" + digits
	case len(digits) == 10:
		out = "+" + n.country + digits
	default:
		out = "+" + n.country + digits
	}

	if !e164.MatchString(out) {
		return "", false
	}
	return out, true
}

// NormalizeAll normalizes every entry and drops the invalid ones,
// keeping first-seen order and removing duplicates.
func (n *Normalizer) NormalizeAll(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		p, ok := n.Normalize(r)
		if !ok {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
