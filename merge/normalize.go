// ABOUTME: Phone and address canonicalization
// ABOUTME: Turns noisy directory strings into comparable normal forms
package merge

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func stripDiacritics(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizePhone canonicalizes a phone number. ok is false when fewer than
// MinPhoneDigits digits remain, which makes the number unusable for matching.
//
// Numbers shorter than InternationalDigits without a + are returned as-is so
// partial numbers still compare against each other.
func (e *Engine) NormalizePhone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	phone := b.String()

	if strings.HasPrefix(phone, "00") {
		phone = "+" + phone[2:]
	}

	if strings.HasPrefix(phone, "0") && countDigits(phone) == e.rules.NationalDigits {
		phone = e.rules.NationalPrefix + phone[1:]
	}

	digits := countDigits(phone)
	if digits < e.rules.MinPhoneDigits {
		return "", false
	}

	if !strings.Contains(phone, "+") && digits >= e.rules.InternationalDigits {
		phone = "+" + phone
	}

	return phone, true
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// NormalizeAddress lowercases, strips accents, punctuation and street-type
// stop words, and collapses whitespace. Empty input gives "".
func (e *Engine) NormalizeAddress(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	s := stripDiacritics(strings.ToLower(raw))
	s = strings.Map(func(r rune) rune {
		if _, ok := e.punctuation[r]; ok {
			return ' '
		}
		return r
	}, s)

	if e.stopWords != nil {
		s = e.stopWords.ReplaceAllString(s, "")
	}

	return strings.Join(strings.Fields(s), " ")
}

// NormalizePhone canonicalizes raw with the default engine.
func NormalizePhone(raw string) (string, bool) {
	return defaultEngine.NormalizePhone(raw)
}

// NormalizeAddress canonicalizes raw with the default engine.
func NormalizeAddress(raw string) string {
	return defaultEngine.NormalizeAddress(raw)
}

// normalizeText is the lowercase/trim fold used for emails, names and
// organizations.
func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
