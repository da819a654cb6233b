// ABOUTME: Locale tables driving normalization and merging
// ABOUTME: Stop words, punctuation, national prefix, sync markers and default labels
package merge

import (
	"regexp"
	"strings"
)

// Rules holds every locale-dependent table the normalizers and mergers read.
// Extending a locale means building a new Rules, not touching merge logic.
type Rules struct {
	// NationalPrefix replaces the leading 0 of a national number.
	NationalPrefix string
	// NationalDigits is the exact digit count of a national number.
	NationalDigits int
	// MinPhoneDigits is the shortest number worth comparing.
	MinPhoneDigits int
	// InternationalDigits is the digit count from which a bare number is
	// assumed to be international and gets a leading +.
	InternationalDigits int

	// AddressPunctuation is replaced by spaces before stop-word removal.
	AddressPunctuation string
	// StopWords are removed from addresses as whole words.
	StopWords []string

	// SyncMarker matches the sync trailer lines stripped from notes.
	SyncMarker *regexp.Regexp
	// NoteSeparator sits between the destination and appended source notes.
	NoteSeparator string

	// VolatileAttributes are ignored when comparing generic field entries.
	VolatileAttributes []string

	PhoneLabel string
	EmailLabel string
}

// syncMarkerPattern matches a marker line and the newline before it.
const syncMarkerPattern = `(?m)\n?\[SYNC\] (?:Fusionné|Créé):.*$`

// FrenchRules returns the default tables, tuned for French numbers and
// street names.
func FrenchRules() *Rules {
	return &Rules{
		NationalPrefix:      "+33",
		NationalDigits:      10,
		MinPhoneDigits:      3,
		InternationalDigits: 10,
		AddressPunctuation:  `.,;:'-/\()`,
		StopWords: []string{
			"rue", "avenue", "av", "boulevard", "bd", "blvd",
			"place", "pl", "chemin", "ch", "impasse", "imp",
			"allée", "route", "rte",
			"de", "et", "la", "le", "des", "du", "d",
		},
		SyncMarker:    regexp.MustCompile(syncMarkerPattern),
		NoteSeparator: "---",
		VolatileAttributes: []string{
			"metadata", "formattedType", "formattedValue",
			"formattedProtocol", "sourcePrimary", "primary",
		},
		PhoneLabel: "mobile",
		EmailLabel: "home",
	}
}

// WithStopWords returns a copy of r with extra stop words appended.
func (r *Rules) WithStopWords(words ...string) *Rules {
	cp := *r
	cp.StopWords = append(append([]string(nil), r.StopWords...), words...)
	return &cp
}

// stopWordSet folds the stop words the same way addresses are folded, so
// accented entries such as "allée" still match once diacritics are gone.
func (r *Rules) stopWordSet() map[string]struct{} {
	set := make(map[string]struct{}, len(r.StopWords))
	for _, w := range r.StopWords {
		folded := stripDiacritics(strings.ToLower(strings.TrimSpace(w)))
		if folded != "" {
			set[folded] = struct{}{}
		}
	}
	return set
}

func (r *Rules) volatileSet() map[string]struct{} {
	set := make(map[string]struct{}, len(r.VolatileAttributes))
	for _, a := range r.VolatileAttributes {
		set[a] = struct{}{}
	}
	return set
}
