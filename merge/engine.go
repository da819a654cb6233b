// ABOUTME: Merge engine holding compiled locale tables
// ABOUTME: Package-level helpers delegate to a default engine built from FrenchRules
package merge

import (
	"regexp"
	"sort"
	"strings"
)

// Engine normalizes, keys and merges contacts under one set of Rules. It has
// no mutable state after construction and is safe for concurrent use.
type Engine struct {
	rules *Rules

	stopWords    *regexp.Regexp
	punctuation  map[rune]struct{}
	volatileKeys map[string]struct{}
}

// New compiles rules into an Engine. A nil rules value means FrenchRules.
func New(rules *Rules) *Engine {
	if rules == nil {
		rules = FrenchRules()
	}

	e := &Engine{
		rules:        rules,
		punctuation:  make(map[rune]struct{}, len(rules.AddressPunctuation)),
		volatileKeys: rules.volatileSet(),
	}
	for _, r := range rules.AddressPunctuation {
		e.punctuation[r] = struct{}{}
	}

	words := make([]string, 0, len(rules.StopWords))
	for w := range rules.stopWordSet() {
		words = append(words, regexp.QuoteMeta(w))
	}
	if len(words) > 0 {
		// Longest first keeps the alternation deterministic.
		sort.Slice(words, func(i, j int) bool {
			if len(words[i]) != len(words[j]) {
				return len(words[i]) > len(words[j])
			}
			return words[i] < words[j]
		})
		e.stopWords = regexp.MustCompile(`(?i)\b(?:` + strings.Join(words, "|") + `)\b`)
	}

	return e
}

// Rules returns the tables the engine was built from.
func (e *Engine) Rules() *Rules {
	return e.rules
}

var defaultEngine = New(FrenchRules())

// Default returns the shared engine built from FrenchRules.
func Default() *Engine {
	return defaultEngine
}
