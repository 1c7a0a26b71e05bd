// Package assist implements the contextual response engine behind the
// floating dashboard assistant. It maps free-text questions onto an ordered
// table of keyword rules and renders canned Portuguese replies interpolated
// with live snapshot metrics. The engine is stateless; the caller supplies
// whichever snapshot was most recently committed.
package assist

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"vigia/internal/models"
)

// Rand is the subset of math/rand the engine uses for phrasing variants.
type Rand interface {
	Intn(n int) int
}

// Engine answers assistant questions. Safe for concurrent use as long as
// the injected Rand is.
type Engine struct {
	rand  Rand
	rules []rule
}

// NewEngine builds an engine with the default rule table. rand may be nil;
// the first phrasing variant is then always used.
func NewEngine(rand Rand) *Engine {
	return &Engine{rand: rand, rules: defaultRules()}
}

// Respond maps userText to a reply given the latest committed snapshot.
// It never panics: a nil or partial snapshot degrades to the per-category
// "no data" lines. Whitespace-only input is the caller's responsibility;
// when it arrives anyway the default fallback is returned.
func (e *Engine) Respond(userText string, snap *models.Snapshot) string {
	input := newQuery(userText)
	for _, r := range e.rules {
		if r.matches(input) {
			if reply := r.respond(e, input, snap); reply != "" {
				return reply
			}
		}
	}
	return e.fallback()
}

func (e *Engine) pick(variants ...string) string {
	if len(variants) == 0 {
		return ""
	}
	if e.rand == nil {
		return variants[0]
	}
	return variants[e.rand.Intn(len(variants))]
}

// query is a pre-tokenized lower-cased user message.
type query struct {
	raw    string
	tokens []string
}

func newQuery(text string) query {
	lower := strings.ToLower(strings.TrimSpace(text))
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return query{raw: lower, tokens: tokens}
}

// hasKeyword reports whether the query mentions the keyword. Phrases are
// matched as substrings; single words match whole tokens, with prefixes
// also accepted for keywords of four or more runes ("switches" triggers
// "switch"). Short keywords stay exact so "oi" does not fire on "oitenta"
// nor "bd" on unrelated tokens.
func (q query) hasKeyword(keyword string) bool {
	if strings.ContainsRune(keyword, ' ') {
		return strings.Contains(q.raw, keyword)
	}
	allowPrefix := utf8.RuneCountInString(keyword) >= 4
	for _, tok := range q.tokens {
		if tok == keyword || (allowPrefix && strings.HasPrefix(tok, keyword)) {
			return true
		}
	}
	return false
}

type rule struct {
	name     string
	keywords []string
	respond  func(e *Engine, q query, snap *models.Snapshot) string
}

func (r rule) matches(q query) bool {
	for _, kw := range r.keywords {
		if q.hasKeyword(kw) {
			return true
		}
	}
	return false
}
