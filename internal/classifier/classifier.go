package classifier

import (
	"strings"

	"github.com/xaenox/club-assistant/internal/models"
)

// Classifier maps raw inbound text to an intent.
type Classifier interface {
	Resolve(raw string) (models.IntentKey, bool)
}

// Keyword binds a free-text keyword to an intent. Order in a keyword list is
// significant: it is the tie-break for substring matches.
type Keyword struct {
	Word   string           `yaml:"word"`
	Intent models.IntentKey `yaml:"intent"`
}

// Rule is one step of the ordered substring scan. Match receives the
// normalized text.
type Rule struct {
	Name   string
	Intent models.IntentKey
	Match  func(normalized string) bool
}

// ContainsRule matches when the normalized text contains word.
func ContainsRule(word string, intent models.IntentKey) Rule {
	return Rule{
		Name:   word,
		Intent: intent,
		Match: func(normalized string) bool {
			return strings.Contains(normalized, word)
		},
	}
}

// Resolver resolves intents from selection ids, numeric shortcuts and
// keywords. It is immutable after construction and safe for concurrent use.
type Resolver struct {
	selectionIDs map[string]models.IntentKey
	numeric      map[string]models.IntentKey
	exact        map[string]models.IntentKey
	rules        []Rule
}

// NewResolver builds a resolver. Keywords are normalized here; when two
// keywords normalize to the same word the first one keeps its position.
func NewResolver(selectionIDs []models.IntentKey, numeric map[string]models.IntentKey, keywords []Keyword) *Resolver {
	r := &Resolver{
		selectionIDs: make(map[string]models.IntentKey, len(selectionIDs)),
		numeric:      make(map[string]models.IntentKey, len(numeric)),
		exact:        make(map[string]models.IntentKey, len(keywords)),
		rules:        make([]Rule, 0, len(keywords)),
	}

	for _, id := range selectionIDs {
		r.selectionIDs[Normalize(string(id))] = id
	}
	for n, intent := range numeric {
		r.numeric[strings.TrimSpace(n)] = intent
	}
	for _, kw := range keywords {
		word := Normalize(kw.Word)
		if word == "" {
			continue
		}
		if _, seen := r.exact[word]; seen {
			continue
		}
		r.exact[word] = kw.Intent
		r.rules = append(r.rules, ContainsRule(word, kw.Intent))
	}

	return r
}

// Rules returns the substring rules in evaluation order.
func (r *Resolver) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Resolve returns the intent for raw, trying in order: selection id, leading
// numeric token, exact keyword, first keyword contained in the text.
func (r *Resolver) Resolve(raw string) (models.IntentKey, bool) {
	normalized := Normalize(raw)
	if normalized == "" {
		return "", false
	}

	if intent, ok := r.selectionIDs[normalized]; ok {
		return intent, true
	}

	if intent, ok := r.numeric[leadingToken(raw)]; ok {
		return intent, true
	}

	if intent, ok := r.exact[normalized]; ok {
		return intent, true
	}

	for _, rule := range r.rules {
		if rule.Match(normalized) {
			return rule.Intent, true
		}
	}

	return "", false
}

// leadingToken returns the first whitespace-delimited token of s when it is a
// decimal digit string, or "".
func leadingToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	for _, c := range fields[0] {
		if c < '0' || c > '9' {
			return ""
		}
	}
	return fields[0]
}
