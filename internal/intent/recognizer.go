package intent

import (
	"regexp"
	"strings"

	"github.com/xxxsen/payagent/internal/model"
)

type rule struct {
	name     string
	patterns []*regexp.Regexp
}

type langEntry struct {
	name     string
	keywords []string
}

// Recognizer maps a raw query to matched intents plus provider and
// language slots. All tables are ordered: every intent label is tested
// independently (first matching pattern wins per label), and provider /
// language detection is first-listed-wins when a query mentions more
// than one.
type Recognizer struct {
	rules     []rule
	providers []string
	languages []langEntry
}

func NewRecognizer() *Recognizer {
	return &Recognizer{
		rules: []rule{
			{name: model.IntentAuthentication, patterns: compile(
				`(how to|how do i) (authenticate|connect|setup|set up|authorize)`,
				`(api keys|credentials|tokens|authentication)`,
				`(connect|integrate|setup) (my|the) (account|api)`,
			)},
			{name: model.IntentPaymentProcessing, patterns: compile(
				`(how to|how do i) (process|create|make|accept) (a |)payment`,
				`(charge|transaction|payment) (processing|flow)`,
				`accept (credit card|payment)`,
			)},
			{name: model.IntentSubscription, patterns: compile(
				`(recurring|subscription) (payment|billing)`,
				`(create|setup|manage) (a |)(subscription|recurring payment)`,
			)},
			{name: model.IntentRefund, patterns: compile(
				`(how to|how do i) (refund|return|cancel) (a |)(payment|transaction)`,
				`(process|issue) (a |)(refund|return)`,
			)},
			{name: model.IntentErrorHandling, patterns: compile(
				`(error|exception|problem|issue|troubleshoot)`,
				`(not working|failed|failing)`,
			)},
			{name: model.IntentLanguagePreference, patterns: compile(
				`(in|using|with) (javascript|python|ruby|php|java|node|nodejs|\.net|c#)`,
			)},
		},
		providers: []string{"stripe", "paypal"},
		languages: []langEntry{
			{name: "javascript", keywords: []string{"javascript", "js", "node", "nodejs"}},
			{name: "python", keywords: []string{"python", "py"}},
			{name: "php", keywords: []string{"php"}},
			{name: "ruby", keywords: []string{"ruby"}},
			{name: "java", keywords: []string{"java"}},
			{name: "csharp", keywords: []string{"c#", "csharp", ".net", "dotnet"}},
		},
	}
}

// Recognize classifies one query. Pure: identical input always yields
// identical output, and no call mutates recognizer state.
func (r *Recognizer) Recognize(query string) model.IntentResult {
	normalized := strings.ToLower(query)
	var matched []string
	for _, rl := range r.rules {
		for _, p := range rl.patterns {
			if p.MatchString(normalized) {
				matched = append(matched, rl.name)
				break
			}
		}
	}
	return model.IntentResult{
		MatchedIntents: matched,
		Provider:       r.DetectProvider(normalized),
		Language:       r.DetectLanguage(normalized),
		Query:          normalized,
	}
}

// DetectProvider returns the first vocabulary entry present in the
// query, or "" when none is mentioned.
func (r *Recognizer) DetectProvider(query string) string {
	query = strings.ToLower(query)
	for _, p := range r.providers {
		if strings.Contains(query, p) {
			return p
		}
	}
	return ""
}

// DetectLanguage returns the first table entry whose keyword set hits,
// or "" when none is mentioned.
func (r *Recognizer) DetectLanguage(query string) string {
	query = strings.ToLower(query)
	for _, entry := range r.languages {
		for _, kw := range entry.keywords {
			if strings.Contains(query, kw) {
				return entry.name
			}
		}
	}
	return ""
}

func (r *Recognizer) Providers() []string {
	out := make([]string, len(r.providers))
	copy(out, r.providers)
	return out
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}
