package agent

import (
	"fmt"
	"strings"

	"github.com/xxxsen/payagent/internal/kb"
	"github.com/xxxsen/payagent/internal/model"
)

const closingPrompt = "Is there anything specific about this implementation you'd like me to explain further?"

// Composer renders the deterministic local answer from intent,
// retrieved passages and an optional code snippet. It is the floor the
// agent can always fall back to when no LLM is wired or the LLM call
// fails.
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

func (c *Composer) Compose(intent model.IntentResult, results []model.RetrievedResult, snippet *model.Snippet) string {
	provider := kb.ProviderDisplayName(intent.Provider)

	var b strings.Builder
	b.WriteString(opener(intent, provider))

	if len(results) > 0 {
		b.WriteString("Based on the documentation:\n\n")
		cited := results
		if len(cited) > 2 {
			cited = cited[:2]
		}
		for i, r := range cited {
			fmt.Fprintf(&b, "%d. %s\n\n", i+1, r.Text)
			if r.DocumentID != "" {
				fmt.Fprintf(&b, "   Source: %s\n\n", r.DocumentID)
			}
		}
	}

	if snippet != nil {
		fmt.Fprintf(&b, "Here's a code example in %s:\n\n```%s\n%s\n```\n\n", snippet.Language, snippet.Language, snippet.Code)
		fmt.Fprintf(&b, "%s\n\n", snippet.Explanation)
		if len(snippet.Requires) > 0 {
			b.WriteString("Required dependencies:\n")
			for _, req := range snippet.Requires {
				fmt.Fprintf(&b, "- %s\n", req)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(closingPrompt)
	return b.String()
}

func opener(intent model.IntentResult, provider string) string {
	switch {
	case intent.HasIntent(model.IntentAuthentication):
		return fmt.Sprintf("I'll help you set up authentication with %s.\n\n", provider)
	case intent.HasIntent(model.IntentPaymentProcessing):
		return fmt.Sprintf("Let's process payments with %s.\n\n", provider)
	case intent.HasIntent(model.IntentSubscription):
		return fmt.Sprintf("I'll show you how to implement subscription billing with %s.\n\n", provider)
	case intent.HasIntent(model.IntentRefund):
		return fmt.Sprintf("Here's how to handle refunds with %s.\n\n", provider)
	case intent.HasIntent(model.IntentErrorHandling):
		return fmt.Sprintf("Let's troubleshoot your %s integration.\n\n", provider)
	default:
		return fmt.Sprintf("Here's some information about working with %s.\n\n", provider)
	}
}
