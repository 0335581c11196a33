package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/payagent/internal/ai"
	"github.com/xxxsen/payagent/internal/model"
)

const historyWindow = 5

const rephraserSystemPrompt = `You are a payment API integration assistant. Your job is to help developers integrate payment services like Stripe and PayPal into their applications.
Use the provided documentation context to answer questions accurately.`

// Rephraser asks an LLM to phrase the answer conversationally, fed
// with the retrieved passages, the generated snippet and a window of
// recent history. It is held by the agent as an optional strategy, not
// a base the composer derives from.
type Rephraser struct {
	generator ai.IGenerator
}

func NewRephraser(generator ai.IGenerator) *Rephraser {
	return &Rephraser{generator: generator}
}

// Rephrase builds the full prompt and calls the model. Any failure is
// returned to the caller, which degrades to the local composition.
func (r *Rephraser) Rephrase(ctx context.Context, history []model.Turn, results []model.RetrievedResult, snippet *model.Snippet) (string, error) {
	var b strings.Builder
	b.WriteString(rephraserSystemPrompt)

	if len(results) > 0 || snippet != nil {
		b.WriteString("\n\nHere's some relevant documentation to help answer the question:\n")
		n := 0
		for _, res := range results {
			n++
			fmt.Fprintf(&b, "\n%d. %s\n", n, res.Text)
			if res.Code != "" {
				lang := res.Language
				if lang == "" {
					lang = "code"
				}
				fmt.Fprintf(&b, "Code example (%s):\n%s\n", lang, res.Code)
			}
		}
		if snippet != nil {
			n++
			fmt.Fprintf(&b, "\n%d. %s\n", n, snippet.Explanation)
			fmt.Fprintf(&b, "Code example (%s):\n%s\n", snippet.Language, snippet.Code)
		}
	}

	b.WriteString("\n\nConversation so far:\n")
	window := history
	if len(window) > historyWindow {
		window = window[len(window)-historyWindow:]
	}
	for _, turn := range window {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
	}
	b.WriteString("assistant:")

	out, err := r.generator.Generate(ctx, b.String())
	if err != nil {
		return "", fmt.Errorf("rephrase answer: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("rephrase answer: %w", ai.ErrUnavailable)
	}
	return out, nil
}
