package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/payagent/internal/model"
)

type stubGenerator struct {
	reply  string
	err    error
	prompt string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func TestRephraseIncludesContext(t *testing.T) {
	gen := &stubGenerator{reply: "Sure, here is how."}
	r := NewRephraser(gen)

	history := []model.Turn{
		{Role: model.RoleUser, Content: "how do I charge a card"},
	}
	results := []model.RetrievedResult{
		{DocumentID: "d1", Text: "Create a PaymentIntent.", Code: "stripe.paymentIntents.create()", Language: "javascript"},
	}
	snip := &model.Snippet{Code: "const x = 1;", Language: "javascript", Explanation: "Example."}

	out, err := r.Rephrase(context.Background(), history, results, snip)
	require.NoError(t, err)
	require.Equal(t, "Sure, here is how.", out)
	require.Contains(t, gen.prompt, "Create a PaymentIntent.")
	require.Contains(t, gen.prompt, "stripe.paymentIntents.create()")
	require.Contains(t, gen.prompt, "const x = 1;")
	require.Contains(t, gen.prompt, "how do I charge a card")
}

func TestRephraseWindowsHistory(t *testing.T) {
	gen := &stubGenerator{reply: "ok"}
	r := NewRephraser(gen)

	var history []model.Turn
	for _, content := range []string{"one", "two", "three", "four", "five", "six", "seven"} {
		history = append(history, model.Turn{Role: model.RoleUser, Content: content})
	}
	_, err := r.Rephrase(context.Background(), history, nil, nil)
	require.NoError(t, err)
	require.NotContains(t, gen.prompt, "two")
	require.Contains(t, gen.prompt, "three")
	require.Contains(t, gen.prompt, "seven")
}

func TestRephraseErrorPropagates(t *testing.T) {
	r := NewRephraser(&stubGenerator{err: errors.New("model offline")})
	_, err := r.Rephrase(context.Background(), nil, nil, nil)
	require.Error(t, err)

	r = NewRephraser(&stubGenerator{reply: "   "})
	_, err = r.Rephrase(context.Background(), nil, nil, nil)
	require.Error(t, err)
}
