package snippet

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/payagent/internal/model"
)

func testTemplates() map[string]model.Template {
	return map[string]model.Template{
		"stripe_payment_processing_javascript": {
			Code:        "const stripe = require('stripe')('{api_key}');",
			Explanation: "Creates a PaymentIntent.",
			Requires:    []string{"stripe npm package"},
		},
		"stripe_payment_processing_python": {
			Code:        "import stripe",
			Explanation: "Creates a PaymentIntent in Python.",
			Requires:    []string{"stripe Python package"},
		},
		"stripe_refund_javascript": {
			Code:        "await stripe.refunds.create({payment_intent: 'pi_123'});",
			Explanation: "Issues a refund.",
		},
		"paypal_authentication_javascript": {
			Code:        "const paypal = require('@paypal/checkout-server-sdk');",
			Explanation: "Sets up PayPal credentials.",
		},
	}
}

func TestGenerateExactMatch(t *testing.T) {
	g := NewGenerator(testTemplates())
	snip := g.Generate("payment_processing", "stripe", "python", nil)
	require.Equal(t, "import stripe", snip.Code)
	require.Equal(t, "python", snip.Language)
	require.Equal(t, []string{"stripe Python package"}, snip.Requires)
	require.NotContains(t, snip.Explanation, "fallback")
}

func TestGenerateParameterSubstitution(t *testing.T) {
	g := NewGenerator(testTemplates())
	snip := g.Generate("payment_processing", "stripe", "javascript", map[string]string{"api_key": "sk_test_42"})
	require.Equal(t, "const stripe = require('stripe')('sk_test_42');", snip.Code)
}

func TestGenerateFallbackOrdering(t *testing.T) {
	g := NewGenerator(testTemplates())

	// Unknown language first falls back to javascript for the same
	// provider and intent.
	snip := g.Generate("refund", "stripe", "ruby", nil)
	require.Equal(t, "javascript", snip.Language)
	require.Contains(t, snip.Code, "refunds.create")
	require.True(t, strings.HasSuffix(snip.Explanation, "(Note: This is a fallback example.)"))

	// No refund template for paypal at all: the provider's default
	// intent has no ruby entry either, so the ultimate fallback wins.
	snip = g.Generate("refund", "paypal", "ruby", nil)
	require.Equal(t, "javascript", snip.Language)
	require.Contains(t, snip.Code, "require('stripe')")

	// Fallback code is served verbatim, params are not substituted.
	require.Contains(t, snip.Code, "{api_key}")
}

func TestGenerateDefaultsEmptySlots(t *testing.T) {
	g := NewGenerator(testTemplates())
	snip := g.Generate("", "", "", nil)
	require.Contains(t, snip.Code, "require('stripe')")
	require.Equal(t, "javascript", snip.Language)
}

func TestGenerateSentinelWhenNothingMatches(t *testing.T) {
	g := NewGenerator(map[string]model.Template{})
	snip := g.Generate("refund", "paypal", "ruby", nil)
	require.Equal(t, "// No suitable code example found", snip.Code)
	require.Equal(t, "ruby", snip.Language)
	require.Empty(t, snip.Requires)
	require.NotNil(t, snip.Requires)
}

func TestGenerateIsIdempotent(t *testing.T) {
	g := NewGenerator(testTemplates())
	first := g.Generate("payment_processing", "stripe", "javascript", map[string]string{"api_key": "k"})
	second := g.Generate("payment_processing", "stripe", "javascript", map[string]string{"api_key": "k"})
	require.Equal(t, first, second)
}

func TestLoadTemplatesSkipsMalformed(t *testing.T) {
	raw := `{
		"stripe_payment_processing_javascript": {"code": "x", "explanation": "y"},
		"broken_no_code": {"explanation": "y"},
		"broken_no_explanation": {"code": "x"}
	}`
	templates, err := LoadTemplates(context.Background(), strings.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, templates, 1)
	require.Contains(t, templates, "stripe_payment_processing_javascript")
}

func TestLoadTemplatesBadJSON(t *testing.T) {
	_, err := LoadTemplates(context.Background(), strings.NewReader("not json"))
	require.Error(t, err)
}
