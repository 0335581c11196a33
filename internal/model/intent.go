package model

const (
	IntentAuthentication     = "authentication"
	IntentPaymentProcessing  = "payment_processing"
	IntentSubscription       = "subscription"
	IntentRefund             = "refund"
	IntentErrorHandling      = "error_handling"
	IntentLanguagePreference = "language_preference"
)

// IntentResult is the classifier output for one query. Produced fresh
// per query and never mutated afterwards; empty Provider/Language mean
// the query carried no such mention.
type IntentResult struct {
	MatchedIntents []string `json:"matched_intents"`
	Provider       string   `json:"payment_provider,omitempty"`
	Language       string   `json:"programming_language,omitempty"`
	Query          string   `json:"query"`
}

func (r IntentResult) HasIntent(name string) bool {
	for _, it := range r.MatchedIntents {
		if it == name {
			return true
		}
	}
	return false
}

// FirstActionableIntent returns the first matched intent that triggers
// code generation, preserving rule-table order.
func (r IntentResult) FirstActionableIntent() string {
	for _, it := range r.MatchedIntents {
		switch it {
		case IntentAuthentication, IntentPaymentProcessing, IntentSubscription, IntentRefund:
			return it
		}
	}
	return ""
}
