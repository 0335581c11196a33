package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	MissingPaymentProvider     = "payment_provider"
	MissingProgrammingLanguage = "programming_language"
)

// Turn is one conversation history entry, scoped to a single session.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnResponse is the agent output for one processed query. It is
// either a clarifying turn (MissingInfo + Options set, no documentation
// or snippet) or a substantive answer (MissingInfo empty).
type TurnResponse struct {
	SessionID     string            `json:"session_id"`
	Message       string            `json:"message"`
	IntentData    *IntentResult     `json:"intent_data,omitempty"`
	Documentation []RetrievedResult `json:"documentation"`
	MissingInfo   string            `json:"missing_info,omitempty"`
	Options       []string          `json:"options,omitempty"`
}

func (r *TurnResponse) IsClarifying() bool {
	return r != nil && r.MissingInfo != ""
}
