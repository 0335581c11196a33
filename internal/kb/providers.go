package kb

import "strings"

// ProviderConfig describes one supported payment provider. The set is
// static: it drives index loading, clarifying-question options and
// provider validation.
type ProviderConfig struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	BaseURL            string   `json:"base_url"`
	APIBase            string   `json:"api_base"`
	MainSections       []string `json:"main_sections"`
	AuthMethods        []string `json:"auth_methods"`
	SupportedLanguages []string `json:"supported_languages"`
}

var providerConfigs = []ProviderConfig{
	{
		ID:                 "stripe",
		Name:               "Stripe",
		BaseURL:            "https://docs.stripe.com",
		APIBase:            "https://api.stripe.com/v1",
		MainSections:       []string{"payments", "billing", "connect", "terminal", "issuing"},
		AuthMethods:        []string{"api_key", "oauth"},
		SupportedLanguages: []string{"javascript", "python", "php", "ruby", "java", "go", "dotnet"},
	},
	{
		ID:                 "paypal",
		Name:               "PayPal",
		BaseURL:            "https://developer.paypal.com",
		APIBase:            "https://api.paypal.com/v1",
		MainSections:       []string{"checkout", "payments", "subscriptions", "invoicing"},
		AuthMethods:        []string{"client_credentials", "oauth"},
		SupportedLanguages: []string{"javascript", "python", "php", "java", "dotnet"},
	},
}

func GetProvider(id string) (ProviderConfig, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, cfg := range providerConfigs {
		if cfg.ID == id {
			return cfg, true
		}
	}
	return ProviderConfig{}, false
}

func ListProviders() []ProviderConfig {
	out := make([]ProviderConfig, len(providerConfigs))
	copy(out, providerConfigs)
	return out
}

// ProviderDisplayName resolves an id to its display form, falling back
// to a generic placeholder for unknown or absent providers.
func ProviderDisplayName(id string) string {
	if cfg, ok := GetProvider(id); ok {
		return cfg.Name
	}
	if id == "" {
		return "your payment provider"
	}
	return strings.ToUpper(id[:1]) + id[1:]
}

// ProviderOptions is the fixed option list offered on a clarifying
// turn (display names, stable order).
func ProviderOptions() []string {
	return []string{"PayPal", "Stripe"}
}

// LanguageOptions is the fixed option list for the language
// clarifying turn.
func LanguageOptions() []string {
	return []string{"JavaScript", "Python", "PHP", "Ruby", "Java", "C#"}
}
