package model

// Template is one loaded code-example entry, keyed externally by
// "{provider}_{intent}_{language}". Code may carry {name} placeholders.
type Template struct {
	Code        string   `json:"code"`
	Explanation string   `json:"explanation"`
	Requires    []string `json:"requires,omitempty"`
}

// Snippet is a rendered code example ready for composition.
type Snippet struct {
	Code        string   `json:"code"`
	Language    string   `json:"language"`
	Explanation string   `json:"explanation"`
	Requires    []string `json:"requires"`
}
