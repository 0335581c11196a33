package snippet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/payagent/internal/model"
)

const (
	DefaultProvider = "stripe"
	DefaultLanguage = "javascript"
	DefaultIntent   = "payment_processing"
)

// fallbackKey is the template every library is expected to carry so
// that generation always has somewhere to land.
const fallbackKey = DefaultProvider + "_" + DefaultIntent + "_" + DefaultLanguage

const fallbackNotice = "\n(Note: This is a fallback example.)"

// Generator renders code snippets from a template library keyed by
// "{provider}_{intent}_{language}".
type Generator struct {
	templates map[string]model.Template
}

func NewGenerator(templates map[string]model.Template) *Generator {
	return &Generator{templates: templates}
}

// LoadTemplates decodes a template library. Entries missing code or
// explanation are skipped with a warning rather than failing the load.
func LoadTemplates(ctx context.Context, r io.Reader) (map[string]model.Template, error) {
	var raw map[string]model.Template
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	logger := logutil.GetLogger(ctx)
	out := make(map[string]model.Template, len(raw))
	for key, tpl := range raw {
		if tpl.Code == "" || tpl.Explanation == "" {
			logger.Warn("skip malformed template entry", zap.String("key", key))
			continue
		}
		out[key] = tpl
	}
	return out, nil
}

func (g *Generator) Len() int {
	return len(g.templates)
}

// Generate looks up the best template for the request and substitutes
// "{name}" placeholders from params into its code. Missing slots fall
// back to stripe, javascript and payment_processing; a fallback hit
// keeps its own language and gets a notice appended to the
// explanation. Generate never fails: with no usable template at all it
// returns a sentinel snippet.
func (g *Generator) Generate(intent string, provider string, language string, params map[string]string) model.Snippet {
	if intent == "" {
		intent = DefaultIntent
	}
	if provider == "" {
		provider = DefaultProvider
	}
	if language == "" {
		language = DefaultLanguage
	}

	key := provider + "_" + intent + "_" + language
	if tpl, ok := g.templates[key]; ok {
		return model.Snippet{
			Code:        substitute(tpl.Code, params),
			Language:    language,
			Explanation: tpl.Explanation,
			Requires:    requires(tpl),
		}
	}

	fallbacks := []string{
		provider + "_" + intent + "_" + DefaultLanguage,
		provider + "_" + DefaultIntent + "_" + language,
		fallbackKey,
	}
	for _, fb := range fallbacks {
		tpl, ok := g.templates[fb]
		if !ok {
			continue
		}
		parts := strings.Split(fb, "_")
		return model.Snippet{
			Code:        tpl.Code,
			Language:    parts[len(parts)-1],
			Explanation: tpl.Explanation + fallbackNotice,
			Requires:    requires(tpl),
		}
	}

	return model.Snippet{
		Code:        "// No suitable code example found",
		Language:    language,
		Explanation: "Could not find a suitable code example for this combination.",
		Requires:    []string{},
	}
}

func substitute(code string, params map[string]string) string {
	for key, value := range params {
		code = strings.ReplaceAll(code, "{"+key+"}", value)
	}
	return code
}

func requires(tpl model.Template) []string {
	if tpl.Requires == nil {
		return []string{}
	}
	return tpl.Requires
}
