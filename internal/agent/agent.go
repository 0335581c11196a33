package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/payagent/internal/intent"
	"github.com/xxxsen/payagent/internal/kb"
	"github.com/xxxsen/payagent/internal/model"
	appErr "github.com/xxxsen/payagent/internal/pkg/errors"
	"github.com/xxxsen/payagent/internal/snippet"
)

const (
	providerTopK  = 3
	fanoutPerIdx  = 2
	fanoutLimit   = 3
	responseDocsN = 3
)

const (
	askProviderMessage = "Which payment provider are you working with? PayPal or Stripe?"
	askLanguageMessage = "What programming language are you using for the integration?"
)

// Agent ties the classifier, retriever, snippet generator and composer
// into the per-session query loop. The optional rephraser upgrades the
// final message via an LLM; everything before it stays deterministic.
type Agent struct {
	recognizer *intent.Recognizer
	retriever  *kb.Retriever
	generator  *snippet.Generator
	composer   *Composer
	rephraser  *Rephraser
	sessions   *SessionStore
}

func New(recognizer *intent.Recognizer, retriever *kb.Retriever, generator *snippet.Generator, sessions *SessionStore) *Agent {
	return &Agent{
		recognizer: recognizer,
		retriever:  retriever,
		generator:  generator,
		composer:   NewComposer(),
		sessions:   sessions,
	}
}

// WithRephraser enables LLM answer rephrasing. A nil rephraser keeps
// the local composition only.
func (a *Agent) WithRephraser(r *Rephraser) *Agent {
	a.rephraser = r
	return a
}

func (a *Agent) Sessions() *SessionStore {
	return a.sessions
}

func (a *Agent) Retriever() *kb.Retriever {
	return a.retriever
}

// ProcessQuery runs one conversation turn. The session lock is held
// for the whole turn, so two requests racing on one session serialize
// instead of interleaving history.
func (a *Agent) ProcessQuery(ctx context.Context, sessionID string, query string) (*model.TurnResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", appErr.ErrInvalid)
	}

	sess := a.sessions.GetOrCreate(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touch()

	res := a.recognizer.Recognize(query)
	sess.appendTurn(model.RoleUser, query)

	if clarify := a.clarifyMissing(sess, res); clarify != nil {
		clarify.SessionID = sessionID
		return clarify, nil
	}

	resolved := a.resolveSlots(sess, res)

	docs := a.retrieve(ctx, resolved, query)

	var snip *model.Snippet
	if primary := resolved.FirstActionableIntent(); primary != "" {
		s := a.generator.Generate(primary, resolved.Provider, resolved.Language, nil)
		snip = &s
	}

	message := a.composer.Compose(resolved, docs, snip)
	if a.rephraser != nil {
		if out, err := a.rephraser.Rephrase(ctx, sess.history, docs, snip); err != nil {
			logutil.GetLogger(ctx).Warn("llm rephrase failed, using local answer",
				zap.String("session_id", sessionID), zap.Error(err))
		} else {
			message = out
		}
	}

	sess.appendTurn(model.RoleAssistant, message)

	if len(docs) > responseDocsN {
		docs = docs[:responseDocsN]
	}
	if docs == nil {
		docs = []model.RetrievedResult{}
	}
	return &model.TurnResponse{
		SessionID:     sessionID,
		Message:       message,
		IntentData:    &resolved,
		Documentation: docs,
	}, nil
}

// clarifyMissing decides whether the turn must stop and ask for a
// slot. Caller holds the session lock.
func (a *Agent) clarifyMissing(sess *Session, res model.IntentResult) *model.TurnResponse {
	if res.Provider == "" && a.historyProvider(sess) == "" {
		return &model.TurnResponse{
			Message:       askProviderMessage,
			MissingInfo:   model.MissingPaymentProvider,
			Options:       kb.ProviderOptions(),
			Documentation: []model.RetrievedResult{},
		}
	}
	if res.FirstActionableIntent() != "" && res.Language == "" && a.historyLanguage(sess) == "" {
		return &model.TurnResponse{
			Message:       askLanguageMessage,
			MissingInfo:   model.MissingProgrammingLanguage,
			Options:       kb.LanguageOptions(),
			Documentation: []model.RetrievedResult{},
		}
	}
	return nil
}

// resolveSlots fills the result's empty provider and language from
// earlier user turns, returning a copy. The classifier output itself
// is never mutated.
func (a *Agent) resolveSlots(sess *Session, res model.IntentResult) model.IntentResult {
	resolved := res
	if resolved.Provider == "" {
		resolved.Provider = a.historyProvider(sess)
	}
	if resolved.Language == "" {
		resolved.Language = a.historyLanguage(sess)
	}
	return resolved
}

// historyProvider scans user turns newest first so a later switch
// ("actually I'm on PayPal") overrides an earlier mention.
func (a *Agent) historyProvider(sess *Session) string {
	for i := len(sess.history) - 1; i >= 0; i-- {
		turn := sess.history[i]
		if turn.Role != model.RoleUser {
			continue
		}
		if p := a.recognizer.DetectProvider(turn.Content); p != "" {
			return p
		}
	}
	return ""
}

func (a *Agent) historyLanguage(sess *Session) string {
	for i := len(sess.history) - 1; i >= 0; i-- {
		turn := sess.history[i]
		if turn.Role != model.RoleUser {
			continue
		}
		if l := a.recognizer.DetectLanguage(turn.Content); l != "" {
			return l
		}
	}
	return ""
}

// retrieve runs the documentation search for the turn. An embedding
// failure is not fatal to the turn: the agent answers from templates
// alone and logs the degradation.
func (a *Agent) retrieve(ctx context.Context, resolved model.IntentResult, query string) []model.RetrievedResult {
	var (
		docs []model.RetrievedResult
		err  error
	)
	switch {
	case resolved.Provider != "" && a.retriever.HasProvider(resolved.Provider):
		docs, err = a.retriever.Search(ctx, resolved.Provider, query, providerTopK)
	case resolved.Provider != "":
		// A named provider without a loaded index gets no citations;
		// answering from another provider's docs would mislead.
		logutil.GetLogger(ctx).Warn("no documentation index for provider",
			zap.String("provider", resolved.Provider))
		return nil
	default:
		docs, err = a.retriever.SearchAll(ctx, query, fanoutPerIdx, fanoutLimit)
	}
	if err != nil {
		logutil.GetLogger(ctx).Warn("documentation search failed, continuing without context",
			zap.String("provider", resolved.Provider), zap.Error(err))
		return nil
	}
	return docs
}
