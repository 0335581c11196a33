package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/xxxsen/payagent/internal/agent"
	"github.com/xxxsen/payagent/internal/handler"
	"github.com/xxxsen/payagent/internal/intent"
	"github.com/xxxsen/payagent/internal/kb"
	"github.com/xxxsen/payagent/internal/middleware"
	"github.com/xxxsen/payagent/internal/model"
	"github.com/xxxsen/payagent/internal/pkg/errcode"
	"github.com/xxxsen/payagent/internal/snippet"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (fixedEmbedder) ModelName() string {
	return "fixed"
}

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stripe, err := kb.NewDocumentIndex("stripe", []model.KnowledgeChunk{
		{
			DocumentID: "stripe-payments",
			ChunkID:    model.ChunkIDFromIndex(0),
			Title:      "Payments",
			Text:       "Create a PaymentIntent to charge a card.",
			Category:   "payment_processing",
			Embedding:  []float32{1, 0},
		},
	})
	require.NoError(t, err)
	paypal, err := kb.NewDocumentIndex("paypal", []model.KnowledgeChunk{
		{
			DocumentID: "paypal-orders",
			ChunkID:    model.ChunkIDFromIndex(0),
			Title:      "Orders",
			Text:       "Create an order to capture a payment.",
			Category:   "payment_processing",
			Embedding:  []float32{0, 1},
		},
	})
	require.NoError(t, err)

	templates := map[string]model.Template{
		"stripe_payment_processing_javascript": {
			Code:        "const stripe = require('stripe')(key);",
			Explanation: "Creates a PaymentIntent.",
		},
	}

	ag := agent.New(
		intent.NewRecognizer(),
		kb.NewRetriever(fixedEmbedder{}, []*kb.DocumentIndex{stripe, paypal}),
		snippet.NewGenerator(templates),
		agent.NewSessionStore(),
	)

	deps := handler.RouterDeps{
		Agent: handler.NewAgentHandler(ag),
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)
	return engine
}

func postQuery(t *testing.T, router http.Handler, body map[string]string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/agent/query", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestAgentQueryEndpoint(t *testing.T) {
	router := setupRouter(t)

	resp := postQuery(t, router, map[string]string{
		"session_id": "sess-1",
		"query":      "How do I process a payment with Stripe using JavaScript?",
	}, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "sess-1", resp.Header().Get("X-Session-Id"))

	var turn model.TurnResponse
	decodeData(t, resp, &turn)
	require.Equal(t, "sess-1", turn.SessionID)
	require.Empty(t, turn.MissingInfo)
	require.NotEmpty(t, turn.Documentation)
	require.Contains(t, turn.Message, "Stripe")
}

func TestAgentQueryEmptyQueryRejected(t *testing.T) {
	router := setupRouter(t)

	resp := postQuery(t, router, map[string]string{"query": "   "}, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	codeValue, _ := result["code"].(float64)
	require.Equal(t, float64(errcode.ErrInvalid), codeValue)
}

func TestAgentQueryMintsSessionID(t *testing.T) {
	router := setupRouter(t)

	resp := postQuery(t, router, map[string]string{
		"query": "How do I process a payment?",
	}, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NotEmpty(t, resp.Header().Get("X-Session-Id"))

	var turn model.TurnResponse
	decodeData(t, resp, &turn)
	require.Equal(t, resp.Header().Get("X-Session-Id"), turn.SessionID)
	require.Equal(t, model.MissingPaymentProvider, turn.MissingInfo)
}

func TestAgentQuerySessionHeaderContinuesConversation(t *testing.T) {
	router := setupRouter(t)

	resp := postQuery(t, router, map[string]string{"query": "How do I process a payment in javascript?"}, map[string]string{
		"X-Session-Id": "sess-h",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var first model.TurnResponse
	decodeData(t, resp, &first)
	require.Equal(t, model.MissingPaymentProvider, first.MissingInfo)

	resp = postQuery(t, router, map[string]string{"query": "I'm using Stripe"}, map[string]string{
		"X-Session-Id": "sess-h",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var second model.TurnResponse
	decodeData(t, resp, &second)
	require.Empty(t, second.MissingInfo)
	require.NotNil(t, second.IntentData)
	require.Equal(t, "stripe", second.IntentData.Provider)
}

func TestAgentProvidersEndpoint(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agent/providers", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var data struct {
		Providers []struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Chunks int    `json:"chunks"`
		} `json:"providers"`
	}
	decodeData(t, resp, &data)
	require.Len(t, data.Providers, 2)
	require.Equal(t, "stripe", data.Providers[0].ID)
	require.Equal(t, 1, data.Providers[0].Chunks)
}

func TestAgentHealthEndpoint(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agent/health", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var data struct {
		Status string `json:"status"`
	}
	decodeData(t, resp, &data)
	require.Equal(t, "ok", data.Status)
}
