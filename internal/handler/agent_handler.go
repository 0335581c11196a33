package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/xxxsen/payagent/internal/agent"
	"github.com/xxxsen/payagent/internal/kb"
	"github.com/xxxsen/payagent/internal/pkg/errcode"
	"github.com/xxxsen/payagent/internal/pkg/response"
)

const sessionIDHeader = "X-Session-Id"

type AgentHandler struct {
	agent *agent.Agent
}

func NewAgentHandler(a *agent.Agent) *AgentHandler {
	return &AgentHandler{agent: a}
}

type queryRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

// Query runs one conversation turn. The session id comes from the
// body, then the X-Session-Id header; without either the server mints
// one and echoes it back so the client can continue the conversation.
func (h *AgentHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = c.GetHeader(sessionIDHeader)
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	resp, err := h.agent.ProcessQuery(c.Request.Context(), sessionID, req.Query)
	if err != nil {
		handleError(c, err)
		return
	}
	c.Header(sessionIDHeader, sessionID)
	response.Success(c, resp)
}

type providerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Chunks int    `json:"chunks"`
}

// Providers lists the supported payment providers and how much
// documentation is indexed for each.
func (h *AgentHandler) Providers(c *gin.Context) {
	counts := h.agent.Retriever().ChunkCounts()
	out := make([]providerInfo, 0, len(counts))
	for _, cfg := range kb.ListProviders() {
		if n, ok := counts[cfg.ID]; ok {
			out = append(out, providerInfo{ID: cfg.ID, Name: cfg.Name, Chunks: n})
		}
	}
	response.Success(c, gin.H{"providers": out})
}

func (h *AgentHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{
		"status":   "ok",
		"sessions": h.agent.Sessions().Len(),
	})
}
