package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/payagent/internal/middleware"
)

type RouterDeps struct {
	Agent     *AgentHandler
	JWTSecret []byte
	RateLimit time.Duration
}

// RegisterRoutes mounts the agent API. Bearer auth is optional: with
// no secret configured the endpoints are open.
func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/agent/health", deps.Agent.Health)

	group := api.Group("")
	if len(deps.JWTSecret) > 0 {
		group.Use(middleware.JWTAuth(deps.JWTSecret))
	}
	if deps.RateLimit > 0 {
		group.Use(middleware.RateLimit(deps.RateLimit))
	}
	group.POST("/agent/query", deps.Agent.Query)
	group.GET("/agent/providers", deps.Agent.Providers)
}
