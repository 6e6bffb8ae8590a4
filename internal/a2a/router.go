package a2a

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter wires every endpoint of the agent.
func NewRouter(h *A2AHandler, log *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLoggingMiddleware(log))

	router.GET("/.well-known/agent.json", h.ServeAgentCard)
	router.POST("/a2a/generator", h.HandleGenerator)

	v1 := router.Group("/v1")
	v1.POST("/profile", h.HandleProfile)
	v1.POST("/events", h.HandleEvents)
	v1.POST("/schedule", h.HandleSchedule)

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return router
}
