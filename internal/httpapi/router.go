package httpapi

import (
	"net/http"

	"callpulse/internal/auth"
	"callpulse/internal/rbac"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the route table. Everything except the health
// probe and the auth endpoints sits behind RequireAuth; user management
// additionally requires an admin token.
func RegisterRoutes(r *gin.Engine, h *Handlers, tokens *auth.Manager) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
	}

	api := r.Group("/")
	api.Use(auth.RequireAuth(tokens))
	{
		api.GET("/me", h.Me)

		api.GET("/agents", h.ListAgents)
		api.POST("/agents", h.CreateAgent)
		api.GET("/agents/:agentId", h.GetAgent)
		api.PUT("/agents/:agentId", h.UpdateAgent)
		api.DELETE("/agents/:agentId", h.DeleteAgent)

		api.GET("/calls", h.ListCalls)
		api.GET("/calls/:callId", h.GetCall)
		api.GET("/call-history/:agentId", h.CallHistory)
		api.GET("/search/calls", h.SearchCalls)

		api.POST("/sync-calls", h.SyncCalls)

		api.GET("/analytics/overview", h.AnalyticsOverview)
		api.GET("/analytics/agents/:agentId", h.AnalyticsAgent)
		api.GET("/analytics/sentiment", h.AnalyticsSentiment)
		api.GET("/analytics/disconnection-reasons", h.AnalyticsDisconnections)

		admin := api.Group("/users")
		admin.Use(rbac.RequireAdmin())
		{
			admin.GET("", h.ListUsers)
			admin.GET("/:id", h.GetUser)
			admin.PUT("/:id", h.UpdateUser)
			admin.DELETE("/:id", h.DeleteUser)
		}
	}
}
