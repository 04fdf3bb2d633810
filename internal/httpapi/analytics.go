package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) AnalyticsOverview(c *gin.Context) {
	out, err := h.Analytics.Overview(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	respondData(c, http.StatusOK, out)
}

func (h *Handlers) AnalyticsAgent(c *gin.Context) {
	out, err := h.Analytics.AgentStats(c.Request.Context(), c.Param("agentId"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	respondData(c, http.StatusOK, out)
}

func (h *Handlers) AnalyticsSentiment(c *gin.Context) {
	out, err := h.Analytics.SentimentBreakdown(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	respondData(c, http.StatusOK, out)
}

func (h *Handlers) AnalyticsDisconnections(c *gin.Context) {
	out, err := h.Analytics.DisconnectionBreakdown(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	respondData(c, http.StatusOK, out)
}
