package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"callpulse/internal/audit"
	syncsvc "callpulse/internal/sync"

	"github.com/gin-gonic/gin"
)

type syncRequest struct {
	AgentID string `json:"agentId"`
	Days    int    `json:"days"`
}

// SyncCalls pulls the provider window and reconciles it into storage.
// The summary rides flat in the envelope, not under data.
func (h *Handlers) SyncCalls(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json body")
		return
	}

	summary, err := h.Sync.Run(c.Request.Context(), syncsvc.Params{
		AgentID: strings.TrimSpace(req.AgentID),
		Days:    req.Days,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	// Aggregates are stale the moment new rows land.
	if h.Analytics != nil {
		agentIDs := []string{}
		if req.AgentID != "" {
			agentIDs = append(agentIDs, req.AgentID)
		}
		h.Analytics.InvalidateAll(c.Request.Context(), agentIDs...)
	}

	h.recordAudit(c, audit.EventSyncTriggered, req.AgentID,
		fmt.Sprintf("sync over %d days: %d created, %d updated, %d errors",
			req.Days, summary.Synced, summary.Updated, summary.Errors))

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"callsSynced":  summary.Synced,
		"callsUpdated": summary.Updated,
		"errors":       summary.Errors,
	})
}
