package httpapi

import (
	"log/slog"

	"callpulse/internal/agents"
	"callpulse/internal/analytics"
	"callpulse/internal/audit"
	"callpulse/internal/auth"
	"callpulse/internal/calls"
	syncsvc "callpulse/internal/sync"
	"callpulse/internal/users"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Users     *users.Service
	Agents    agents.Repository
	Calls     calls.Repository
	Sync      *syncsvc.Service
	Analytics *analytics.Service

	// Audit is optional; a nil service records nothing.
	Audit *audit.Service

	Log *slog.Logger

	// Production suppresses internal error details in 500 responses.
	Production bool
}

// recordAudit appends a best-effort audit event for a mutating action.
func (h *Handlers) recordAudit(c *gin.Context, t audit.EventType, targetID, message string) {
	ctx := c.Request.Context()
	actorID, _ := auth.UserID(ctx)
	actorEmail, _ := auth.Email(ctx)
	h.Audit.Record(ctx, audit.Event{
		Type:        t,
		ActorUserID: actorID,
		ActorEmail:  actorEmail,
		IPAddress:   c.ClientIP(),
		TargetID:    targetID,
		Message:     message,
	})
}
