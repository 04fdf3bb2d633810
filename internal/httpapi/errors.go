package httpapi

import (
	"errors"
	"net/http"

	"callpulse/internal/agents"
	"callpulse/internal/calls"
	syncsvc "callpulse/internal/sync"
	"callpulse/internal/users"

	"github.com/gin-gonic/gin"
)

// renderError maps service/repo sentinels onto the HTTP taxonomy:
// 400 validation, 401 auth, 403 authorization, 404 missing resource,
// 409 uniqueness conflict, 500 everything else. Unexpected errors are
// logged with request context; their details reach the client only
// outside production.
func (h *Handlers) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, users.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "invalid email or password")

	case errors.Is(err, users.ErrAccountInactive):
		respondError(c, http.StatusForbidden, "account is inactive")

	case errors.Is(err, users.ErrNotFound):
		respondError(c, http.StatusNotFound, "user not found")
	case errors.Is(err, agents.ErrNotFound):
		respondError(c, http.StatusNotFound, "agent not found")
	case errors.Is(err, calls.ErrNotFound):
		respondError(c, http.StatusNotFound, "call not found")

	case errors.Is(err, users.ErrEmailTaken):
		respondError(c, http.StatusConflict, "email already registered")
	case errors.Is(err, agents.ErrConflict):
		respondError(c, http.StatusConflict, "agent already exists")

	case errors.Is(err, users.ErrSelfRoleChange),
		errors.Is(err, users.ErrSelfDelete),
		errors.Is(err, users.ErrInvalidRole),
		errors.Is(err, syncsvc.ErrInvalidParams),
		errors.Is(err, calls.ErrEndBeforeStart),
		errors.Is(err, calls.ErrNegativeCost),
		errors.Is(err, calls.ErrDurationMismatch):
		respondError(c, http.StatusBadRequest, err.Error())

	default:
		h.Log.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"err", err,
		)
		msg := "internal server error"
		if !h.Production {
			msg = err.Error()
		}
		respondError(c, http.StatusInternalServerError, msg)
	}
}
