package httpapi

import (
	"net/http"
	"strings"

	"callpulse/internal/audit"
	"callpulse/internal/auth"
	"callpulse/internal/users"

	"github.com/gin-gonic/gin"
)

type updateUserRequest struct {
	Name   *string `json:"name"`
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

func (h *Handlers) ListUsers(c *gin.Context) {
	page := parsePage(c)
	rows, total, err := h.Users.List(c.Request.Context(), users.ListParams{
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"users":      rows,
		"pagination": paginate(page, total),
	})
}

func (h *Handlers) GetUser(c *gin.Context) {
	u, err := h.Users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	respondData(c, http.StatusOK, u)
}

func (h *Handlers) UpdateUser(c *gin.Context) {
	actorID, err := auth.UserID(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json body")
		return
	}

	upd := users.Update{Name: req.Name}
	if req.Role != nil {
		role := strings.ToUpper(strings.TrimSpace(*req.Role))
		upd.Role = &role
	}
	if req.Status != nil {
		status := strings.ToUpper(strings.TrimSpace(*req.Status))
		if status != users.StatusActive && status != users.StatusInactive {
			respondError(c, http.StatusBadRequest, "status must be ACTIVE or INACTIVE")
			return
		}
		upd.Status = &status
	}
	if upd.Name == nil && upd.Role == nil && upd.Status == nil {
		respondError(c, http.StatusBadRequest, "nothing to update")
		return
	}

	u, err := h.Users.UpdateUser(c.Request.Context(), actorID, c.Param("id"), upd)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.recordAudit(c, audit.EventUserUpdated, u.ID, "user updated")
	respondData(c, http.StatusOK, u)
}

func (h *Handlers) DeleteUser(c *gin.Context) {
	actorID, err := auth.UserID(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.Users.DeleteUser(c.Request.Context(), actorID, c.Param("id")); err != nil {
		h.renderError(c, err)
		return
	}
	h.recordAudit(c, audit.EventUserDeleted, c.Param("id"), "user deleted")
	respondMessage(c, http.StatusOK, "user deleted")
}
