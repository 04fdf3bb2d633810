package httpapi

import (
	"net/http"
	"strings"

	"callpulse/internal/agents"
	"callpulse/internal/audit"

	"github.com/gin-gonic/gin"
)

type createAgentRequest struct {
	AgentID string `json:"agentId"`
	Name    string `json:"name"`
}

type updateAgentRequest struct {
	Name   *string `json:"name"`
	Status *string `json:"status"`
}

func (h *Handlers) ListAgents(c *gin.Context) {
	page := parsePage(c)

	status := agents.Status(strings.ToUpper(strings.TrimSpace(c.Query("status"))))
	if status != "" && !status.Valid() {
		respondError(c, http.StatusBadRequest, "status must be ACTIVE or INACTIVE")
		return
	}

	rows, total, err := h.Agents.List(c.Request.Context(), agents.ListParams{
		Status: status,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"agents":     rows,
		"pagination": paginate(page, total),
	})
}

func (h *Handlers) GetAgent(c *gin.Context) {
	a, err := h.Agents.GetByAgentID(c.Request.Context(), c.Param("agentId"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	respondData(c, http.StatusOK, a)
}

func (h *Handlers) CreateAgent(c *gin.Context) {
	var req createAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json body")
		return
	}
	req.AgentID = strings.TrimSpace(req.AgentID)
	req.Name = strings.TrimSpace(req.Name)
	if req.AgentID == "" || req.Name == "" {
		respondError(c, http.StatusBadRequest, "agentId and name are required")
		return
	}

	a, err := h.Agents.Create(c.Request.Context(), agents.Agent{
		AgentID: req.AgentID,
		Name:    req.Name,
		Status:  agents.StatusActive,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	respondData(c, http.StatusCreated, a)
}

func (h *Handlers) UpdateAgent(c *gin.Context) {
	var req updateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json body")
		return
	}

	upd := agents.Update{Name: req.Name}
	if req.Status != nil {
		status := agents.Status(strings.ToUpper(strings.TrimSpace(*req.Status)))
		if !status.Valid() {
			respondError(c, http.StatusBadRequest, "status must be ACTIVE or INACTIVE")
			return
		}
		upd.Status = &status
	}
	if upd.Name == nil && upd.Status == nil {
		respondError(c, http.StatusBadRequest, "nothing to update")
		return
	}

	a, err := h.Agents.Update(c.Request.Context(), c.Param("agentId"), upd)
	if err != nil {
		h.renderError(c, err)
		return
	}
	respondData(c, http.StatusOK, a)
}

// DeleteAgent deactivates the agent. Rows are never removed so stored
// calls keep a valid agent reference.
func (h *Handlers) DeleteAgent(c *gin.Context) {
	a, err := h.Agents.Deactivate(c.Request.Context(), c.Param("agentId"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.recordAudit(c, audit.EventAgentDeactivated, a.AgentID, "agent deactivated")
	respondData(c, http.StatusOK, a)
}
