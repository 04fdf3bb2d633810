package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"callpulse/internal/agents"
	"callpulse/internal/calls"

	"github.com/gin-gonic/gin"
)

// parseCallFilter reads the shared call query parameters. An empty
// sortBy defaults to start-time, newest first.
func parseCallFilter(c *gin.Context) (calls.Filter, calls.Sort, error) {
	f := calls.Filter{
		AgentID:   strings.TrimSpace(c.Query("agentId")),
		Sentiment: strings.TrimSpace(c.Query("sentiment")),
	}

	if v := c.Query("successful"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return calls.Filter{}, "", fmt.Errorf("successful must be true or false")
		}
		f.Successful = &b
	}
	if v := c.Query("from"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return calls.Filter{}, "", fmt.Errorf("from must be a millisecond timestamp")
		}
		f.FromMs = n
	}
	if v := c.Query("to"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return calls.Filter{}, "", fmt.Errorf("to must be a millisecond timestamp")
		}
		f.ToMs = n
	}

	sortBy := calls.Sort(c.DefaultQuery("sortBy", string(calls.SortStartDesc)))
	if !sortBy.Valid() {
		return calls.Filter{}, "", fmt.Errorf("sortBy must be one of start_time, duration, cost")
	}
	return f, sortBy, nil
}

func (h *Handlers) listCalls(c *gin.Context, f calls.Filter, sortBy calls.Sort) {
	page := parsePage(c)
	rows, total, err := h.Calls.List(c.Request.Context(), f, sortBy, calls.Page{
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"calls":      rows,
		"pagination": paginate(page, total),
	})
}

func (h *Handlers) ListCalls(c *gin.Context) {
	f, sortBy, err := parseCallFilter(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	h.listCalls(c, f, sortBy)
}

func (h *Handlers) GetCall(c *gin.Context) {
	call, err := h.Calls.GetByCallID(c.Request.Context(), c.Param("callId"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	respondData(c, http.StatusOK, call)
}

// CallHistory lists one agent's calls. The agent must exist; an agent
// with zero calls yields an empty page, not a 404.
func (h *Handlers) CallHistory(c *gin.Context) {
	agentID := c.Param("agentId")
	if _, err := h.Agents.GetByAgentID(c.Request.Context(), agentID); err != nil {
		if errors.Is(err, agents.ErrNotFound) {
			respondError(c, http.StatusNotFound, fmt.Sprintf("Agent with ID %s not found", agentID))
			return
		}
		h.renderError(c, err)
		return
	}

	f, sortBy, err := parseCallFilter(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	f.AgentID = agentID
	h.listCalls(c, f, sortBy)
}

// SearchCalls is a case-insensitive substring search across transcript,
// summary, sentiment and disconnection reason.
func (h *Handlers) SearchCalls(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		respondError(c, http.StatusBadRequest, "q is required")
		return
	}

	f, sortBy, err := parseCallFilter(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	f.Search = q
	h.listCalls(c, f, sortBy)
}
