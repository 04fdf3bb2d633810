package httpapi

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Response envelope. Success payloads ride under "data"; failures set
// error=true with a human-readable message.

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": true, "message": message})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   true,
		"message": message,
	})
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

// pageQuery is the parsed limit/offset pair. Out-of-range values are
// clamped, never rejected.
type pageQuery struct {
	Limit  int
	Offset int
}

func parsePage(c *gin.Context) pageQuery {
	p := pageQuery{Limit: defaultLimit, Offset: 0}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.Offset = n
		}
	}
	if p.Limit < 1 {
		p.Limit = 1
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

func paginate(p pageQuery, total int) pagination {
	return pagination{
		Total:   total,
		Limit:   p.Limit,
		Offset:  p.Offset,
		HasMore: p.Offset+p.Limit < total,
	}
}
