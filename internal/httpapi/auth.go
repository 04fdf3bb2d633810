package httpapi

import (
	"net/http"
	"strings"

	"callpulse/internal/auth"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondError(c, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		respondError(c, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if req.Name == "" {
		respondError(c, http.StatusBadRequest, "name is required")
		return
	}

	u, pair, err := h.Users.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.renderError(c, err)
		return
	}
	respondData(c, http.StatusCreated, gin.H{
		"user":   u,
		"tokens": tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
	})
}

func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "email and password are required")
		return
	}

	u, pair, err := h.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.renderError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"user":   u,
		"tokens": tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
	})
}

func (h *Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		respondError(c, http.StatusBadRequest, "refreshToken is required")
		return
	}

	pair, err := h.Users.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		// Any refresh failure reads as an auth failure to the client;
		// distinguishing expired from forged tokens helps nobody.
		respondError(c, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	respondData(c, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Me returns the authenticated caller's account. Service-key callers
// have no account and get the identity attributes only.
func (h *Handlers) Me(c *gin.Context) {
	ctx := c.Request.Context()
	method, err := auth.AuthMethod(ctx)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}
	if method == auth.MethodServiceKey {
		respondData(c, http.StatusOK, gin.H{"authMethod": string(method)})
		return
	}

	userID, err := auth.UserID(ctx)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}
	u, err := h.Users.Get(ctx, userID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	respondData(c, http.StatusOK, u)
}
