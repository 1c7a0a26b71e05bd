// Package handlers exposes the Vigia HTTP API: login, the onboarding chat,
// the floating assistant, monitoring snapshots, dashboard session commands,
// and preference persistence.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"vigia/internal/middleware"
	"vigia/internal/store"
)

type AuthHandlers struct {
	auth  *middleware.AuthService
	users *store.UserStore
	log   zerolog.Logger
}

func NewAuthHandlers(auth *middleware.AuthService, users *store.UserStore, log zerolog.Logger) *AuthHandlers {
	return &AuthHandlers{auth: auth, users: users, log: log}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required" validate:"required,max=64"`
	Password string `json:"password" binding:"required" validate:"required,max=128"`
}

type loginUser struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	CompanyName  string `json:"company_name"`
	IsFirstLogin bool   `json:"is_first_login"`
}

// Login handles POST /api/login. Wire shape follows the original API:
// {success, user} plus a bearer token for the rest of the API.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
		return
	}
	if err := middleware.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
		return
	}

	username := middleware.SanitizeString(req.Username)
	password := strings.TrimSpace(req.Password)

	u, exists := h.users.Get(username)
	if !exists || !h.users.CheckPassword(username, password) {
		h.log.Info().Str("username", username).Str("ip", c.ClientIP()).Msg("login failed")
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Credenciais inválidas"})
		return
	}

	token, err := h.auth.GenerateToken(u.Username, u.ID, u.CompanyName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to generate authentication token"})
		return
	}
	h.auth.SetAuthCookie(c, token)

	h.log.Info().Str("username", username).Str("ip", c.ClientIP()).Msg("login successful")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user": loginUser{
			ID:           u.ID,
			Username:     u.Username,
			CompanyName:  u.CompanyName,
			IsFirstLogin: u.IsFirstLogin,
		},
	})
}
