package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"vigia/internal/store"
)

// PreferenceHandlers persists per-user dashboard layout and widget lists.
type PreferenceHandlers struct {
	users *store.UserStore
	prefs *store.PreferenceStore
	log   zerolog.Logger
}

func NewPreferenceHandlers(users *store.UserStore, prefs *store.PreferenceStore, log zerolog.Logger) *PreferenceHandlers {
	return &PreferenceHandlers{users: users, prefs: prefs, log: log}
}

type SavePreferencesRequest struct {
	UserID      int `json:"user_id" binding:"required"`
	Preferences struct {
		Layout  json.RawMessage `json:"layout"`
		Widgets json.RawMessage `json:"widgets"`
	} `json:"preferences"`
}

// Save handles POST /api/preferences/save. Saving a layout also completes
// onboarding for the user (is_first_login flips to false), as the original
// API did.
func (h *PreferenceHandlers) Save(c *gin.Context) {
	var req SavePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
		return
	}
	if _, ok := h.users.GetByID(req.UserID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Usuário não encontrado"})
		return
	}
	if err := h.prefs.Save(req.UserID, req.Preferences.Layout, req.Preferences.Widgets); err != nil {
		h.log.Error().Err(err).Int("user_id", req.UserID).Msg("failed to persist preferences")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to save preferences"})
		return
	}
	if err := h.users.MarkOnboarded(req.UserID); err != nil {
		h.log.Error().Err(err).Int("user_id", req.UserID).Msg("failed to complete onboarding")
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Get handles GET /api/preferences/get?user_id=. Unknown users answer the
// empty layout rather than an error, matching the original API.
func (h *PreferenceHandlers) Get(c *gin.Context) {
	userID, err := strconv.Atoi(c.Query("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be an integer"})
		return
	}
	pref := h.prefs.Get(userID)
	c.JSON(http.StatusOK, gin.H{
		"layout":  pref.Layout,
		"widgets": pref.Widgets,
	})
}
