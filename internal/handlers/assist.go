package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vigia/internal/assist"
	"vigia/internal/middleware"
	"vigia/internal/models"
	"vigia/internal/session"
)

// AssistHandlers serves the floating dashboard assistant. Questions run
// through the response engine against the company session's latest
// committed snapshot.
type AssistHandlers struct {
	engine *assist.Engine
	hub    *session.Hub
}

func NewAssistHandlers(engine *assist.Engine, hub *session.Hub) *AssistHandlers {
	return &AssistHandlers{engine: engine, hub: hub}
}

type AssistRequest struct {
	Message string `json:"message" binding:"required"`
	Company string `json:"company"`
}

// Assist handles POST /api/assist. Whitespace-only messages are rejected
// before the engine is invoked.
func (h *AssistHandlers) Assist(c *gin.Context) {
	var req AssistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	message := middleware.SanitizeString(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message must not be empty"})
		return
	}

	company := resolveCompany(c, req.Company)
	ctrl := h.hub.Get(company)
	reply := h.engine.Respond(message, ctrl.Snapshot())
	ctrl.AppendChat(session.SurfaceAssistant, models.RoleUser, message)
	ctrl.AppendChat(session.SurfaceAssistant, models.RoleAssistant, reply)

	c.JSON(http.StatusOK, gin.H{"response": reply})
}

// History handles GET /api/assist/history. The assistant transcript is
// independent of the onboarding chat's.
func (h *AssistHandlers) History(c *gin.Context) {
	ctrl := h.hub.Get(resolveCompany(c, c.Query("company")))
	c.JSON(http.StatusOK, gin.H{"messages": ctrl.Transcript(session.SurfaceAssistant)})
}

// resolveCompany prefers the explicit request value and falls back to the
// company baked into the caller's token.
func resolveCompany(c *gin.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if company := c.GetString("company"); company != "" {
		return company
	}
	return "default"
}
