package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vigia/internal/middleware"
	"vigia/internal/session"
)

// SessionHandlers exposes the live dashboard session: the monitoring
// snapshot, notification queue, widget order, and alert-detail modal.
type SessionHandlers struct {
	hub *session.Hub
}

func NewSessionHandlers(hub *session.Hub) *SessionHandlers {
	return &SessionHandlers{hub: hub}
}

func (h *SessionHandlers) controller(c *gin.Context) *session.Controller {
	return h.hub.Get(resolveCompany(c, c.Query("company")))
}

// Monitoring handles GET /api/monitoring?company=. The session is started
// on first use, so the first call may trigger the initial fetch.
func (h *SessionHandlers) Monitoring(c *gin.Context) {
	ctrl := h.controller(c)
	snap := ctrl.Snapshot()
	if snap == nil {
		ctrl.RefreshNow(c.Request.Context())
		snap = ctrl.Snapshot()
	}
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No monitoring data available yet"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Refresh handles POST /api/session/refresh.
func (h *SessionHandlers) Refresh(c *gin.Context) {
	ctrl := h.controller(c)
	ctrl.RefreshNow(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Notifications handles GET /api/notifications.
func (h *SessionHandlers) Notifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": h.controller(c).Notifications()})
}

// DismissNotification handles POST /api/notifications/:id/dismiss.
// Dismissal is idempotent, so unknown ids still answer 200.
func (h *SessionHandlers) DismissNotification(c *gin.Context) {
	h.controller(c).DismissNotification(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Widgets handles GET /api/widgets.
func (h *SessionHandlers) Widgets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"widgets": h.controller(c).WidgetOrder()})
}

type ReorderRequest struct {
	From string `json:"from" binding:"required" validate:"required,max=32"`
	To   string `json:"to" binding:"required" validate:"required,max=32"`
}

// ReorderWidgets handles POST /api/widgets/reorder. The dashboard sends one
// request per drag-enter event, so the operation tolerates repeats and
// from == to. Unknown ids are no-ops, not errors.
func (h *SessionHandlers) ReorderWidgets(c *gin.Context) {
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if err := middleware.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	ctrl := h.controller(c)
	ctrl.ReorderWidget(req.From, req.To)
	c.JSON(http.StatusOK, gin.H{"widgets": ctrl.WidgetOrder()})
}

type AlertDetailRequest struct {
	ID string `json:"id" binding:"required"`
}

// OpenAlertDetail handles POST /api/alerts/detail. Opening while a detail
// is already shown replaces it.
func (h *SessionHandlers) OpenAlertDetail(c *gin.Context) {
	var req AlertDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	alert, ok := h.controller(c).OpenAlertDetail(req.ID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found in current snapshot"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alert": alert})
}

// AlertDetail handles GET /api/alerts/detail.
func (h *SessionHandlers) AlertDetail(c *gin.Context) {
	alert, ok := h.controller(c).AlertDetail()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"open": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"open": true, "alert": alert})
}

// CloseAlertDetail handles DELETE /api/alerts/detail.
func (h *SessionHandlers) CloseAlertDetail(c *gin.Context) {
	h.controller(c).CloseAlertDetail()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
