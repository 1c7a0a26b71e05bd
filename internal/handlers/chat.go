package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"vigia/internal/middleware"
	"vigia/internal/models"
	"vigia/internal/session"
)

// ChatHandlers serves the onboarding personalization chat. Replies come
// from an ordered keyword table; the first matching entry wins. Each
// exchange is appended to the session's onboarding transcript.
type ChatHandlers struct {
	hub *session.Hub
}

func NewChatHandlers(hub *session.Hub) *ChatHandlers {
	return &ChatHandlers{hub: hub}
}

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
	UserID  int    `json:"user_id"`
	Company string `json:"company"`
}

const chatDefaultReply = "Como posso ajudar você a personalizar seu dashboard?"

// onboardingReplies is evaluated in order. The completion keywords sit
// first so "firewall configurado, pronto" finishes onboarding instead of
// re-opening the firewall topic.
var onboardingReplies = []struct {
	keywords []string
	reply    string
}{
	{
		keywords: []string{"pronto", "finalizar"},
		reply:    "Dashboard configurado com sucesso! Você será redirecionado em instantes.",
	},
	{
		keywords: []string{"widget"},
		reply:    "Entendi! Vou adicionar widgets para você. Que tipo de informação você quer visualizar? Status dos dispositivos, gráficos de performance, alertas críticos?",
	},
	{
		keywords: []string{"firewall"},
		reply:    "Perfeito! Vou configurar o dashboard para exibir o status dos firewalls, tentativas de invasão bloqueadas e regras ativas.",
	},
	{
		keywords: []string{"switch"},
		reply:    "Ótimo! Adicionarei informações sobre switches: portas ativas, tráfego de rede e dispositivos conectados.",
	},
	{
		keywords: []string{"banco", "database"},
		reply:    "Entendido! Vou incluir métricas de banco de dados: conexões ativas, queries lentas e uso de memória.",
	},
	{
		keywords: []string{"internet", "link"},
		reply:    "Configurando! Vou mostrar informações dos links de internet: latência, banda utilizada e disponibilidade.",
	},
}

// OnboardingReply resolves the canned reply for one chat message.
func OnboardingReply(message string) string {
	lower := strings.ToLower(message)
	for _, entry := range onboardingReplies {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.reply
			}
		}
	}
	return chatDefaultReply
}

// Chat handles POST /api/chat.
func (h *ChatHandlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	message := middleware.SanitizeString(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message must not be empty"})
		return
	}
	reply := OnboardingReply(message)

	ctrl := h.hub.Get(resolveCompany(c, req.Company))
	ctrl.AppendChat(session.SurfaceOnboarding, models.RoleUser, message)
	ctrl.AppendChat(session.SurfaceOnboarding, models.RoleAssistant, reply)

	c.JSON(http.StatusOK, gin.H{
		"response":  reply,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// History handles GET /api/chat/history, returning the session's onboarding
// transcript oldest first.
func (h *ChatHandlers) History(c *gin.Context) {
	ctrl := h.hub.Get(resolveCompany(c, c.Query("company")))
	c.JSON(http.StatusOK, gin.H{"messages": ctrl.Transcript(session.SurfaceOnboarding)})
}
