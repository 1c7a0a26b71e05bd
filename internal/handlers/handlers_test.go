package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"vigia/internal/assist"
	"vigia/internal/middleware"
	"vigia/internal/models"
	"vigia/internal/session"
	"vigia/internal/store"
)

type fixedSource struct{ snap *models.Snapshot }

func (s *fixedSource) Fetch(ctx context.Context, company string) (*models.Snapshot, error) {
	return s.snap, nil
}

func testSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Devices: []models.Device{
			{ID: 1, Name: "Firewall Principal", Type: models.DeviceFirewall, Status: models.StatusOnline, CPU: 45, Memory: 60, ThreatsBlocked: 230},
			{ID: 3, Name: "Servidor de Banco de Dados", Type: models.DeviceDatabase, Status: models.StatusOnline, Connections: 90, QueriesPerSec: 320},
			{ID: 4, Name: "Link de Internet", Type: models.DeviceInternet, Status: models.StatusOnline, LatencyMs: 28, BandwidthUsage: 55},
		},
		Alerts: []models.Alert{
			{ID: "a1", Severity: models.SeverityWarning, Title: "CPU elevada", Message: "Uso de CPU elevado no Database Server"},
		},
		GeneratedAt: time.Now(),
	}
}

type testEnv struct {
	router *gin.Engine
	users  *store.UserStore
	hub    *session.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	users := store.NewUserStore(filepath.Join(dir, "users.json"))
	if err := users.Load(); err != nil {
		t.Fatal(err)
	}
	if err := users.SeedDemoUsers(); err != nil {
		t.Fatal(err)
	}
	prefs := store.NewPreferenceStore(filepath.Join(dir, "preferences.json"))
	if err := prefs.Load(); err != nil {
		t.Fatal(err)
	}

	hub := session.NewHub(func(company string) *session.Controller {
		return session.NewController(session.Options{
			Company: company,
			Source:  &fixedSource{snap: testSnapshot()},
			Logger:  zerolog.Nop(),
		})
	})
	t.Cleanup(hub.Close)

	auth := middleware.NewAuthService("test-secret", time.Hour)
	log := zerolog.Nop()

	authHandlers := NewAuthHandlers(auth, users, log)
	chatHandlers := NewChatHandlers(hub)
	assistHandlers := NewAssistHandlers(assist.NewEngine(nil), hub)
	sessionHandlers := NewSessionHandlers(hub)
	prefHandlers := NewPreferenceHandlers(users, prefs, log)

	r := gin.New()
	r.POST("/api/login", authHandlers.Login)
	r.POST("/api/chat", chatHandlers.Chat)
	r.GET("/api/chat/history", chatHandlers.History)
	r.POST("/api/assist", assistHandlers.Assist)
	r.GET("/api/assist/history", assistHandlers.History)
	r.GET("/api/monitoring", sessionHandlers.Monitoring)
	r.POST("/api/session/refresh", sessionHandlers.Refresh)
	r.GET("/api/notifications", sessionHandlers.Notifications)
	r.POST("/api/notifications/:id/dismiss", sessionHandlers.DismissNotification)
	r.GET("/api/widgets", sessionHandlers.Widgets)
	r.POST("/api/widgets/reorder", sessionHandlers.ReorderWidgets)
	r.GET("/api/alerts/detail", sessionHandlers.AlertDetail)
	r.POST("/api/alerts/detail", sessionHandlers.OpenAlertDetail)
	r.DELETE("/api/alerts/detail", sessionHandlers.CloseAlertDetail)
	r.POST("/api/preferences/save", prefHandlers.Save)
	r.GET("/api/preferences/get", prefHandlers.Get)

	return &testEnv{router: r, users: users, hub: hub}
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/login", gin.H{"username": "magazine", "password": "demo123"})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["success"] != true {
		t.Error("expected success")
	}
	if resp["token"] == "" || resp["token"] == nil {
		t.Error("missing token")
	}
	user, _ := resp["user"].(map[string]any)
	if user["company_name"] != "Magazine TORRA" {
		t.Errorf("company = %v", user["company_name"])
	}
	if user["is_first_login"] != true {
		t.Error("fresh demo user should be in first login")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []gin.H{
		{"username": "magazine", "password": "wrong"},
		{"username": "ghost", "password": "demo123"},
	} {
		w := env.do(t, http.MethodPost, "/api/login", body)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d for %v", w.Code, body)
		}
		if resp := decode(t, w); resp["error"] != "Credenciais inválidas" {
			t.Errorf("error = %v", resp["error"])
		}
	}

	if w := env.do(t, http.MethodPost, "/api/login", gin.H{"username": "magazine"}); w.Code != http.StatusBadRequest {
		t.Errorf("missing password should be a 400, got %d", w.Code)
	}
	oversized := gin.H{"username": strings.Repeat("a", 65), "password": "demo123"}
	if w := env.do(t, http.MethodPost, "/api/login", oversized); w.Code != http.StatusBadRequest {
		t.Errorf("over-long username should be a 400, got %d", w.Code)
	}
}

func TestChatOnboardingReplies(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		message string
		want    string
	}{
		{"quero ver o firewall", "Perfeito! Vou configurar o dashboard"},
		{"me mostra os switches", "portas ativas"},
		{"dados do banco", "conexões ativas"},
		{"como está o link de internet?", "links de internet"},
		{"adiciona um widget", "Que tipo de informação"},
		{"firewall configurado, pronto", "Dashboard configurado com sucesso"},
		{"bom dia", "Como posso ajudar"},
	}
	for _, tc := range cases {
		w := env.do(t, http.MethodPost, "/api/chat", gin.H{"message": tc.message, "user_id": 1})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d for %q", w.Code, tc.message)
		}
		resp := decode(t, w)
		reply, _ := resp["response"].(string)
		if !strings.Contains(reply, tc.want) {
			t.Errorf("reply to %q = %q, want substring %q", tc.message, reply, tc.want)
		}
		if resp["timestamp"] == nil {
			t.Error("missing timestamp")
		}
	}
}

func TestChatTranscriptsAreIndependent(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/chat", gin.H{"message": "quero widgets", "company": "NIPO"})
	env.do(t, http.MethodPost, "/api/assist", gin.H{"message": "status do firewall", "company": "NIPO"})

	chat := decode(t, env.do(t, http.MethodGet, "/api/chat/history?company=NIPO", nil))
	messages, _ := chat["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("onboarding transcript length = %d, want 2", len(messages))
	}
	first, _ := messages[0].(map[string]any)
	if first["role"] != "user" || first["content"] != "quero widgets" {
		t.Errorf("first entry = %v", first)
	}

	assistant := decode(t, env.do(t, http.MethodGet, "/api/assist/history?company=NIPO", nil))
	assistMessages, _ := assistant["messages"].([]any)
	if len(assistMessages) != 2 {
		t.Fatalf("assistant transcript length = %d, want 2", len(assistMessages))
	}
	entry, _ := assistMessages[0].(map[string]any)
	if entry["content"] == "quero widgets" {
		t.Error("onboarding messages leaked into the assistant transcript")
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	env := newTestEnv(t)
	if w := env.do(t, http.MethodPost, "/api/chat", gin.H{"message": ""}); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestAssist(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/assist", gin.H{"message": "status do banco", "company": "Magazine TORRA"})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	reply, _ := decode(t, w)["response"].(string)
	if !strings.Contains(reply, "90") {
		t.Errorf("reply should carry the connection count, got %q", reply)
	}

	if w := env.do(t, http.MethodPost, "/api/assist", gin.H{"message": "   "}); w.Code != http.StatusBadRequest {
		t.Errorf("whitespace-only message should be a 400, got %d", w.Code)
	}
}

func TestMonitoring(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/monitoring?company=NIPO", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var snap models.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Devices) != 3 {
		t.Errorf("device count = %d", len(snap.Devices))
	}
}

func TestWidgetReorder(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/widgets/reorder?company=NIPO", gin.H{"from": "firewall", "to": "database"})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	widgets, _ := decode(t, w)["widgets"].([]any)
	want := []string{"switch", "database", "firewall", "internet", "alerts"}
	if len(widgets) != len(want) {
		t.Fatalf("widget count = %d", len(widgets))
	}
	for i, id := range want {
		if widgets[i] != id {
			t.Errorf("widgets[%d] = %v, want %s", i, widgets[i], id)
		}
	}

	if w := env.do(t, http.MethodPost, "/api/widgets/reorder", gin.H{"from": "firewall"}); w.Code != http.StatusBadRequest {
		t.Errorf("missing field should be a 400, got %d", w.Code)
	}
	long := gin.H{"from": strings.Repeat("x", 33), "to": "alerts"}
	if w := env.do(t, http.MethodPost, "/api/widgets/reorder", long); w.Code != http.StatusBadRequest {
		t.Errorf("over-long widget id should be a 400, got %d", w.Code)
	}
}

func TestAlertDetailFlow(t *testing.T) {
	env := newTestEnv(t)

	// Modal starts closed.
	resp := decode(t, env.do(t, http.MethodGet, "/api/alerts/detail?company=NIPO", nil))
	if resp["open"] != false {
		t.Error("modal should start closed")
	}

	// The first monitoring call seeds the snapshot the alert lives in.
	env.do(t, http.MethodGet, "/api/monitoring?company=NIPO", nil)

	w := env.do(t, http.MethodPost, "/api/alerts/detail?company=NIPO", gin.H{"id": "a1"})
	if w.Code != http.StatusOK {
		t.Fatalf("open status = %d, body = %s", w.Code, w.Body.String())
	}

	resp = decode(t, env.do(t, http.MethodGet, "/api/alerts/detail?company=NIPO", nil))
	if resp["open"] != true {
		t.Fatal("modal should be open")
	}
	alert, _ := resp["alert"].(map[string]any)
	if alert["id"] != "a1" {
		t.Errorf("alert id = %v", alert["id"])
	}

	if w := env.do(t, http.MethodPost, "/api/alerts/detail?company=NIPO", gin.H{"id": "missing"}); w.Code != http.StatusNotFound {
		t.Errorf("unknown alert should be a 404, got %d", w.Code)
	}

	if w := env.do(t, http.MethodDelete, "/api/alerts/detail?company=NIPO", nil); w.Code != http.StatusOK {
		t.Errorf("close status = %d", w.Code)
	}
	resp = decode(t, env.do(t, http.MethodGet, "/api/alerts/detail?company=NIPO", nil))
	if resp["open"] != false {
		t.Error("modal should be closed again")
	}
}

func TestDismissUnknownNotification(t *testing.T) {
	env := newTestEnv(t)
	if w := env.do(t, http.MethodPost, "/api/notifications/nope/dismiss?company=NIPO", nil); w.Code != http.StatusOK {
		t.Errorf("idempotent dismiss should answer 200, got %d", w.Code)
	}
}

func TestPreferences(t *testing.T) {
	env := newTestEnv(t)

	body := gin.H{
		"user_id": 1,
		"preferences": gin.H{
			"layout":  gin.H{"theme": "dark"},
			"widgets": []string{"firewall", "alerts"},
		},
	}
	w := env.do(t, http.MethodPost, "/api/preferences/save", body)
	if w.Code != http.StatusOK {
		t.Fatalf("save status = %d, body = %s", w.Code, w.Body.String())
	}

	// Saving preferences completes onboarding.
	u, _ := env.users.GetByID(1)
	if u.IsFirstLogin {
		t.Error("saving preferences should flip is_first_login")
	}

	resp := decode(t, env.do(t, http.MethodGet, "/api/preferences/get?user_id=1", nil))
	layout, _ := resp["layout"].(map[string]any)
	if layout["theme"] != "dark" {
		t.Errorf("layout = %v", resp["layout"])
	}

	if w := env.do(t, http.MethodPost, "/api/preferences/save", gin.H{"user_id": 999}); w.Code != http.StatusNotFound {
		t.Errorf("unknown user should be a 404, got %d", w.Code)
	}

	// Unknown users read back the empty layout.
	resp = decode(t, env.do(t, http.MethodGet, "/api/preferences/get?user_id=42", nil))
	if layout, ok := resp["layout"].(map[string]any); !ok || len(layout) != 0 {
		t.Errorf("unknown user layout = %v", resp["layout"])
	}
}
