package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newAuthRouter(auth *AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.Use(auth.RequireAPIAuth())
	api.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"username": c.GetString("username"),
			"user_id":  c.GetInt("user_id"),
			"company":  c.GetString("company"),
		})
	})
	return r
}

func TestTokenRoundTrip(t *testing.T) {
	auth := NewAuthService("test-secret", time.Hour)
	token, err := auth.GenerateToken("magazine", 1, "Magazine TORRA")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Username != "magazine" || claims.UserID != 1 || claims.Company != "Magazine TORRA" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewAuthService("secret-a", time.Hour).GenerateToken("magazine", 1, "Magazine TORRA")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewAuthService("secret-b", time.Hour).ValidateToken(token); err == nil {
		t.Error("token signed with another secret should fail validation")
	}
}

func TestRequireAPIAuth(t *testing.T) {
	auth := NewAuthService("test-secret", time.Hour)
	r := newAuthRouter(auth)

	// No credentials.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/whoami", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous request status = %d", w.Code)
	}

	// Bearer token.
	token, err := auth.GenerateToken("nipo", 2, "NIPO")
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("authorized request status = %d, body = %s", w.Code, w.Body.String())
	}

	// Cookie fallback.
	req = httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("cookie request status = %d", w.Code)
	}

	// Garbage token.
	req = httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d", w.Code)
	}
}

func TestRepeatedFailuresLockOut(t *testing.T) {
	auth := NewAuthService("test-secret", time.Hour)
	r := newAuthRouter(auth)

	var last int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("expected a lockout after repeated failures, got %d", last)
	}
}

func TestSanitizeString(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  magazine  ", "magazine"},
		{"nipo\x00", "nipo"},
		{"line\nbreak", "line\nbreak"},
		{"\x1b[31mred\x1b[0m", "[31mred[0m"},
	}
	for _, tc := range cases {
		if got := SanitizeString(tc.in); got != tc.want {
			t.Errorf("SanitizeString(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
