// README: Tests for bearer auth, role checks, request logging and panic recovery.
package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"taxihub/internal/http/middleware"
	"taxihub/internal/infra"
)

// stubVerifier is a test double for infra.TokenVerifier.
type stubVerifier struct {
	token *infra.Token
	err   error
}

func (s *stubVerifier) VerifyIDToken(_ context.Context, _ string) (*infra.Token, error) {
	return s.token, s.err
}

func echo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"uid": middleware.CallerUID(c), "role": middleware.CallerRole(c)})
}

func newTestRouter(verifier infra.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth(verifier))
	r.GET("/test", echo)
	return r
}

func serve(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_MissingHeader(t *testing.T) {
	r := newTestRouter(&stubVerifier{token: &infra.Token{UID: "user1"}})
	if w := serve(r, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_InvalidBearerPrefix(t *testing.T) {
	r := newTestRouter(&stubVerifier{token: &infra.Token{UID: "user1"}})
	if w := serve(r, "Token sometoken"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_VerifierError(t *testing.T) {
	r := newTestRouter(&stubVerifier{err: errors.New("bad token")})
	if w := serve(r, "Bearer invalidtoken"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_ValidToken_UIDAndRolePopulated(t *testing.T) {
	token := &infra.Token{
		UID:    "provider123",
		Claims: map[string]interface{}{"role": "provider"},
	}
	w := serve(newTestRouter(&stubVerifier{token: token}), "Bearer validtoken")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"uid":"provider123"`) {
		t.Errorf("expected uid provider123 in body, got %s", body)
	}
	if !strings.Contains(body, `"role":"provider"`) {
		t.Errorf("expected role provider in body, got %s", body)
	}
}

func TestAuth_ValidToken_NoRoleClaim(t *testing.T) {
	token := &infra.Token{UID: "passenger456", Claims: map[string]interface{}{}}
	w := serve(newTestRouter(&stubVerifier{token: token}), "Bearer validtoken")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"role":""`) {
		t.Errorf("expected empty role, got %s", w.Body.String())
	}
}

func TestOptionalAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name     string
		verifier *stubVerifier
		header   string
		wantCode int
		wantUID  string
	}{
		{"anonymous", &stubVerifier{err: errors.New("unused")}, "", http.StatusOK, ""},
		{"valid", &stubVerifier{token: &infra.Token{UID: "u1"}}, "Bearer ok", http.StatusOK, "u1"},
		{"invalid", &stubVerifier{err: errors.New("expired")}, "Bearer nope", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(middleware.OptionalAuth(tt.verifier))
			r.GET("/test", echo)
			w := serve(r, tt.header)
			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, w.Code)
			}
			if tt.wantCode == http.StatusOK && !strings.Contains(w.Body.String(), `"uid":"`+tt.wantUID+`"`) {
				t.Errorf("unexpected body %s", w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		role     string
		wantCode int
	}{
		{"admin", http.StatusOK},
		{"provider", http.StatusForbidden},
		{"", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run("role="+tt.role, func(t *testing.T) {
			claims := map[string]interface{}{}
			if tt.role != "" {
				claims["role"] = tt.role
			}
			r := gin.New()
			r.Use(middleware.Auth(&stubVerifier{token: &infra.Token{UID: "x", Claims: claims}}))
			r.Use(middleware.RequireRole(middleware.RoleAdmin))
			r.GET("/test", echo)
			if w := serve(r, "Bearer t"); w.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, w.Code)
			}
		})
	}
}

func TestLoggingAndRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	r := gin.New()
	r.Use(middleware.Logging(log), middleware.Recovery(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(middleware.HeaderRequestID, "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(middleware.HeaderRequestID); got != "rid-1" {
		t.Errorf("expected request id echoed, got %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if w.Header().Get(middleware.HeaderRequestID) == "" {
		t.Error("expected generated request id")
	}

	if n := logs.FilterMessage("panic recovered").Len(); n != 1 {
		t.Errorf("expected 1 panic log, got %d", n)
	}
	reqLogs := logs.FilterMessage("request").All()
	if len(reqLogs) != 2 {
		t.Fatalf("expected 2 request logs, got %d", len(reqLogs))
	}
	if reqLogs[1].Level != zap.ErrorLevel {
		t.Errorf("expected error level for 500, got %v", reqLogs[1].Level)
	}
}
