package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hrbackend/internal/i18n"
	"hrbackend/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func signToken(t *testing.T, secret string, sub string, role workflow.Role, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": string(role),
		"name": "Sonia",
		"exp":  exp.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newRouter(auth *Auth, roles ...workflow.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", auth.RequireRole(roles...), func(c *gin.Context) {
		role, _ := c.Get(ContextUserRole)
		c.JSON(http.StatusOK, gin.H{"user": CurrentUserID(c).String(), "role": role})
	})
	return r
}

func TestRequireRole(t *testing.T) {
	auth := NewAuth("secret", false)
	userID := uuid.New()
	valid := signToken(t, "secret", userID.String(), workflow.RoleHR, time.Now().Add(time.Hour))

	tests := []struct {
		name   string
		roles  []workflow.Role
		header string
		want   int
	}{
		{"missing token", nil, "", http.StatusUnauthorized},
		{"malformed header", nil, "Token " + valid, http.StatusUnauthorized},
		{"wrong secret", nil, "Bearer " + signToken(t, "other", userID.String(), workflow.RoleHR, time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"expired", nil, "Bearer " + signToken(t, "secret", userID.String(), workflow.RoleHR, time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"unknown role", nil, "Bearer " + signToken(t, "secret", userID.String(), "GUEST", time.Now().Add(time.Hour)), http.StatusForbidden},
		{"any staff", nil, "Bearer " + valid, http.StatusOK},
		{"allowed role", []workflow.Role{workflow.RoleHR, workflow.RoleAdmin}, "Bearer " + valid, http.StatusOK},
		{"forbidden role", []workflow.Role{workflow.RoleAdmin}, "Bearer " + valid, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(auth, tt.roles...)
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Contains(t, w.Body.String(), userID.String())
			}
		})
	}
}

func TestRequireRoleReadsCookie(t *testing.T) {
	auth := NewAuth("secret", false)
	token := signToken(t, "secret", uuid.NewString(), workflow.RoleAdmin, time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	w := httptest.NewRecorder()
	newRouter(auth, workflow.RoleAdmin).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTokenCookieFlags(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/login", nil)

	NewAuth("secret", true).SetTokenCookie(c, "abc", time.Hour)
	cookie := w.Header().Get("Set-Cookie")
	assert.Contains(t, cookie, "access_token=abc")
	assert.Contains(t, cookie, "Secure")
	assert.Contains(t, cookie, "HttpOnly")
	assert.Contains(t, cookie, "SameSite=None")
}

func TestLocale(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tr, err := i18n.New("en")
	require.NoError(t, err)

	r := gin.New()
	r.Use(Locale(tr))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, tr.T(c.Request.Context(), "RoleAdmin", nil))
	})

	serve := func(target, acceptLanguage string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		if acceptLanguage != "" {
			req.Header.Set("Accept-Language", acceptLanguage)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, "Director", serve("/", "").Body.String())
	w := serve("/", "fr-FR,fr;q=0.9,en;q=0.8")
	assert.Equal(t, "Directeur", w.Body.String())
	assert.Equal(t, "fr", w.Header().Get("Content-Language"))
	assert.Equal(t, "Director", serve("/?lang=en", "fr").Body.String())
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil).WithContext(context.Background()))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
