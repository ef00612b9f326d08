package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"keja/internal/dbtest"
	"keja/internal/domain"
	"keja/internal/metrics"
	"keja/internal/middleware"
	"keja/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) (*gin.Engine, *session.Manager, *domain.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	conn := dbtest.New(t)
	user := &domain.User{Username: "tenant", Email: "tenant@example.com", Password: "x", Role: domain.RoleUser}
	require.NoError(t, conn.Create(user).Error)

	sessions := session.NewManager(session.NewMemoryStore(), "secret", time.Hour)
	r := gin.New()
	r.Use(middleware.SessionMiddleware(sessions, conn, "sessionid"))
	r.GET("/whoami", func(c *gin.Context) {
		if u, ok := middleware.CurrentUser(c); ok {
			c.String(http.StatusOK, u.Username)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	r.GET("/private", middleware.LoginRequired(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/admin", middleware.AdminOnlyMiddleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r, sessions, user
}

func TestSessionMiddleware(t *testing.T) {
	r, sessions, user := newEngine(t)
	token, err := sessions.Establish(context.Background(), user.ID)
	require.NoError(t, err)

	tests := []struct {
		name string
		set  func(*http.Request)
		want string
	}{
		{"no credentials", func(*http.Request) {}, "anonymous"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "sessionid", Value: token}) }, "tenant"},
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, "tenant"},
		{"garbage token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			tt.set(req)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}

	// A destroyed session no longer resolves
	require.NoError(t, sessions.Destroy(context.Background(), token))
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "sessionid", Value: token})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestLoginRequired(t *testing.T) {
	r, sessions, user := newEngine(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/private?tab=2", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fprivate%3Ftab%3D2", rec.Header().Get("Location"))

	token, err := sessions.Establish(context.Background(), user.ID)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Non-admins are refused, not redirected
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/login", middleware.LoginURL(""))
	assert.Equal(t, "/login?next=%2Fadd-property", middleware.LoginURL("/add-property"))
}

func TestRequestLoggerAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.New()
	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.MetricsMiddleware(m))
	r.GET("/ping/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping/7", nil))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	req.Header.Set(middleware.RequestIDHeader, "fixed-id")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get(middleware.RequestIDHeader))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `keja_http_requests_total{method="GET",path="/ping/:id",status="200"} 1`), body)
	assert.True(t, strings.Contains(body, `keja_http_requests_total{method="GET",path="unmatched",status="404"} 1`), body)
}
