package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nepalipay/nepalipay-web3/internal/auth"
	"github.com/nepalipay/nepalipay-web3/internal/logger"
	"github.com/stretchr/testify/assert"
)

func init() {
	logger.InitLogger("test")
	gin.SetMode(gin.TestMode)
}

func newRouter(key string) *gin.Engine {
	router := gin.New()
	router.Use(auth.EnsureValidAPIKey(key))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	router.GET("/health", ok)
	router.GET("/api/v1/connection", ok)
	router.GET("/swagger/*any", ok)
	return router
}

func TestEnsureValidAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		path     string
		setup    func(r *http.Request)
		expected int
	}{
		{"disabled", "", "/api/v1/connection", func(*http.Request) {}, http.StatusOK},
		{"missing", "secret", "/api/v1/connection", func(*http.Request) {}, http.StatusUnauthorized},
		{"wrong", "secret", "/api/v1/connection", func(r *http.Request) { r.Header.Set(auth.APIKeyHeader, "guess") }, http.StatusUnauthorized},
		{"header", "secret", "/api/v1/connection", func(r *http.Request) { r.Header.Set(auth.APIKeyHeader, "secret") }, http.StatusOK},
		{"bearer", "secret", "/api/v1/connection", func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret") }, http.StatusOK},
		{"query", "secret", "/api/v1/connection?api_key=secret", func(*http.Request) {}, http.StatusOK},
		{"health is open", "secret", "/health", func(*http.Request) {}, http.StatusOK},
		{"docs are open", "secret", "/swagger/index.html", func(*http.Request) {}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			tt.setup(req)
			w := httptest.NewRecorder()

			newRouter(tt.key).ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code)
		})
	}
}
