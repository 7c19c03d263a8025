package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	var seen string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	t.Run("generates when absent", func(t *testing.T) {
		w := serve(router, "GET", "/test", nil)
		assert.Len(t, seen, 32)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("keeps client value", func(t *testing.T) {
		w := serve(router, "GET", "/test", map[string]string{RequestIDHeader: "abc-123"})
		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})

	t.Run("truncates long values", func(t *testing.T) {
		serve(router, "GET", "/test", map[string]string{RequestIDHeader: strings.Repeat("x", 500)})
		assert.Len(t, seen, MaxRequestIDLength)
	})
}

func TestGenerateRequestIDUnique(t *testing.T) {
	ids := make(map[string]bool)
	for range 100 {
		ids[generateRequestID()] = true
	}
	assert.Len(t, ids, 100)
}

func TestCORS(t *testing.T) {
	newRouter := func(cfg CORSConfig) *gin.Engine {
		r := gin.New()
		r.Use(CORS(cfg))
		r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	t.Run("default allows no origin", func(t *testing.T) {
		w := serve(newRouter(DefaultCORSConfig()), "GET", "/test", map[string]string{"Origin": "http://evil.example"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("whitelisted origin", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"http://pharmacy.example"}
		w := serve(newRouter(cfg), "GET", "/test", map[string]string{"Origin": "http://pharmacy.example"})
		assert.Equal(t, "http://pharmacy.example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), IdempotencyKeyHeader)
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("preflight is answered", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowOrigins = []string{"*"}
		w := serve(newRouter(cfg), "OPTIONS", "/test", map[string]string{"Origin": "http://any.example"})
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestSecure(t *testing.T) {
	router := gin.New()
	router.Use(Secure())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(router, "GET", "/test", nil)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
