package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/nfe-regime/internal/config"
	"github.com/nexconsult/nfe-regime/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLogger(buf *bytes.Buffer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	return log
}

func perform(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	t.Run("should generate an ID when none is sent", func(t *testing.T) {
		w := perform(router, http.MethodGet, "/", nil)

		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, w.Header().Get("X-Request-ID"), w.Body.String())
	})

	t.Run("should keep the caller's ID", func(t *testing.T) {
		w := perform(router, http.MethodGet, "/", map[string]string{"X-Request-ID": "abc-123"})

		assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	})
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	router := gin.New()
	router.Use(Recovery(newLogger(&buf)))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := perform(router, http.MethodGet, "/panic", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
	assert.Equal(t, "/panic", body.Path)
	assert.Contains(t, buf.String(), "Panic recovered")
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	router := gin.New()
	router.Use(RequestID(), Logger(newLogger(&buf)))
	router.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	perform(router, http.MethodGet, "/missing?x=1", nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Request rejected", entry["msg"])
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "/missing?x=1", entry["path"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS(config.CORSConfig{
		AllowedOrigins: []string{"https://app.example.com"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("should answer preflight requests", func(t *testing.T) {
		w := perform(router, http.MethodOptions, "/", map[string]string{"Origin": "https://app.example.com"})

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
	})

	t.Run("should not allow unknown origins", func(t *testing.T) {
		w := perform(router, http.MethodGet, "/", map[string]string{"Origin": "https://evil.example.com"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestSecurity(t *testing.T) {
	router := gin.New()
	router.Use(Security())
	router.GET("/*any", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := perform(router, http.MethodGet, "/api/v1/nfe/parse/1", nil)
	assert.Equal(t, "nosniff", api.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", api.Header().Get("X-Frame-Options"))
	assert.Contains(t, api.Header().Get("Content-Security-Policy"), "default-src 'none'")

	docs := perform(router, http.MethodGet, "/swagger/index.html", nil)
	assert.Contains(t, docs.Header().Get("Content-Security-Policy"), "'unsafe-inline'")
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{
		RequestsPerMinute: 1,
		BurstSize:         2,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("should allow the burst and then reject", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/", nil).Code)
		assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/", nil).Code)

		w := perform(router, http.MethodGet, "/", nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("Retry-After"))

		var body models.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "RATE_LIMIT_EXCEEDED", body.Code)
	})

	t.Run("should evict idle clients", func(t *testing.T) {
		assert.Equal(t, 1, rl.GetStats()["active_clients"])

		rl.evictIdle(time.Now().Add(time.Hour))

		assert.Equal(t, 0, rl.GetStats()["active_clients"])
	})
}
