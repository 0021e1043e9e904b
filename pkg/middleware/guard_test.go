package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/notesphere/pkg/configs"
	"github.com/yeisme/notesphere/pkg/internal/types"
	"github.com/yeisme/notesphere/pkg/middleware"
)

func serve(e *gin.Engine, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()

	var body types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}

	return body
}

func TestRateLimitMiddleware_PerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	e := gin.New()
	e.Use(middleware.RateLimitMiddleware(configs.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1, Key: "token"}))
	e.GET("/api/notes", func(c *gin.Context) { c.Status(http.StatusOK) })
	e.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := serve(e, "/api/notes", "Bearer alice"); w.Code != http.StatusOK {
		t.Fatalf("first request: %d", w.Code)
	}

	w := serve(e, "/api/notes", "Bearer alice")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", w.Code)
	}

	if body := decodeError(t, w); body.Code != "RATE_LIMITED" || body.Message == "" {
		t.Fatalf("unexpected body: %+v", body)
	}

	// 另一个令牌有独立的额度
	if w := serve(e, "/api/notes", "Bearer bob"); w.Code != http.StatusOK {
		t.Fatalf("other token: %d", w.Code)
	}

	// 匿名请求按 IP 计
	if w := serve(e, "/api/notes", ""); w.Code != http.StatusOK {
		t.Fatalf("anonymous first request: %d", w.Code)
	}

	if w := serve(e, "/api/notes", ""); w.Code != http.StatusTooManyRequests {
		t.Fatalf("anonymous second request: %d", w.Code)
	}

	for range 3 {
		if w := serve(e, "/api/health", ""); w.Code != http.StatusOK {
			t.Fatalf("health check must not be limited, got %d", w.Code)
		}
	}
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	e := gin.New()
	e.Use(middleware.RateLimitMiddleware(configs.RateLimitConfig{Enabled: false, RPS: 0.001, Burst: 1}))
	e.GET("/api/notes", func(c *gin.Context) { c.Status(http.StatusOK) })

	for range 5 {
		if w := serve(e, "/api/notes", ""); w.Code != http.StatusOK {
			t.Fatalf("disabled limiter rejected request: %d", w.Code)
		}
	}
}

func TestCircuitBreakerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	e := gin.New()
	e.Use(middleware.CircuitBreakerMiddleware(configs.CircuitBreakerConfig{
		Enabled:           true,
		FailureRate:       0.6,
		MinRequests:       2,
		IntervalSeconds:   60,
		TimeoutSeconds:    60,
		MaxRequestsInHalf: 1,
	}))
	e.GET("/api/notes/:id/download", func(c *gin.Context) {
		if c.Param("id") == "quota" {
			c.JSON(http.StatusForbidden, types.ErrorResponse{Message: "Daily download limit reached", LimitReached: true})
			return
		}
		c.Status(http.StatusInternalServerError)
	})
	e.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	// 4xx 不计失败，否则第二个 5xx 之前就会熔断
	if w := serve(e, "/api/notes/quota/download", ""); w.Code != http.StatusForbidden {
		t.Fatalf("quota response: %d", w.Code)
	}

	for range 2 {
		if w := serve(e, "/api/notes/1/download", ""); w.Code != http.StatusInternalServerError {
			t.Fatalf("handler status should pass through, got %d", w.Code)
		}
	}

	w := serve(e, "/api/notes/1/download", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("breaker should be open, got %d", w.Code)
	}

	if body := decodeError(t, w); body.Code != "CIRCUIT_OPEN" {
		t.Fatalf("unexpected body: %+v", body)
	}

	if w := serve(e, "/api/health", ""); w.Code != http.StatusOK {
		t.Fatalf("health check bypasses breaker, got %d", w.Code)
	}
}

func TestSchedulerMiddleware_Nil(t *testing.T) {
	gin.SetMode(gin.TestMode)

	e := gin.New()
	e.Use(middleware.SchedulerMiddleware(nil))
	e.GET("/x", func(c *gin.Context) {
		if middleware.GetScheduler(c) != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	if w := serve(e, "/x", ""); w.Code != http.StatusOK {
		t.Fatalf("nil scheduler should read back as nil, got %d", w.Code)
	}
}
