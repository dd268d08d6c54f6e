package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	obscontext "github.com/fintro/receivables/internal/observability/context"
	"github.com/fintro/receivables/pkg/telemetry/correlation"
	"github.com/gin-gonic/gin"
)

func newMiddlewareEngine(capture *map[string]string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{}))
	r.GET("/ping", func(c *gin.Context) {
		ctx := c.Request.Context()
		(*capture)["request_id"] = obscontext.RequestIDFromContext(ctx)
		(*capture)["correlation_id"] = correlation.ExtractCorrelationID(ctx)
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestGinMiddlewareGeneratesCorrelationID(t *testing.T) {
	seen := map[string]string{}
	r := newMiddlewareEngine(&seen)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	header := rec.Header().Get("X-Request-Id")
	if len(header) != 26 {
		t.Fatalf("X-Request-Id = %q, want a 26-char generated id", header)
	}
	if seen["request_id"] != header {
		t.Fatalf("context request id = %q, header = %q", seen["request_id"], header)
	}
	if seen["correlation_id"] != header {
		t.Fatalf("context correlation id = %q, header = %q", seen["correlation_id"], header)
	}
}

func TestGinMiddlewarePropagatesIncomingRequestID(t *testing.T) {
	seen := map[string]string{}
	r := newMiddlewareEngine(&seen)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "caller-supplied-id")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "caller-supplied-id" {
		t.Fatalf("X-Request-Id = %q, want the caller's id echoed back", got)
	}
	if seen["correlation_id"] != "caller-supplied-id" {
		t.Fatalf("context correlation id = %q, want caller-supplied-id", seen["correlation_id"])
	}
}
