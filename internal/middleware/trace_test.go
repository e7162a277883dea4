package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/hollowbyte/subtext-backend/internal/platform/ctxutil"
)

func traceRouter(got **ctxutil.TraceData) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Trace())
	r.GET("/ping", func(c *gin.Context) {
		*got = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestTraceHonorsInboundRequestID(t *testing.T) {
	var got *ctxutil.TraceData
	r := traceRouter(&got)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got == nil || got.RequestID != "abc-123" {
		t.Fatalf("trace data=%+v", got)
	}
	if h := w.Header().Get("X-Request-ID"); h != "abc-123" {
		t.Fatalf("header=%q", h)
	}
}

func TestTraceGeneratesRequestID(t *testing.T) {
	var got *ctxutil.TraceData
	r := traceRouter(&got)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if got == nil || got.RequestID == "" {
		t.Fatalf("trace data=%+v", got)
	}
	if h := w.Header().Get("X-Request-ID"); h != got.RequestID {
		t.Fatalf("header=%q ctx=%q", h, got.RequestID)
	}
}
