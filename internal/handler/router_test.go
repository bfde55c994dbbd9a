package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"knlm-go/internal/controller"
	"knlm-go/internal/corpus"
)

func TestHealthEndpointReturnsOK(t *testing.T) {
	registry, err := corpus.NewRegistry(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	mc := controller.NewModelController(registry, zap.NewNop())
	router := SetupRouter(mc, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRecoveryMiddlewareConvertsPanicToInternalServerError(t *testing.T) {
	logger := zap.NewNop()
	router := SetupRouter(
		controller.NewModelController(mustRegistry(t), logger),
		logger,
	)
	router.GET("/panic-test", func(c *gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/panic-test", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func mustRegistry(t *testing.T) *corpus.Registry {
	t.Helper()
	r, err := corpus.NewRegistry(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}
