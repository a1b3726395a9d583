package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubPinger struct{ err error }

func (s stubPinger) PingContext(ctx context.Context) error { return s.err }

func serve(h *Handler, metrics gin.HandlerFunc, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"), metrics)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLiveness(t *testing.T) {
	w := serve(NewHandler(stubPinger{err: errors.New("down")}), nil, "/api/v1/health/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"UP"}`, w.Body.String())
}

func TestReadiness(t *testing.T) {
	w := serve(NewHandler(stubPinger{}), nil, "/api/v1/health/ready")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(NewHandler(stubPinger{err: errors.New("down")}), nil, "/api/v1/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "DOWN")
}

func TestMetricsRouteIsOptional(t *testing.T) {
	w := serve(NewHandler(stubPinger{}), nil, "/api/v1/health/metrics")
	assert.Equal(t, http.StatusNotFound, w.Code)

	metrics := func(c *gin.Context) { c.String(http.StatusOK, "# metrics") }
	w = serve(NewHandler(stubPinger{}), metrics, "/api/v1/health/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# metrics", w.Body.String())
}
