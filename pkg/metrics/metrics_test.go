package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Provisioned("new_user")
	m.Provisioned("new_user")
	m.Lifecycle("users.approve", 3)
	m.Lifecycle("users.approve", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.provisioned.WithLabelValues("new_user")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.lifecycle.WithLabelValues("users.approve")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Provisioned("join")
		m.Lifecycle("users.delete", 1)
		m.AuditDropped()
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/admin/users/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/users/42", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `route="/admin/users/:id"`))
	assert.False(t, strings.Contains(body, "/admin/users/42"))
}
