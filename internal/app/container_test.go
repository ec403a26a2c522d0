package app_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/crm-backend/internal/app"
)

// TestContainerWithoutDatabase covers the routes that never reach storage.
func TestContainerWithoutDatabase(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := app.NewContainer(app.Config{
		JWTSecret:  "container-secret",
		JWTTTL:     time.Minute,
		BcryptCost: 4,
		Registerer: reg,
		Gatherer:   reg,
	}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, c.JWTManager)

	serve := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		c.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	assert.Equal(t, http.StatusOK, serve("/live").Code)
	assert.Equal(t, http.StatusUnauthorized, serve("/api/auth/me").Code)
	assert.Equal(t, http.StatusNotFound, serve("/api/nothing-here").Code)

	w := serve("/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "crm_http_requests_total")
}
