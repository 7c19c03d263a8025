package middleware

import (
	"net/http"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/telemetry"
)

func TestProfiling_LabelsRequestContext(t *testing.T) {
	tenantID := uuid.New()
	labels := map[string]string{}

	router := gin.New()
	router.Use(Tenant(DefaultTenantConfig()), Profiling())
	router.GET("/api/v1/suppliers/:id", func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(k, v string) bool {
			labels[k] = v
			return true
		})
		c.Status(http.StatusOK)
	})

	w := serve(router, "GET", "/api/v1/suppliers/"+uuid.NewString(),
		map[string]string{TenantHeader: tenantID.String()})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/api/v1/suppliers/:id", labels[telemetry.ProfilingLabelRoute])
	assert.Equal(t, "GET", labels[telemetry.ProfilingLabelMethod])
	assert.Equal(t, tenantID.String(), labels[telemetry.ProfilingLabelTenantID])
}

func TestProfiling_UnmatchedRoute(t *testing.T) {
	router := gin.New()
	router.Use(Profiling())

	w := serve(router, "GET", "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
