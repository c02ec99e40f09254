package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck проверка одной зависимости (PostgreSQL, Redis)
type HealthCheck func(ctx context.Context) error

type HealthController struct {
	checks map[string]HealthCheck
	log    *zap.Logger
}

// NewHealthController checks: имя зависимости -> проверка; nil-проверки пропускаются
func NewHealthController(checks map[string]HealthCheck, log *zap.Logger) *HealthController {
	return &HealthController{checks: checks, log: log}
}

// Health GET /api/v1/health
func (hc *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	deps := make(gin.H, len(names))
	for _, name := range names {
		check := hc.checks[name]
		if check == nil {
			deps[name] = "disabled"
			continue
		}
		if err := check(ctx); err != nil {
			hc.log.Warn("⚠️ health check failed", zap.String("dependency", name), zap.Error(err))
			deps[name] = err.Error()
			status = "degraded"
			continue
		}
		deps[name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":       status,
		"dependencies": deps,
		"time":         time.Now().UTC().Format(time.RFC3339),
	})
}
