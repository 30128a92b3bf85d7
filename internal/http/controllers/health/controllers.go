// Package health contiene los controllers de liveness y readiness.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	dto "github.com/inventary/manager-service/internal/http/dto/health"
	"github.com/inventary/manager-service/internal/observability/logger"
)

// Check verifica una dependencia. nil => ok.
type Check func(ctx context.Context) error

// Controller sirve /healthz y /readyz.
type Controller struct {
	version string
	timeout time.Duration
	checks  map[string]Check
}

// NewController crea el controller. checks se consultan en cada /readyz.
func NewController(version string, timeout time.Duration, checks map[string]Check) *Controller {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Controller{version: version, timeout: timeout, checks: checks}
}

// Liveness maneja GET /healthz. No toca dependencias.
func (c *Controller) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness maneja GET /readyz. Corre todos los checks en paralelo.
func (c *Controller) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var mu sync.Mutex
	components := make(map[string]dto.HealthStatus, len(names))

	// Sin WithContext: un check caído no cancela a los demás.
	var g errgroup.Group
	for _, name := range names {
		name := name
		check := c.checks[name]
		g.Go(func() error {
			st := dto.HealthStatus{Status: "ok"}
			if err := check(ctx); err != nil {
				st = dto.HealthStatus{Status: "error", Message: err.Error()}
			}
			mu.Lock()
			components[name] = st
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	resp := dto.HealthResponse{
		Status:     "ready",
		Components: components,
		Version:    c.version,
		Timestamp:  time.Now().UTC(),
	}
	status := http.StatusOK
	for name, st := range components {
		if st.Status != "ok" {
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			logger.From(r.Context()).Warn("readiness check failed",
				logger.Component(name),
				logger.String("message", st.Message),
			)
		}
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
