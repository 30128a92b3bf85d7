// Package router arma el árbol de rutas HTTP del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inventary/manager-service/internal/authz"
	healthctrl "github.com/inventary/manager-service/internal/http/controllers/health"
	managerctrl "github.com/inventary/manager-service/internal/http/controllers/manager"
	httperrors "github.com/inventary/manager-service/internal/http/errors"
	mw "github.com/inventary/manager-service/internal/http/middlewares"
	"github.com/inventary/manager-service/internal/rate"
)

// Deps contiene las dependencias del router.
type Deps struct {
	APIVersion  string // "v1"
	Manager     *managerctrl.Controller
	Health      *healthctrl.Controller
	Gate        *authz.Gate
	Metrics     http.Handler // opcional: /metrics
	RateLimiter rate.Limiter // opcional
	CORSOrigins []string

	DirectiveRoles []string
	SharedRoles    []string
	// PublicRoutes habilita /{version}/public/manager, que no pasa por el gate.
	PublicRoutes bool
}

// New devuelve el handler raíz con la cadena global de middlewares.
func New(d Deps) http.Handler {
	if d.APIVersion == "" {
		d.APIVersion = "v1"
	}
	if d.DirectiveRoles == nil {
		d.DirectiveRoles = authz.DirectiveRoles
	}
	if d.SharedRoles == nil {
		d.SharedRoles = authz.SharedRoles
	}

	r := chi.NewRouter()
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		mw.WithCORS(d.CORSOrigins),
		mw.WithLogging(),
		mw.WithMetrics(),
		mw.WithRateLimit(mw.RateLimitConfig{
			Limiter:   d.RateLimiter,
			Whitelist: []string{"/healthz", "/readyz", "/metrics"},
		}),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	if d.Health != nil {
		r.Get("/healthz", d.Health.Liveness)
		r.Get("/readyz", d.Health.Readiness)
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	c := d.Manager
	base := "/" + d.APIVersion

	// ─── Directives: supervisión ───
	r.Route(base+"/directives/manager", func(r chi.Router) {
		r.Use(mw.RequireRoles(d.Gate, "directives", d.DirectiveRoles))
		r.Get("/actives", c.ListActive)
		r.Get("/inactives", c.ListInactive)
		r.Get("/document/{documentNumber}", c.FindByDocument)
		r.Get("/email/{email}", c.FindByEmail)
		r.Get("/{id}", c.FindByID)
		r.Post("/create", c.Create)
		r.Delete("/delete/{id}", c.Deactivate)
		r.Put("/reactivate/{id}", c.Reactivate)
		r.Put("/update/{id}", c.Update)
		r.Patch("/updatePassword/{id}", c.UpdatePassword)
	})

	// ─── Shared: operativa ───
	r.Route(base+"/shared/manager", func(r chi.Router) {
		r.Use(mw.RequireRoles(d.Gate, "shared", d.SharedRoles))
		r.Get("/document/{documentNumber}", c.FindByDocument)
		r.Get("/{id}", c.FindByID)
		r.Patch("/updatePassword/{id}", c.UpdatePassword)
	})

	// ─── Public: sin gate ───
	if d.PublicRoutes {
		r.Route(base+"/public/manager", func(r chi.Router) {
			r.Get("/welcome", c.Welcome)
			r.Get("/actives", c.ListActive)
			r.Get("/inactives", c.ListInactive)
			r.Get("/document/{documentNumber}", c.FindByDocument)
			r.Get("/email/{email}", c.FindByEmail)
			r.Get("/role", c.FindByRole)
			r.Get("/{id}", c.FindByID)
			r.Post("/create", c.Create)
			r.Delete("/delete/{id}", c.Deactivate)
			r.Put("/reactivate/{id}", c.Reactivate)
			r.Put("/update/{id}", c.Update)
			r.Patch("/updatePassword/{id}", c.UpdatePassword)
		})
	}

	return r
}
