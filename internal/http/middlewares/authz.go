package middlewares

import (
	"net/http"

	"github.com/inventary/manager-service/internal/authz"
	httperrors "github.com/inventary/manager-service/internal/http/errors"
	"github.com/inventary/manager-service/internal/metrics"
	"github.com/inventary/manager-service/internal/observability/logger"
)

// RequireRoles consulta al gate con el header Authorization del request y
// corta con 403 si el rol del portador no está en roles.
//
// surface sólo se usa como etiqueta de métricas y logs ("directives", "shared").
func RequireRoles(gate *authz.Gate, surface string, roles []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed := gate.Authorize(r.Context(), r.Header.Get("Authorization"), roles)
			metrics.RecordAuthz(surface, allowed)
			if !allowed {
				logger.From(r.Context()).Info("request denied by authorization gate",
					logger.Component("authz"),
					logger.String("surface", surface),
				)
				httperrors.WriteError(w, httperrors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
