package authz

import (
	"context"
	"slices"
	"strings"

	"github.com/inventary/manager-service/internal/observability/logger"
)

// Role sets usados por los controllers.
var (
	// DirectiveRoles: superficie de supervisión.
	DirectiveRoles = []string{"DEVELOP", "DIRECTOR"}
	// SharedRoles: superficie operativa.
	SharedRoles = []string{"DEVELOP", "SECRETARIO", "INVENTARIO"}
)

// Gate decide si un token tiene alguno de los roles permitidos.
type Gate struct {
	validator Validator
}

// NewGate crea un Gate sobre el validator dado.
func NewGate(v Validator) *Gate {
	return &Gate{validator: v}
}

// ExtractToken acepta "Bearer <token>" (scheme sin distinguir mayúsculas) o el
// token crudo. Devuelve "" si no hay token.
func ExtractToken(headerOrToken string) string {
	s := strings.TrimSpace(headerOrToken)
	if len(s) >= 7 && strings.EqualFold(s[:7], "bearer ") {
		s = strings.TrimSpace(s[7:])
	} else if strings.EqualFold(s, "bearer") {
		return ""
	}
	return s
}

// Authorize devuelve true sólo si el validator responde valid=true con un rol
// incluido en allowedRoles. Llama al validator a lo sumo una vez.
func (g *Gate) Authorize(ctx context.Context, headerOrToken string, allowedRoles []string) bool {
	token := ExtractToken(headerOrToken)
	if token == "" {
		return false
	}

	log := logger.From(ctx).With(logger.Component("authz.gate"))

	d, err := g.validator.Validate(ctx, token)
	if err != nil {
		log.Warn("token validation failed, denying", logger.Err(err), logger.Roles(allowedRoles))
		return false
	}
	if !d.Valid || d.Role == "" {
		log.Debug("token rejected by validator")
		return false
	}
	if !slices.Contains(allowedRoles, d.Role) {
		log.Debug("role not allowed", logger.Role(d.Role), logger.Roles(allowedRoles))
		return false
	}
	return true
}
