package authz

import (
	"context"
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// JWTValidator valida tokens HS256 localmente y lee el claim "role".
// Sólo para desarrollo sin el servicio de validación.
type JWTValidator struct {
	secret []byte
	leeway time.Duration
}

// NewJWTValidator crea un validador con el secreto compartido.
func NewJWTValidator(secret []byte) *JWTValidator {
	return &JWTValidator{secret: secret, leeway: 30 * time.Second}
}

func (v *JWTValidator) Validate(ctx context.Context, token string) (Decision, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) { return v.secret, nil }

	tok, err := jwtv5.Parse(token, keyfunc,
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithLeeway(v.leeway),
	)
	if err != nil {
		// Sin transporte de por medio: cualquier falla de parseo es un token inválido.
		return Decision{Valid: false}, nil
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok || !tok.Valid {
		return Decision{Valid: false}, nil
	}
	role, _ := claims["role"].(string)
	return Decision{Valid: true, Role: role}, nil
}

// Ping siempre responde nil: no hay dependencia remota.
func (v *JWTValidator) Ping(ctx context.Context) error { return nil }

// IssueDevToken firma un token HS256 que JWTValidator acepta. Lo usa
// `managerctl token` para probar contra un servicio en modo jwt.
func IssueDevToken(secret []byte, subject, role string, ttl time.Duration) (string, error) {
	if len(secret) < 32 {
		return "", errors.New("authz: secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	now := time.Now()
	claims := jwtv5.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(secret)
}
