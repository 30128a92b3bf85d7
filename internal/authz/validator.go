package authz

import (
	"context"
	"errors"
)

// Decision es la respuesta del validador para un token. Nunca se persiste.
type Decision struct {
	Valid bool   `json:"valid"`
	Role  string `json:"role"`
}

// Validator valida un token y devuelve el rol asociado.
type Validator interface {
	Validate(ctx context.Context, token string) (Decision, error)
}

// ValidatorFunc adapta una función a Validator.
type ValidatorFunc func(ctx context.Context, token string) (Decision, error)

func (f ValidatorFunc) Validate(ctx context.Context, token string) (Decision, error) {
	return f(ctx, token)
}

// ErrValidatorUnavailable: transporte caído, timeout o respuesta no 2xx.
var ErrValidatorUnavailable = errors.New("authz: validator unavailable")
