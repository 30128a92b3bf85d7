// Package idp define el puerto hacia el identity provider externo: dueño de
// las credenciales, del estado habilitado/deshabilitado y del claim de rol
// de cada cuenta de encargado.
package idp

import (
	"context"
	"errors"
)

// RoleClaim es el nombre del custom claim que refleja el rol local.
const RoleClaim = "role"

// Provider abstrae las operaciones administrativas sobre cuentas del IdP.
// Todas son idempotentes salvo CreateAccount.
type Provider interface {
	// Name identifica el adapter ("firebase", "keycloak", "memory").
	Name() string

	// CreateAccount da de alta una cuenta y retorna su UID.
	CreateAccount(ctx context.Context, email, initialCredential, displayName string) (string, error)

	// SetRoleClaim reemplaza el claim "role" de la cuenta.
	SetRoleClaim(ctx context.Context, uid, role string) error

	// SetDisabled habilita o deshabilita el login de la cuenta.
	SetDisabled(ctx context.Context, uid string, disabled bool) error

	SetDisplayName(ctx context.Context, uid, name string) error

	SetCredential(ctx context.Context, uid, credential string) error
}

var (
	// ErrAccountNotFound: el UID no existe en el provider.
	ErrAccountNotFound = errors.New("idp: account not found")

	// ErrAccountExists: ya hay una cuenta con ese email.
	ErrAccountExists = errors.New("idp: account already exists")
)
