package manager

import (
	"errors"
	"fmt"
)

// ErrInvalidProfile: faltan datos obligatorios en el alta o la credencial está vacía.
var ErrInvalidProfile = errors.New("manager: invalid profile")

// ProviderError envuelve cualquier falla del identity provider.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("manager: identity provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// StoreError envuelve cualquier falla del store local.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("manager: store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsProviderError reporta si err (o alguno envuelto) es un *ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// IsStoreError reporta si err (o alguno envuelto) es un *StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidProfile, reason)
}
