// Package memory implementa un identity provider en memoria para dev y tests.
// Permite inyectar fallas por operación y registra el orden de las llamadas.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/inventary/manager-service/internal/idp"
)

// Operaciones del provider, usadas para inyectar fallas y en Calls().
const (
	OpCreateAccount  = "CreateAccount"
	OpSetRoleClaim   = "SetRoleClaim"
	OpSetDisabled    = "SetDisabled"
	OpSetDisplayName = "SetDisplayName"
	OpSetCredential  = "SetCredential"
)

// Account es el estado que el provider guarda por UID.
type Account struct {
	UID         string
	Email       string
	Credential  string
	DisplayName string
	Disabled    bool
	Claims      map[string]any
}

// Provider es un idp.Provider en memoria.
type Provider struct {
	mu       sync.Mutex
	accounts map[string]*Account
	failures map[string]error
	calls    []string

	// NewUID genera UIDs; por defecto uuid.
	NewUID func() string
}

var _ idp.Provider = (*Provider)(nil)

// New crea un provider vacío.
func New() *Provider {
	return &Provider{
		accounts: make(map[string]*Account),
		failures: make(map[string]error),
		NewUID:   uuid.NewString,
	}
}

func (p *Provider) Name() string { return "memory" }

// Fail hace que la próxima llamada a op falle con err.
func (p *Provider) Fail(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[op] = err
}

// Calls retorna las operaciones invocadas, en orden, con su argumento principal.
func (p *Provider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}

// Account retorna una copia de la cuenta con ese UID.
func (p *Provider) Account(uid string) (Account, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.accounts[uid]
	if !ok {
		return Account{}, false
	}
	cp := *a
	cp.Claims = make(map[string]any, len(a.Claims))
	for k, v := range a.Claims {
		cp.Claims[k] = v
	}
	return cp, true
}

// Len retorna la cantidad de cuentas.
func (p *Provider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.accounts)
}

// begin registra la llamada y consume una falla inyectada. Requiere p.mu.
func (p *Provider) begin(op, arg string) error {
	p.calls = append(p.calls, op+":"+arg)
	if err, ok := p.failures[op]; ok {
		delete(p.failures, op)
		return err
	}
	return nil
}

func (p *Provider) CreateAccount(ctx context.Context, email, initialCredential, displayName string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(OpCreateAccount, email); err != nil {
		return "", err
	}
	for _, a := range p.accounts {
		if strings.EqualFold(a.Email, email) {
			return "", fmt.Errorf("memory: %s: %w", email, idp.ErrAccountExists)
		}
	}
	uid := p.NewUID()
	p.accounts[uid] = &Account{
		UID:         uid,
		Email:       email,
		Credential:  initialCredential,
		DisplayName: displayName,
		Claims:      map[string]any{},
	}
	return uid, nil
}

func (p *Provider) SetRoleClaim(ctx context.Context, uid, role string) error {
	return p.update(OpSetRoleClaim, uid, func(a *Account) { a.Claims = map[string]any{idp.RoleClaim: role} })
}

func (p *Provider) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	return p.update(OpSetDisabled, uid, func(a *Account) { a.Disabled = disabled })
}

func (p *Provider) SetDisplayName(ctx context.Context, uid, name string) error {
	return p.update(OpSetDisplayName, uid, func(a *Account) { a.DisplayName = name })
}

func (p *Provider) SetCredential(ctx context.Context, uid, credential string) error {
	return p.update(OpSetCredential, uid, func(a *Account) { a.Credential = credential })
}

func (p *Provider) update(op, uid string, fn func(*Account)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.begin(op, uid); err != nil {
		return err
	}
	a, ok := p.accounts[uid]
	if !ok {
		return fmt.Errorf("memory: %s: %w", uid, idp.ErrAccountNotFound)
	}
	fn(a)
	return nil
}
