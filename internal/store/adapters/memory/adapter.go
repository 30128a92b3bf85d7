// Package memory implementa un store de encargados en memoria (dev y tests).
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/inventary/manager-service/internal/domain/repository"
	store "github.com/inventary/manager-service/internal/store"
)

func init() {
	store.RegisterAdapter(&memoryAdapter{})
}

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.AdapterConnection, error) {
	return &memoryConnection{repo: NewRepository()}, nil
}

type memoryConnection struct {
	repo *Repository
}

func (c *memoryConnection) Name() string                           { return "memory" }
func (c *memoryConnection) Ping(ctx context.Context) error         { return c.repo.Ping(ctx) }
func (c *memoryConnection) Close() error                           { return nil }
func (c *memoryConnection) Managers() repository.ManagerRepository { return c.repo }

// Repository es un ManagerRepository respaldado por un map.
// Mantiene el orden de inserción para que los listados sean estables.
type Repository struct {
	mu    sync.RWMutex
	byID  map[string]repository.Manager
	order []string

	// FailSave, si no es nil, se devuelve en el próximo Save.
	FailSave error
}

// NewRepository crea un repositorio vacío.
func NewRepository() *Repository {
	return &Repository{byID: make(map[string]repository.Manager)}
}

func (r *Repository) GetByID(ctx context.Context, id string) (*repository.Manager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *Repository) FindOne(ctx context.Context, field repository.Field, value string) (*repository.Manager, error) {
	match, err := matcher(field, value)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if m := r.byID[id]; match(m) {
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Repository) FindAll(ctx context.Context, field repository.Field, value string) ([]repository.Manager, error) {
	match, err := matcher(field, value)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]repository.Manager, 0)
	for _, id := range r.order {
		if m := r.byID[id]; match(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *Repository) Save(ctx context.Context, m *repository.Manager) (*repository.Manager, error) {
	if m == nil {
		return nil, repository.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.FailSave; err != nil {
		r.FailSave = nil
		return nil, err
	}

	cp := *m
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if _, exists := r.byID[cp.ID]; !exists {
		r.order = append(r.order, cp.ID)
	}
	r.byID[cp.ID] = cp
	return &cp, nil
}

func (r *Repository) Ping(ctx context.Context) error { return ctx.Err() }

// Len retorna la cantidad de registros guardados.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func matcher(field repository.Field, value string) (func(repository.Manager) bool, error) {
	switch field {
	case repository.FieldEmail:
		return func(m repository.Manager) bool { return m.Email == value }, nil
	case repository.FieldDocumentNumber:
		return func(m repository.Manager) bool { return m.DocumentNumber == value }, nil
	case repository.FieldStatus:
		return func(m repository.Manager) bool { return string(m.Status) == value }, nil
	case repository.FieldRole:
		return func(m repository.Manager) bool { return strings.EqualFold(m.Role, value) }, nil
	default:
		return nil, repository.ErrUnsupportedField
	}
}
