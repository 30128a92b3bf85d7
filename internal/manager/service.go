// Package manager orquesta el ciclo de vida de las cuentas de encargado entre
// el identity provider y el store local.
//
// Toda mutación es de dos patas: primero el provider, después el store, y la
// pata local sólo corre si el provider respondió bien. No hay reintentos ni
// compensación; si el store falla después de un cambio en el provider la
// divergencia se loguea y se cuenta en manager_inconsistency_total para que
// la repare un proceso de reconciliación externo.
package manager

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inventary/manager-service/internal/domain/repository"
	"github.com/inventary/manager-service/internal/idp"
	"github.com/inventary/manager-service/internal/metrics"
	"github.com/inventary/manager-service/internal/observability/logger"
)

// WelcomeMessage es el saludo de la superficie pública.
const WelcomeMessage = "Bienvenidos al microservicio de encargado"

// Service define las operaciones del orquestador.
type Service interface {
	Create(ctx context.Context, p Profile) (*repository.Manager, error)

	FindByID(ctx context.Context, id string) (*repository.Manager, error)
	FindByEmail(ctx context.Context, email string) (*repository.Manager, error)
	FindByDocumentNumber(ctx context.Context, documentNumber string) (*repository.Manager, error)
	FindByRole(ctx context.Context, role string) ([]repository.Manager, error)
	ListActive(ctx context.Context) ([]repository.Manager, error)
	ListInactive(ctx context.Context) ([]repository.Manager, error)

	Deactivate(ctx context.Context, id string) (*repository.Manager, error)
	Reactivate(ctx context.Context, id string) (*repository.Manager, error)
	Update(ctx context.Context, id string, p Profile) (*repository.Manager, error)
	UpdateCredential(ctx context.Context, id, credential string) (*repository.Manager, error)

	Welcome() string
}

// Deps contiene las dependencias del orquestador.
type Deps struct {
	Repo     repository.ManagerRepository
	Provider idp.Provider
	// Clock es opcional; por defecto time.Now.
	Clock func() time.Time
}

type service struct {
	repo     repository.ManagerRepository
	provider idp.Provider
	now      func() time.Time
}

// NewService crea el orquestador.
func NewService(d Deps) Service {
	clock := d.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: d.Repo, provider: d.Provider, now: clock}
}

func (s *service) log(ctx context.Context, op string) *zap.Logger {
	return logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("manager"),
		logger.Op(op),
	)
}

func (s *service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// callProvider ejecuta una llamada al provider midiendo latencia y envolviendo el error.
func (s *service) callProvider(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.ObserveProviderCall(op, start, err)
	if err != nil {
		return &ProviderError{Op: op, Err: err}
	}
	return nil
}

// inconsistent registra que el provider quedó adelantado respecto del store.
func (s *service) inconsistent(log *zap.Logger, op string, m *repository.Manager, err error) {
	metrics.Inconsistencies.WithLabelValues(op).Inc()
	log.Error("identity provider updated but local store was not; reconciliation required",
		logger.UID(m.UID),
		logger.ManagerID(m.ID),
		logger.Err(err),
	)
}

// load lee el registro previo a una mutación.
func (s *service) load(ctx context.Context, id string) (*repository.Manager, error) {
	m, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Op: "GetByID", Err: err}
	}
	return m, nil
}

func (s *service) Create(ctx context.Context, p Profile) (*repository.Manager, error) {
	log := s.log(ctx, "Create").With(logger.Email(p.Email), logger.Role(p.Role))

	if err := p.validateForCreate(); err != nil {
		return nil, err
	}

	var uid string
	err := s.callProvider("CreateAccount", func() (err error) {
		uid, err = s.provider.CreateAccount(ctx, p.Email, p.DocumentNumber, repository.DisplayName(p.FirstName, p.LastName))
		return err
	})
	if err != nil {
		log.Error("identity provider account creation failed", logger.Err(err))
		return nil, err
	}
	log = log.With(logger.UID(uid))

	if err := s.callProvider("SetRoleClaim", func() error {
		return s.provider.SetRoleClaim(ctx, uid, p.Role)
	}); err != nil {
		// La cuenta ya existe en el provider sin registro local.
		s.inconsistent(log, "create", &repository.Manager{UID: uid}, err)
		return nil, err
	}

	now := s.timestamp()
	m := &repository.Manager{
		UID:       uid,
		Password:  p.DocumentNumber,
		Status:    repository.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.applyTo(m)

	saved, err := s.repo.Save(ctx, m)
	if err != nil {
		s.inconsistent(log, "create", m, err)
		return nil, &StoreError{Op: "Save", Err: err}
	}

	log.Info("manager created", logger.ManagerID(saved.ID))
	return saved, nil
}

func (s *service) FindByID(ctx context.Context, id string) (*repository.Manager, error) {
	return s.load(ctx, id)
}

func (s *service) FindByEmail(ctx context.Context, email string) (*repository.Manager, error) {
	return s.findOne(ctx, repository.FieldEmail, email)
}

func (s *service) FindByDocumentNumber(ctx context.Context, documentNumber string) (*repository.Manager, error) {
	return s.findOne(ctx, repository.FieldDocumentNumber, documentNumber)
}

func (s *service) findOne(ctx context.Context, field repository.Field, value string) (*repository.Manager, error) {
	m, err := s.repo.FindOne(ctx, field, value)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Op: "FindOne", Err: err}
	}
	return m, nil
}

func (s *service) FindByRole(ctx context.Context, role string) ([]repository.Manager, error) {
	return s.findAll(ctx, repository.FieldRole, strings.TrimSpace(role))
}

func (s *service) ListActive(ctx context.Context) ([]repository.Manager, error) {
	return s.findAll(ctx, repository.FieldStatus, string(repository.StatusActive))
}

func (s *service) ListInactive(ctx context.Context) ([]repository.Manager, error) {
	return s.findAll(ctx, repository.FieldStatus, string(repository.StatusInactive))
}

func (s *service) findAll(ctx context.Context, field repository.Field, value string) ([]repository.Manager, error) {
	out, err := s.repo.FindAll(ctx, field, value)
	if err != nil {
		return nil, &StoreError{Op: "FindAll", Err: err}
	}
	if out == nil {
		out = []repository.Manager{}
	}
	return out, nil
}

func (s *service) Deactivate(ctx context.Context, id string) (*repository.Manager, error) {
	return s.setStatus(ctx, "Deactivate", id, true, repository.StatusInactive)
}

func (s *service) Reactivate(ctx context.Context, id string) (*repository.Manager, error) {
	return s.setStatus(ctx, "Reactivate", id, false, repository.StatusActive)
}

func (s *service) setStatus(ctx context.Context, op, id string, disabled bool, status repository.Status) (*repository.Manager, error) {
	log := s.log(ctx, op).With(logger.ManagerID(id))

	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	log = log.With(logger.UID(m.UID))

	if err := s.callProvider("SetDisabled", func() error {
		return s.provider.SetDisabled(ctx, m.UID, disabled)
	}); err != nil {
		log.Error("identity provider status change failed", logger.Err(err))
		return nil, err
	}

	m.Status = status
	m.UpdatedAt = notBefore(s.timestamp(), m.UpdatedAt)

	saved, err := s.repo.Save(ctx, m)
	if err != nil {
		s.inconsistent(log, strings.ToLower(op), m, err)
		return nil, &StoreError{Op: "Save", Err: err}
	}

	log.Info("manager status changed", zap.String("status", string(status)))
	return saved, nil
}

func (s *service) Update(ctx context.Context, id string, p Profile) (*repository.Manager, error) {
	log := s.log(ctx, "Update").With(logger.ManagerID(id))

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	log = log.With(logger.UID(current.UID))

	next := *current
	p.applyTo(&next)
	next.UpdatedAt = notBefore(s.timestamp(), current.UpdatedAt)

	if err := s.callProvider("SetDisplayName", func() error {
		return s.provider.SetDisplayName(ctx, next.UID, next.DisplayName())
	}); err != nil {
		log.Error("identity provider display name update failed", logger.Err(err))
		return nil, err
	}

	if next.Role != current.Role {
		if err := s.callProvider("SetRoleClaim", func() error {
			return s.provider.SetRoleClaim(ctx, next.UID, next.Role)
		}); err != nil {
			// El display name ya cambió en el provider.
			s.inconsistent(log, "update", current, err)
			return nil, err
		}
	}

	saved, err := s.repo.Save(ctx, &next)
	if err != nil {
		s.inconsistent(log, "update", &next, err)
		return nil, &StoreError{Op: "Save", Err: err}
	}

	log.Info("manager updated")
	return saved, nil
}

func (s *service) UpdateCredential(ctx context.Context, id, credential string) (*repository.Manager, error) {
	log := s.log(ctx, "UpdateCredential").With(logger.ManagerID(id))

	if credential == "" {
		return nil, invalid("empty credential")
	}

	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	log = log.With(logger.UID(m.UID))

	if err := s.callProvider("SetCredential", func() error {
		return s.provider.SetCredential(ctx, m.UID, credential)
	}); err != nil {
		log.Error("identity provider credential update failed", logger.Err(err))
		return nil, err
	}

	m.Password = credential
	m.UpdatedAt = notBefore(s.timestamp(), m.UpdatedAt)

	saved, err := s.repo.Save(ctx, m)
	if err != nil {
		s.inconsistent(log, "update_credential", m, err)
		return nil, &StoreError{Op: "Save", Err: err}
	}

	log.Info("manager credential rotated")
	return saved, nil
}

func (s *service) Welcome() string { return WelcomeMessage }

// notBefore devuelve t, salvo que sea anterior a prev (reloj hacia atrás).
func notBefore(t, prev time.Time) time.Time {
	if t.Before(prev) {
		return prev
	}
	return t
}
