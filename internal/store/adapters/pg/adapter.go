// Package pg implementa el adapter PostgreSQL del store de encargados.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inventary/manager-service/internal/domain/repository"
	"github.com/inventary/manager-service/internal/observability/logger"
	store "github.com/inventary/manager-service/internal/store"
	migrations "github.com/inventary/manager-service/migrations/postgres"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

// postgresAdapter implementa store.Adapter para PostgreSQL.
type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.AdapterConnection, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	} else {
		poolCfg.MinConns = 2
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	if cfg.AutoMigrate {
		res, err := store.NewMigrator(migrations.FS, migrations.Dir).Run(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("pg: auto-migrate: %w", err)
		}
		logger.From(ctx).Info("postgres migrations applied",
			logger.Component("store.pg"),
			logger.Count(len(res.Applied)),
			logger.Duration(res.Duration),
		)
	}

	return &pgConnection{pool: pool}, nil
}

// pgConnection representa una conexión activa a PostgreSQL.
type pgConnection struct {
	pool *pgxpool.Pool
}

func (c *pgConnection) Name() string { return "postgres" }

func (c *pgConnection) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (c *pgConnection) Close() error {
	c.pool.Close()
	return nil
}

func (c *pgConnection) Managers() repository.ManagerRepository { return &managerRepo{db: c.pool} }

// Pool expone el pool para el comando de migraciones.
func (c *pgConnection) Pool() *pgxpool.Pool { return c.pool }

// querier es el subconjunto de pgxpool.Pool que usa el repo.
type querier interface {
	store.PgxExecutor
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// ─── ManagerRepository ───

type managerRepo struct{ db querier }

const selectManager = `
	SELECT id::text, uid, first_name, last_name, document_type, document_number, gender,
	       address, birth_place, email, role, password, status, created_at, updated_at
	FROM manager`

// columnFor traduce el Field del dominio a la columna SQL.
func columnFor(field repository.Field) (string, error) {
	switch field {
	case repository.FieldEmail:
		return "email = $1", nil
	case repository.FieldDocumentNumber:
		return "document_number = $1", nil
	case repository.FieldStatus:
		return "status = $1", nil
	case repository.FieldRole:
		return "lower(role) = lower($1)", nil
	default:
		return "", repository.ErrUnsupportedField
	}
}

func scanManager(row pgx.Row) (*repository.Manager, error) {
	var m repository.Manager
	var status string
	err := row.Scan(
		&m.ID, &m.UID, &m.FirstName, &m.LastName, &m.DocumentType, &m.DocumentNumber, &m.Gender,
		&m.Address, &m.BirthPlace, &m.Email, &m.Role, &m.Password, &status, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Status = repository.Status(status)
	return &m, nil
}

func (r *managerRepo) GetByID(ctx context.Context, id string) (*repository.Manager, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	m, err := scanManager(r.db.QueryRow(ctx, selectManager+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: get manager by id: %w", err)
	}
	return m, nil
}

func (r *managerRepo) FindOne(ctx context.Context, field repository.Field, value string) (*repository.Manager, error) {
	where, err := columnFor(field)
	if err != nil {
		return nil, err
	}
	m, err := scanManager(r.db.QueryRow(ctx, selectManager+` WHERE `+where+` ORDER BY created_at LIMIT 1`, value))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: find manager by %s: %w", field, err)
	}
	return m, nil
}

func (r *managerRepo) FindAll(ctx context.Context, field repository.Field, value string) ([]repository.Manager, error) {
	where, err := columnFor(field)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, selectManager+` WHERE `+where+` ORDER BY created_at`, value)
	if err != nil {
		return nil, fmt.Errorf("pg: list managers by %s: %w", field, err)
	}
	defer rows.Close()

	out := make([]repository.Manager, 0)
	for rows.Next() {
		m, err := scanManager(rows)
		if err != nil {
			return nil, fmt.Errorf("pg: scan manager: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pg: iterate managers: %w", err)
	}
	return out, nil
}

func (r *managerRepo) Save(ctx context.Context, m *repository.Manager) (*repository.Manager, error) {
	if m == nil {
		return nil, repository.ErrInvalidInput
	}
	cp := *m
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}

	const q = `
		INSERT INTO manager (id, uid, first_name, last_name, document_type, document_number, gender,
		                     address, birth_place, email, role, password, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			document_type = EXCLUDED.document_type,
			document_number = EXCLUDED.document_number,
			gender = EXCLUDED.gender,
			address = EXCLUDED.address,
			birth_place = EXCLUDED.birth_place,
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			password = EXCLUDED.password,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, q,
		cp.ID, cp.UID, cp.FirstName, cp.LastName, cp.DocumentType, cp.DocumentNumber, cp.Gender,
		cp.Address, cp.BirthPlace, cp.Email, cp.Role, cp.Password, string(cp.Status), cp.CreatedAt, cp.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("pg: save manager: %w", err)
	}
	return &cp, nil
}

func (r *managerRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
