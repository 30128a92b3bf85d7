package repository

import (
	"context"
	"time"
)

// Status es el estado de ciclo de vida de un Manager.
// Los valores coinciden con los documentos ya persistidos ("A" / "I").
type Status string

const (
	StatusActive   Status = "A"
	StatusInactive Status = "I"
)

// Valid indica si el status es uno de los conocidos.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Manager representa una cuenta de encargado.
// Vive en dos sistemas: el store local (perfil + status) y el identity
// provider externo (credenciales + claim de rol). UID es el subject id del
// provider y no cambia después de la creación.
type Manager struct {
	ID             string
	UID            string
	FirstName      string
	LastName       string
	DocumentType   string
	DocumentNumber string
	Gender         string
	Address        string
	BirthPlace     string
	Email          string
	Role           string
	Password       string
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DisplayName es el nombre que se publica en el identity provider.
func (m *Manager) DisplayName() string {
	return DisplayName(m.FirstName, m.LastName)
}

// DisplayName arma "Nombre Apellido".
func DisplayName(first, last string) string {
	return first + " " + last
}

// Field identifica un campo buscable del documento.
type Field string

const (
	FieldEmail          Field = "email"
	FieldDocumentNumber Field = "documentNumber"
	FieldStatus         Field = "status"
	// FieldRole compara ignorando mayúsculas/minúsculas.
	FieldRole Field = "role"
)

// ManagerRepository define operaciones sobre el store local de managers.
type ManagerRepository interface {
	// GetByID busca un manager por ID local.
	// Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Manager, error)

	// FindOne retorna el primer manager cuyo campo coincide con value.
	// Retorna ErrNotFound si no hay coincidencias.
	FindOne(ctx context.Context, field Field, value string) (*Manager, error)

	// FindAll retorna todos los managers cuyo campo coincide con value.
	// FieldRole ignora mayúsculas/minúsculas. Sin coincidencias => slice vacío.
	FindAll(ctx context.Context, field Field, value string) ([]Manager, error)

	// Save hace upsert. Si m.ID está vacío, el store asigna uno y lo
	// devuelve en el registro persistido.
	Save(ctx context.Context, m *Manager) (*Manager, error)

	// Ping verifica la conexión con el store.
	Ping(ctx context.Context) error
}
