package manager

import (
	"strings"

	"github.com/inventary/manager-service/internal/domain/repository"
)

// Profile son los datos editables de un encargado.
type Profile struct {
	FirstName      string
	LastName       string
	DocumentType   string
	DocumentNumber string
	Gender         string
	Address        string
	BirthPlace     string
	Email          string
	Role           string
}

// validateForCreate exige los campos que el alta usa contra el provider.
func (p Profile) validateForCreate() error {
	var missing []string
	if strings.TrimSpace(p.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(p.FirstName) == "" {
		missing = append(missing, "firstName")
	}
	if strings.TrimSpace(p.LastName) == "" {
		missing = append(missing, "lastName")
	}
	if strings.TrimSpace(p.DocumentNumber) == "" {
		missing = append(missing, "documentNumber")
	}
	if strings.TrimSpace(p.Role) == "" {
		missing = append(missing, "role")
	}
	if len(missing) > 0 {
		return invalid("missing " + strings.Join(missing, ", "))
	}
	return nil
}

// applyTo copia sobre m los campos no vacíos del profile.
func (p Profile) applyTo(m *repository.Manager) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&m.FirstName, p.FirstName)
	set(&m.LastName, p.LastName)
	set(&m.DocumentType, p.DocumentType)
	set(&m.DocumentNumber, p.DocumentNumber)
	set(&m.Gender, p.Gender)
	set(&m.Address, p.Address)
	set(&m.BirthPlace, p.BirthPlace)
	set(&m.Email, p.Email)
	set(&m.Role, p.Role)
}
