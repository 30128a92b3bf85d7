package manager

import (
	"github.com/inventary/manager-service/internal/domain/repository"
	dto "github.com/inventary/manager-service/internal/http/dto/manager"
	svc "github.com/inventary/manager-service/internal/manager"
)

func toProfile(req dto.ManagerRequest) svc.Profile {
	return svc.Profile{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		DocumentType:   req.DocumentType,
		DocumentNumber: req.DocumentNumber,
		Gender:         req.Gender,
		Address:        req.Address,
		BirthPlace:     req.BirthPlace,
		Email:          req.Email,
		Role:           req.Role,
	}
}

func toResponse(m *repository.Manager) dto.ManagerResponse {
	return dto.ManagerResponse{
		ID:             m.ID,
		UID:            m.UID,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		DocumentType:   m.DocumentType,
		DocumentNumber: m.DocumentNumber,
		Gender:         m.Gender,
		Address:        m.Address,
		BirthPlace:     m.BirthPlace,
		Email:          m.Email,
		Role:           m.Role,
		Status:         string(m.Status),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
