// Package manager contiene el controller de las rutas de encargados.
// El mismo controller sirve las tres superficies (directives, shared, public);
// la autorización la resuelve el router con middlewares.RequireRoles.
package manager

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/inventary/manager-service/internal/domain/repository"
	dto "github.com/inventary/manager-service/internal/http/dto/manager"
	httperrors "github.com/inventary/manager-service/internal/http/errors"
	"github.com/inventary/manager-service/internal/idp"
	svc "github.com/inventary/manager-service/internal/manager"
	"github.com/inventary/manager-service/internal/observability/logger"
)

const maxBodyBytes = 64 << 10

// Controller maneja las rutas /{version}/{surface}/manager.
type Controller struct {
	service svc.Service
}

// NewController crea el controller sobre el orquestador.
func NewController(service svc.Service) *Controller {
	return &Controller{service: service}
}

func (c *Controller) log(r *http.Request, op string) *zap.Logger {
	return logger.From(r.Context()).With(
		logger.Layer("controller"),
		logger.Op("ManagerController."+op),
	)
}

// Welcome maneja GET /welcome
func (c *Controller) Welcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.WelcomeResponse{Message: c.service.Welcome()})
}

// ListActive maneja GET /actives
func (c *Controller) ListActive(w http.ResponseWriter, r *http.Request) {
	list, err := c.service.ListActive(r.Context())
	c.writeList(w, r, "ListActive", list, err)
}

// ListInactive maneja GET /inactives
func (c *Controller) ListInactive(w http.ResponseWriter, r *http.Request) {
	list, err := c.service.ListInactive(r.Context())
	c.writeList(w, r, "ListInactive", list, err)
}

// FindByRole maneja GET /role?role=
func (c *Controller) FindByRole(w http.ResponseWriter, r *http.Request) {
	role := strings.TrimSpace(r.URL.Query().Get("role"))
	if role == "" {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("role is required"))
		return
	}
	list, err := c.service.FindByRole(r.Context(), role)
	c.writeList(w, r, "FindByRole", list, err)
}

// FindByID maneja GET /{id}
func (c *Controller) FindByID(w http.ResponseWriter, r *http.Request) {
	m, err := c.service.FindByID(r.Context(), chi.URLParam(r, "id"))
	c.writeOne(w, r, "FindByID", http.StatusOK, m, err)
}

// FindByDocument maneja GET /document/{documentNumber}
func (c *Controller) FindByDocument(w http.ResponseWriter, r *http.Request) {
	m, err := c.service.FindByDocumentNumber(r.Context(), chi.URLParam(r, "documentNumber"))
	c.writeOne(w, r, "FindByDocument", http.StatusOK, m, err)
}

// FindByEmail maneja GET /email/{email}
func (c *Controller) FindByEmail(w http.ResponseWriter, r *http.Request) {
	m, err := c.service.FindByEmail(r.Context(), chi.URLParam(r, "email"))
	c.writeOne(w, r, "FindByEmail", http.StatusOK, m, err)
}

// Create maneja POST /create
func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.ManagerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := c.service.Create(r.Context(), toProfile(req))
	c.writeOne(w, r, "Create", http.StatusOK, m, err)
}

// Deactivate maneja DELETE /delete/{id}. Es una baja lógica.
func (c *Controller) Deactivate(w http.ResponseWriter, r *http.Request) {
	_, err := c.service.Deactivate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		c.writeError(w, r, "Deactivate", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reactivate maneja PUT /reactivate/{id}
func (c *Controller) Reactivate(w http.ResponseWriter, r *http.Request) {
	m, err := c.service.Reactivate(r.Context(), chi.URLParam(r, "id"))
	c.writeOne(w, r, "Reactivate", http.StatusOK, m, err)
}

// Update maneja PUT /update/{id}
func (c *Controller) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.ManagerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := c.service.Update(r.Context(), chi.URLParam(r, "id"), toProfile(req))
	c.writeOne(w, r, "Update", http.StatusOK, m, err)
}

// UpdatePassword maneja PATCH /updatePassword/{id}
func (c *Controller) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrBodyTooLarge)
		return
	}
	m, err := c.service.UpdateCredential(r.Context(), chi.URLParam(r, "id"), parsePassword(body))
	c.writeOne(w, r, "UpdatePassword", http.StatusOK, m, err)
}

func (c *Controller) writeOne(w http.ResponseWriter, r *http.Request, op string, status int, m *repository.Manager, err error) {
	if err != nil {
		c.writeError(w, r, op, err)
		return
	}
	writeJSON(w, status, toResponse(m))
}

func (c *Controller) writeList(w http.ResponseWriter, r *http.Request, op string, list []repository.Manager, err error) {
	if err != nil {
		c.writeError(w, r, op, err)
		return
	}
	resp := make([]dto.ManagerResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toResponse(&list[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (c *Controller) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	appErr := mapError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		c.log(r, op).Error("request failed", logger.Err(err))
	}
	httperrors.WriteError(w, appErr)
}

func mapError(err error) *httperrors.AppError {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return httperrors.ErrManagerNotFound
	case errors.Is(err, svc.ErrInvalidProfile):
		return httperrors.ErrMissingFields.WithDetail(strings.TrimPrefix(err.Error(), "manager: "))
	case errors.Is(err, idp.ErrAccountExists):
		return httperrors.ErrEmailAlreadyInUse
	case svc.IsProviderError(err):
		return httperrors.ErrIdentityProvider.WithCause(err)
	default:
		return httperrors.ErrInternalServerError.WithCause(err)
	}
}

// parsePassword acepta el cuerpo como texto plano, string JSON o {"password": "..."}.
func parsePassword(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	switch body[0] {
	case '"':
		var s string
		if err := json.Unmarshal(body, &s); err == nil {
			return s
		}
	case '{':
		var req dto.PasswordRequest
		if err := json.Unmarshal(body, &req); err == nil {
			return req.Password
		}
	}
	return string(body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httperrors.WriteError(w, httperrors.ErrBodyTooLarge)
		} else {
			httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		}
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
