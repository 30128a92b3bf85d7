// Package manager contiene los DTOs de las rutas /{version}/{surface}/manager.
package manager

import "time"

// ManagerRequest es el cuerpo de create y update. En update sólo se aplican
// los campos presentes.
type ManagerRequest struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	DocumentType   string `json:"documentType"`
	DocumentNumber string `json:"documentNumber"`
	Gender         string `json:"gender"`
	Address        string `json:"address"`
	BirthPlace     string `json:"birthPlace"`
	Email          string `json:"email"`
	Role           string `json:"role"`
}

// PasswordRequest es la forma objeto del cuerpo de updatePassword.
// También se acepta el string JSON crudo.
type PasswordRequest struct {
	Password string `json:"password"`
}

// ManagerResponse nunca incluye la credencial.
type ManagerResponse struct {
	ID             string    `json:"id"`
	UID            string    `json:"uid"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	DocumentType   string    `json:"documentType,omitempty"`
	DocumentNumber string    `json:"documentNumber"`
	Gender         string    `json:"gender,omitempty"`
	Address        string    `json:"address,omitempty"`
	BirthPlace     string    `json:"birthPlace,omitempty"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// WelcomeResponse es la respuesta de GET /welcome.
type WelcomeResponse struct {
	Message string `json:"message"`
}
