package account

import (
	"time"

	"github.com/google/uuid"
)

// Account is a client user account. Profiles hang off it.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	CPF          *string   `json:"cpf,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateRequest is the body of POST /accounts.
type CreateRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	CPF      *string `json:"cpf,omitempty"`
	Password string  `json:"password,omitempty"`
}

// UpdateRequest is the body of PUT /accounts/:id. Nil members are left unchanged.
type UpdateRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
	CPF   *string `json:"cpf,omitempty"`
}

const (
	msgNotFound   = "Conta não encontrada"
	msgEmailTaken = "E-mail já cadastrado"
)
