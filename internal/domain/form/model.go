package form

import (
	"time"

	"github.com/google/uuid"
)

// Document holds every answer of one profile's intake form as a flat map.
type Document struct {
	ProfileID   uuid.UUID         `json:"profile_id"`
	Fields      map[string]string `json:"fields"`
	Version     int               `json:"version"`
	Editable    bool              `json:"editable"`
	LastStep    int               `json:"last_step"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// DraftRequest is the body of PUT /profiles/:id/form/sections/:section.
type DraftRequest struct {
	Fields       map[string]interface{} `json:"fields"`
	RedirectStep *int                   `json:"redirectStep,omitempty"`
	Version      int                    `json:"version,omitempty"`
}

// SubmitRequest is the body of POST /profiles/:id/form/submit.
type SubmitRequest struct {
	Fields     map[string]interface{} `json:"fields"`
	IsEditing  bool                   `json:"isEditing"`
	Step       int                    `json:"step"`
	FromReview bool                   `json:"fromReview"`
	Version    int                    `json:"version,omitempty"`
}

// SaveResult answers a draft save.
type SaveResult struct {
	Message      string `json:"message"`
	RedirectStep *int   `json:"redirectStep,omitempty"`
	Version      int    `json:"version"`
}

// SubmitResult answers a final submission.
type SubmitResult struct {
	Message     string    `json:"message"`
	Redirect    string    `json:"redirect"`
	Version     int       `json:"version"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Response messages.
const (
	MsgSaved     = "Formulário salvo"
	MsgSubmitted = "Formulário enviado com sucesso"
	MsgNotFound  = "Formulário não encontrado"
	// RedirectResume sends the client to the summary view after submission.
	RedirectResume = "resume"

	msgBusy        = "Outra operação está em andamento"
	msgStale       = "O formulário foi alterado em outra sessão. Recarregue e tente novamente"
	msgLocked      = "O formulário já foi enviado e não pode ser alterado"
	msgNotTerminal = "O envio do formulário só é permitido na última etapa"
	msgInvalid     = "Existem campos inválidos no formulário"
	msgNoSection   = "Etapa do formulário não encontrada"
)
