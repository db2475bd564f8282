package documents

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies an uploaded case document.
type Kind string

const (
	KindPassport      Kind = "passport"
	KindPhoto         Kind = "photo"
	KindPayment       Kind = "payment_receipt"
	KindDSConfirm     Kind = "ds_confirmation"
	KindAppointment   Kind = "appointment"
	KindSupportingDoc Kind = "supporting"
)

var kinds = map[Kind]bool{
	KindPassport: true, KindPhoto: true, KindPayment: true,
	KindDSConfirm: true, KindAppointment: true, KindSupportingDoc: true,
}

// ParseKind validates a kind. The empty string selects KindSupportingDoc.
func ParseKind(s string) (Kind, bool) {
	if s == "" {
		return KindSupportingDoc, true
	}
	k := Kind(s)
	return k, kinds[k]
}

// Document is the metadata of a file attached to a profile. The bytes live
// in the blob store under StorageKey.
type Document struct {
	ID          uuid.UUID `json:"id"`
	ProfileID   uuid.UUID `json:"profile_id"`
	Kind        Kind      `json:"kind"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	SHA256      string    `json:"sha256"`
	StorageKey  string    `json:"-"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	msgNotFound    = "Documento não encontrado"
	msgInvalidKind = "Tipo de documento inválido"
	msgBadType     = "Formato de arquivo não permitido"
	msgTooLarge    = "Arquivo excede o tamanho máximo de 15 MB"
	msgNoFile      = "Arquivo obrigatório"
)
