package notes

import (
	"time"

	"github.com/google/uuid"
)

// Kind separates staff annotations on a profile from threaded comments.
type Kind string

const (
	KindAnnotation Kind = "annotation"
	KindComment    Kind = "comment"
)

// Note is an annotation or a comment. A comment is attached to a profile or
// to an account; annotations always belong to a profile.
type Note struct {
	ID         uuid.UUID  `json:"id"`
	Kind       Kind       `json:"kind"`
	ProfileID  *uuid.UUID `json:"profile_id,omitempty"`
	AccountID  *uuid.UUID `json:"account_id,omitempty"`
	AuthorID   string     `json:"author_id"`
	AuthorName string     `json:"author_name"`
	Body       string     `json:"body"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type CreateRequest struct {
	Body string `json:"body"`
}

type UpdateRequest struct {
	Body string `json:"body"`
}

// MaxBodyLen bounds the text of a note in runes.
const MaxBodyLen = 5000

const (
	msgAnnotationNotFound = "Anotação não encontrada"
	msgCommentNotFound    = "Comentário não encontrado"
	msgNotAuthor          = "Apenas o autor pode alterar este comentário"
	msgAnnotationDeleted  = "Anotação excluída"
)

func notFound(kind Kind) string {
	if kind == KindAnnotation {
		return msgAnnotationNotFound
	}
	return msgCommentNotFound
}
