package notes

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/casedesk/casedesk/internal/domain/account"
	"github.com/casedesk/casedesk/internal/domain/profile"
	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/auth"
	"github.com/casedesk/casedesk/internal/platform/confirm"
)

// AnnotationDeleteKind is the confirmation kind of an annotation removal.
const AnnotationDeleteKind = "annotation.delete"

type ProfileSource interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
}

type AccountSource interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

type Service struct {
	repo     Repository
	profiles ProfileSource
	accounts AccountSource
	confirm  *confirm.Service
	logger   zerolog.Logger
}

func NewService(repo Repository, profiles ProfileSource, accounts AccountSource, logger zerolog.Logger) *Service {
	return &Service{repo: repo, profiles: profiles, accounts: accounts, logger: logger}
}

// RegisterConfirmations binds the annotation delete executor.
func (s *Service) RegisterConfirmations(c *confirm.Service) {
	s.confirm = c
	c.Register(AnnotationDeleteKind, s.applyAnnotationDelete)
}

func validateBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	switch {
	case body == "":
		return "", apperr.Validation("Dados inválidos", []apperr.FieldError{
			{Path: "body", Message: "Campo obrigatório", Rule: "required"},
		})
	case utf8.RuneCountInString(body) > MaxBodyLen:
		return "", apperr.Validation("Dados inválidos", []apperr.FieldError{
			{Path: "body", Message: "Texto muito longo", Rule: "max_length"},
		})
	}
	return body, nil
}

func newNote(ctx context.Context, kind Kind, body string) *Note {
	id := auth.IdentityFromContext(ctx)
	return &Note{Kind: kind, AuthorID: id.UserID, AuthorName: id.Name, Body: body}
}

// -- Annotations --

func (s *Service) ListAnnotations(ctx context.Context, profileID uuid.UUID) ([]*Note, error) {
	if _, err := s.profiles.GetProfile(ctx, profileID); err != nil {
		return nil, err
	}
	return s.repo.ListByProfile(ctx, KindAnnotation, profileID)
}

func (s *Service) AddAnnotation(ctx context.Context, profileID uuid.UUID, req CreateRequest) (*Note, error) {
	body, err := validateBody(req.Body)
	if err != nil {
		return nil, err
	}
	if _, err := s.profiles.GetProfile(ctx, profileID); err != nil {
		return nil, err
	}
	n := newNote(ctx, KindAnnotation, body)
	n.ProfileID = &profileID
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) UpdateAnnotation(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Note, error) {
	body, err := validateBody(req.Body)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.GetByID(ctx, KindAnnotation, id)
	if err != nil {
		return nil, err
	}
	n.Body = body
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// RequestAnnotationDelete registers a pending removal. The annotation stays
// in place until the token is confirmed.
func (s *Service) RequestAnnotationDelete(ctx context.Context, id uuid.UUID, userID string) (*confirm.Pending, error) {
	if s.confirm == nil {
		return nil, apperr.Internal(fmt.Errorf("confirmations not configured"))
	}
	n, err := s.repo.GetByID(ctx, KindAnnotation, id)
	if err != nil {
		return nil, err
	}
	return s.confirm.Request(ctx, confirm.Action{
		Kind:    AnnotationDeleteKind,
		Subject: n.ID.String(),
		UserID:  userID,
		Prompt:  "Deseja excluir esta anotação?",
	})
}

func (s *Service) applyAnnotationDelete(ctx context.Context, a confirm.Action) (interface{}, error) {
	id, err := uuid.Parse(a.Subject)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("annotation subject: %w", err))
	}
	if err := s.repo.Delete(ctx, KindAnnotation, id); err != nil {
		return nil, err
	}
	s.logger.Info().Str("annotation_id", id.String()).Str("user_id", a.UserID).Msg("annotation deleted")
	return map[string]string{"message": msgAnnotationDeleted}, nil
}

// -- Comments --

func (s *Service) ListProfileComments(ctx context.Context, profileID uuid.UUID) ([]*Note, error) {
	if _, err := s.profiles.GetProfile(ctx, profileID); err != nil {
		return nil, err
	}
	return s.repo.ListByProfile(ctx, KindComment, profileID)
}

func (s *Service) ListAccountComments(ctx context.Context, accountID uuid.UUID) ([]*Note, error) {
	if _, err := s.accounts.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.repo.ListByAccount(ctx, KindComment, accountID)
}

func (s *Service) AddProfileComment(ctx context.Context, profileID uuid.UUID, req CreateRequest) (*Note, error) {
	body, err := validateBody(req.Body)
	if err != nil {
		return nil, err
	}
	if _, err := s.profiles.GetProfile(ctx, profileID); err != nil {
		return nil, err
	}
	n := newNote(ctx, KindComment, body)
	n.ProfileID = &profileID
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) AddAccountComment(ctx context.Context, accountID uuid.UUID, req CreateRequest) (*Note, error) {
	body, err := validateBody(req.Body)
	if err != nil {
		return nil, err
	}
	if _, err := s.accounts.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	n := newNote(ctx, KindComment, body)
	n.AccountID = &accountID
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// authoredComment loads a comment the caller wrote.
func (s *Service) authoredComment(ctx context.Context, id uuid.UUID) (*Note, error) {
	n, err := s.repo.GetByID(ctx, KindComment, id)
	if err != nil {
		return nil, err
	}
	if n.AuthorID != auth.UserIDFromContext(ctx) {
		return nil, apperr.Forbidden(msgNotAuthor)
	}
	return n, nil
}

func (s *Service) UpdateComment(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Note, error) {
	body, err := validateBody(req.Body)
	if err != nil {
		return nil, err
	}
	n, err := s.authoredComment(ctx, id)
	if err != nil {
		return nil, err
	}
	n.Body = body
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) DeleteComment(ctx context.Context, id uuid.UUID) error {
	if _, err := s.authoredComment(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, KindComment, id)
}
