package account

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/auth"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

const (
	msgRequired     = "Campo obrigatório"
	msgInvalidEmail = "E-mail inválido"
	msgShortPass    = "A senha deve ter pelo menos 8 caracteres"
	msgLongPass     = "A senha deve ter no máximo 72 caracteres"
)

func validateAccount(a *Account) []apperr.FieldError {
	var errs []apperr.FieldError
	if strings.TrimSpace(a.Name) == "" {
		errs = append(errs, apperr.FieldError{Path: "name", Message: msgRequired, Rule: "required"})
	}
	switch {
	case strings.TrimSpace(a.Email) == "":
		errs = append(errs, apperr.FieldError{Path: "email", Message: msgRequired, Rule: "required"})
	default:
		if _, err := mail.ParseAddress(a.Email); err != nil {
			errs = append(errs, apperr.FieldError{Path: "email", Message: msgInvalidEmail, Rule: "email"})
		}
	}
	return errs
}

func normalise(a *Account) {
	a.Name = strings.TrimSpace(a.Name)
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	a.Phone = strings.TrimSpace(a.Phone)
}

func (s *Service) CreateAccount(ctx context.Context, req CreateRequest) (*Account, error) {
	a := &Account{Name: req.Name, Email: req.Email, Phone: req.Phone, CPF: req.CPF}
	normalise(a)

	errs := validateAccount(a)
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		switch {
		case errors.Is(err, auth.ErrPasswordTooShort):
			errs = append(errs, apperr.FieldError{Path: "password", Message: msgShortPass, Rule: "min_length"})
		case errors.Is(err, auth.ErrPasswordTooLong):
			errs = append(errs, apperr.FieldError{Path: "password", Message: msgLongPass, Rule: "max_length"})
		case err != nil:
			return nil, apperr.Internal(err)
		}
		a.PasswordHash = hash
	}
	if len(errs) > 0 {
		return nil, apperr.Validation("Dados da conta inválidos", errs)
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateAccount(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Account, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		a.Name = *req.Name
	}
	if req.Email != nil {
		a.Email = *req.Email
	}
	if req.Phone != nil {
		a.Phone = *req.Phone
	}
	if req.CPF != nil {
		a.CPF = req.CPF
	}
	normalise(a)
	if errs := validateAccount(a); len(errs) > 0 {
		return nil, apperr.Validation("Dados da conta inválidos", errs)
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListAccounts(ctx context.Context, search string, limit, offset int) ([]*Account, int, error) {
	return s.repo.List(ctx, strings.TrimSpace(search), limit, offset)
}
