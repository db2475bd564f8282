package profile

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/confirm"
	"github.com/casedesk/casedesk/internal/platform/metrics"
)

// TransitionKind is the confirmation kind of a status change.
const TransitionKind = "profile.transition"

var transitions = map[Status][]Status{
	StatusActive:   {StatusArchived, StatusProspect},
	StatusProspect: {StatusArchived, StatusActive},
	StatusArchived: {StatusActive, StatusProspect},
}

// AllowedTransitions returns the statuses reachable in one hop from from.
func AllowedTransitions(from Status) []Status {
	return append([]Status(nil), transitions[from]...)
}

func canTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func transitionPrompt(p *Profile, to Status) string {
	switch to {
	case StatusArchived:
		return fmt.Sprintf("Deseja arquivar o perfil de %s?", p.Name)
	case StatusProspect:
		return fmt.Sprintf("Deseja mover o perfil de %s para prospectos?", p.Name)
	default:
		if p.Status == StatusArchived {
			return fmt.Sprintf("Deseja desarquivar o perfil de %s?", p.Name)
		}
		return fmt.Sprintf("Deseja ativar o perfil de %s?", p.Name)
	}
}

var statusLabels = map[Status]string{
	StatusActive:   "ativo",
	StatusProspect: "prospecto",
	StatusArchived: "arquivado",
}

var transitionMessages = map[Status]string{
	StatusActive:   "Perfil ativado",
	StatusProspect: "Perfil movido para prospectos",
	StatusArchived: "Perfil arquivado",
}

// TransitionResult is returned when a confirmed transition is applied.
type TransitionResult struct {
	Message string   `json:"message"`
	Profile *Profile `json:"profile"`
}

// RegisterConfirmations binds the status change executor.
func (s *Service) RegisterConfirmations(c *confirm.Service) {
	s.confirm = c
	c.Register(TransitionKind, s.applyTransition)
}

// RequestTransition registers a pending status change. Nothing is written
// until the returned token is confirmed by the same user.
func (s *Service) RequestTransition(ctx context.Context, id uuid.UUID, to, userID string) (*confirm.Pending, error) {
	if s.confirm == nil {
		return nil, apperr.Internal(fmt.Errorf("confirmations not configured"))
	}
	target, ok := ParseStatus(to)
	if !ok {
		return nil, apperr.Validation("Status inválido", []apperr.FieldError{
			{Path: "to", Message: "Opção inválida", Rule: "enum"},
		})
	}

	p, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(p.Status, target) {
		return nil, apperr.Conflict(fmt.Sprintf("O perfil já está com status %s", target))
	}

	return s.confirm.Request(ctx, confirm.Action{
		Kind:    TransitionKind,
		Subject: p.ID.String(),
		Params:  map[string]string{"from": string(p.Status), "to": string(target)},
		UserID:  userID,
		Prompt:  transitionPrompt(p, target),
	})
}

func (s *Service) applyTransition(ctx context.Context, a confirm.Action) (interface{}, error) {
	id, err := uuid.Parse(a.Subject)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("transition subject: %w", err))
	}
	from, to := Status(a.Params["from"]), Status(a.Params["to"])
	if !canTransition(from, to) {
		return nil, apperr.Internal(fmt.Errorf("transition %s -> %s not allowed", from, to))
	}

	p, err := s.repo.SetStatus(ctx, id, from, to)
	if err != nil {
		return nil, err
	}

	metrics.StatusTransitions.WithLabelValues(string(from), string(to)).Inc()
	s.invalidate(ctx, id, from, to)
	s.logger.Info().
		Str("profile_id", id.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("user_id", a.UserID).
		Msg("profile status changed")
	s.notifyStatusChanged(ctx, p, from, to)

	return &TransitionResult{Message: transitionMessages[to], Profile: p}, nil
}
