package profile

import (
	"context"

	"github.com/google/uuid"

	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/metrics"
)

// WorkflowField names one of the per-category sub-statuses.
type WorkflowField string

const (
	WorkflowDS      WorkflowField = "ds"
	WorkflowVisa    WorkflowField = "visa"
	WorkflowPayment WorkflowField = "payment"
	WorkflowETA     WorkflowField = "eta"
)

// WorkflowValues lists the accepted values of each sub-status in order.
var WorkflowValues = map[WorkflowField][]string{
	WorkflowDS:      {"awaiting", "filling", "filled", "barcode_issued"},
	WorkflowVisa:    {"awaiting", "scheduled", "interviewed", "approved", "denied", "issued"},
	WorkflowPayment: {"pending", "partial", "paid", "refunded"},
	WorkflowETA:     {"awaiting", "requested", "approved", "denied"},
}

// Value returns the current value of field on p.
func (p *Profile) Value(field WorkflowField) string {
	switch field {
	case WorkflowDS:
		return p.DSStatus
	case WorkflowVisa:
		return p.VisaStatus
	case WorkflowPayment:
		return p.PaymentStatus
	case WorkflowETA:
		return p.ETAStatus
	}
	return ""
}

func validWorkflowValue(field WorkflowField, value string) bool {
	for _, v := range WorkflowValues[field] {
		if v == value {
			return true
		}
	}
	return false
}

// WorkflowResult is the response of a workflow update.
type WorkflowResult struct {
	UpdatedClient *Profile `json:"updatedClient"`
	Status        string   `json:"status"`
}

// withCurrent attaches the server-side value so a client can roll its
// optimistic state back.
func withCurrent(err error, current string) error {
	ae, ok := apperr.As(err)
	if !ok {
		ae = apperr.Internal(err)
	}
	return ae.With("current", current)
}

// UpdateWorkflow sets one sub-status. Every failure for a known profile
// carries the last known good value under "current".
func (s *Service) UpdateWorkflow(ctx context.Context, id uuid.UUID, field, value string) (*WorkflowResult, error) {
	f := WorkflowField(field)
	if _, ok := WorkflowValues[f]; !ok {
		metrics.WorkflowUpdates.WithLabelValues("unknown", metrics.OutcomeInvalid).Inc()
		return nil, apperr.Validation("Categoria de status inválida", []apperr.FieldError{
			{Path: "category", Message: "Opção inválida", Rule: "enum"},
		})
	}

	p, err := s.GetProfile(ctx, id)
	if err != nil {
		metrics.WorkflowUpdates.WithLabelValues(field, metrics.OutcomeOf(err)).Inc()
		return nil, err
	}
	current := p.Value(f)

	if !validWorkflowValue(f, value) {
		metrics.WorkflowUpdates.WithLabelValues(field, metrics.OutcomeInvalid).Inc()
		return nil, withCurrent(apperr.Validation("Status inválido", []apperr.FieldError{
			{Path: "status", Message: "Opção inválida", Rule: "enum"},
		}), current)
	}

	updated, err := s.repo.SetWorkflow(ctx, id, f, value)
	metrics.WorkflowUpdates.WithLabelValues(field, metrics.OutcomeOf(err)).Inc()
	if err != nil {
		return nil, withCurrent(err, current)
	}

	s.invalidate(ctx, updated.ID, updated.Status)
	return &WorkflowResult{UpdatedClient: updated, Status: updated.Value(f)}, nil
}
