// Package review builds the read-only projections of a case: the
// confirmation screen shown before final submission and the staff dashboard
// panel.
package review

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/casedesk/casedesk/internal/domain/form"
	"github.com/casedesk/casedesk/internal/domain/profile"
	"github.com/casedesk/casedesk/internal/platform/auth"
)

type ProfileReader interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	GetClientDetails(ctx context.Context, id uuid.UUID) (*profile.ClientDetails, error)
}

type FormService interface {
	GetForm(ctx context.Context, profileID uuid.UUID) (*form.Document, error)
	Submit(ctx context.Context, profileID uuid.UUID, req form.SubmitRequest) (*form.SubmitResult, error)
}

// Item is one read-only answer.
type Item struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value string `json:"value"`
	// Hidden marks details whose confirmation is not Yes. The value is still
	// the stored one.
	Hidden bool `json:"hidden,omitempty"`
}

type SectionView struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Step  int    `json:"step"`
	Items []Item `json:"items"`
}

// Review is the confirmation screen of a profile.
type Review struct {
	Profile        *profile.Profile `json:"profile"`
	Sections       []SectionView    `json:"sections"`
	Version        int              `json:"version"`
	Editable       bool             `json:"editable"`
	SubmittedAt    *time.Time       `json:"submitted_at,omitempty"`
	ConfirmEnabled bool             `json:"confirmEnabled"`
}

// ConfirmRequest is the body of POST /profiles/:id/review/confirm. Fields
// may be empty, in which case the persisted answers are submitted.
type ConfirmRequest struct {
	Fields    map[string]interface{} `json:"fields,omitempty"`
	IsEditing bool                   `json:"isEditing"`
	Version   int                    `json:"version,omitempty"`
}

type Service struct {
	profiles ProfileReader
	forms    FormService
}

func NewService(profiles ProfileReader, forms FormService) *Service {
	return &Service{profiles: profiles, forms: forms}
}

// Project groups values by section in form order.
func Project(values map[string]string) []SectionView {
	out := make([]SectionView, 0, form.StepCount)
	for _, s := range form.Sections() {
		v := SectionView{Key: s.Key, Title: s.Title, Step: s.Step, Items: []Item{}}
		for _, f := range s.Fields {
			v.Items = append(v.Items, Item{Name: f.Name, Label: f.Label, Value: values[f.Name]})
		}
		for _, p := range s.Pairs {
			v.Items = append(v.Items,
				Item{Name: p.Confirmation, Label: p.Label, Value: values[p.Confirmation]},
				Item{Name: p.Details, Label: "Detalhes", Value: values[p.Details], Hidden: p.DetailsHidden(values)},
			)
		}
		out = append(out, v)
	}
	return out
}

// GetReview loads the profile and its document once and projects every
// section.
func (s *Service) GetReview(ctx context.Context, profileID uuid.UUID) (*Review, error) {
	p, err := s.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	doc, err := s.forms.GetForm(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return &Review{
		Profile:        p,
		Sections:       Project(doc.Fields),
		Version:        doc.Version,
		Editable:       doc.Editable,
		SubmittedAt:    doc.SubmittedAt,
		ConfirmEnabled: doc.Editable || auth.IsStaff(ctx),
	}, nil
}

// Confirm submits the document from the review screen. A validation failure
// carries a redirect to the first invalid step.
func (s *Service) Confirm(ctx context.Context, profileID uuid.UUID, req ConfirmRequest) (*form.SubmitResult, error) {
	return s.forms.Submit(ctx, profileID, form.SubmitRequest{
		Fields:     req.Fields,
		IsEditing:  req.IsEditing,
		Step:       form.TerminalStep,
		FromReview: true,
		Version:    req.Version,
	})
}
