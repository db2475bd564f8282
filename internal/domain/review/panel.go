package review

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/casedesk/casedesk/internal/domain/account"
	"github.com/casedesk/casedesk/internal/domain/notes"
	"github.com/casedesk/casedesk/internal/domain/profile"
	"github.com/casedesk/casedesk/internal/platform/apperr"
)

// View selects the one dashboard panel shown for a profile.
type View string

const (
	ViewResume      View = "resume"
	ViewAnnotation  View = "annotation"
	ViewEditAccount View = "editAccount"
	ViewComment     View = "comment"
	ViewEditProfile View = "editProfile"
	ViewForm        View = "form"
	ViewNewProfile  View = "newProfile"
)

// Views lists every panel view.
var Views = []View{ViewResume, ViewAnnotation, ViewEditAccount, ViewComment, ViewEditProfile, ViewForm, ViewNewProfile}

// ParseView validates a view name. The empty string selects resume.
func ParseView(s string) (View, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ViewResume, nil
	}
	for _, v := range Views {
		if string(v) == s {
			return v, nil
		}
	}
	return "", apperr.Validation("Visualização inválida", []apperr.FieldError{
		{Path: "view", Message: "Opção inválida", Rule: "enum"},
	})
}

type AccountReader interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

type NoteReader interface {
	ListAnnotations(ctx context.Context, profileID uuid.UUID) ([]*notes.Note, error)
	ListProfileComments(ctx context.Context, profileID uuid.UUID) ([]*notes.Note, error)
}

// PanelPayload carries the data of exactly one view.
type PanelPayload struct {
	View View        `json:"view"`
	Data interface{} `json:"data"`
}

type EditProfileData struct {
	Profile            *profile.Profile                   `json:"profile"`
	Categories         []profile.Category                 `json:"categories"`
	AllowedTransitions []profile.Status                   `json:"allowedTransitions"`
	WorkflowValues     map[profile.WorkflowField][]string `json:"workflowValues"`
}

type NewProfileData struct {
	Account    *account.Account   `json:"account"`
	Categories []profile.Category `json:"categories"`
}

type Panel struct {
	profiles ProfileReader
	accounts AccountReader
	forms    FormService
	notes    NoteReader
}

func NewPanel(profiles ProfileReader, accounts AccountReader, forms FormService, notes NoteReader) *Panel {
	return &Panel{profiles: profiles, accounts: accounts, forms: forms, notes: notes}
}

// Load builds the payload of view for a profile.
func (p *Panel) Load(ctx context.Context, profileID uuid.UUID, view View) (*PanelPayload, error) {
	var (
		data interface{}
		err  error
	)
	switch view {
	case ViewResume:
		data, err = p.profiles.GetClientDetails(ctx, profileID)
	case ViewAnnotation:
		data, err = p.notes.ListAnnotations(ctx, profileID)
	case ViewComment:
		data, err = p.notes.ListProfileComments(ctx, profileID)
	case ViewForm:
		data, err = p.forms.GetForm(ctx, profileID)
	case ViewEditProfile:
		data, err = p.editProfile(ctx, profileID)
	case ViewEditAccount:
		data, err = p.owner(ctx, profileID)
	case ViewNewProfile:
		var acc *account.Account
		acc, err = p.owner(ctx, profileID)
		data = &NewProfileData{Account: acc, Categories: profile.Categories}
	default:
		_, err = ParseView(string(view))
	}
	if err != nil {
		return nil, err
	}
	return &PanelPayload{View: view, Data: data}, nil
}

func (p *Panel) owner(ctx context.Context, profileID uuid.UUID) (*account.Account, error) {
	pr, err := p.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return p.accounts.GetAccount(ctx, pr.AccountID)
}

func (p *Panel) editProfile(ctx context.Context, profileID uuid.UUID) (*EditProfileData, error) {
	pr, err := p.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return &EditProfileData{
		Profile:            pr,
		Categories:         profile.Categories,
		AllowedTransitions: profile.AllowedTransitions(pr.Status),
		WorkflowValues:     profile.WorkflowValues,
	}, nil
}
