package review

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casedesk/casedesk/internal/domain/account"
	"github.com/casedesk/casedesk/internal/domain/form"
	"github.com/casedesk/casedesk/internal/domain/notes"
	"github.com/casedesk/casedesk/internal/domain/profile"
	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/auth"
)

type fakeProfiles struct {
	profiles map[uuid.UUID]*profile.Profile
	accounts map[uuid.UUID]*account.Account
}

func (f *fakeProfiles) GetProfile(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	if p, ok := f.profiles[id]; ok {
		return p, nil
	}
	return nil, apperr.NotFound(profile.MsgNotFound)
}

func (f *fakeProfiles) GetClientDetails(ctx context.Context, id uuid.UUID) (*profile.ClientDetails, error) {
	p, err := f.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	return &profile.ClientDetails{Profile: p, Account: f.accounts[p.AccountID]}, nil
}

func (f *fakeProfiles) GetAccount(_ context.Context, id uuid.UUID) (*account.Account, error) {
	if a, ok := f.accounts[id]; ok {
		return a, nil
	}
	return nil, apperr.NotFound("Conta não encontrada")
}

type fakeForms struct {
	docs      map[uuid.UUID]*form.Document
	submitted []form.SubmitRequest
}

func (f *fakeForms) GetForm(_ context.Context, id uuid.UUID) (*form.Document, error) {
	if d, ok := f.docs[id]; ok {
		return d, nil
	}
	return nil, apperr.NotFound(form.MsgNotFound)
}

func (f *fakeForms) Submit(_ context.Context, id uuid.UUID, req form.SubmitRequest) (*form.SubmitResult, error) {
	f.submitted = append(f.submitted, req)
	return &form.SubmitResult{Message: form.MsgSubmitted, Redirect: form.RedirectResume, Version: f.docs[id].Version + 1, SubmittedAt: time.Now()}, nil
}

type fakeNotes struct{}

func (fakeNotes) ListAnnotations(context.Context, uuid.UUID) ([]*notes.Note, error) {
	return []*notes.Note{{Kind: notes.KindAnnotation, Body: "Ligar"}}, nil
}

func (fakeNotes) ListProfileComments(context.Context, uuid.UUID) ([]*notes.Note, error) {
	return []*notes.Note{}, nil
}

type fixture struct {
	profiles *fakeProfiles
	forms    *fakeForms
	svc      *Service
	panel    *Panel
	p        *profile.Profile
}

func newFixture(editable bool) *fixture {
	acc := &account.Account{ID: uuid.New(), Name: "Ana", Email: "ana@example.com"}
	p := &profile.Profile{ID: uuid.New(), AccountID: acc.ID, Name: "Ana - Turismo", Status: profile.StatusActive}
	doc := &form.Document{ProfileID: p.ID, Version: 4, Editable: editable, Fields: map[string]string{
		"firstName":                    "Ana",
		"crimeConfirmation":            form.No,
		"crimeConfirmationDetails":     "antigo",
		"drugAbuseConfirmation":        form.Yes,
		"drugAbuseConfirmationDetails": "tratamento",
	}}
	profiles := &fakeProfiles{
		profiles: map[uuid.UUID]*profile.Profile{p.ID: p},
		accounts: map[uuid.UUID]*account.Account{acc.ID: acc},
	}
	forms := &fakeForms{docs: map[uuid.UUID]*form.Document{p.ID: doc}}
	return &fixture{
		profiles: profiles,
		forms:    forms,
		svc:      NewService(profiles, forms),
		panel:    NewPanel(profiles, profiles, forms, fakeNotes{}),
		p:        p,
	}
}

func clientCtx() context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{UserID: "c1", Roles: []string{auth.RoleClient}})
}

func staffCtx() context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{UserID: "s1", Roles: []string{auth.RoleStaff}})
}

func findItem(t *testing.T, sections []SectionView, name string) Item {
	t.Helper()
	for _, s := range sections {
		for _, it := range s.Items {
			if it.Name == name {
				return it
			}
		}
	}
	t.Fatalf("item %s not projected", name)
	return Item{}
}

func TestGetReview_ProjectsEverySection(t *testing.T) {
	f := newFixture(true)
	r, err := f.svc.GetReview(clientCtx(), f.p.ID)
	require.NoError(t, err)

	require.Len(t, r.Sections, form.StepCount)
	assert.Equal(t, 4, r.Version)
	assert.True(t, r.ConfirmEnabled)

	assert.Equal(t, "Ana", findItem(t, r.Sections, "firstName").Value)
	hidden := findItem(t, r.Sections, "crimeConfirmationDetails")
	assert.True(t, hidden.Hidden)
	assert.Equal(t, "antigo", hidden.Value)
	shown := findItem(t, r.Sections, "drugAbuseConfirmationDetails")
	assert.False(t, shown.Hidden)
	assert.True(t, findItem(t, r.Sections, "terrorismConfirmationDetails").Hidden)
}

func TestGetReview_ConfirmDisabledAfterSubmission(t *testing.T) {
	f := newFixture(false)
	r, err := f.svc.GetReview(clientCtx(), f.p.ID)
	require.NoError(t, err)
	assert.False(t, r.ConfirmEnabled)

	r, err = f.svc.GetReview(staffCtx(), f.p.ID)
	require.NoError(t, err)
	assert.True(t, r.ConfirmEnabled)
}

func TestGetReview_MissingProfile(t *testing.T) {
	f := newFixture(true)
	_, err := f.svc.GetReview(clientCtx(), uuid.New())
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestConfirm_SubmitsFromTerminalStep(t *testing.T) {
	f := newFixture(true)
	res, err := f.svc.Confirm(clientCtx(), f.p.ID, ConfirmRequest{Version: 4})
	require.NoError(t, err)
	assert.Equal(t, form.RedirectResume, res.Redirect)

	require.Len(t, f.forms.submitted, 1)
	got := f.forms.submitted[0]
	assert.True(t, got.FromReview)
	assert.Equal(t, form.TerminalStep, got.Step)
	assert.Equal(t, 4, got.Version)
}

func TestParseView(t *testing.T) {
	v, err := ParseView("")
	require.NoError(t, err)
	assert.Equal(t, ViewResume, v)

	for _, want := range Views {
		got, err := ParseView(string(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err = ParseView("settings")
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestPanel_LoadsExactlyOneView(t *testing.T) {
	f := newFixture(true)
	ctx := staffCtx()

	tests := []struct {
		view  View
		check func(t *testing.T, data interface{})
	}{
		{ViewResume, func(t *testing.T, data interface{}) {
			assert.Equal(t, "Ana", data.(*profile.ClientDetails).Account.Name)
		}},
		{ViewAnnotation, func(t *testing.T, data interface{}) {
			assert.Len(t, data.([]*notes.Note), 1)
		}},
		{ViewComment, func(t *testing.T, data interface{}) {
			assert.Empty(t, data.([]*notes.Note))
		}},
		{ViewForm, func(t *testing.T, data interface{}) {
			assert.Equal(t, 4, data.(*form.Document).Version)
		}},
		{ViewEditAccount, func(t *testing.T, data interface{}) {
			assert.Equal(t, "ana@example.com", data.(*account.Account).Email)
		}},
		{ViewEditProfile, func(t *testing.T, data interface{}) {
			d := data.(*EditProfileData)
			assert.ElementsMatch(t, []profile.Status{profile.StatusArchived, profile.StatusProspect}, d.AllowedTransitions)
			assert.Len(t, d.Categories, 3)
		}},
		{ViewNewProfile, func(t *testing.T, data interface{}) {
			assert.Equal(t, "Ana", data.(*NewProfileData).Account.Name)
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.view), func(t *testing.T) {
			payload, err := f.panel.Load(ctx, f.p.ID, tt.view)
			require.NoError(t, err)
			assert.Equal(t, tt.view, payload.View)
			tt.check(t, payload.Data)
		})
	}
}

func TestPanel_UnknownViewAndProfile(t *testing.T) {
	f := newFixture(true)
	_, err := f.panel.Load(staffCtx(), f.p.ID, View("bogus"))
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	_, err = f.panel.Load(staffCtx(), uuid.New(), ViewEditProfile)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestHandler_GetPanel(t *testing.T) {
	f := newFixture(true)
	h := NewHandler(f.svc, f.panel)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/?view=editProfile", nil).WithContext(staffCtx())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.p.ID.String())
	require.NoError(t, h.GetPanel(c))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "editProfile", body["view"])

	req = httptest.NewRequest(http.MethodGet, "/?view=nope", nil).WithContext(staffCtx())
	c = e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(f.p.ID.String())
	err := h.GetPanel(c)
	status, _ := apperr.ToBody(err)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHandler_GetReviewSetsETag(t *testing.T) {
	f := newFixture(true)
	h := NewHandler(f.svc, f.panel)
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(clientCtx())
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.p.ID.String())

	require.NoError(t, h.GetReview(c))
	assert.Equal(t, `"v4"`, rec.Header().Get("ETag"))
	assert.Contains(t, rec.Body.String(), `"confirmEnabled":true`)
}
