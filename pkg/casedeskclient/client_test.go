package casedeskclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetFormSendsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/profiles/p1/form", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"profile_id":"p1","fields":{"crimeConfirmation":"Sim"},"version":3,"editable":true,"last_step":4}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/v1/", WithToken("tok"))
	f, err := c.GetForm(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, f.Version)
	assert.Equal(t, "Sim", f.Fields["crimeConfirmation"])
	assert.Equal(t, 4, f.LastStep)
}

func TestClient_SaveSectionSendsIfMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/profiles/p1/form/sections/security", r.URL.Path)
		assert.Equal(t, `"v2"`, r.Header.Get("If-Match"))
		var req DraftRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Não", req.Fields["crimeConfirmation"])
		_, _ = w.Write([]byte(`{"message":"Formulário salvo","version":3}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL).SaveSection(context.Background(), "p1", "security", DraftRequest{
		Fields: map[string]string{"crimeConfirmation": "Não"}, Version: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Version)
}

func TestClient_DecodesValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"code":"VALIDATION","message":"Existem campos inválidos no formulário",
			"errors":[{"path":"crimeConfirmation","message":"Selecione uma opção"}],
			"redirectStep":10,"redirect":"?formStep=10"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Submit(context.Background(), "p1", SubmitRequest{Step: 10, FromReview: true})
	ae, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, ae.Status)
	assert.Equal(t, CodeValidation, ae.Code)
	require.Len(t, ae.Errors, 1)
	require.NotNil(t, ae.RedirectStep)
	assert.Equal(t, 10, *ae.RedirectStep)
	assert.Equal(t, "?formStep=10", ae.Redirect)
}

func TestClient_DecodesWorkflowRollbackValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"VALIDATION","message":"Opção inválida","current":"scheduled"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).UpdateWorkflow(context.Background(), "p1", "visa", "lost")
	ae, ok := AsAPIError(err)
	require.True(t, ok)
	require.NotNil(t, ae.Current)
	assert.Equal(t, "scheduled", *ae.Current)
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(srv.URL).Cancel(context.Background(), "tok")
	ae, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, CodeInternal, ae.Code)
	assert.Equal(t, http.StatusBadGateway, ae.Status)
}
