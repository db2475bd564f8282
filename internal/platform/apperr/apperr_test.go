package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(nil))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, CodeNotFound, CodeOf(NotFound("x")))
	assert.Equal(t, CodeConflict, CodeOf(fmt.Errorf("wrapped: %w", Conflict("dup"))))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Perfil não encontrado", UserMessage(NotFound("Perfil não encontrado")))
	assert.Equal(t, "E-mail já cadastrado", UserMessage(Conflict("E-mail já cadastrado")))
	assert.Equal(t, GenericMessage, UserMessage(errors.New("pq: connection refused")))
	assert.Equal(t, GenericMessage, UserMessage(Internal(errors.New("secret detail"))))
}

func TestToBody_ValidationCarriesFields(t *testing.T) {
	err := Validation("Formulário inválido", []FieldError{
		{Path: "crimeConfirmation", Message: "Selecione uma opção"},
	}).With("redirectStep", 10)

	status, body := ToBody(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, CodeValidation, body["code"])
	assert.Equal(t, 10, body["redirectStep"])
	fields, ok := body["errors"].([]FieldError)
	require.True(t, ok)
	assert.Len(t, fields, 1)
}

func TestToBody_EchoHTTPError(t *testing.T) {
	status, body := ToBody(echo.NewHTTPError(http.StatusForbidden, "required role: staff"))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, CodeForbidden, body["code"])
	assert.Equal(t, "required role: staff", body["message"])

	status, body = ToBody(echo.NewHTTPError(http.StatusInternalServerError, "db down"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, GenericMessage, body["message"])
}

func TestHTTPErrorHandler_HidesInternalDetail(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/profiles", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("request_id", "rid-1")

	HTTPErrorHandler(zerolog.Nop())(errors.New("relation \"profile\" does not exist"), c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, GenericMessage, body["message"])
	assert.Equal(t, "rid-1", body["request_id"])
	assert.NotContains(t, rec.Body.String(), "relation")
}

func TestToBody_StatusOverride(t *testing.T) {
	err := Validation("Existem campos inválidos", nil).WithStatus(http.StatusUnprocessableEntity)
	status, body := ToBody(err)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, CodeValidation, body["code"])
}
