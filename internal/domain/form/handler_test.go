package form

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casedesk/casedesk/internal/platform/apperr"
)

func newContext(ctx context.Context, method, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(zerolog.Nop())
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, "/", nil)
	}
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func TestETag(t *testing.T) {
	assert.Equal(t, `"v3"`, ETag(3))
	assert.Equal(t, 3, parseIfMatch(`"v3"`))
	assert.Equal(t, 3, parseIfMatch(`W/"v3"`))
	assert.Equal(t, 0, parseIfMatch(""))
	assert.Equal(t, 0, parseIfMatch("*"))
}

func TestHandler_ListSections(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	c, rec := newContext(f.clientCtx(), http.MethodGet, "")
	require.NoError(t, h.ListSections(c))

	var out []sectionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, StepCount)
	assert.Equal(t, "security", out[TerminalStep].Key)
	assert.Len(t, out[TerminalStep].Fields, 54)
}

func TestHandler_GetFormSetsETag(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	c, rec := newContext(f.clientCtx(), http.MethodGet, "", "id", f.profile.ID.String())
	require.NoError(t, h.GetForm(c))
	assert.Equal(t, `"v1"`, rec.Header().Get("ETag"))
	assert.Contains(t, rec.Body.String(), `"editable":true`)
}

func TestHandler_SaveSection_IfMatch(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)

	c, rec := newContext(f.clientCtx(), http.MethodPut, `{"fields":{"firstName":"Ana"}}`,
		"id", f.profile.ID.String(), "section", "personal")
	c.Request().Header.Set("If-Match", `"v1"`)
	require.NoError(t, h.SaveSection(c))
	assert.Equal(t, `"v2"`, rec.Header().Get("ETag"))

	c, _ = newContext(f.clientCtx(), http.MethodPut, `{"fields":{"firstName":"Bia"}}`,
		"id", f.profile.ID.String(), "section", "personal")
	c.Request().Header.Set("If-Match", `"v1"`)
	err := h.SaveSection(c)
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
}

func TestHandler_SubmitInvalidRendersRedirect(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	values := validDocument()
	values["crimeConfirmation"] = ""
	raw, err := json.Marshal(map[string]interface{}{
		"fields": values, "step": TerminalStep, "fromReview": true,
	})
	require.NoError(t, err)

	c, rec := newContext(f.clientCtx(), http.MethodPost, string(raw), "id", f.profile.ID.String())
	err = h.Submit(c)
	require.Error(t, err)
	c.Echo().HTTPErrorHandler(err, c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "?formStep=10", body["redirect"])
	assert.Equal(t, float64(TerminalStep), body["redirectStep"])
	errs := body["errors"].([]interface{})
	require.Len(t, errs, 1)
	assert.Equal(t, "crimeConfirmation", errs[0].(map[string]interface{})["path"])
}

func TestHandler_Submit(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	raw, err := json.Marshal(map[string]interface{}{"fields": validDocument(), "step": TerminalStep})
	require.NoError(t, err)

	c, rec := newContext(f.clientCtx(), http.MethodPost, string(raw), "id", f.profile.ID.String())
	require.NoError(t, h.Submit(c))
	f.svc.Wait()

	assert.Equal(t, http.StatusOK, rec.Code)
	var res SubmitResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, RedirectResume, res.Redirect)
	assert.Equal(t, `"v2"`, rec.Header().Get("ETag"))
}

func TestHandler_SetEditable(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	c, rec := newContext(staffCtx(), http.MethodPut, `{"editable":false}`, "id", f.profile.ID.String())
	require.NoError(t, h.SetEditable(c))
	assert.Contains(t, rec.Body.String(), `"editable":false`)
}

func TestHandler_BadID(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	c, _ := newContext(f.clientCtx(), http.MethodGet, "", "id", "not-a-uuid")
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(h.GetForm(c)))
}
