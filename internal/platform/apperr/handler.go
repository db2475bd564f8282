package apperr

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Body is the JSON shape of every error response.
type Body map[string]interface{}

// ToBody renders err as a status and response body.
func ToBody(err error) (int, Body) {
	if he, ok := err.(*echo.HTTPError); ok {
		code := codeForStatus(he.Code)
		msg := fmt.Sprintf("%v", he.Message)
		if code == CodeInternal {
			msg = GenericMessage
		}
		return he.Code, Body{"code": code, "message": msg}
	}

	ae, ok := As(err)
	if !ok {
		return http.StatusInternalServerError, Body{"code": CodeInternal, "message": GenericMessage}
	}

	body := Body{"code": ae.Code, "message": UserMessage(ae)}
	if len(ae.Fields) > 0 {
		body["errors"] = ae.Fields
	}
	for k, v := range ae.Extra {
		body[k] = v
	}
	if ae.HTTPStatus != 0 {
		return ae.HTTPStatus, body
	}
	return Status(ae.Code), body
}

// HTTPErrorHandler replaces echo's default error handler. Internal errors are
// logged with their cause and rendered with the generic message.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := ToBody(err)
		rid, _ := c.Get("request_id").(string)
		if rid != "" {
			body["request_id"] = rid
		}

		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			logger.Error().Err(werr).Str("request_id", rid).Msg("failed to write error response")
		}
	}
}
