package handlers

import (
	"net/http"

	"github.com/anonto42/bazaar/backend/internal/apperr"
	"github.com/labstack/echo/v4"
)

// httpError translates a service error into an echo.HTTPError. Internal
// failures keep their cause for the error log but hide it from the client.
func httpError(err error) error {
	if err == nil {
		return nil
	}
	he := echo.NewHTTPError(statusOf(apperr.KindOf(err)), apperr.MessageOf(err))
	if apperr.KindOf(err) == apperr.Internal {
		he = he.SetInternal(err)
	}
	return he
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.InvalidInput:
		return http.StatusBadRequest
	case apperr.Unauthenticated:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
