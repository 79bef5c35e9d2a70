package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/anonto42/bazaar/backend/internal/apperr"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestHTTPError(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{apperr.NewInvalidInput("bad"), http.StatusBadRequest, "bad"},
		{apperr.NewUnauthenticated("who"), http.StatusUnauthorized, "who"},
		{apperr.NewForbidden("no"), http.StatusForbidden, "no"},
		{apperr.NewNotFound("Conversation not found"), http.StatusNotFound, "Conversation not found"},
		{apperr.NewConflict("again", nil), http.StatusConflict, "again"},
		{apperr.Wrap(errors.New("mongo: connection reset"), "list messages"), http.StatusInternalServerError, "Internal server error"},
		{errors.New("plain"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			var he *echo.HTTPError
			require.ErrorAs(t, httpError(tt.err), &he)
			require.Equal(t, tt.status, he.Code)
			require.Equal(t, tt.message, he.Message)
		})
	}
	require.NoError(t, httpError(nil))
}
