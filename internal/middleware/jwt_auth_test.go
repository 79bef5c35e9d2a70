package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/anonto42/bazaar/backend/internal/auth"
	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/anonto42/bazaar/backend/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, tokens *auth.TokenManager, log *slog.Logger, header string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.String(http.StatusOK, id.UserID)
	}, JWTAuthMiddleware(tokens, log))

	r := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		r.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, r)
	return rec
}

func TestJWTAuthMiddleware(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	tokens := auth.NewTokenManager("secret", time.Hour, nil)

	token, err := tokens.Issue(context.Background(), &models.User{ID: "user-1", Name: "Alice"})
	req.NoError(err)

	rec := serve(t, tokens, log, "Bearer "+token)
	req.Equal(http.StatusOK, rec.Code)
	req.Equal("user-1", rec.Body.String())

	for _, header := range []string{"", "Token " + token, "Bearer", "Bearer garbage"} {
		rec := serve(t, tokens, log, header)
		req.Equal(http.StatusUnauthorized, rec.Code, header)
	}
	req.Empty(buf.String(), "rejected tokens are not logged")
}

func TestJWTAuthMiddlewareLogsSessionStoreFailure(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	s := miniredis.RunT(t)
	store, err := session.NewRedisStore("redis://" + s.Addr())
	req.NoError(err)
	defer store.Close()
	tokens := auth.NewTokenManager("secret", time.Hour, store)

	token, err := tokens.Issue(context.Background(), &models.User{ID: "user-1", Name: "Alice"})
	req.NoError(err)
	s.Close()

	rec := serve(t, tokens, log, "Bearer "+token)
	req.Equal(http.StatusUnauthorized, rec.Code)
	req.Contains(rec.Body.String(), "Invalid or expired token")
	req.Contains(buf.String(), "token verification failed")
	req.Contains(buf.String(), `"level":"ERROR"`)
}
