package handlers

import (
	"net/http"

	"github.com/anonto42/bazaar/backend/internal/auth"
	"github.com/anonto42/bazaar/backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// currentUser returns the authenticated caller or a 401.
func currentUser(c echo.Context) (auth.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return auth.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return id, nil
}

// bindAndValidate decodes the request body into req and runs the echo validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}

// respond writes the {"success":true,"data":...} envelope.
func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}
