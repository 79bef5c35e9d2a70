package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/anonto42/bazaar/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.GET("/users/:id", h.GetUser)
}

func (h *UserHandler) loadUser(id string) (*models.User, error) {
	user, err := h.userRepository.GetUserByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to load user").SetInternal(err)
	}
	return user, nil
}

// GetUser returns the public projection of another user
func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.loadUser(c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user.ToCompact())
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.loadUser(me.UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	me, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.loadUser(me.UserID)
	if err != nil {
		return err
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Location != "" {
		user.Location = req.Location
	}

	if err := h.userRepository.UpdateUser(user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update profile").SetInternal(err)
	}
	return respond(c, http.StatusOK, user)
}
