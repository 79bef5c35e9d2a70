package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/anonto42/bazaar/backend/internal/auth"
	"github.com/anonto42/bazaar/backend/internal/middleware"
	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/anonto42/bazaar/backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// IDTokenVerifier is the part of the Firebase auth client used for login.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	firebaseAuth   IDTokenVerifier
	tokens         *auth.TokenManager
	log            *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil, which
// disables the Firebase login route.
func NewAuthHandler(userRepo repositories.UserRepository, firebaseAuth IDTokenVerifier, tokens *auth.TokenManager, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		firebaseAuth:   firebaseAuth,
		tokens:         tokens,
		log:            log.With("component", "auth"),
	}
}

// RegisterAuthRoutes registers the public authentication routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/firebase-login", h.FirebaseLogin)
}

// RegisterSessionRoutes registers routes that need an authenticated caller
func (h *AuthHandler) RegisterSessionRoutes(g *echo.Group) {
	g.POST("/auth/logout", h.Logout)
}

// Signup handles local user registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.CreateLocalUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := h.userRepository.GetUserByEmail(email); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User with this email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Email:    email,
		Password: string(hashedPassword),
		Role:     models.RoleUser,
		Location: req.Location,
	}
	if err := h.userRepository.CreateUser(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return echo.NewHTTPError(http.StatusConflict, "User with this email already registered")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user").SetInternal(err)
	}

	token, err := h.tokens.Issue(c.Request().Context(), user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token after signup").SetInternal(err)
	}

	h.log.Info("user signed up", "user_id", user.ID)
	return respond(c, http.StatusCreated, echo.Map{"token": token, "user": user})
}

// SignIn handles local user authentication with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || user.Password == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	token, err := h.tokens.Issue(c.Request().Context(), user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token").SetInternal(err)
	}
	return respond(c, http.StatusOK, echo.Map{"token": token, "user": user})
}

// FirebaseLogin verifies a Firebase ID token and issues a local JWT,
// creating or linking the local account on first login.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebaseAuth == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Firebase login is not configured")
	}

	var req models.FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	email, _ := token.Claims["email"].(string)
	email = strings.ToLower(email)
	name, _ := token.Claims["name"].(string)

	user, err := h.linkFirebaseUser(token.UID, email, name)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to resolve user").SetInternal(err)
	}

	localJWT, err := h.tokens.Issue(ctx, user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate local JWT").SetInternal(err)
	}
	return respond(c, http.StatusOK, echo.Map{"token": localJWT, "user": user})
}

// linkFirebaseUser finds the account by Firebase UID, then by email, and
// creates one when neither exists.
func (h *AuthHandler) linkFirebaseUser(uid, email, name string) (*models.User, error) {
	user, err := h.userRepository.GetUserByFirebaseUID(uid)
	if err == nil {
		if name != "" && user.Name != name {
			user.Name = name
			if err := h.userRepository.UpdateUser(user); err != nil {
				return nil, err
			}
		}
		return user, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	if email != "" {
		user, err = h.userRepository.GetUserByEmail(email)
		if err == nil {
			user.FirebaseUID = &uid
			if err := h.userRepository.UpdateUser(user); err != nil {
				return nil, err
			}
			return user, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
	}

	user = &models.User{
		ID:          uuid.NewString(),
		Name:        name,
		Email:       email,
		FirebaseUID: &uid,
		Role:        models.RoleUser,
	}
	if err := h.userRepository.CreateUser(user); err != nil {
		return nil, err
	}
	h.log.Info("user created from firebase login", "user_id", user.ID)
	return user, nil
}

// Logout revokes the caller's current token
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	if err := h.tokens.Revoke(c.Request().Context(), claims); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to revoke session").SetInternal(err)
	}
	return respond(c, http.StatusOK, echo.Map{"logged_out": true})
}
