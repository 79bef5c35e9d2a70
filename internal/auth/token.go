// Package auth issues and verifies the bearer tokens that identify callers.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("token revoked")
)

// Identity is the authenticated caller as seen by every other component
type Identity struct {
	UserID string
	Name   string
	Role   string
}

func (i Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }

// Claims are the custom JWT claims; the registered ID (jti) names the session
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Name: c.Name, Role: c.Role}
}

// SessionStore tracks live token ids so that tokens can be revoked before expiry
type SessionStore interface {
	SaveSession(ctx context.Context, tokenID, userID string, expiresAt time.Time) error
	SessionExists(ctx context.Context, tokenID string) (bool, error)
	RevokeSession(ctx context.Context, tokenID string) error
}

// TokenManager signs and verifies HS256 tokens. sessions may be nil, in which
// case tokens stay valid until they expire.
type TokenManager struct {
	secret   []byte
	ttl      time.Duration
	sessions SessionStore
	now      func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration, sessions SessionStore) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, sessions: sessions, now: time.Now}
}

// Issue generates a token for user and records its session when a store is configured
func (m *TokenManager) Issue(ctx context.Context, user *models.User) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    "bazaar",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	if claims.Role == "" {
		claims.Role = models.RoleUser
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	if m.sessions != nil {
		if err := m.sessions.SaveSession(ctx, claims.ID, user.ID, claims.ExpiresAt.Time); err != nil {
			return "", fmt.Errorf("save session: %w", err)
		}
	}
	return signed, nil
}

// Verify checks signature, expiry and (when configured) that the session is still live
func (m *TokenManager) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	if m.sessions != nil {
		live, err := m.sessions.SessionExists(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("lookup session: %w", err)
		}
		if !live {
			return nil, ErrRevokedToken
		}
	}
	return claims, nil
}

// Revoke ends the session named by claims; a no-op without a session store
func (m *TokenManager) Revoke(ctx context.Context, claims *Claims) error {
	if m.sessions == nil || claims == nil {
		return nil
	}
	return m.sessions.RevokeSession(ctx, claims.ID)
}
