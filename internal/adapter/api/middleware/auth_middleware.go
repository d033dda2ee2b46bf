package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"civicfix/internal/domain/entity"
	"civicfix/internal/infrastructure/firebase"
	"civicfix/pkg/errors"
	"civicfix/pkg/logger"
	"civicfix/pkg/response"
)

const sessionKey = "session"

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*firebase.VerifiedToken, error)
}

// SessionResolver turns a verified identity into a session carrying the caller's role.
type SessionResolver interface {
	ResolveSession(ctx context.Context, uid, email string) (entity.Session, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
	sessions SessionResolver
}

func NewAuthMiddleware(verifier TokenVerifier, sessions SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		sessions: sessions,
	}
}

// Authenticate requires a Firebase ID token in the Authorization header.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		return m.authenticate(c, next, parts[1])
	}
}

// AuthenticateQuery accepts the token as a "token" query parameter. Browsers cannot set
// headers on WebSocket upgrades.
func (m *AuthMiddleware) AuthenticateQuery(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.QueryParam("token")
		if token == "" {
			return response.Error(c, errors.Unauthorized("Token is required", nil))
		}
		return m.authenticate(c, next, token)
	}
}

func (m *AuthMiddleware) authenticate(c echo.Context, next echo.HandlerFunc, token string) error {
	ctx := c.Request().Context()

	verified, err := m.verifier.VerifyToken(ctx, token)
	if err != nil {
		logger.Debug("Token verification failed: %v", err)
		return response.Error(c, errors.Unauthorized("Invalid or expired token", err))
	}

	session, err := m.sessions.ResolveSession(ctx, verified.UID, verified.Email)
	if err != nil {
		return response.Error(c, err)
	}

	c.Set("uid", session.UserID)
	c.Set(sessionKey, session)
	return next(c)
}

// SessionFrom returns the session stored by Authenticate.
func SessionFrom(c echo.Context) (entity.Session, bool) {
	session, ok := c.Get(sessionKey).(entity.Session)
	return session, ok && session.UserID != ""
}

// WithSession stores a session on the context. Used by tests and internal callers.
func WithSession(c echo.Context, session entity.Session) {
	c.Set("uid", session.UserID)
	c.Set(sessionKey, session)
}
