package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/waste3d/cfproxyhub/internal/domain"
	"github.com/waste3d/cfproxyhub/internal/logger"
)

const (
	SessionCookie     = "session_token"
	sessionContextKey = "session"
)

// Authenticator resolves a session token to its session.
type Authenticator interface {
	Authenticate(ctx context.Context, token domain.SessionToken) (*domain.Session, error)
}

// TokenFromRequest reads the bearer token, falling back to the session
// cookie.
func TokenFromRequest(c *gin.Context) domain.SessionToken {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return domain.SessionToken(strings.TrimSpace(parts[1]))
		}
		return ""
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return domain.SessionToken(cookie)
	}
	return ""
}

func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			abort(c, "Authentication required")
			return
		}

		session, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, domain.ErrUnauthorized) {
				logger.Logger.WithError(err).Error("session lookup failed")
			}
			abort(c, "Invalid or expired session")
			return
		}

		c.Set(sessionContextKey, session)

		c.Next()
	}
}

func abort(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": message})
}

func GetSessionFromContext(c *gin.Context) (*domain.Session, bool) {
	session, exists := c.Get(sessionContextKey)
	if !exists {
		return nil, false
	}
	s, ok := session.(*domain.Session)
	return s, ok
}
