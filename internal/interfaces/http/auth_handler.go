package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/waste3d/cfproxyhub/internal/application"
	"github.com/waste3d/cfproxyhub/internal/domain"
	"github.com/waste3d/cfproxyhub/internal/interfaces/http/middlewares"
	"github.com/waste3d/cfproxyhub/internal/logger"
)

type AuthHandler struct {
	authService *application.AuthService
}

func NewAuthHandler(authService *application.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/auth/login", h.Login)
	router.POST("/auth/logout", h.Logout)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req application.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, "Username and password are required", http.StatusBadRequest)
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			ErrorResponse(c, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		logger.Logger.WithError(err).Error("login failed")
		ErrorResponse(c, "Failed to create session", http.StatusInternalServerError)
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetCookie(middlewares.SessionCookie, string(session.Token), maxAge, "/", "", false, true)

	SuccessResponse(c, gin.H{
		"message":    "Login successful",
		"token":      session.Token,
		"username":   session.Username,
		"expires_at": session.ExpiresAt,
	})
}

// Session reports the caller's session. It must run behind AuthMiddleware.
func (h *AuthHandler) Session(c *gin.Context) {
	session, ok := middlewares.GetSessionFromContext(c)
	if !ok {
		ErrorResponse(c, "Authentication required", http.StatusUnauthorized)
		return
	}
	SuccessResponse(c, gin.H{
		"username":   session.Username,
		"expires_at": session.ExpiresAt,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token := middlewares.TokenFromRequest(c)
	if token != "" {
		if err := h.authService.Logout(c.Request.Context(), token); err != nil {
			logger.Logger.WithError(err).Warn("logout failed")
		}
	}
	c.SetCookie(middlewares.SessionCookie, "", -1, "/", "", false, true)
	SuccessResponse(c, gin.H{"message": "Logout successful"})
}
