package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/waste3d/cfproxyhub/internal/application"
	"github.com/waste3d/cfproxyhub/internal/domain"
	"github.com/waste3d/cfproxyhub/internal/logger"
)

type HostnameHandler struct {
	ingress *application.IngressService
}

func NewHostnameHandler(ingress *application.IngressService) *HostnameHandler {
	return &HostnameHandler{ingress: ingress}
}

func (h *HostnameHandler) RegisterRoutes(router gin.IRouter) {
	hostnames := router.Group("/cloudflare/accounts/:accountId/tunnels/:tunnel_id/hostnames")
	hostnames.GET("", h.ListHostnames)
	hostnames.POST("", h.CreateHostname)
	hostnames.PUT("/:hostname", h.UpdateHostname)
	hostnames.DELETE("/:hostname", h.DeleteHostname)
}

// scope reads the account and tunnel params, writing a 400 when one is
// missing.
func scope(c *gin.Context) (domain.TunnelScope, bool) {
	s := domain.TunnelScope{
		AccountID: strings.TrimSpace(c.Param("accountId")),
		TunnelID:  strings.TrimSpace(c.Param("tunnel_id")),
	}
	if s.AccountID == "" {
		ErrorResponse(c, "Account ID is required", http.StatusBadRequest)
		return s, false
	}
	if s.TunnelID == "" {
		ErrorResponse(c, "Tunnel ID is required", http.StatusBadRequest)
		return s, false
	}
	return s, true
}

func hostnameParam(c *gin.Context) (string, bool) {
	hostname := strings.TrimSpace(c.Param("hostname"))
	if hostname == "" {
		ErrorResponse(c, "Hostname is required", http.StatusBadRequest)
		return "", false
	}
	return hostname, true
}

func (h *HostnameHandler) ListHostnames(c *gin.Context) {
	s, ok := scope(c)
	if !ok {
		return
	}

	records, err := h.ingress.ListHostnames(c.Request.Context(), s)
	if err != nil {
		h.fail(c, err)
		return
	}

	SuccessResponse(c, gin.H{
		"message":    "Hostnames retrieved successfully",
		"account_id": s.AccountID,
		"tunnel_id":  s.TunnelID,
		"hostnames":  records,
		"total":      len(records),
	})
}

func (h *HostnameHandler) CreateHostname(c *gin.Context) {
	s, ok := scope(c)
	if !ok {
		return
	}

	var req domain.HostnameInput
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.ingress.CreateHostname(c.Request.Context(), s, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	SuccessResponse(c, gin.H{
		"message":    "Hostname created successfully",
		"account_id": s.AccountID,
		"tunnel_id":  s.TunnelID,
		"hostname":   record.Hostname,
		"config":     record,
	})
}

func (h *HostnameHandler) UpdateHostname(c *gin.Context) {
	s, ok := scope(c)
	if !ok {
		return
	}
	target, ok := hostnameParam(c)
	if !ok {
		return
	}

	var req domain.HostnameInput
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.ingress.UpdateHostname(c.Request.Context(), s, target, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	SuccessResponse(c, gin.H{
		"message":         "Hostname updated successfully",
		"account_id":      s.AccountID,
		"tunnel_id":       s.TunnelID,
		"target_hostname": target,
		"new_hostname":    record.Hostname,
		"config":          record,
	})
}

func (h *HostnameHandler) DeleteHostname(c *gin.Context) {
	s, ok := scope(c)
	if !ok {
		return
	}
	hostname, ok := hostnameParam(c)
	if !ok {
		return
	}

	if err := h.ingress.DeleteHostname(c.Request.Context(), s, hostname); err != nil {
		h.fail(c, err)
		return
	}

	SuccessResponse(c, gin.H{
		"message":          "Hostname deleted successfully",
		"account_id":       s.AccountID,
		"tunnel_id":        s.TunnelID,
		"deleted_hostname": hostname,
	})
}

func (h *HostnameHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidHostname):
		ErrorResponse(c, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrHostnameTaken):
		ErrorResponse(c, "A hostname with this name already exists", http.StatusConflict)
	case errors.Is(err, domain.ErrHostnameNotFound):
		ErrorResponse(c, notFoundMessage(err), http.StatusNotFound)
	default:
		logger.Logger.WithError(err).WithField("path", c.FullPath()).Error("hostname request failed")
		ErrorResponse(c, fmt.Sprintf("Failed to process hostname request: %v", err), http.StatusInternalServerError)
	}
}

// notFoundMessage strips the wrapping prefixes so the client sees
// "hostname X not found in tunnel Y".
func notFoundMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, domain.ErrHostnameNotFound.Error()+": "); i >= 0 {
		return msg[i+len(domain.ErrHostnameNotFound.Error())+2:]
	}
	return msg
}
