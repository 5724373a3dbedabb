package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/waste3d/cfproxyhub/internal/application"
	"github.com/waste3d/cfproxyhub/internal/logger"
)

type ZoneHandler struct {
	ingress *application.IngressService
}

func NewZoneHandler(ingress *application.IngressService) *ZoneHandler {
	return &ZoneHandler{ingress: ingress}
}

func (h *ZoneHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/cloudflare/accounts/:accountId/zones/dropdown", h.Dropdown)
}

// Dropdown lists zones for the domain selector. Query: active_only (default
// true), limit (default 50, max 100), search.
func (h *ZoneHandler) Dropdown(c *gin.Context) {
	accountID := strings.TrimSpace(c.Param("accountId"))
	if accountID == "" {
		ErrorResponse(c, "Account ID is required", http.StatusBadRequest)
		return
	}

	filter := application.ZoneFilter{
		ActiveOnly: c.DefaultQuery("active_only", "true") != "false",
		Limit:      application.DefaultZoneLimit,
		Search:     c.Query("search"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			ErrorResponse(c, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	zones, err := h.ingress.ListZones(c.Request.Context(), accountID, filter)
	if err != nil {
		logger.Logger.WithError(err).WithField("account_id", accountID).Error("zone listing failed")
		ErrorResponse(c, "Failed to get zones: "+err.Error(), http.StatusInternalServerError)
		return
	}

	SuccessResponse(c, gin.H{
		"message": "Zones retrieved successfully",
		"zones":   zones,
		"total":   len(zones),
	})
}
