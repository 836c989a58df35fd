package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/crn/internal/application/dto"
	"github.com/turtacn/crn/internal/application/service"
	"github.com/turtacn/crn/internal/interfaces/http/middleware"
)

// NetworkHandler serves shared-network lookups and public property search.
type NetworkHandler struct {
	network    service.NetworkAppService
	properties service.PropertyAppService
}

// NewNetworkHandler creates a new NetworkHandler.
func NewNetworkHandler(network service.NetworkAppService, properties service.PropertyAppService) *NetworkHandler {
	return &NetworkHandler{network: network, properties: properties}
}

// SearchNetwork handles GET /network/search?kind=&value=.
func (h *NetworkHandler) SearchNetwork(c *gin.Context) {
	var req dto.NetworkSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		dto.SendError(c, bindError(err))
		return
	}
	result, err := h.network.SearchNetwork(c.Request.Context(), middleware.TenantID(c), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// GetIdentity handles GET /network/identities/:id.
func (h *NetworkHandler) GetIdentity(c *gin.Context) {
	result, err := h.network.GetIdentity(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// SearchProperties handles GET /properties/search?q=.
func (h *NetworkHandler) SearchProperties(c *gin.Context) {
	var req dto.PropertySearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		dto.SendError(c, bindError(err))
		return
	}
	result, err := h.properties.SearchProperties(c.Request.Context(), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}
