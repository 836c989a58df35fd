package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/crn/internal/application/dto"
	"github.com/turtacn/crn/internal/application/service"
	"github.com/turtacn/crn/internal/interfaces/http/middleware"
)

// CustomerHandler serves the tenant-scoped customer routes.
type CustomerHandler struct {
	customers   service.CustomerAppService
	reliability service.ReliabilityAppService
	properties  service.PropertyAppService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(customers service.CustomerAppService, reliability service.ReliabilityAppService, properties service.PropertyAppService) *CustomerHandler {
	return &CustomerHandler{customers: customers, reliability: reliability, properties: properties}
}

// AddCustomer handles POST /customers.
func (h *CustomerHandler) AddCustomer(c *gin.Context) {
	var req dto.AddCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, bindError(err))
		return
	}
	result, err := h.customers.AddCustomer(c.Request.Context(), middleware.TenantID(c), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusCreated, result)
}

// ListCustomers handles GET /customers.
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	var req dto.ListCustomersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		dto.SendError(c, bindError(err))
		return
	}
	result, err := h.customers.ListCustomers(c.Request.Context(), middleware.TenantID(c), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// GetCustomer handles GET /customers/:id.
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	result, err := h.customers.GetCustomer(c.Request.Context(), middleware.TenantID(c), c.Param("id"))
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// UpdateCustomer handles PUT /customers/:id.
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	var req dto.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, bindError(err))
		return
	}
	result, err := h.customers.UpdateCustomer(c.Request.Context(), middleware.TenantID(c), c.Param("id"), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// DeleteCustomer handles DELETE /customers/:id.
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	if err := h.customers.DeleteCustomer(c.Request.Context(), middleware.TenantID(c), c.Param("id")); err != nil {
		dto.SendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LogEvent handles POST /customers/:id/events.
func (h *CustomerHandler) LogEvent(c *gin.Context) {
	var req dto.LogEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, bindError(err))
		return
	}
	result, err := h.customers.LogEvent(c.Request.Context(), middleware.TenantID(c), c.Param("id"), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusCreated, result)
}

// ListEvents handles GET /customers/:id/events.
func (h *CustomerHandler) ListEvents(c *gin.Context) {
	result, err := h.customers.ListEvents(c.Request.Context(), middleware.TenantID(c), c.Param("id"))
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// GetReliability handles GET /customers/:id/reliability.
func (h *CustomerHandler) GetReliability(c *gin.Context) {
	result, err := h.reliability.GetReliabilityProfile(c.Request.Context(), middleware.TenantID(c), c.Param("id"))
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// GetPropertyMatches handles GET /customers/:id/property-matches.
func (h *CustomerHandler) GetPropertyMatches(c *gin.Context) {
	result, err := h.properties.FindPropertyMatches(c.Request.Context(), middleware.TenantID(c), c.Param("id"))
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// EnrichCustomer handles POST /customers/:id/enrich.
func (h *CustomerHandler) EnrichCustomer(c *gin.Context) {
	result, err := h.properties.EnrichCustomer(c.Request.Context(), middleware.TenantID(c), c.Param("id"))
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}
