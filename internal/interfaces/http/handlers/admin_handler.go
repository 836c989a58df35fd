package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/crn/internal/application/dto"
	"github.com/turtacn/crn/internal/application/service"
	"github.com/turtacn/crn/pkg/errors"
)

// maxImportBytes bounds an uploaded property CSV.
const maxImportBytes = 64 << 20

// AdminHandler serves operator routes. All of them require the admin role.
type AdminHandler struct {
	businesses  service.BusinessAppService
	properties  service.PropertyAppService
	maintenance service.MaintenanceAppService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(businesses service.BusinessAppService, properties service.PropertyAppService, maintenance service.MaintenanceAppService) *AdminHandler {
	return &AdminHandler{businesses: businesses, properties: properties, maintenance: maintenance}
}

// CreateBusiness handles POST /admin/businesses.
func (h *AdminHandler) CreateBusiness(c *gin.Context) {
	var req dto.CreateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, bindError(err))
		return
	}
	result, err := h.businesses.CreateBusiness(c.Request.Context(), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusCreated, result)
}

// GetBusiness handles GET /admin/businesses/:id.
func (h *AdminHandler) GetBusiness(c *gin.Context) {
	result, err := h.businesses.GetBusiness(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// ListBusinesses handles GET /admin/businesses.
func (h *AdminHandler) ListBusinesses(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	result, err := h.businesses.ListBusinesses(c.Request.Context(), page, size)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// ImportProperties handles POST /admin/properties/import with either a multipart
// "file" field or a text/csv body.
func (h *AdminHandler) ImportProperties(c *gin.Context) {
	var body io.Reader
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			dto.SendError(c, bindError(err))
			return
		}
		defer f.Close()
		body = f
	} else {
		body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	}

	result, err := h.properties.ImportProperties(c.Request.Context(), body)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// SyncProperties handles POST /admin/properties/sync.
func (h *AdminHandler) SyncProperties(c *gin.Context) {
	var req dto.BatchSyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			dto.SendError(c, bindError(err))
			return
		}
	}
	result, err := h.properties.BatchSyncProperties(c.Request.Context(), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// MergeIdentities handles POST /admin/identities/merge.
func (h *AdminHandler) MergeIdentities(c *gin.Context) {
	var req dto.MergeIdentitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, bindError(err))
		return
	}
	result, err := h.maintenance.MergeIdentities(c.Request.Context(), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// RunCleanStreakJob handles POST /admin/jobs/clean-streak.
func (h *AdminHandler) RunCleanStreakJob(c *gin.Context) {
	batch := 0
	if v := c.Query("batch_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			dto.SendError(c, errors.ErrInvalidParameterFormat("batch_size", "a positive integer"))
			return
		}
		batch = n
	}
	result, err := h.maintenance.RunCleanStreakJob(c.Request.Context(), batch)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// TierReport handles GET /admin/reports/tiers.
func (h *AdminHandler) TierReport(c *gin.Context) {
	result, err := h.maintenance.TierReport(c.Request.Context())
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}
