// Package dto holds the request and response shapes of the HTTP API.
package dto

import (
	"time"

	"github.com/turtacn/crn/pkg/errors"
)

// APIResponse is the envelope of every HTTP response.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorDTO   `json:"error,omitempty"`
	TraceID   string      `json:"trace_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ErrorDTO is the error part of the envelope.
type ErrorDTO struct {
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	Description string                 `json:"description,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// PaginationResponse is page metadata for list endpoints.
type PaginationResponse struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination computes the page count.
func NewPagination(page, pageSize int, total int64) PaginationResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(total) / pageSize
		if int(total)%pageSize > 0 {
			totalPages++
		}
	}
	return PaginationResponse{Page: page, PageSize: pageSize, Total: total, TotalPages: totalPages}
}

// SuccessResponse wraps data.
func SuccessResponse(data interface{}, traceID string) *APIResponse {
	return &APIResponse{
		Success:   true,
		Data:      data,
		TraceID:   traceID,
		Timestamp: time.Now().Unix(),
	}
}

// ErrorResponse converts any error into the envelope. Errors that are not CRNErrors
// are reported as internal without their text.
func ErrorResponse(err error, traceID string) *APIResponse {
	body := errors.ToErrorResponse(err)
	return &APIResponse{
		Success: false,
		Error: &ErrorDTO{
			Code:        body.Code,
			Message:     body.Message,
			Description: body.Description,
			Details:     body.Metadata,
		},
		TraceID:   traceID,
		Timestamp: time.Now().Unix(),
	}
}
