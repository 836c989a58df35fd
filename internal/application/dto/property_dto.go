package dto

import "github.com/turtacn/crn/internal/domain/models"

// PropertySearchRequest is a free-text search over public records.
type PropertySearchRequest struct {
	Query string `form:"q" validate:"required,min=2,max=255"`
	Limit int    `form:"limit" validate:"omitempty,min=1,max=100"`
}

// Property search modes.
const (
	PropertySearchByName    = "name"
	PropertySearchByAddress = "address"
)

// PropertySearchResponse lists matching records and how the query was interpreted.
type PropertySearchResponse struct {
	Mode    string                   `json:"mode"`
	Results []*models.PropertyRecord `json:"results"`
}

// PropertyMatchesResponse lists ranked linkage candidates for a customer.
type PropertyMatchesResponse struct {
	CustomerID string                   `json:"customer_id"`
	Candidates []models.RankedCandidate `json:"candidates"`
}

// EnrichmentResponse reports what enriching a customer did.
type EnrichmentResponse struct {
	Customer *CustomerResponse `json:"customer"`
	// Match is the definitive candidate used, nil when there was none.
	Match         *models.RankedCandidate `json:"match,omitempty"`
	Linked        bool                    `json:"linked"`
	UpdatedFields []string                `json:"updated_fields,omitempty"`
	// Suggestions are non-definitive candidates for manual review.
	Suggestions []models.RankedCandidate `json:"suggestions,omitempty"`
}

// BatchSyncRequest bounds one batch property sync run.
type BatchSyncRequest struct {
	County       string `json:"county"`
	Municipality string `json:"municipality"`
	State        string `json:"state"`
	AfterID      string `json:"after_id"`
	Limit        int    `json:"limit" validate:"omitempty,min=1,max=5000"`
}

// Filter returns the domain filter.
func (r *BatchSyncRequest) Filter() models.PropertyFilter {
	return models.PropertyFilter{County: r.County, Municipality: r.Municipality, State: r.State, AfterID: r.AfterID}
}

// ImportResult summarizes a property CSV import.
type ImportResult struct {
	Rows     int      `json:"rows"`
	Imported int      `json:"imported"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}
