package dto

import (
	"time"

	"github.com/turtacn/crn/internal/domain/models"
)

// AddCustomerRequest creates a customer. At least one of phone, email or address is required.
type AddCustomerRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Phone   string `json:"phone" validate:"omitempty,max=64"`
	Email   string `json:"email" validate:"omitempty,email,max=255"`
	Address string `json:"address" validate:"omitempty,max=512"`
	City    string `json:"city" validate:"omitempty,max=128"`
	State   string `json:"state" validate:"omitempty,max=64"`
	County  string `json:"county" validate:"omitempty,max=128"`

	// SkipDuplicateCheck inserts even when the tenant already has a customer with
	// the same phone or email.
	SkipDuplicateCheck bool `json:"skip_duplicate_check"`
}

// Facts returns the raw customer facts.
func (r *AddCustomerRequest) Facts() models.CustomerFacts {
	return models.CustomerFacts{
		Name: r.Name, Phone: r.Phone, Email: r.Email, Address: r.Address,
		City: r.City, State: r.State, County: r.County,
	}
}

// UpdateCustomerRequest replaces the fields that are present.
type UpdateCustomerRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=64"`
	Email   *string `json:"email" validate:"omitempty,max=255"`
	Address *string `json:"address" validate:"omitempty,max=512"`
	City    *string `json:"city" validate:"omitempty,max=128"`
	State   *string `json:"state" validate:"omitempty,max=64"`
	County  *string `json:"county" validate:"omitempty,max=128"`

	SkipDuplicateCheck bool `json:"skip_duplicate_check"`
}

// Update returns the domain update.
func (r *UpdateCustomerRequest) Update() models.CustomerUpdate {
	return models.CustomerUpdate{
		Name: r.Name, Phone: r.Phone, Email: r.Email, Address: r.Address,
		City: r.City, State: r.State, County: r.County,
	}
}

// CustomerResponse is a customer as returned to its tenant.
type CustomerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	County    string    `json:"county,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCustomerResponse converts a customer.
func NewCustomerResponse(c *models.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID: c.ID, Name: c.Name, Phone: c.Phone, Email: c.Email, Address: c.Address,
		City: c.City, State: c.State, County: c.County,
		CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

// AddCustomerResponse is the new customer plus the network signal for it.
type AddCustomerResponse struct {
	Customer *CustomerResponse  `json:"customer"`
	Network  *NetworkIdentityDTO `json:"network,omitempty"`
}

// ListCustomersRequest pages through a tenant's customers.
type ListCustomersRequest struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"page_size" validate:"omitempty,min=1,max=500"`
}

// ListCustomersResponse is one page of customers.
type ListCustomersResponse struct {
	Customers  []*CustomerResponse `json:"customers"`
	Pagination PaginationResponse  `json:"pagination"`
}

// LogEventRequest appends an event to a customer's log.
type LogEventRequest struct {
	Severity int    `json:"severity" validate:"required,min=1,max=5"`
	Category string `json:"category" validate:"required,max=64"`
	Note     string `json:"note" validate:"omitempty,max=2000"`
}

// EventResponse is one logged event.
type EventResponse struct {
	ID          string    `json:"id"`
	CustomerID  string    `json:"customer_id"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Severity    int       `json:"severity"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewEventResponse converts an event.
func NewEventResponse(e *models.Event) *EventResponse {
	return &EventResponse{
		ID: e.ID, CustomerID: e.CustomerID, Category: e.Category,
		Description: e.Description, Severity: e.Severity, CreatedAt: e.CreatedAt,
	}
}

// LogEventResponse is the stored event plus the updated network signal.
type LogEventResponse struct {
	Event   *EventResponse      `json:"event"`
	Network *NetworkIdentityDTO `json:"network,omitempty"`
}
