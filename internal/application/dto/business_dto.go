package dto

// CreateBusinessRequest registers a tenant.
type CreateBusinessRequest struct {
	// ID is optional; a uuid is generated when empty.
	ID   string `json:"id" validate:"omitempty,uuid"`
	Name string `json:"name" validate:"required,max=255"`
}
