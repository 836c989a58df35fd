// Package models defines the domain models for the Customer Reliability Network.
// Tenant-private models (Business, Customer, Event) and the shared network models
// (NetworkIdentity and its aggregates) live side by side here but are never related
// through ORM associations; the shared context is reached only through its own repository.
package models

import "time"

// Business is a tenant: an independent service business and the isolation boundary
// for Customer and Event data.
type Business struct {
	// ID is the tenant identifier carried in the tenant_id token claim.
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	// Name is the display name of the business.
	Name string `gorm:"type:varchar(255);not null" json:"name"`

	// CreatedAt is when the business was registered.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp of the last change.
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the gorm table name.
func (Business) TableName() string { return "businesses" }
