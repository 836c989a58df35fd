package models

import (
	"strings"
	"time"
)

// Customer is one real-world contact as seen by one tenant.
type Customer struct {
	// ID is the customer identifier.
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	// TenantID scopes every read and write.
	TenantID string `gorm:"type:varchar(36);not null;index:idx_customers_tenant_phone,priority:1;index:idx_customers_tenant_email,priority:1" json:"tenant_id"`

	// Name is the display name as entered by the tenant.
	Name string `gorm:"type:varchar(255);not null" json:"name"`

	Phone   string `gorm:"type:varchar(64)" json:"phone,omitempty"`
	Email   string `gorm:"type:varchar(255)" json:"email,omitempty"`
	Address string `gorm:"type:varchar(512)" json:"address,omitempty"`
	City    string `gorm:"type:varchar(128)" json:"city,omitempty"`
	State   string `gorm:"type:varchar(64)" json:"state,omitempty"`
	County  string `gorm:"type:varchar(128)" json:"county,omitempty"`

	// PhoneNormalized and EmailNormalized back the tenant-local duplicate check.
	PhoneNormalized string `gorm:"type:varchar(64);index:idx_customers_tenant_phone,priority:2" json:"-"`
	EmailNormalized string `gorm:"type:varchar(255);index:idx_customers_tenant_email,priority:2" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the gorm table name.
func (Customer) TableName() string { return "customers" }

// HasContactFact reports whether at least one identifying fact is present.
func (c *Customer) HasContactFact() bool {
	return strings.TrimSpace(c.Phone) != "" ||
		strings.TrimSpace(c.Email) != "" ||
		strings.TrimSpace(c.Address) != ""
}

// CustomerFacts is the set of raw facts a tenant supplies for a customer.
type CustomerFacts struct {
	Name    string
	Phone   string
	Email   string
	Address string
	City    string
	State   string
	County  string
}

// CustomerUpdate carries optional replacements for editable contact fields.
type CustomerUpdate struct {
	Name    *string
	Phone   *string
	Email   *string
	Address *string
	City    *string
	State   *string
	County  *string
}
