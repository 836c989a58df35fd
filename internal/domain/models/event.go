package models

import "time"

const (
	// MinSeverity is the mildest event severity.
	MinSeverity = 1
	// MaxSeverity is the most severe event severity.
	MaxSeverity = 5
)

// Event is an immutable reliability note a tenant logs against one of its customers.
// Events are append-only; the reliability score is a fold over them.
type Event struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CustomerID  string    `gorm:"type:varchar(36);not null;index:idx_events_customer,priority:1" json:"customer_id"`
	TenantID    string    `gorm:"type:varchar(36);not null;index:idx_events_tenant" json:"tenant_id"`
	Category    string    `gorm:"type:varchar(64);not null" json:"category"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Severity    int       `gorm:"not null" json:"severity"`
	CreatedAt   time.Time `gorm:"index:idx_events_customer,priority:2" json:"created_at"`
}

// TableName overrides the gorm table name.
func (Event) TableName() string { return "events" }

// ValidSeverity reports whether s lies in [MinSeverity, MaxSeverity].
func ValidSeverity(s int) bool {
	return s >= MinSeverity && s <= MaxSeverity
}
