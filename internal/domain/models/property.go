package models

import (
	"strings"
	"time"
)

// PropertyClassResidential is the class assigned to residential parcels.
const PropertyClassResidential = "residential"

// PropertyRecord is a public property record, read-mostly and ingested in bulk.
type PropertyRecord struct {
	ID       string `gorm:"type:varchar(36);primaryKey" json:"id"`
	ParcelID string `gorm:"type:varchar(64);uniqueIndex:uq_property_records_parcel" json:"parcel_id"`

	OwnerName string `gorm:"type:varchar(255)" json:"owner_name"`
	// OwnerNameNormalized is the lowercased, whitespace-collapsed owner name used by name search.
	OwnerNameNormalized string `gorm:"type:varchar(255);index" json:"-"`
	// BusinessOwned marks owner names classified as a business at ingest; property sync never links them.
	BusinessOwned bool `gorm:"not null;default:false;index" json:"business_owned"`

	Address string `gorm:"type:varchar(512)" json:"address"`
	// AddressNormalized is the normalized address used by address search.
	AddressNormalized string `gorm:"type:varchar(512);index" json:"-"`

	Municipality  string `gorm:"type:varchar(128)" json:"municipality"`
	County        string `gorm:"type:varchar(128);index" json:"county"`
	State         string `gorm:"type:varchar(64)" json:"state"`
	Zip           string `gorm:"type:varchar(16)" json:"zip"`
	PropertyClass string `gorm:"type:varchar(32);index" json:"property_class"`
	AssessedValue int64  `json:"assessed_value,omitempty"`
	YearBuilt     int    `json:"year_built,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the gorm table name.
func (PropertyRecord) TableName() string { return "property_records" }

// IsResidential reports whether the parcel is residential.
func (p *PropertyRecord) IsResidential() bool {
	return strings.EqualFold(p.PropertyClass, PropertyClassResidential)
}

// MatchType records which linkage pass produced a candidate or link.
type MatchType string

const (
	MatchTypeAddress      MatchType = "address"
	MatchTypeName         MatchType = "name"
	MatchTypePropertySync MatchType = "property_sync"
)

// PropertyCustomerLink ties a property record to a network identity, once per pair.
type PropertyCustomerLink struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	PropertyID string    `gorm:"type:varchar(36);not null;uniqueIndex:uq_property_links_pair,priority:1" json:"property_id"`
	IdentityID string    `gorm:"type:varchar(36);not null;uniqueIndex:uq_property_links_pair,priority:2;index" json:"identity_id"`
	MatchType  MatchType `gorm:"type:varchar(32);not null" json:"match_type"`
	Confidence float64   `gorm:"not null" json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName overrides the gorm table name.
func (PropertyCustomerLink) TableName() string { return "property_customer_links" }

// RankedCandidate is one record-linkage candidate with its confidence.
type RankedCandidate struct {
	Property   *PropertyRecord `json:"property"`
	MatchType  MatchType       `json:"match_type"`
	Confidence float64         `json:"confidence"`
	// Definitive candidates may be auto-linked; the rest are suggestions only.
	Definitive bool `json:"definitive"`
}

// PropertyFilter bounds a batch sync or listing of property records.
type PropertyFilter struct {
	County       string
	Municipality string
	State        string
	// AfterID resumes a paged scan after the given record id.
	AfterID string
}

// SyncResult summarizes one batch property sync.
type SyncResult struct {
	Created int `json:"created"`
	Linked  int `json:"linked"`
	Skipped int `json:"skipped"`
	// NextCursor is the last record id examined; pass it as AfterID to resume.
	NextCursor string `json:"next_cursor,omitempty"`
}
