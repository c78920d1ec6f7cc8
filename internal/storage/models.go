// Package storage provides database models and repositories for the GearHive
// parts catalog, knowledge base, and session table.
package storage

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeCategory enumerates the curated knowledge-base entry kinds.
type KnowledgeCategory string

const (
	CategoryInstallationGuide KnowledgeCategory = "installation_guide"
	CategoryTroubleshooting   KnowledgeCategory = "troubleshooting"
	CategorySafetyWarning     KnowledgeCategory = "safety_warning"
	CategoryMaintenance       KnowledgeCategory = "maintenance"
	CategoryGeneral           KnowledgeCategory = "general"
)

// Part is a catalog entry from the marketplace side of the forum.
type Part struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Supplier    string    `json:"supplier"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Views       int       `json:"views"`
	CreatedAt   time.Time `json:"createdAt"`
}

// KnowledgeEntry is a curated, admin-reviewed record: installation guides,
// troubleshooting notes, and safety warnings, distinct from the raw catalog.
type KnowledgeEntry struct {
	ID           uuid.UUID         `json:"id"`
	Title        string            `json:"title"`
	Content      string            `json:"content"`
	Category     KnowledgeCategory `json:"category"`
	VehicleMake  string            `json:"vehicleMake,omitempty"`
	VehicleModel string            `json:"vehicleModel,omitempty"`
	VehicleYear  int               `json:"vehicleYear,omitempty"`
	SourceURL    string            `json:"sourceUrl,omitempty"`
	UsageCount   int               `json:"usageCount"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// Session maps an opaque session token to an authenticated forum user.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// KnowledgeQuery holds optional filters for knowledge-base search.
type KnowledgeQuery struct {
	Category    KnowledgeCategory
	VehicleMake string
	Limit       int
}
