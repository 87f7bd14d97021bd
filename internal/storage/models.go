// Package storage provides database models and repositories for the
// concierge core.
package storage

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PackStatus represents the build status of a knowledge pack.
type PackStatus string

const (
	PackStatusPending PackStatus = "pending"
	PackStatusBuilt   PackStatus = "built"
	PackStatusStale   PackStatus = "stale"
)

// SampleKind distinguishes where an attribute sample was observed.
type SampleKind string

const (
	SampleKindFacet SampleKind = "facet"
	SampleKindSpec  SampleKind = "spec"
)

// Shop represents a merchant account whose catalog is being normalized.
type Shop struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Domain    string          `json:"domain" db:"domain"`
	Name      string          `json:"name" db:"name"`
	Settings  json.RawMessage `json:"settings" db:"settings"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// CatalogProduct represents a catalog row as synced from the shop.
type CatalogProduct struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	ShopID       uuid.UUID       `json:"shop_id" db:"shop_id"`
	ExternalID   string          `json:"external_id" db:"external_id"`
	Title        string          `json:"title" db:"title"`
	Description  *string         `json:"description,omitempty" db:"description"`
	Vendor       *string         `json:"vendor,omitempty" db:"vendor"`
	Price        *float64        `json:"price,omitempty" db:"price"`
	Rating       *float64        `json:"rating,omitempty" db:"rating"`
	ReviewCount  int             `json:"review_count" db:"review_count"`
	CategoryPath []string        `json:"category_path" db:"category_path"`
	Tags         []string        `json:"tags" db:"tags"`
	Attributes   json.RawMessage `json:"attributes" db:"attributes"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// AttributeSample represents one observed facet or spec value for a
// product attribute, the raw material of ontology building and unit-rule
// discovery.
type AttributeSample struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	ShopID    uuid.UUID  `json:"shop_id" db:"shop_id"`
	ProductID *uuid.UUID `json:"product_id,omitempty" db:"product_id"`
	Kind      SampleKind `json:"kind" db:"kind"`
	Attribute string     `json:"attribute" db:"attribute"`
	Value     string     `json:"value" db:"value"`
	Category  *string    `json:"category,omitempty" db:"category"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// SpecEvidence represents an extracted spec snippet with its extraction
// confidence, produced by the upstream text extractor.
type SpecEvidence struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ShopID     uuid.UUID `json:"shop_id" db:"shop_id"`
	ProductID  uuid.UUID `json:"product_id" db:"product_id"`
	SpecKey    string    `json:"spec_key" db:"spec_key"`
	Snippet    string    `json:"snippet" db:"snippet"`
	Confidence *float64  `json:"confidence,omitempty" db:"confidence"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// OntologyRecord persists a built ontology definition for a shop.
type OntologyRecord struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	ShopID     uuid.UUID       `json:"shop_id" db:"shop_id"`
	Version    string          `json:"version" db:"version"`
	Definition json.RawMessage `json:"definition" db:"definition"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// PackRecord persists a built knowledge pack for a product.
type PackRecord struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	ShopID          uuid.UUID       `json:"shop_id" db:"shop_id"`
	ProductID       uuid.UUID       `json:"product_id" db:"product_id"`
	OntologyVersion string          `json:"ontology_version" db:"ontology_version"`
	Status          PackStatus      `json:"status" db:"status"`
	Pack            json.RawMessage `json:"pack" db:"pack"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// ShardRecord persists a canon shard together with its embedding.
type ShardRecord struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	ShopID     uuid.UUID       `json:"shop_id" db:"shop_id"`
	Topic      string          `json:"topic" db:"topic"`
	Tags       []string        `json:"tags" db:"tags"`
	Assertions []string        `json:"assertions" db:"assertions"`
	Caveats    []string        `json:"caveats" db:"caveats"`
	Citation   *string         `json:"citation,omitempty" db:"citation"`
	Embedding  []float32       `json:"embedding,omitempty" db:"embedding"`
	Metadata   json.RawMessage `json:"metadata" db:"metadata"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}
