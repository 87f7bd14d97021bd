package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflict")
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// List-typed columns are stored as JSON text so the same queries run on
// SQLite and Postgres.
func encodeJSON(v interface{}) (string, error) {
	if v == nil {
		return "null", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json column: %w", err)
	}
	return string(data), nil
}

func decodeJSON(data string, v interface{}) error {
	if data == "" || data == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}

// ShopRepository handles shop CRUD operations.
type ShopRepository struct {
	db DB
}

// NewShopRepository creates a new shop repository.
func NewShopRepository(db DB) *ShopRepository {
	return &ShopRepository{db: db}
}

// Create creates a new shop.
func (r *ShopRepository) Create(ctx context.Context, shop *Shop) error {
	if shop.ID == uuid.Nil {
		shop.ID = uuid.New()
	}
	if len(shop.Settings) == 0 {
		shop.Settings = json.RawMessage("{}")
	}
	shop.CreatedAt = time.Now()
	shop.UpdatedAt = time.Now()

	query := `
		INSERT INTO shops (id, domain, name, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		shop.ID, shop.Domain, shop.Name, string(shop.Settings),
		shop.CreatedAt, shop.UpdatedAt,
	)
	return err
}

// GetByID retrieves a shop by ID.
func (r *ShopRepository) GetByID(ctx context.Context, id uuid.UUID) (*Shop, error) {
	query := `
		SELECT id, domain, name, settings, created_at, updated_at
		FROM shops WHERE id = $1
	`
	return r.scanShop(r.db.QueryRowContext(ctx, query, id))
}

// GetByDomain retrieves a shop by its domain.
func (r *ShopRepository) GetByDomain(ctx context.Context, domain string) (*Shop, error) {
	query := `
		SELECT id, domain, name, settings, created_at, updated_at
		FROM shops WHERE domain = $1
	`
	return r.scanShop(r.db.QueryRowContext(ctx, query, domain))
}

func (r *ShopRepository) scanShop(row *sql.Row) (*Shop, error) {
	shop := &Shop{}
	var settings string
	err := row.Scan(&shop.ID, &shop.Domain, &shop.Name, &settings,
		&shop.CreatedAt, &shop.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	shop.Settings = json.RawMessage(settings)
	return shop, nil
}

// ProductRepository handles catalog product CRUD operations.
type ProductRepository struct {
	db DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create creates a new catalog product.
func (r *ProductRepository) Create(ctx context.Context, product *CatalogProduct) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if len(product.Attributes) == 0 {
		product.Attributes = json.RawMessage("{}")
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	categoryPath, err := encodeJSON(product.CategoryPath)
	if err != nil {
		return err
	}
	tags, err := encodeJSON(product.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO catalog_products (id, shop_id, external_id, title, description,
			vendor, price, rating, review_count, category_path, tags, attributes,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = r.db.ExecContext(ctx, query,
		product.ID, product.ShopID, product.ExternalID, product.Title,
		product.Description, product.Vendor, product.Price, product.Rating,
		product.ReviewCount, categoryPath, tags, string(product.Attributes),
		product.CreatedAt, product.UpdatedAt,
	)
	return err
}

// GetByID retrieves a product by ID with shop scoping.
func (r *ProductRepository) GetByID(ctx context.Context, shopID, productID uuid.UUID) (*CatalogProduct, error) {
	query := `
		SELECT id, shop_id, external_id, title, description, vendor, price, rating,
			review_count, category_path, tags, attributes, created_at, updated_at
		FROM catalog_products
		WHERE id = $1 AND shop_id = $2
	`
	row := r.db.QueryRowContext(ctx, query, productID, shopID)
	product, err := scanProduct(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return product, err
}

// ListByShop lists all catalog products for a shop.
func (r *ProductRepository) ListByShop(ctx context.Context, shopID uuid.UUID) ([]*CatalogProduct, error) {
	query := `
		SELECT id, shop_id, external_id, title, description, vendor, price, rating,
			review_count, category_path, tags, attributes, created_at, updated_at
		FROM catalog_products
		WHERE shop_id = $1
		ORDER BY title
	`
	rows, err := r.db.QueryContext(ctx, query, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*CatalogProduct
	for rows.Next() {
		product, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func scanProduct(scan func(dest ...interface{}) error) (*CatalogProduct, error) {
	product := &CatalogProduct{}
	var categoryPath, tags, attributes string
	if err := scan(
		&product.ID, &product.ShopID, &product.ExternalID, &product.Title,
		&product.Description, &product.Vendor, &product.Price, &product.Rating,
		&product.ReviewCount, &categoryPath, &tags, &attributes,
		&product.CreatedAt, &product.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := decodeJSON(categoryPath, &product.CategoryPath); err != nil {
		return nil, err
	}
	if err := decodeJSON(tags, &product.Tags); err != nil {
		return nil, err
	}
	product.Attributes = json.RawMessage(attributes)
	return product, nil
}

// SampleRepository handles attribute sample operations.
type SampleRepository struct {
	db DB
}

// NewSampleRepository creates a new sample repository.
func NewSampleRepository(db DB) *SampleRepository {
	return &SampleRepository{db: db}
}

// Insert stores a batch of attribute samples.
func (r *SampleRepository) Insert(ctx context.Context, samples []*AttributeSample) error {
	query := `
		INSERT INTO attribute_samples (id, shop_id, product_id, kind, attribute,
			value, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, sample := range samples {
		if sample.ID == uuid.Nil {
			sample.ID = uuid.New()
		}
		sample.CreatedAt = time.Now()
		if _, err := r.db.ExecContext(ctx, query,
			sample.ID, sample.ShopID, sample.ProductID, sample.Kind,
			sample.Attribute, sample.Value, sample.Category, sample.CreatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

// ListByShop lists samples of one kind for a shop.
func (r *SampleRepository) ListByShop(ctx context.Context, shopID uuid.UUID, kind SampleKind) ([]*AttributeSample, error) {
	query := `
		SELECT id, shop_id, product_id, kind, attribute, value, category, created_at
		FROM attribute_samples
		WHERE shop_id = $1 AND kind = $2
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, shopID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []*AttributeSample
	for rows.Next() {
		sample := &AttributeSample{}
		if err := rows.Scan(
			&sample.ID, &sample.ShopID, &sample.ProductID, &sample.Kind,
			&sample.Attribute, &sample.Value, &sample.Category, &sample.CreatedAt,
		); err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

// EvidenceRepository handles spec evidence operations.
type EvidenceRepository struct {
	db DB
}

// NewEvidenceRepository creates a new evidence repository.
func NewEvidenceRepository(db DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

// Insert stores a batch of evidence rows.
func (r *EvidenceRepository) Insert(ctx context.Context, rows []*SpecEvidence) error {
	query := `
		INSERT INTO spec_evidence (id, shop_id, product_id, spec_key, snippet,
			confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, ev := range rows {
		if ev.ID == uuid.Nil {
			ev.ID = uuid.New()
		}
		ev.CreatedAt = time.Now()
		if _, err := r.db.ExecContext(ctx, query,
			ev.ID, ev.ShopID, ev.ProductID, ev.SpecKey, ev.Snippet,
			ev.Confidence, ev.CreatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

// ListByShop lists all evidence rows for a shop.
func (r *EvidenceRepository) ListByShop(ctx context.Context, shopID uuid.UUID) ([]*SpecEvidence, error) {
	query := `
		SELECT id, shop_id, product_id, spec_key, snippet, confidence, created_at
		FROM spec_evidence
		WHERE shop_id = $1
		ORDER BY product_id, created_at
	`
	rows, err := r.db.QueryContext(ctx, query, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evidence []*SpecEvidence
	for rows.Next() {
		ev := &SpecEvidence{}
		if err := rows.Scan(
			&ev.ID, &ev.ShopID, &ev.ProductID, &ev.SpecKey, &ev.Snippet,
			&ev.Confidence, &ev.CreatedAt,
		); err != nil {
			return nil, err
		}
		evidence = append(evidence, ev)
	}
	return evidence, rows.Err()
}

// OntologyRepository persists built ontology definitions.
type OntologyRepository struct {
	db DB
}

// NewOntologyRepository creates a new ontology repository.
func NewOntologyRepository(db DB) *OntologyRepository {
	return &OntologyRepository{db: db}
}

// Save stores a built ontology definition.
func (r *OntologyRepository) Save(ctx context.Context, record *OntologyRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = time.Now()

	query := `
		INSERT INTO ontologies (id, shop_id, version, definition, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.ShopID, record.Version, string(record.Definition),
		record.CreatedAt,
	)
	return err
}

// GetLatest retrieves the most recently built ontology for a shop.
func (r *OntologyRepository) GetLatest(ctx context.Context, shopID uuid.UUID) (*OntologyRecord, error) {
	query := `
		SELECT id, shop_id, version, definition, created_at
		FROM ontologies
		WHERE shop_id = $1
		ORDER BY version DESC
		LIMIT 1
	`
	return r.scanOntology(r.db.QueryRowContext(ctx, query, shopID))
}

// GetByVersion retrieves one ontology version for a shop.
func (r *OntologyRepository) GetByVersion(ctx context.Context, shopID uuid.UUID, version string) (*OntologyRecord, error) {
	query := `
		SELECT id, shop_id, version, definition, created_at
		FROM ontologies
		WHERE shop_id = $1 AND version = $2
	`
	return r.scanOntology(r.db.QueryRowContext(ctx, query, shopID, version))
}

func (r *OntologyRepository) scanOntology(row *sql.Row) (*OntologyRecord, error) {
	record := &OntologyRecord{}
	var definition string
	err := row.Scan(&record.ID, &record.ShopID, &record.Version, &definition,
		&record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	record.Definition = json.RawMessage(definition)
	return record, nil
}

// PackRepository persists built knowledge packs.
type PackRepository struct {
	db DB
}

// NewPackRepository creates a new pack repository.
func NewPackRepository(db DB) *PackRepository {
	return &PackRepository{db: db}
}

// Upsert stores a knowledge pack, replacing any prior pack for the
// product.
func (r *PackRepository) Upsert(ctx context.Context, record *PackRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Status == "" {
		record.Status = PackStatusBuilt
	}
	now := time.Now()
	record.UpdatedAt = now

	query := `
		INSERT INTO knowledge_packs (id, shop_id, product_id, ontology_version,
			status, pack, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (shop_id, product_id) DO UPDATE SET
			ontology_version = excluded.ontology_version,
			status = excluded.status,
			pack = excluded.pack,
			updated_at = excluded.updated_at
	`
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.ShopID, record.ProductID, record.OntologyVersion,
		record.Status, string(record.Pack), record.CreatedAt, record.UpdatedAt,
	)
	return err
}

// GetByProduct retrieves the knowledge pack for a product.
func (r *PackRepository) GetByProduct(ctx context.Context, shopID, productID uuid.UUID) (*PackRecord, error) {
	query := `
		SELECT id, shop_id, product_id, ontology_version, status, pack,
			created_at, updated_at
		FROM knowledge_packs
		WHERE shop_id = $1 AND product_id = $2
	`
	record := &PackRecord{}
	var pack string
	err := r.db.QueryRowContext(ctx, query, shopID, productID).Scan(
		&record.ID, &record.ShopID, &record.ProductID, &record.OntologyVersion,
		&record.Status, &pack, &record.CreatedAt, &record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	record.Pack = json.RawMessage(pack)
	return record, nil
}

// MarkStale flags every pack built against an older ontology version.
func (r *PackRepository) MarkStale(ctx context.Context, shopID uuid.UUID, currentVersion string) error {
	query := `
		UPDATE knowledge_packs
		SET status = $1, updated_at = $2
		WHERE shop_id = $3 AND ontology_version <> $4
	`
	_, err := r.db.ExecContext(ctx, query, PackStatusStale, time.Now(), shopID, currentVersion)
	return err
}

// ShardRepository persists canon shards and their embeddings.
type ShardRepository struct {
	db DB
}

// NewShardRepository creates a new shard repository.
func NewShardRepository(db DB) *ShardRepository {
	return &ShardRepository{db: db}
}

// Create stores a canon shard.
func (r *ShardRepository) Create(ctx context.Context, record *ShardRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if len(record.Metadata) == 0 {
		record.Metadata = json.RawMessage("{}")
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt

	tags, err := encodeJSON(record.Tags)
	if err != nil {
		return err
	}
	assertions, err := encodeJSON(record.Assertions)
	if err != nil {
		return err
	}
	caveats, err := encodeJSON(record.Caveats)
	if err != nil {
		return err
	}
	embedding, err := encodeJSON(record.Embedding)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO canon_shards (id, shop_id, topic, tags, assertions, caveats,
			citation, embedding, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.db.ExecContext(ctx, query,
		record.ID, record.ShopID, record.Topic, tags, assertions, caveats,
		record.Citation, embedding, string(record.Metadata),
		record.CreatedAt, record.UpdatedAt,
	)
	return err
}

// ListByShop lists all canon shards for a shop.
func (r *ShardRepository) ListByShop(ctx context.Context, shopID uuid.UUID) ([]*ShardRecord, error) {
	query := `
		SELECT id, shop_id, topic, tags, assertions, caveats, citation,
			embedding, metadata, created_at, updated_at
		FROM canon_shards
		WHERE shop_id = $1
		ORDER BY topic
	`
	rows, err := r.db.QueryContext(ctx, query, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shards []*ShardRecord
	for rows.Next() {
		record := &ShardRecord{}
		var tags, assertions, caveats, metadata string
		var embedding sql.NullString
		if err := rows.Scan(
			&record.ID, &record.ShopID, &record.Topic, &tags, &assertions,
			&caveats, &record.Citation, &embedding, &metadata,
			&record.CreatedAt, &record.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := decodeJSON(tags, &record.Tags); err != nil {
			return nil, err
		}
		if err := decodeJSON(assertions, &record.Assertions); err != nil {
			return nil, err
		}
		if err := decodeJSON(caveats, &record.Caveats); err != nil {
			return nil, err
		}
		if embedding.Valid {
			if err := decodeJSON(embedding.String, &record.Embedding); err != nil {
				return nil, err
			}
		}
		record.Metadata = json.RawMessage(metadata)
		shards = append(shards, record)
	}
	return shards, rows.Err()
}
