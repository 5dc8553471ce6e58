// Package product persists product bookkeeping rows and their price history
// in PostgreSQL. The external document id is the unique key: indexing the
// same page twice updates the existing row, and the database's uniqueness
// constraint arbitrates concurrent writers without explicit locking.
package product

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound indicates no matching product row exists.
var ErrNotFound = errors.New("product not found")

// DBTX is the database surface the store depends on.
// Following Go best practices: interfaces are defined by the consumer, not
// the provider. Both *pgxpool.Pool and pgx.Tx satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store manages product and price-history persistence.
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     DBTX
	logger *slog.Logger
}

// NewStore creates a product store.
func NewStore(db DBTX, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

const upsertSQL = `
INSERT INTO products (
	nuclia_document_id, name, author, price_text, image_url, description,
	supplier, availability, product_url, product_type, has_metadata
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (nuclia_document_id) DO UPDATE SET
	name = EXCLUDED.name,
	author = EXCLUDED.author,
	price_text = EXCLUDED.price_text,
	image_url = EXCLUDED.image_url,
	description = EXCLUDED.description,
	supplier = EXCLUDED.supplier,
	availability = EXCLUDED.availability,
	product_url = EXCLUDED.product_url,
	product_type = EXCLUDED.product_type,
	has_metadata = EXCLUDED.has_metadata,
	last_updated = now()
RETURNING id`

// Upsert inserts or updates a product keyed by its external document id.
// Returns the row id.
func (s *Store) Upsert(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, upsertSQL,
		p.NucliaDocumentID, p.Name, p.Author, p.PriceText, p.ImageURL,
		p.Description, p.Supplier, p.Availability, p.ProductURL,
		p.ProductType, p.HasMetadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting product %s: %w", p.NucliaDocumentID, err)
	}

	s.logger.Debug("upserted product", "id", id, "document_id", p.NucliaDocumentID)
	return id, nil
}

const selectColumns = `
	id, nuclia_document_id, name, author, price_text, image_url, description,
	supplier, availability, product_url, product_type, has_metadata,
	indexed_at, last_updated`

// GetByDocumentID retrieves a product by its external document id.
func (s *Store) GetByDocumentID(ctx context.Context, documentID string) (*Product, error) {
	row := s.db.QueryRow(ctx,
		`SELECT`+selectColumns+` FROM products WHERE nuclia_document_id = $1`, documentID)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: document %s", ErrNotFound, documentID)
		}
		return nil, fmt.Errorf("fetching product %s: %w", documentID, err)
	}
	return p, nil
}

// List returns products newest-first.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Product, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(ctx,
		`SELECT`+selectColumns+` FROM products ORDER BY last_updated DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// FindByIDs returns products matching either set of identifiers.
// Either slice may be empty; both empty returns an empty result.
func (s *Store) FindByIDs(ctx context.Context, ids []int64, documentIDs []string) ([]Product, error) {
	if len(ids) == 0 && len(documentIDs) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT`+selectColumns+` FROM products
		 WHERE id = ANY($1) OR nuclia_document_id = ANY($2)
		 ORDER BY id`,
		ids, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("finding products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// Compare loads the requested products and aligns them attribute by attribute.
func (s *Store) Compare(ctx context.Context, ids []int64, documentIDs []string) (*Comparison, error) {
	products, err := s.FindByIDs(ctx, ids, documentIDs)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: no matching products", ErrNotFound)
	}

	cmp := BuildComparison(products)
	return &cmp, nil
}

// RecordPrice appends one observed price for a product.
func (s *Store) RecordPrice(ctx context.Context, productID int64, price float64, currency, source string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO price_history (product_id, price, currency, source) VALUES ($1, $2, $3, $4)`,
		productID, price, currency, source)
	if err != nil {
		return fmt.Errorf("recording price for product %d: %w", productID, err)
	}

	s.logger.Debug("recorded price", "product_id", productID, "price", price, "currency", currency)
	return nil
}

// PriceHistory returns a product's observed prices, oldest first.
func (s *Store) PriceHistory(ctx context.Context, productID int64) ([]PricePoint, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, product_id, price, currency, recorded_at, source
		 FROM price_history WHERE product_id = $1 ORDER BY recorded_at`,
		productID)
	if err != nil {
		return nil, fmt.Errorf("fetching price history for product %d: %w", productID, err)
	}
	defer rows.Close()

	var points []PricePoint
	for rows.Next() {
		var pp PricePoint
		if err := rows.Scan(&pp.ID, &pp.ProductID, &pp.Price, &pp.Currency, &pp.RecordedAt, &pp.Source); err != nil {
			return nil, fmt.Errorf("scanning price point: %w", err)
		}
		points = append(points, pp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating price history: %w", err)
	}
	return points, nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.NucliaDocumentID, &p.Name, &p.Author, &p.PriceText,
		&p.ImageURL, &p.Description, &p.Supplier, &p.Availability,
		&p.ProductURL, &p.ProductType, &p.HasMetadata,
		&p.IndexedAt, &p.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	return products, nil
}
