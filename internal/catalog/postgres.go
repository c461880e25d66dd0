package catalog

import (
	"context"
	"database/sql"
	"errors"

	apperrors "storefront-workers/internal/common/errors"
)

const (
	getProductQuery = `SELECT id::text, name FROM products WHERE id::text = $1 OR name = $1 ORDER BY (id::text = $1) DESC LIMIT 1`

	listVariantsQuery = `SELECT printful_variant_id, size, color, value FROM product_variants WHERE product_id::text = $1 ORDER BY id`
)

// PostgresCatalog reads the products and product_variants tables.
type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

func (c *PostgresCatalog) GetProduct(ctx context.Context, idOrName string) (ProductRecord, bool, error) {
	var p ProductRecord
	err := c.db.QueryRowContext(ctx, getProductQuery, idOrName).Scan(&p.ID, &p.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ProductRecord{}, false, nil
		}
		return ProductRecord{}, false, apperrors.NewCatalogLookupFailedError("get_product", err)
	}
	return p, true, nil
}

func (c *PostgresCatalog) ListVariants(ctx context.Context, productID string) ([]VariantRecord, error) {
	rows, err := c.db.QueryContext(ctx, listVariantsQuery, productID)
	if err != nil {
		return nil, apperrors.NewCatalogLookupFailedError("list_variants", err)
	}
	defer rows.Close()

	variants := make([]VariantRecord, 0)
	for rows.Next() {
		var id, size, color, value sql.NullString
		if err := rows.Scan(&id, &size, &color, &value); err != nil {
			return nil, apperrors.NewCatalogLookupFailedError("list_variants", err)
		}
		if !id.Valid || id.String == "" {
			continue
		}
		variants = append(variants, VariantRecord{
			FulfillmentVariantID: id.String,
			Size:                 size.String,
			Color:                color.String,
			Composite:            value.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewCatalogLookupFailedError("list_variants", err)
	}

	return variants, nil
}
