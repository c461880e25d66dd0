// Package catalog reads products and their fulfillment variants from the
// store's product database.
package catalog

import "context"

// VariantRecord is one purchasable fulfillment variant of a product.
type VariantRecord struct {
	FulfillmentVariantID string `json:"printful_variant_id"`
	Size                 string `json:"size,omitempty"`
	Color                string `json:"color,omitempty"`
	// Composite is the free-text "Color / Size" label some catalog rows carry
	// instead of clean size and color columns.
	Composite string `json:"value,omitempty"`
}

// ProductRecord is a catalog product. Variants keep catalog order; a nil
// slice means they have not been loaded yet.
type ProductRecord struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Variants []VariantRecord `json:"variants,omitempty"`
}

// Catalog is the read side of the product database. Implementations wrap
// storage failures as CATALOG_LOOKUP_FAILED.
type Catalog interface {
	// GetProduct matches idOrName against the product id or exact name.
	GetProduct(ctx context.Context, idOrName string) (ProductRecord, bool, error)
	ListVariants(ctx context.Context, productID string) ([]VariantRecord, error)
}
