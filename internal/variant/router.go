package variant

import (
	"context"
	"fmt"

	"storefront-workers/internal/catalog"
	apperrors "storefront-workers/internal/common/errors"
)

// RouteTable maps a product type token to catalog product names, probed in order.
type RouteTable map[string][]string

// DefaultRoutes covers the storefront's product types. Palette-split families
// list the DARK catalog first.
func DefaultRoutes() RouteTable {
	tshirt := []string{"Unisex t-shirt DARK", "Unisex t-shirt LIGHT"}
	hoodie := []string{"Unisex Hoodie DARK", "Unisex Hoodie LIGHT"}
	return RouteTable{
		"hoodie":       hoodie,
		"tshirt":       tshirt,
		"t-shirt":      tshirt,
		"cap":          {"Reform UK Cap"},
		"mug":          {"Reform UK Mug"},
		"totebag":      {"Reform UK Tote Bag"},
		"tote":         {"Reform UK Tote Bag"},
		"waterbottle":  {"Reform UK Water Bottle"},
		"water-bottle": {"Reform UK Water Bottle"},
		"mousepad":     {"Reform UK Mouse Pad"},
		"mouse-pad":    {"Reform UK Mouse Pad"},
		"301":          {"Reform UK Cap"},
		"302":          tshirt,
		"303":          hoodie,
	}
}

// Router turns a product type into the catalog products to match against.
type Router struct {
	catalog catalog.Catalog
	routes  map[string][]string
}

func NewRouter(cat catalog.Catalog, routes RouteTable) *Router {
	folded := make(map[string][]string, len(routes))
	for token, names := range routes {
		folded[fold(token)] = append([]string(nil), names...)
	}
	return &Router{catalog: cat, routes: folded}
}

// Route returns the candidate products for productType with variants loaded.
// Names absent from the catalog are skipped; if none are present the type is
// reported as unknown.
func (r *Router) Route(ctx context.Context, productType string) ([]catalog.ProductRecord, error) {
	names, ok := r.routes[fold(productType)]
	if !ok {
		return nil, apperrors.NewUnknownProductTypeError(productType)
	}

	products := make([]catalog.ProductRecord, 0, len(names))
	for _, name := range names {
		p, found, err := r.catalog.GetProduct(ctx, name)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		if p.Variants == nil {
			variants, err := r.catalog.ListVariants(ctx, p.ID)
			if err != nil {
				return nil, err
			}
			p.Variants = variants
		}
		products = append(products, p)
	}

	if len(products) == 0 {
		stdErr := apperrors.NewUnknownProductTypeError(productType)
		stdErr.Details = fmt.Sprintf("productType: %q, no catalog product named %q", productType, names)
		return nil, stdErr
	}
	return products, nil
}
