package catalog

import "context"

// ProductRepository defines read access to supplier product rows. The import
// job owns writes; sync only ever reads.
type ProductRepository interface {
	// FindAll returns every non-EOL product.
	FindAll(ctx context.Context) ([]Product, error)

	// FindByIDs returns the products matching the given identifiers in a
	// single query. Unknown identifiers are silently absent from the result.
	FindByIDs(ctx context.Context, ids []string) ([]Product, error)
}

// ImageRepository defines read access to product image rows.
type ImageRepository interface {
	// FindAll returns all image rows.
	FindAll(ctx context.Context) ([]ProductImage, error)

	// FindByProductIDs returns the images owned by the given products in a
	// single query.
	FindByProductIDs(ctx context.Context, productIDs []string) ([]ProductImage, error)
}

// WarrantyRepository defines read access to warranty option rows.
type WarrantyRepository interface {
	// FindAll returns all warranty options.
	FindAll(ctx context.Context) ([]WarrantyOption, error)

	// FindByGroups returns the options belonging to the given warranty groups
	// in a single query.
	FindByGroups(ctx context.Context, groups []int) ([]WarrantyOption, error)
}
