package sync

import (
	"sort"

	"github.com/shopsync/backend/internal/domain/catalog"
)

// MergedRow is one row of the flat union join between a product and its
// associated records: the product plus at most one image or one warranty
// option. A product with neither contributes a single bare row.
type MergedRow struct {
	Product  catalog.Product
	Image    *catalog.ProductImage
	Warranty *catalog.WarrantyOption
}

// MergeRecords joins product rows with image rows and warranty option rows.
// Each product contributes one row per associated image and one row per
// warranty option in its group. Images are pre-sorted primary-first (stable)
// so downstream de-duplication naturally keeps the primary image first.
// Pure transform: missing joins degrade to the bare-row case, never error.
func MergeRecords(products []catalog.Product, images []catalog.ProductImage, warranties []catalog.WarrantyOption) []MergedRow {
	imagesByProduct := make(map[string][]catalog.ProductImage)
	for _, img := range images {
		if img.ProductID == "" {
			continue
		}
		imagesByProduct[img.ProductID] = append(imagesByProduct[img.ProductID], img)
	}
	for id, list := range imagesByProduct {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].IsPrimary && !list[j].IsPrimary
		})
		imagesByProduct[id] = list
	}

	warrantiesByGroup := make(map[int][]catalog.WarrantyOption)
	for _, w := range warranties {
		warrantiesByGroup[w.WarrantyGroup] = append(warrantiesByGroup[w.WarrantyGroup], w)
	}

	rows := make([]MergedRow, 0, len(products))
	for _, p := range products {
		productImages := imagesByProduct[p.ProductID]

		var groupOptions []catalog.WarrantyOption
		if p.HasWarrantyGroup() {
			groupOptions = warrantiesByGroup[p.WarrantyGroup]
		}

		for i := range productImages {
			rows = append(rows, MergedRow{Product: p, Image: &productImages[i]})
		}
		for i := range groupOptions {
			rows = append(rows, MergedRow{Product: p, Warranty: &groupOptions[i]})
		}
		if len(productImages) == 0 && len(groupOptions) == 0 {
			rows = append(rows, MergedRow{Product: p})
		}
	}
	return rows
}
