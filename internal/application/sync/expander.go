package sync

import (
	"encoding/json"
	"strconv"

	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/integration"
)

// Transformer turns merged source rows into desired catalog payloads.
type Transformer struct {
	logger *zap.Logger
}

// NewTransformer creates a new Transformer
func NewTransformer(logger *zap.Logger) *Transformer {
	return &Transformer{logger: logger}
}

// bundle accumulates everything belonging to one product across its merged
// rows: the product itself, de-duplicated encoded images, and the warranty
// options of its group.
type bundle struct {
	product    catalog.Product
	images     []string
	imagesSeen map[string]struct{}
	warranties []catalog.WarrantyOption
}

// Build produces exactly one desired payload per distinct product in the
// merged rows, preserving first-seen product order. Rows without a product
// identifier are logged and skipped; a malformed row never aborts the batch.
func (t *Transformer) Build(rows []MergedRow) []integration.RemoteProduct {
	bundles := make(map[string]*bundle)
	order := make([]string, 0)

	for _, row := range rows {
		id := row.Product.ProductID
		if id == "" {
			t.logger.Warn("Skipping merged row without product identifier")
			continue
		}

		b, ok := bundles[id]
		if !ok {
			b = &bundle{
				product:    row.Product,
				imagesSeen: make(map[string]struct{}),
			}
			bundles[id] = b
			order = append(order, id)
		}

		if row.Image != nil {
			if encoded := row.Image.EncodedPayload(); encoded != "" {
				if _, seen := b.imagesSeen[encoded]; !seen {
					b.images = append(b.images, encoded)
					b.imagesSeen[encoded] = struct{}{}
				}
			}
		}

		if row.Warranty != nil {
			b.warranties = append(b.warranties, *row.Warranty)
		}
	}

	products := make([]integration.RemoteProduct, 0, len(order))
	for _, id := range order {
		products = append(products, t.buildProduct(bundles[id]))
	}

	t.logger.Info("Built desired catalog state", zap.Int("products", len(products)))
	return products
}

// BuildOne is a convenience wrapper for single-product flows.
func (t *Transformer) BuildOne(rows []MergedRow) (*integration.RemoteProduct, bool) {
	products := t.Build(rows)
	if len(products) == 0 {
		return nil, false
	}
	return &products[0], true
}

func (t *Transformer) buildProduct(b *bundle) integration.RemoteProduct {
	p := b.product
	variants, optionValues := t.buildVariants(b)

	images := make([]integration.RemoteImage, 0, len(b.images))
	for _, encoded := range b.images {
		images = append(images, integration.RemoteImage{Attachment: encoded})
	}

	return integration.RemoteProduct{
		Title:       p.DisplayTitle(),
		Handle:      p.Handle(),
		BodyHTML:    p.BodyHTML(),
		Vendor:      p.Manufacturer,
		ProductType: p.Category,
		Tags:        integration.TagList(p.Tags()),
		Variants:    variants,
		Options: []integration.RemoteOption{{
			Name:   "Garantie",
			Values: dedupeStrings(optionValues),
		}},
		Metafields: buildMetafields(&p),
		Images:     images,
	}
}

// buildVariants expands the warranty group into one variant per distinct
// option. Products without a group, and products whose group resolves to
// zero options, get the single tracked variant. Warranty variants carry
// zero, untracked inventory.
func (t *Transformer) buildVariants(b *bundle) ([]integration.RemoteVariant, []string) {
	p := b.product

	if !p.HasWarrantyGroup() {
		v, label := singleVariant(&p)
		return []integration.RemoteVariant{v}, []string{label}
	}

	base := p.BasePrice()
	weight := p.EffectiveWeight().InexactFloat64()

	seen := make(map[int]struct{})
	variants := make([]integration.RemoteVariant, 0, len(b.warranties))
	optionValues := make([]string, 0, len(b.warranties))
	for _, w := range b.warranties {
		if w.WarrantyGroup != p.WarrantyGroup {
			continue
		}
		if _, dup := seen[w.ID]; dup {
			continue
		}
		seen[w.ID] = struct{}{}

		variants = append(variants, integration.RemoteVariant{
			Price:             w.PriceFor(base).StringFixed(2),
			SKU:               p.ProductID + "-" + w.SKUSuffix(),
			Option1:           w.Label(),
			InventoryQuantity: 0,
			InventoryPolicy:   "deny",
			Weight:            weight,
			WeightUnit:        "kg",
		})
		optionValues = append(optionValues, w.Label())
	}

	if len(variants) == 0 {
		t.logger.Warn("Warranty group resolved to no options, falling back to single variant",
			zap.String("product_id", p.ProductID),
			zap.Int("warranty_group", p.WarrantyGroup))
		v, label := singleVariant(&p)
		return []integration.RemoteVariant{v}, []string{label}
	}

	return variants, optionValues
}

// singleVariant builds the one tracked variant of a group-less product.
func singleVariant(p *catalog.Product) (integration.RemoteVariant, string) {
	label := p.Warranty
	if label == "" {
		label = "Standard"
	}
	return integration.RemoteVariant{
		Price:               p.BasePrice().StringFixed(2),
		SKU:                 p.ProductID,
		Option1:             label,
		InventoryQuantity:   p.Stock,
		InventoryManagement: "shopify",
		InventoryPolicy:     "deny",
		Weight:              p.EffectiveWeight().InexactFloat64(),
		WeightUnit:          "kg",
	}, label
}

// buildMetafields assembles the managed metafields. The accessory list always
// serializes to a JSON array, "[]" when empty, so downstream delete-on-empty
// has an unambiguous sentinel. The legacy warranty text field is only emitted
// for group-less products.
func buildMetafields(p *catalog.Product) []integration.RemoteMetafield {
	metafields := make([]integration.RemoteMetafield, 0, 6)

	if !p.HasWarrantyGroup() {
		metafields = append(metafields, integration.RemoteMetafield{
			Namespace: integration.MetafieldNamespace,
			Key:       integration.MetafieldKeyWarranty,
			Value:     p.Warranty,
			Type:      integration.MetafieldTypeSingleLineText,
		})
	}

	metafields = append(metafields,
		integration.RemoteMetafield{
			Namespace: integration.MetafieldNamespace,
			Key:       integration.MetafieldKeyStock,
			Value:     strconv.Itoa(p.Stock),
			Type:      integration.MetafieldTypeNumberInteger,
		},
		integration.RemoteMetafield{
			Namespace: integration.MetafieldNamespace,
			Key:       integration.MetafieldKeyNextDelivery,
			Value:     p.StockNextDelivery,
			Type:      integration.MetafieldTypeSingleLineText,
		},
		integration.RemoteMetafield{
			Namespace: integration.MetafieldNamespace,
			Key:       integration.MetafieldKeyPriceB2B,
			Value:     p.PriceB2BRegular.String(),
			Type:      integration.MetafieldTypeNumberDecimal,
		},
		integration.RemoteMetafield{
			Namespace: integration.MetafieldNamespace,
			Key:       integration.MetafieldKeyPriceB2BPromo,
			Value:     p.PriceB2BDiscount.String(),
			Type:      integration.MetafieldTypeNumberDecimal,
		},
	)

	accessories, _ := json.Marshal(p.AccessoryHandles())
	metafields = append(metafields, integration.RemoteMetafield{
		Namespace: integration.MetafieldNamespace,
		Key:       integration.MetafieldKeyAccessories,
		Value:     string(accessories),
		Type:      integration.MetafieldTypeJSON,
	})

	return metafields
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
