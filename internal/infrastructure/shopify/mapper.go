package shopify

import (
	"strings"

	"github.com/shopsync/backend/internal/domain/integration"
)

// bulkLine is the union of every record shape the bulk export emits. One
// JSONL line is one object; the type segment of its global ID decides which
// fields carry meaning. Unset fields simply stay zero, the result file has
// no schema beyond the query that produced it.
type bulkLine struct {
	ID       string `json:"id"`
	ParentID string `json:"__parentId"`

	// Product fields
	Handle      string              `json:"handle"`
	Title       string              `json:"title"`
	BodyHTML    string              `json:"bodyHtml"`
	Vendor      string              `json:"vendor"`
	ProductType string              `json:"productType"`
	Status      string              `json:"status"`
	Tags        integration.TagList `json:"tags"`
	Options     []bulkOption        `json:"options"`

	// Named metafield aliases, present only on product lines.
	Warranty      *bulkMetafieldValue `json:"warranty"`
	Stock         *bulkMetafieldValue `json:"stock"`
	NextDelivery  *bulkMetafieldValue `json:"nextDelivery"`
	PriceB2B      *bulkMetafieldValue `json:"priceB2b"`
	PriceB2BPromo *bulkMetafieldValue `json:"priceB2bPromo"`
	Accessories   *bulkMetafieldValue `json:"accessories"`

	// Variant fields
	Price             string               `json:"price"`
	SKU               string               `json:"sku"`
	Position          int                  `json:"position"`
	InventoryQuantity int                  `json:"inventoryQuantity"`
	Weight            float64              `json:"weight"`
	SelectedOptions   []bulkSelectedOption `json:"selectedOptions"`
	InventoryItem     *bulkInventoryItem   `json:"inventoryItem"`

	// Image fields
	URL string `json:"url"`

	// Metafield fields
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     any    `json:"value"`
	Type      string `json:"type"`
}

type bulkOption struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type bulkSelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type bulkInventoryItem struct {
	ID      string `json:"id"`
	Tracked bool   `json:"tracked"`
}

type bulkMetafieldValue struct {
	Value any `json:"value"`
}

// toRemoteProduct assembles one catalog item from its root line and the child
// lines keyed to it.
func toRemoteProduct(root *bulkLine, variantRows, imageRows, metafieldRows []bulkLine) integration.RemoteProduct {
	p := integration.RemoteProduct{
		ID:          integration.ParseRemoteID(root.ID),
		Title:       root.Title,
		BodyHTML:    root.BodyHTML,
		Vendor:      root.Vendor,
		ProductType: root.ProductType,
		Handle:      root.Handle,
		Status:      strings.ToLower(root.Status),
		Tags:        root.Tags,
	}

	for _, opt := range root.Options {
		p.Options = append(p.Options, integration.RemoteOption{
			Name:   opt.Name,
			Values: opt.Values,
		})
	}

	for i := range variantRows {
		p.Variants = append(p.Variants, toRemoteVariant(&variantRows[i]))
	}

	for i := range imageRows {
		p.Images = append(p.Images, integration.RemoteImage{
			ID:       integration.ParseRemoteID(imageRows[i].ID),
			Position: i + 1,
			Src:      imageRows[i].URL,
		})
	}

	p.Metafields = collectMetafields(root, metafieldRows)
	return p
}

func toRemoteVariant(row *bulkLine) integration.RemoteVariant {
	v := integration.RemoteVariant{
		ID:                integration.ParseRemoteID(row.ID),
		Title:             row.Title,
		Price:             row.Price,
		SKU:               row.SKU,
		Position:          row.Position,
		InventoryQuantity: row.InventoryQuantity,
		Weight:            row.Weight,
	}

	if len(row.SelectedOptions) > 0 {
		v.Option1 = row.SelectedOptions[0].Value
	} else {
		v.Option1 = row.Title
	}

	if row.InventoryItem != nil {
		v.InventoryItemID = integration.ParseRemoteID(row.InventoryItem.ID)
		if row.InventoryItem.Tracked {
			v.InventoryManagement = "shopify"
		}
	}

	return v
}

// collectMetafields merges the named aliases with the generic metafield
// children. Named values come first; a generic line for the same key is the
// same data seen twice and is dropped. Values arriving as JSON-encoded
// strings are decoded to their structured form.
func collectMetafields(root *bulkLine, rows []bulkLine) []integration.RemoteMetafield {
	var out []integration.RemoteMetafield
	seen := make(map[string]struct{}, len(rows)+6)

	add := func(m integration.RemoteMetafield) {
		key := m.Namespace + "/" + m.Key
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}

	named := []struct {
		key   string
		value *bulkMetafieldValue
	}{
		{integration.MetafieldKeyWarranty, root.Warranty},
		{integration.MetafieldKeyStock, root.Stock},
		{integration.MetafieldKeyNextDelivery, root.NextDelivery},
		{integration.MetafieldKeyPriceB2B, root.PriceB2B},
		{integration.MetafieldKeyPriceB2BPromo, root.PriceB2BPromo},
		{integration.MetafieldKeyAccessories, root.Accessories},
	}
	for _, n := range named {
		if n.value == nil || n.value.Value == nil {
			continue
		}
		add(integration.RemoteMetafield{
			Namespace: integration.MetafieldNamespace,
			Key:       n.key,
			Value:     integration.DecodeMetafieldValue(n.value.Value),
		})
	}

	for i := range rows {
		row := &rows[i]
		add(integration.RemoteMetafield{
			ID:        integration.ParseRemoteID(row.ID),
			Namespace: row.Namespace,
			Key:       row.Key,
			Value:     integration.DecodeMetafieldValue(row.Value),
			Type:      row.Type,
		})
	}

	return out
}
