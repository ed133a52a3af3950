package sync

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/integration"
)

// ExportedProduct is a remote catalog item reshaped into the source database
// schema, for external comparison against supplier data. Field names follow
// the supplier feed, including the German group column.
type ExportedProduct struct {
	ProductID         string  `json:"ProductId"`
	Title             string  `json:"Title"`
	DescriptionShort  string  `json:"DescriptionShort"`
	LongDescription   string  `json:"LongDescription"`
	Manufacturer      string  `json:"Manufacturer"`
	Category          string  `json:"Category"`
	CategoryPath      string  `json:"CategoryPath"`
	Warranty          string  `json:"Warranty"`
	PriceB2BRegular   float64 `json:"Price_B2B_Regular"`
	PriceB2BDiscount  float64 `json:"Price_B2B_Discounted"`
	PriceB2CInclVAT   float64 `json:"Price_B2C_inclVAT"`
	Currency          string  `json:"Currency"`
	VATRate           int     `json:"VATRate"`
	Stock             int     `json:"Stock"`
	StockNextDelivery string  `json:"StockNextDelivery"`
	ImagePrimary      string  `json:"ImagePrimary"`
	ImageAdditional   string  `json:"ImageAdditional"`
	GrossWeight       float64 `json:"GrossWeight"`
	NetWeight         float64 `json:"NetWeight"`
	NonReturnable     bool    `json:"NonReturnable"`
	EOL               bool    `json:"EOL"`
	Promotion         bool    `json:"Promotion"`
	AccessoryProducts any     `json:"AccessoryProducts"`
	WarrantyGroup     int     `json:"Garantiegruppe"`
}

// ExportStandardized bulk-exports the remote catalog and reshapes every item
// into the source schema.
func (s *Service) ExportStandardized(ctx context.Context) ([]ExportedProduct, error) {
	products, err := s.gateway.ExportProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("export remote catalog: %w", err)
	}

	exported := make([]ExportedProduct, 0, len(products))
	for i := range products {
		exported = append(exported, StandardizeProduct(&products[i]))
	}
	return exported, nil
}

// StandardizeProduct maps one remote item onto the source schema. Fields the
// remote side does not model (net weight, flags, warranty group) keep their
// zero values; prices and stock fall back through the managed metafields.
func StandardizeProduct(p *integration.RemoteProduct) ExportedProduct {
	row := ExportedProduct{
		ProductID:        catalog.ProductIDFromHandle(p.Handle),
		Title:            p.Title,
		DescriptionShort: p.Title,
		LongDescription:  p.BodyHTML,
		Manufacturer:     p.Vendor,
		Category:         p.ProductType,
		CategoryPath:     p.ProductType,
		Currency:         "EUR",
		VATRate:          19,
	}
	row.AccessoryProducts = ""

	if len(p.Variants) > 0 {
		v := p.Variants[0]
		row.Warranty = v.Option1
		row.PriceB2CInclVAT = parseFloat(v.Price)
		row.GrossWeight = v.Weight
		row.Stock = v.InventoryQuantity
	}

	row.PriceB2BRegular = metafieldFloat(p, integration.MetafieldKeyPriceB2B)
	row.PriceB2BDiscount = metafieldFloat(p, integration.MetafieldKeyPriceB2BPromo)

	if row.Stock == 0 {
		row.Stock = metafieldInt(p, integration.MetafieldKeyStock)
	}

	if m := p.FindMetafield(integration.MetafieldKeyNextDelivery); m != nil {
		row.StockNextDelivery = m.ValueString()
	}
	if m := p.FindMetafield(integration.MetafieldKeyAccessories); m != nil {
		row.AccessoryProducts = m.Value
	}

	if len(p.Images) > 0 {
		row.ImagePrimary = p.Images[0].Src
		if len(p.Images) > 1 {
			row.ImageAdditional = p.Images[1].Src
		}
	}

	return row
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func metafieldFloat(p *integration.RemoteProduct, key string) float64 {
	m := p.FindMetafield(key)
	if m == nil {
		return 0
	}
	return parseFloat(m.ValueString())
}

func metafieldInt(p *integration.RemoteProduct, key string) int {
	m := p.FindMetafield(key)
	if m == nil {
		return 0
	}
	f := parseFloat(m.ValueString())
	return int(f)
}
