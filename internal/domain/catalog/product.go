package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HandlePrefix is prepended to the supplier product identifier to form the
// external-facing handle of a catalog item.
const HandlePrefix = "prod-"

// Product is one supplier catalog row, the source of truth for the remote
// catalog. Rows are written by the supplier import job and read-only here.
type Product struct {
	ProductID         string          `gorm:"column:product_id;type:varchar(64);primaryKey" json:"product_id"`
	Title             string          `gorm:"type:varchar(500)" json:"title"`
	DescriptionShort  string          `gorm:"type:text" json:"description_short"`
	LongDescription   string          `gorm:"type:text" json:"long_description"`
	Manufacturer      string          `gorm:"type:varchar(200)" json:"manufacturer"`
	Category          string          `gorm:"type:varchar(200)" json:"category"`
	CategoryPath      string          `gorm:"type:varchar(1000)" json:"category_path"`
	Warranty          string          `gorm:"type:varchar(200)" json:"warranty"`
	PriceB2BRegular   decimal.Decimal `gorm:"column:price_b2b_regular;type:decimal(18,4);not null;default:0" json:"price_b2b_regular"`
	PriceB2BDiscount  decimal.Decimal `gorm:"column:price_b2b_discounted;type:decimal(18,4);not null;default:0" json:"price_b2b_discounted"`
	PriceB2CInclVAT   decimal.Decimal `gorm:"column:price_b2c_incl_vat;type:decimal(18,4);not null;default:0" json:"price_b2c_incl_vat"`
	Currency          string          `gorm:"type:varchar(8)" json:"currency"`
	VATRate           int             `gorm:"column:vat_rate;not null;default:0" json:"vat_rate"`
	Stock             int             `gorm:"not null;default:0" json:"stock"`
	StockNextDelivery string          `gorm:"column:stock_next_delivery;type:varchar(64)" json:"stock_next_delivery"`
	GrossWeight       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"gross_weight"`
	NetWeight         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"net_weight"`
	NonReturnable     bool            `gorm:"not null;default:false" json:"non_returnable"`
	EOL               bool            `gorm:"column:eol;not null;default:false" json:"eol"`
	Promotion         bool            `gorm:"not null;default:false" json:"promotion"`
	WarrantyGroup     int             `gorm:"column:warranty_group;not null;default:0;index" json:"warranty_group"`
	AccessoryProducts string          `gorm:"type:text" json:"accessory_products"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "supplier_products"
}

// Handle returns the deterministic external-facing slug for this product.
func (p *Product) Handle() string {
	return HandlePrefix + p.ProductID
}

// HasWarrantyGroup reports whether the product belongs to a warranty group.
// Group 0 means "no group".
func (p *Product) HasWarrantyGroup() bool {
	return p.WarrantyGroup != 0
}

// BasePrice returns the tax-inclusive B2C price, falling back to the regular
// B2B price, falling back to zero.
func (p *Product) BasePrice() decimal.Decimal {
	if !p.PriceB2CInclVAT.IsZero() {
		return p.PriceB2CInclVAT
	}
	if !p.PriceB2BRegular.IsZero() {
		return p.PriceB2BRegular
	}
	return decimal.Zero
}

// EffectiveWeight returns the gross weight, falling back to the net weight,
// falling back to zero.
func (p *Product) EffectiveWeight() decimal.Decimal {
	if !p.GrossWeight.IsZero() {
		return p.GrossWeight
	}
	if !p.NetWeight.IsZero() {
		return p.NetWeight
	}
	return decimal.Zero
}

// BodyHTML returns the long description, falling back to the short one.
func (p *Product) BodyHTML() string {
	if p.LongDescription != "" {
		return p.LongDescription
	}
	return p.DescriptionShort
}

// DisplayTitle returns the product title with a placeholder fallback.
func (p *Product) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return "Untitled Product"
}

// Tags splits the category path on the pipe delimiter. Returns nil when no
// path is set.
func (p *Product) Tags() []string {
	if p.CategoryPath == "" {
		return nil
	}
	return strings.Split(p.CategoryPath, "|")
}

// AccessoryHandles returns the accessory product references re-prefixed as
// catalog handles. Returns an empty slice, never nil, so the accessory
// metafield always serializes to a JSON array.
func (p *Product) AccessoryHandles() []string {
	handles := []string{}
	if p.AccessoryProducts == "" {
		return handles
	}
	for _, id := range strings.Split(p.AccessoryProducts, "|") {
		handles = append(handles, HandlePrefix+id)
	}
	return handles
}

// ProductIDFromHandle strips the handle prefix, accepting both prefixed and
// bare identifiers.
func ProductIDFromHandle(handle string) string {
	return strings.TrimPrefix(handle, HandlePrefix)
}
