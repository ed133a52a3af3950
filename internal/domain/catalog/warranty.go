package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// WarrantyOption is one warranty tier applicable to every product in its
// warranty group. The surcharge is a percentage of the product's base price.
type WarrantyOption struct {
	ID               int             `gorm:"primaryKey" json:"id"`
	Name             string          `gorm:"type:varchar(200);not null" json:"name"`
	Months           int             `gorm:"not null;default:0" json:"months"`
	SurchargePercent decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"surcharge_percent"`
	// MinimumSurcharge is stored but not applied in pricing. Reserved.
	MinimumSurcharge decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"minimum_surcharge"`
	WarrantyGroup    int             `gorm:"column:warranty_group;not null;index" json:"warranty_group"`
}

// TableName returns the table name for GORM
func (WarrantyOption) TableName() string {
	return "warranty_options"
}

// Label returns the variant option label for this warranty tier.
func (w *WarrantyOption) Label() string {
	return fmt.Sprintf("%s %d Monate", w.Name, w.Months)
}

// SKUSuffix returns the suffix appended to the product identifier to form a
// warranty variant SKU.
func (w *WarrantyOption) SKUSuffix() string {
	return fmt.Sprintf("G%d", w.ID)
}

// PriceFor returns base + base * percentage / 100, rounded to two decimal
// places. Decimal arithmetic avoids binary-float drift on the percentage math.
func (w *WarrantyOption) PriceFor(base decimal.Decimal) decimal.Decimal {
	surcharge := base.Mul(w.SurchargePercent).Div(decimal.NewFromInt(100))
	return base.Add(surcharge).Round(2)
}
