package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shopsync/backend/internal/domain/integration"
)

func exportFixture() integration.RemoteProduct {
	return integration.RemoteProduct{
		ID:          111,
		Handle:      "prod-A100",
		Title:       "Workstation Pro",
		BodyHTML:    "<p>Compact workstation</p>",
		Vendor:      "TERRA",
		ProductType: "PC-Systeme",
		Variants: []integration.RemoteVariant{
			{SKU: "A100", Option1: "24 Monate Garantie", Price: "1199.90", Weight: 8.5},
		},
		Images: []integration.RemoteImage{
			{Src: "https://cdn.example.com/a100-front.jpg"},
			{Src: "https://cdn.example.com/a100-back.jpg"},
		},
		Metafields: []integration.RemoteMetafield{
			{Namespace: "custom", Key: "Price_B2B_Regular", Value: "999.9"},
			{Namespace: "custom", Key: "Price_B2B_Discounted", Value: "899"},
			{Namespace: "custom", Key: "Inventarbestand", Value: "12"},
			{Namespace: "custom", Key: "StockNextDelivery", Value: "2026-09-01"},
			{Namespace: "custom", Key: "verwandte_produkte", Value: []any{"prod-B200"}},
		},
	}
}

func TestStandardizeProduct(t *testing.T) {
	p := exportFixture()

	row := StandardizeProduct(&p)

	assert.Equal(t, "A100", row.ProductID)
	assert.Equal(t, "Workstation Pro", row.Title)
	assert.Equal(t, "Workstation Pro", row.DescriptionShort)
	assert.Equal(t, "<p>Compact workstation</p>", row.LongDescription)
	assert.Equal(t, "TERRA", row.Manufacturer)
	assert.Equal(t, "PC-Systeme", row.Category)
	assert.Equal(t, "PC-Systeme", row.CategoryPath)
	assert.Equal(t, "24 Monate Garantie", row.Warranty)
	assert.Equal(t, "EUR", row.Currency)
	assert.Equal(t, 19, row.VATRate)
	assert.Equal(t, 1199.90, row.PriceB2CInclVAT)
	assert.Equal(t, 999.9, row.PriceB2BRegular)
	assert.Equal(t, 899.0, row.PriceB2BDiscount)
	assert.Equal(t, "2026-09-01", row.StockNextDelivery)
	assert.Equal(t, 8.5, row.GrossWeight)
	assert.Equal(t, "https://cdn.example.com/a100-front.jpg", row.ImagePrimary)
	assert.Equal(t, "https://cdn.example.com/a100-back.jpg", row.ImageAdditional)
	assert.Equal(t, []any{"prod-B200"}, row.AccessoryProducts)

	// The remote side does not model these; they keep schema defaults.
	assert.Zero(t, row.NetWeight)
	assert.False(t, row.NonReturnable)
	assert.False(t, row.EOL)
	assert.False(t, row.Promotion)
	assert.Zero(t, row.WarrantyGroup)
}

func TestStandardizeProduct_StockFallsBackToMetafield(t *testing.T) {
	p := exportFixture()
	// Warranty group products carry their stock only in the metafield.
	p.Variants[0].InventoryQuantity = 0

	row := StandardizeProduct(&p)
	assert.Equal(t, 12, row.Stock)

	p.Variants[0].InventoryQuantity = 7
	row = StandardizeProduct(&p)
	assert.Equal(t, 7, row.Stock)
}

func TestStandardizeProduct_MinimalItem(t *testing.T) {
	p := integration.RemoteProduct{Handle: "prod-X900", Title: "Bare"}

	row := StandardizeProduct(&p)

	assert.Equal(t, "X900", row.ProductID)
	assert.Equal(t, "EUR", row.Currency)
	assert.Equal(t, 19, row.VATRate)
	assert.Zero(t, row.PriceB2CInclVAT)
	assert.Zero(t, row.Stock)
	assert.Empty(t, row.Warranty)
	assert.Empty(t, row.ImagePrimary)
	assert.Equal(t, "", row.AccessoryProducts)
}

func TestExportStandardized(t *testing.T) {
	svc, m := newTestService(nil)
	ctx := context.Background()

	m.gateway.On("ExportProducts", mock.Anything).
		Return([]integration.RemoteProduct{exportFixture()}, nil)

	rows, err := svc.ExportStandardized(ctx)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A100", rows[0].ProductID)
	m.gateway.AssertExpectations(t)
}

func TestExportStandardized_BulkFailure(t *testing.T) {
	svc, m := newTestService(nil)

	m.gateway.On("ExportProducts", mock.Anything).Return(nil, integration.ErrBulkJobFailed)

	rows, err := svc.ExportStandardized(context.Background())

	assert.Nil(t, rows)
	assert.ErrorIs(t, err, integration.ErrBulkJobFailed)
	m.gateway.AssertExpectations(t)
}
