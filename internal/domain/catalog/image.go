package catalog

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"
)

// ProductImage is one stored image payload belonging to a supplier product.
// The payload arrives either base64- or hex-encoded depending on the import
// path; EncodedPayload normalizes both to base64.
type ProductImage struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID string    `gorm:"column:product_id;type:varchar(64);not null;index" json:"product_id"`
	Filename  string    `gorm:"type:varchar(255)" json:"filename"`
	Base64    string    `gorm:"column:base64;type:text" json:"base64"`
	Hex       string    `gorm:"column:hex;type:text" json:"hex"`
	IsPrimary bool      `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for GORM
func (ProductImage) TableName() string {
	return "product_images"
}

// RawPayload returns the stored payload, preferring the base64 column.
func (i *ProductImage) RawPayload() string {
	if i.Base64 != "" {
		return i.Base64
	}
	return i.Hex
}

// EncodedPayload returns the image as normalized base64, or "" when the row
// carries no payload.
func (i *ProductImage) EncodedPayload() string {
	return EncodeImagePayload(i.RawPayload())
}

// EncodeImagePayload normalizes a raw image payload to base64. Hex input
// (with or without a 0x prefix) is decoded first; anything that is not valid
// hex is treated as opaque bytes and encoded as-is. Empty input yields "".
func EncodeImagePayload(raw string) string {
	if raw == "" {
		return ""
	}
	raw = strings.TrimPrefix(raw, "0x")
	if decoded, err := hex.DecodeString(raw); err == nil {
		return base64.StdEncoding.EncodeToString(decoded)
	}
	return base64.StdEncoding.EncodeToString([]byte(raw))
}
