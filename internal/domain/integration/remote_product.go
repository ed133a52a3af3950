package integration

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Metafield vocabulary
// ---------------------------------------------------------------------------

// MetafieldNamespace is the namespace under which all managed metafields live.
const MetafieldNamespace = "custom"

// Managed metafield keys.
const (
	MetafieldKeyWarranty      = "warranty"
	MetafieldKeyStock         = "Inventarbestand"
	MetafieldKeyNextDelivery  = "StockNextDelivery"
	MetafieldKeyPriceB2B      = "Price_B2B_Regular"
	MetafieldKeyPriceB2BPromo = "Price_B2B_Discounted"
	MetafieldKeyAccessories   = "verwandte_produkte"
)

// Metafield value types understood by the platform.
const (
	MetafieldTypeSingleLineText = "single_line_text_field"
	MetafieldTypeNumberInteger  = "number_integer"
	MetafieldTypeNumberDecimal  = "number_decimal"
	MetafieldTypeJSON           = "json"
)

// ---------------------------------------------------------------------------
// Remote catalog value objects
// ---------------------------------------------------------------------------

// RemoteProduct is a catalog item in the platform's own shape. The same type
// carries both directions: desired payloads are pushed with image attachments
// and inline metafields, actual state is read back with image source URLs and
// a populated numeric ID.
type RemoteProduct struct {
	ID          int64             `json:"id,omitempty"`
	Title       string            `json:"title"`
	BodyHTML    string            `json:"body_html"`
	Vendor      string            `json:"vendor,omitempty"`
	ProductType string            `json:"product_type,omitempty"`
	Handle      string            `json:"handle"`
	Status      string            `json:"status,omitempty"`
	Tags        TagList           `json:"tags,omitempty"`
	Variants    []RemoteVariant   `json:"variants,omitempty"`
	Options     []RemoteOption    `json:"options,omitempty"`
	Images      []RemoteImage     `json:"images,omitempty"`
	Metafields  []RemoteMetafield `json:"metafields,omitempty"`
}

// RemoteVariant is one purchasable variant under a catalog item.
type RemoteVariant struct {
	ID                  int64   `json:"id,omitempty"`
	ProductID           int64   `json:"product_id,omitempty"`
	Title               string  `json:"title,omitempty"`
	Price               string  `json:"price"`
	SKU                 string  `json:"sku"`
	Position            int     `json:"position,omitempty"`
	Option1             string  `json:"option1"`
	InventoryQuantity   int     `json:"inventory_quantity"`
	InventoryManagement string  `json:"inventory_management,omitempty"`
	InventoryPolicy     string  `json:"inventory_policy,omitempty"`
	Weight              float64 `json:"weight"`
	WeightUnit          string  `json:"weight_unit,omitempty"`
	InventoryItemID     int64   `json:"inventory_item_id,omitempty"`
}

// IsTracked reports whether the platform manages inventory for this variant.
func (v *RemoteVariant) IsTracked() bool {
	return v.InventoryManagement != ""
}

// RemoteOption is a named option axis with its allowed values.
type RemoteOption struct {
	ID        int64    `json:"id,omitempty"`
	ProductID int64    `json:"product_id,omitempty"`
	Name      string   `json:"name"`
	Position  int      `json:"position,omitempty"`
	Values    []string `json:"values"`
}

// RemoteImage is one image of a catalog item. Desired payloads set Attachment
// (base64), read-back state sets Src.
type RemoteImage struct {
	ID         int64  `json:"id,omitempty"`
	ProductID  int64  `json:"product_id,omitempty"`
	Position   int    `json:"position,omitempty"`
	Src        string `json:"src,omitempty"`
	Attachment string `json:"attachment,omitempty"`
}

// RemoteMetafield is a named, typed key/value attached to a catalog item.
// Value is deliberately loose: the platform returns strings, numbers, or
// JSON-encoded strings depending on the metafield type and read path.
type RemoteMetafield struct {
	ID        int64  `json:"id,omitempty"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     any    `json:"value"`
	Type      string `json:"type,omitempty"`
}

// ValueString returns the metafield value coerced to its string form.
func (m *RemoteMetafield) ValueString() string {
	return MetafieldValueString(m.Value)
}

// IsEmpty reports whether the value is empty for delete-on-empty purposes.
// An empty JSON array counts as empty: the accessory list sentinel "[]"
// carries no data.
func (m *RemoteMetafield) IsEmpty() bool {
	s := strings.TrimSpace(m.ValueString())
	return s == "" || s == "[]"
}

// FindMetafield returns the managed-namespace metafield with the given key,
// or nil when the product does not carry it.
func (p *RemoteProduct) FindMetafield(key string) *RemoteMetafield {
	for i := range p.Metafields {
		if p.Metafields[i].Namespace == MetafieldNamespace && p.Metafields[i].Key == key {
			return &p.Metafields[i]
		}
	}
	return nil
}

// RemoteLocation is a stock location on the platform.
type RemoteLocation struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// ---------------------------------------------------------------------------
// Wire helpers
// ---------------------------------------------------------------------------

// TagList absorbs the platform's two tag encodings: writes use a JSON array
// while reads may return one comma-separated string.
type TagList []string

// UnmarshalJSON accepts either a JSON array of strings or a single
// comma-separated string.
func (t *TagList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*t = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = SplitTags(s)
	return nil
}

// SplitTags splits a comma-separated tag string, trimming whitespace and
// dropping empty entries.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// ParseRemoteID extracts the numeric identifier from a platform global ID
// such as "gid://shopify/Product/123456789". Plain numeric input passes
// through. Returns 0 when no numeric segment is present.
func ParseRemoteID(gid string) int64 {
	gid = strings.TrimSpace(gid)
	if gid == "" {
		return 0
	}
	segments := strings.Split(gid, "/")
	last := segments[len(segments)-1]
	id, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// GIDType returns the type segment of a platform global ID, e.g. "Product"
// for "gid://shopify/Product/42". Returns "" when the input is not a
// global ID.
func GIDType(gid string) string {
	const prefix = "gid://shopify/"
	if !strings.HasPrefix(gid, prefix) {
		return ""
	}
	rest := strings.TrimPrefix(gid, prefix)
	if idx := strings.Index(rest, "/"); idx > 0 {
		return rest[:idx]
	}
	return rest
}

// MetafieldValueString coerces a loosely typed metafield value to a string.
func MetafieldValueString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

// DecodeMetafieldValue decodes JSON-encoded string values to their structured
// form. Bulk exports occasionally double-encode values (a JSON string whose
// content is itself JSON), so decoding repeats while the result is still a
// JSON-encoded string. Non-JSON values pass through unchanged.
func DecodeMetafieldValue(v any) any {
	for i := 0; i < 3; i++ {
		s, ok := v.(string)
		if !ok {
			return v
		}
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return v
		}
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
			return v
		}
		v = decoded
	}
	return v
}
