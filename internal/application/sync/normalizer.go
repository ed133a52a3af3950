package sync

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shopsync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Normalized projection
// ---------------------------------------------------------------------------

// NormalizedProduct is the order-insensitive projection used to decide whether
// a desired payload and a remote item are the same. Equality is exact on this
// projection after the coercions below; there is no tolerance matching.
type NormalizedProduct struct {
	Title       string
	BodyHTML    string
	Vendor      string
	ProductType string
	Tags        []string
	Options     []NormalizedOption
	Variants    []NormalizedVariant
	ImageCount  int
	// ImageSrcs holds the sorted remote source URLs. Inline attachments have
	// no stable source until the remote stores them, so desired payloads
	// usually leave this shorter than ImageCount.
	ImageSrcs []string
}

// NormalizedOption is one product option with its values sorted.
type NormalizedOption struct {
	Name   string
	Values []string
}

// NormalizedVariant is one variant with price and weight coerced to canonical
// numeric strings.
type NormalizedVariant struct {
	SKU     string
	Option1 string
	Price   string
	Qty     int
	Weight  string
}

// Normalize projects a catalog item into its comparable form. Tags, option
// values, options, variants and image sources are all sorted so that input
// order never produces a spurious difference.
func Normalize(p integration.RemoteProduct) NormalizedProduct {
	n := NormalizedProduct{
		Title:       p.Title,
		BodyHTML:    p.BodyHTML,
		Vendor:      p.Vendor,
		ProductType: p.ProductType,
		ImageCount:  len(p.Images),
	}

	for _, tag := range p.Tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			n.Tags = append(n.Tags, trimmed)
		}
	}
	sort.Strings(n.Tags)

	for _, opt := range p.Options {
		values := make([]string, len(opt.Values))
		copy(values, opt.Values)
		sort.Strings(values)
		n.Options = append(n.Options, NormalizedOption{Name: opt.Name, Values: values})
	}
	sort.Slice(n.Options, func(i, j int) bool {
		return n.Options[i].Name < n.Options[j].Name
	})

	for _, v := range p.Variants {
		n.Variants = append(n.Variants, NormalizedVariant{
			SKU:     v.SKU,
			Option1: v.Option1,
			Price:   canonicalPrice(v.Price),
			Qty:     v.InventoryQuantity,
			Weight:  decimal.NewFromFloat(v.Weight).String(),
		})
	}
	sort.Slice(n.Variants, func(i, j int) bool {
		if n.Variants[i].SKU != n.Variants[j].SKU {
			return n.Variants[i].SKU < n.Variants[j].SKU
		}
		return n.Variants[i].Option1 < n.Variants[j].Option1
	})

	for _, img := range p.Images {
		if img.Src != "" {
			n.ImageSrcs = append(n.ImageSrcs, img.Src)
		}
	}
	sort.Strings(n.ImageSrcs)

	return n
}

// Equal reports whether two normalized projections describe the same item.
// Image source lists only participate when both sides are fully URL backed;
// otherwise image drift is detected by count alone.
func (n NormalizedProduct) Equal(other NormalizedProduct) bool {
	if n.Title != other.Title ||
		n.BodyHTML != other.BodyHTML ||
		n.Vendor != other.Vendor ||
		n.ProductType != other.ProductType {
		return false
	}
	if !stringSlicesEqual(n.Tags, other.Tags) {
		return false
	}
	if len(n.Options) != len(other.Options) {
		return false
	}
	for i := range n.Options {
		if n.Options[i].Name != other.Options[i].Name {
			return false
		}
		if !stringSlicesEqual(n.Options[i].Values, other.Options[i].Values) {
			return false
		}
	}
	if len(n.Variants) != len(other.Variants) {
		return false
	}
	for i := range n.Variants {
		if n.Variants[i] != other.Variants[i] {
			return false
		}
	}
	if n.ImageCount != other.ImageCount {
		return false
	}
	if len(n.ImageSrcs) == n.ImageCount && len(other.ImageSrcs) == other.ImageCount {
		return stringSlicesEqual(n.ImageSrcs, other.ImageSrcs)
	}
	return true
}

// canonicalPrice coerces a price string to two decimal places. Unparseable
// input coerces to zero rather than failing the comparison.
func canonicalPrice(raw string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		d = decimal.Zero
	}
	return d.StringFixed(2)
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
