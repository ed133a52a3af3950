package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/integration"
)

// Wire envelopes for the products resource. The domain value objects already
// carry the REST field names, so requests and responses decode directly.
type productEnvelope struct {
	Product integration.RemoteProduct `json:"product"`
}

type productsEnvelope struct {
	Products []integration.RemoteProduct `json:"products"`
}

// GetProductByHandle fetches a single product by handle. The endpoint answers
// a miss with an empty list, not a 404.
func (c *Client) GetProductByHandle(ctx context.Context, handle string) (*integration.RemoteProduct, error) {
	query := url.Values{"handle": {handle}}
	var env productsEnvelope
	if _, err := c.do(ctx, http.MethodGet, "products.json", query, nil, &env); err != nil {
		return nil, fmt.Errorf("get product by handle %q: %w", handle, err)
	}
	if len(env.Products) == 0 {
		return nil, integration.ErrProductNotFound
	}
	return &env.Products[0], nil
}

// FindProductBySKU scans the catalog for a product whose variants carry the
// given SKU. Group-expanded products prefix their variant SKUs with the
// product identifier, so prefix matches count as well.
func (c *Client) FindProductBySKU(ctx context.Context, sku string) (*integration.RemoteProduct, error) {
	if sku == "" {
		return nil, integration.ErrProductNotFound
	}

	var found *integration.RemoteProduct
	err := c.eachProductPage(ctx, func(products []integration.RemoteProduct) bool {
		for i := range products {
			for _, v := range products[i].Variants {
				if v.SKU == sku || strings.HasPrefix(v.SKU, sku+"-") {
					found = &products[i]
					return false
				}
			}
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("find product by sku %q: %w", sku, err)
	}
	if found == nil {
		return nil, integration.ErrProductNotFound
	}
	return found, nil
}

// ListProducts pages through the whole catalog.
func (c *Client) ListProducts(ctx context.Context) ([]integration.RemoteProduct, error) {
	var all []integration.RemoteProduct
	err := c.eachProductPage(ctx, func(products []integration.RemoteProduct) bool {
		all = append(all, products...)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	c.logger.Debug("Listed remote products", zap.Int("count", len(all)))
	return all, nil
}

// eachProductPage walks the cursor-paginated product listing, invoking fn per
// page until fn returns false or the Link header stops announcing a next page.
func (c *Client) eachProductPage(ctx context.Context, fn func([]integration.RemoteProduct) bool) error {
	pageInfo := ""
	for {
		query := url.Values{"limit": {strconv.Itoa(c.cfg.PageSize)}}
		if pageInfo != "" {
			query.Set("page_info", pageInfo)
		}

		var env productsEnvelope
		header, err := c.do(ctx, http.MethodGet, "products.json", query, nil, &env)
		if err != nil {
			return err
		}
		if !fn(env.Products) {
			return nil
		}

		pageInfo = nextPageInfo(header.Get("Link"))
		if pageInfo == "" {
			return nil
		}
	}
}

// nextPageInfo extracts the page_info cursor of the rel="next" entry from a
// Link header. Returns "" when there is no next page.
func nextPageInfo(link string) string {
	for _, part := range strings.Split(link, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start < 0 || end <= start {
			continue
		}
		u, err := url.Parse(part[start+1 : end])
		if err != nil {
			continue
		}
		return u.Query().Get("page_info")
	}
	return ""
}

// CreateProduct creates a new catalog item and returns the stored form.
func (c *Client) CreateProduct(ctx context.Context, product *integration.RemoteProduct) (*integration.RemoteProduct, error) {
	var env productEnvelope
	if _, err := c.do(ctx, http.MethodPost, "products.json", nil, productEnvelope{Product: *product}, &env); err != nil {
		return nil, fmt.Errorf("create product %q: %w", product.Handle, err)
	}
	return &env.Product, nil
}

// UpdateProduct replaces the core fields of an existing item.
func (c *Client) UpdateProduct(ctx context.Context, id int64, product *integration.RemoteProduct) (*integration.RemoteProduct, error) {
	payload := *product
	payload.ID = id

	var env productEnvelope
	path := fmt.Sprintf("products/%d.json", id)
	if _, err := c.do(ctx, http.MethodPut, path, nil, productEnvelope{Product: payload}, &env); err != nil {
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}
	return &env.Product, nil
}

// DeleteProduct removes an item by its numeric identifier.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	path := fmt.Sprintf("products/%d.json", id)
	if _, err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	return nil
}
