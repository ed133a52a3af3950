package shopify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopsync/backend/internal/domain/integration"
)

type metafieldEnvelope struct {
	Metafield integration.RemoteMetafield `json:"metafield"`
}

type metafieldsEnvelope struct {
	Metafields []integration.RemoteMetafield `json:"metafields"`
}

// ListProductMetafields returns all metafields attached to an item.
func (c *Client) ListProductMetafields(ctx context.Context, productID int64) ([]integration.RemoteMetafield, error) {
	path := fmt.Sprintf("products/%d/metafields.json", productID)
	var env metafieldsEnvelope
	if _, err := c.do(ctx, http.MethodGet, path, nil, nil, &env); err != nil {
		return nil, fmt.Errorf("list metafields of product %d: %w", productID, err)
	}
	return env.Metafields, nil
}

// CreateProductMetafield attaches a new metafield to an item.
func (c *Client) CreateProductMetafield(ctx context.Context, productID int64, metafield *integration.RemoteMetafield) error {
	path := fmt.Sprintf("products/%d/metafields.json", productID)
	if _, err := c.do(ctx, http.MethodPost, path, nil, metafieldEnvelope{Metafield: *metafield}, nil); err != nil {
		return fmt.Errorf("create metafield %s.%s on product %d: %w",
			metafield.Namespace, metafield.Key, productID, err)
	}
	return nil
}

// UpdateMetafield replaces the value of an existing metafield.
func (c *Client) UpdateMetafield(ctx context.Context, metafieldID int64, metafield *integration.RemoteMetafield) error {
	payload := *metafield
	payload.ID = metafieldID

	path := fmt.Sprintf("metafields/%d.json", metafieldID)
	if _, err := c.do(ctx, http.MethodPut, path, nil, metafieldEnvelope{Metafield: payload}, nil); err != nil {
		return fmt.Errorf("update metafield %d: %w", metafieldID, err)
	}
	return nil
}

// DeleteMetafield removes a metafield by its identifier.
func (c *Client) DeleteMetafield(ctx context.Context, metafieldID int64) error {
	path := fmt.Sprintf("metafields/%d.json", metafieldID)
	if _, err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("delete metafield %d: %w", metafieldID, err)
	}
	return nil
}
