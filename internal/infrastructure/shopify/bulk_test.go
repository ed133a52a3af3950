package shopify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/integration"
)

// bulkResultFixture is a deliberately messy result file: children arrive
// before and after their roots, one root line is duplicated, and it carries
// an unknown object type, a malformed line and a blank line.
const bulkResultFixture = `{"id":"gid://shopify/Product/100","handle":"prod-a100","title":"Workstation Pro","bodyHtml":"<p>Fast</p>","vendor":"ACME","productType":"Workstations","status":"ACTIVE","tags":["ACME","Hardware"],"options":[{"name":"Garantie","values":["Standard"]}],"stock":{"value":"12"},"accessories":{"value":"[\"prod-b200\"]"}}
{"id":"gid://shopify/Product/200","handle":"prod-b200","title":"Monitor","status":"ACTIVE"}
{"id":"gid://shopify/ProductVariant/601","__parentId":"gid://shopify/Product/200","sku":"B200","price":"249.00","title":"Standard"}
{"id":"gid://shopify/ProductVariant/501","__parentId":"gid://shopify/Product/100","sku":"A100","price":"1199.90","inventoryQuantity":12,"weight":8.5,"selectedOptions":[{"name":"Garantie","value":"Standard"}],"inventoryItem":{"id":"gid://shopify/InventoryItem/9001","tracked":true}}
{"id":"gid://shopify/ProductImage/801","__parentId":"gid://shopify/Product/100","url":"https://cdn.example.com/a100.jpg"}
{"id":"gid://shopify/Metafield/71","__parentId":"gid://shopify/Product/100","namespace":"custom","key":"Price_B2B_Regular","value":"999.9","type":"number_decimal"}
{"id":"gid://shopify/Product/100","handle":"prod-a100","title":"Workstation Pro"}
{"id":"gid://shopify/Collection/9","handle":"ignored"}
not json at all

`

func TestClient_ExportProducts(t *testing.T) {
	var polls, downloads atomic.Int32

	var server *httptest.Server
	server = createMockShopifyServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/api/2023-10/graphql.json":
			body, _ := io.ReadAll(r.Body)
			if strings.Contains(string(body), "bulkOperationRunQuery") {
				fmt.Fprint(w, `{"data":{"bulkOperationRunQuery":{"bulkOperation":{"id":"gid://shopify/BulkOperation/1","status":"CREATED"},"userErrors":[]}}}`)
				return
			}
			if polls.Add(1) == 1 {
				fmt.Fprint(w, `{"data":{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/1","status":"RUNNING","objectCount":"3"}}}`)
				return
			}
			fmt.Fprintf(w, `{"data":{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/1","status":"COMPLETED","objectCount":"9","url":%q}}}`,
				server.URL+"/bulk/result.jsonl")
		case "/bulk/result.jsonl":
			downloads.Add(1)
			// The result file lives on presigned storage, not the API.
			assert.Empty(t, r.Header.Get("X-Shopify-Access-Token"))
			fmt.Fprint(w, bulkResultFixture)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})
	defer server.Close()

	client := createTestClientWithServer(t, server.URL)
	products, err := client.ExportProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(2), polls.Load())
	assert.Equal(t, int32(1), downloads.Load())
	require.Len(t, products, 2)

	first := products[0]
	assert.Equal(t, int64(100), first.ID)
	assert.Equal(t, "prod-a100", first.Handle)
	assert.Equal(t, "Workstation Pro", first.Title)
	assert.Equal(t, "<p>Fast</p>", first.BodyHTML)
	assert.Equal(t, "ACME", first.Vendor)
	assert.Equal(t, "Workstations", first.ProductType)
	assert.Equal(t, "active", first.Status)
	assert.Equal(t, integration.TagList{"ACME", "Hardware"}, first.Tags)

	require.Len(t, first.Options, 1)
	assert.Equal(t, "Garantie", first.Options[0].Name)
	assert.Equal(t, []string{"Standard"}, first.Options[0].Values)

	require.Len(t, first.Variants, 1)
	variant := first.Variants[0]
	assert.Equal(t, int64(501), variant.ID)
	assert.Equal(t, "A100", variant.SKU)
	assert.Equal(t, "1199.90", variant.Price)
	assert.Equal(t, 12, variant.InventoryQuantity)
	assert.Equal(t, 8.5, variant.Weight)
	assert.Equal(t, "Standard", variant.Option1)
	assert.Equal(t, "shopify", variant.InventoryManagement)
	assert.Equal(t, int64(9001), variant.InventoryItemID)

	require.Len(t, first.Images, 1)
	assert.Equal(t, int64(801), first.Images[0].ID)
	assert.Equal(t, "https://cdn.example.com/a100.jpg", first.Images[0].Src)

	// Named aliases come first, generic metafield children merge in after.
	require.Len(t, first.Metafields, 3)
	assert.Equal(t, integration.MetafieldKeyStock, first.Metafields[0].Key)
	assert.Equal(t, "12", first.Metafields[0].ValueString())
	assert.Equal(t, integration.MetafieldKeyAccessories, first.Metafields[1].Key)
	assert.Equal(t, []any{"prod-b200"}, first.Metafields[1].Value)
	assert.Equal(t, integration.MetafieldKeyPriceB2B, first.Metafields[2].Key)
	assert.Equal(t, int64(71), first.Metafields[2].ID)
	assert.Equal(t, "999.9", first.Metafields[2].ValueString())

	second := products[1]
	assert.Equal(t, "prod-b200", second.Handle)
	require.Len(t, second.Variants, 1)
	assert.Equal(t, "B200", second.Variants[0].SKU)
	// No selected options on the line, the variant title stands in.
	assert.Equal(t, "Standard", second.Variants[0].Option1)
}

func TestClient_ExportProducts_EmptyCatalog(t *testing.T) {
	var downloads atomic.Int32
	server := createMockShopifyServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "bulkOperationRunQuery") {
			fmt.Fprint(w, `{"data":{"bulkOperationRunQuery":{"bulkOperation":{"id":"gid://shopify/BulkOperation/2","status":"CREATED"},"userErrors":[]}}}`)
			return
		}
		if strings.Contains(string(body), "currentBulkOperation") {
			fmt.Fprint(w, `{"data":{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/2","status":"COMPLETED","objectCount":"0"}}}`)
			return
		}
		downloads.Add(1)
	})
	defer server.Close()

	client := createTestClientWithServer(t, server.URL)
	products, err := client.ExportProducts(context.Background())

	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, int32(0), downloads.Load())
}

func TestClient_ExportProducts_SubmitRejected(t *testing.T) {
	server := createMockShopifyServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"bulkOperationRunQuery":{"bulkOperation":null,"userErrors":[{"field":["query"],"message":"A bulk query operation for this app and shop is already in progress"}]}}}`)
	})
	defer server.Close()

	client := createTestClientWithServer(t, server.URL)
	_, err := client.ExportProducts(context.Background())

	assert.ErrorIs(t, err, integration.ErrBulkJobFailed)
	assert.Contains(t, err.Error(), "already in progress")
}

func TestClient_ExportProducts_JobFailure(t *testing.T) {
	server := createMockShopifyServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "bulkOperationRunQuery") {
			fmt.Fprint(w, `{"data":{"bulkOperationRunQuery":{"bulkOperation":{"id":"gid://shopify/BulkOperation/3","status":"CREATED"},"userErrors":[]}}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/3","status":"FAILED","errorCode":"ACCESS_DENIED"}}}`)
	})
	defer server.Close()

	client := createTestClientWithServer(t, server.URL)
	_, err := client.ExportProducts(context.Background())

	assert.ErrorIs(t, err, integration.ErrBulkJobFailed)
	assert.Contains(t, err.Error(), "ACCESS_DENIED")
}

func TestClient_ExportProducts_PollTimeout(t *testing.T) {
	server := createMockShopifyServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "bulkOperationRunQuery") {
			fmt.Fprint(w, `{"data":{"bulkOperationRunQuery":{"bulkOperation":{"id":"gid://shopify/BulkOperation/4","status":"CREATED"},"userErrors":[]}}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"currentBulkOperation":{"id":"gid://shopify/BulkOperation/4","status":"RUNNING","objectCount":"1"}}}`)
	})
	defer server.Close()

	client, err := NewClient(&Config{
		ShopURL:            server.URL,
		AccessToken:        "test_access_token",
		MinRequestInterval: time.Millisecond,
		BulkPollInterval:   2 * time.Millisecond,
		BulkTimeout:        20 * time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.ExportProducts(context.Background())
	assert.ErrorIs(t, err, integration.ErrBulkJobTimeout)
}

func TestClient_ParseBulkResult_ChildOrderIndependent(t *testing.T) {
	const fixture = `{"id":"gid://shopify/Product/100","handle":"prod-a100","title":"Workstation Pro"}
{"id":"gid://shopify/ProductVariant/501","__parentId":"gid://shopify/Product/100","sku":"A100-G12","price":"1319.89"}
{"id":"gid://shopify/ProductVariant/502","__parentId":"gid://shopify/Product/100","sku":"A100-G13","price":"1439.88"}
{"id":"gid://shopify/ProductImage/801","__parentId":"gid://shopify/Product/100","url":"https://cdn.example.com/a100.jpg"}`

	lines := strings.Split(fixture, "\n")
	reversed := make([]string, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		reversed = append(reversed, lines[i])
	}

	client, err := NewClient(&Config{
		ShopURL:     "https://test-shop.myshopify.com",
		AccessToken: "test_access_token",
	}, zap.NewNop())
	require.NoError(t, err)

	forward, err := client.parseBulkResult(strings.NewReader(fixture))
	require.NoError(t, err)
	backward, err := client.parseBulkResult(strings.NewReader(strings.Join(reversed, "\n")))
	require.NoError(t, err)

	require.Len(t, forward, 1)
	require.Len(t, backward, 1)
	assert.Equal(t, forward[0].Handle, backward[0].Handle)
	assert.ElementsMatch(t, forward[0].Variants, backward[0].Variants)
	assert.Len(t, backward[0].Images, 1)
}
