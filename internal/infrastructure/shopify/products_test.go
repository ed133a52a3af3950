package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopsync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Lookup Tests
// ---------------------------------------------------------------------------

func TestClient_GetProductByHandle(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		var gotHandle string
		server := createMockShopifyServer(t, func(w http.ResponseWriter, r *http.Request) {
			gotHandle = r.URL.Query().Get("handle")
			fmt.Fprint(w, `{"products":[{
				"id": 55,
				"handle": "prod-a100",
				"title": "Workstation Pro",
				"variants": [{"id": 501, "sku": "A100", "price": "1199.90"}]
			}]}`)
		})
		defer server.Close()

		client := createTestClientWithServer(t, server.URL)
		product, err := client.GetProductByHandle(context.Background(), "prod-a100")

		require.NoError(t, err)
		assert.Equal(t, "prod-a100", gotHandle)
		assert.Equal(t, int64(55), product.ID)
		assert.Equal(t, "Workstation Pro", product.Title)
		require.Len(t, product.Variants, 1)
		assert.Equal(t, "A100", product.Variants[0].SKU)
	})

	t.Run("not found", func(t *testing.T) {
		server := createMockShopifyServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"products":[]}`)
		})
		defer server.Close()

		client := createTestClientWithServer(t, server.URL)
		product, err := client.GetProductByHandle(context.Background(), "prod-x900")

		assert.ErrorIs(t, err, integration.ErrProductNotFound)
		assert.Nil(t, product)
	})
}

func TestClient_FindProductBySKU(t *testing.T) {
	catalog := `{"products":[
		{"id": 77, "handle": "prod-b200", "variants": [{"sku": "B200"}]},
		{"id": 55, "handle": "prod-a100", "variants": [{"sku": "A100-G12"}, {"sku": "A100-G13"}]}
	]}`

	t.Run("exact match", func(t *testing.T) {
		server := createMockShopifyServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, catalog)
		})
		defer server.Close()

		client := createTestClientWithServer(t, server.URL)
		product, err := client.FindProductBySKU(context.Background(), "B200")

		require.NoError(t, err)
		assert.Equal(t, int64(77), product.ID)
	})

	t.Run("matches warranty variant by prefix", func(t *testing.T) {
		server := createMockShopifyServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, catalog)
		})
		defer server.Close()

		client := createTestClientWithServer(t, server.URL)
		product, err := client.FindProductBySKU(context.Background(), "A100")

		require.NoError(t, err)
		assert.Equal(t, int64(55), product.ID)
	})

	t.Run("no match", func(t *testing.T) {
		server := createMockShopifyServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, catalog)
		})
		defer server.Close()

		client := createTestClientWithServer(t, server.URL)
		product, err := client.FindProductBySKU(context.Background(), "X900")

		assert.ErrorIs(t, err, integration.ErrProductNotFound)
		assert.Nil(t, product)
	})

	t.Run("empty SKU skips the scan", func(t *testing.T) {
		var requests atomic.Int32
		server := createMockShopifyServer(t, func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
		})
		defer server.Close()

		client := createTestClientWithServer(t, server.URL)
		_, err := client.FindProductBySKU(context.Background(), "")

		assert.ErrorIs(t, err, integration.ErrProductNotFound)
		assert.Equal(t, int32(0), requests.Load())
	})
}

// ---------------------------------------------------------------------------
// Pagination Tests
// ---------------------------------------------------------------------------

func TestClient_ListProducts_FollowsPageCursor(t *testing.T) {
	var requests atomic.Int32
	var secondPageInfo string

	var server *httptest.Server
	server = createMockShopifyServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("limit"))

		switch requests.Add(1) {
		case 1:
			next := fmt.Sprintf(`<%s/admin/api/2023-10/products.json?limit=2&page_info=cursor2>; rel="next"`, server.URL)
			prev := fmt.Sprintf(`<%s/admin/api/2023-10/products.json?limit=2&page_info=cursor0>; rel="previous"`, server.URL)
			w.Header().Set("Link", prev+", "+next)
			fmt.Fprint(w, `{"products":[{"id":1,"handle":"prod-a"},{"id":2,"handle":"prod-b"}]}`)
		default:
			secondPageInfo = r.URL.Query().Get("page_info")
			fmt.Fprint(w, `{"products":[{"id":3,"handle":"prod-c"}]}`)
		}
	})
	defer server.Close()

	client := createTestClientWithServer(t, server.URL)
	products, err := client.ListProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(2), requests.Load())
	assert.Equal(t, "cursor2", secondPageInfo)
	require.Len(t, products, 3)
	assert.Equal(t, "prod-a", products[0].Handle)
	assert.Equal(t, "prod-c", products[2].Handle)
}

func TestNextPageInfo(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{
			name: "next cursor present",
			link: `<https://shop.myshopify.com/admin/api/2023-10/products.json?limit=2&page_info=abc>; rel="next"`,
			want: "abc",
		},
		{
			name: "previous and next",
			link: `<https://x/p.json?page_info=prev1>; rel="previous", <https://x/p.json?page_info=next1>; rel="next"`,
			want: "next1",
		},
		{
			name: "only previous",
			link: `<https://x/p.json?page_info=prev1>; rel="previous"`,
			want: "",
		},
		{
			name: "empty header",
			link: "",
			want: "",
		},
		{
			name: "malformed entry",
			link: `garbage; rel="next"`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextPageInfo(tt.link))
		})
	}
}

// ---------------------------------------------------------------------------
// Mutation Tests
// ---------------------------------------------------------------------------

func TestClient_CreateProduct(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody productEnvelope
	server := createMockShopifyServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"product":{"id":100,"handle":"prod-a100","title":"Workstation Pro"}}`)
	})
	defer server.Close()

	client := createTestClientWithServer(t, server.URL)
	created, err := client.CreateProduct(context.Background(), &integration.RemoteProduct{
		Handle: "prod-a100",
		Title:  "Workstation Pro",
	})

	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/admin/api/2023-10/products.json", gotPath)
	assert.Equal(t, "prod-a100", gotBody.Product.Handle)
	assert.Equal(t, int64(100), created.ID)
}

func TestClient_UpdateProduct(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody productEnvelope
	server := createMockShopifyServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"product":{"id":55,"handle":"prod-a100","title":"Workstation Pro v2"}}`)
	})
	defer server.Close()

	client := createTestClientWithServer(t, server.URL)
	updated, err := client.UpdateProduct(context.Background(), 55, &integration.RemoteProduct{
		Handle: "prod-a100",
		Title:  "Workstation Pro v2",
	})

	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/admin/api/2023-10/products/55.json", gotPath)
	// The payload must carry the target ID even when the caller left it zero.
	assert.Equal(t, int64(55), gotBody.Product.ID)
	assert.Equal(t, "Workstation Pro v2", updated.Title)
}

func TestClient_DeleteProduct(t *testing.T) {
	var gotMethod, gotPath string
	server := createMockShopifyServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		fmt.Fprint(w, `{}`)
	})
	defer server.Close()

	client := createTestClientWithServer(t, server.URL)
	require.NoError(t, client.DeleteProduct(context.Background(), 55))

	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/admin/api/2023-10/products/55.json", gotPath)
}
