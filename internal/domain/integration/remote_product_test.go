package integration

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagListUnmarshal(t *testing.T) {
	t.Run("accepts JSON array", func(t *testing.T) {
		var p RemoteProduct
		err := json.Unmarshal([]byte(`{"title":"x","tags":["a","b"]}`), &p)
		require.NoError(t, err)
		assert.Equal(t, TagList{"a", "b"}, p.Tags)
	})

	t.Run("accepts comma-separated string", func(t *testing.T) {
		var p RemoteProduct
		err := json.Unmarshal([]byte(`{"title":"x","tags":"Hardware, Notebooks ,Business"}`), &p)
		require.NoError(t, err)
		assert.Equal(t, TagList{"Hardware", "Notebooks", "Business"}, p.Tags)
	})

	t.Run("empty string yields no tags", func(t *testing.T) {
		var p RemoteProduct
		err := json.Unmarshal([]byte(`{"title":"x","tags":""}`), &p)
		require.NoError(t, err)
		assert.Empty(t, p.Tags)
	})

	t.Run("marshals as array", func(t *testing.T) {
		data, err := json.Marshal(RemoteProduct{Title: "x", Handle: "h", Tags: TagList{"a", "b"}})
		require.NoError(t, err)
		assert.Contains(t, string(data), `"tags":["a","b"]`)
	})
}

func TestParseRemoteID(t *testing.T) {
	tests := []struct {
		name string
		gid  string
		want int64
	}{
		{"product gid", "gid://shopify/Product/123456789", 123456789},
		{"variant gid", "gid://shopify/ProductVariant/42", 42},
		{"plain numeric", "987", 987},
		{"surrounding whitespace", "  gid://shopify/Product/55  ", 55},
		{"empty", "", 0},
		{"non-numeric tail", "gid://shopify/Product/abc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRemoteID(tt.gid))
		})
	}
}

func TestGIDType(t *testing.T) {
	assert.Equal(t, "Product", GIDType("gid://shopify/Product/1"))
	assert.Equal(t, "ProductVariant", GIDType("gid://shopify/ProductVariant/2"))
	assert.Equal(t, "Metafield", GIDType("gid://shopify/Metafield/3"))
	assert.Equal(t, "", GIDType("not-a-gid"))
	assert.Equal(t, "", GIDType(""))
}

func TestMetafieldValueString(t *testing.T) {
	assert.Equal(t, "", MetafieldValueString(nil))
	assert.Equal(t, "abc", MetafieldValueString("abc"))
	assert.Equal(t, "42", MetafieldValueString(float64(42)))
	assert.Equal(t, "19.5", MetafieldValueString(float64(19.5)))
	assert.Equal(t, "7", MetafieldValueString(7))
	assert.Equal(t, "true", MetafieldValueString(true))
	assert.Equal(t, `["prod-a"]`, MetafieldValueString([]string{"prod-a"}))
}

func TestDecodeMetafieldValue(t *testing.T) {
	t.Run("plain text passes through", func(t *testing.T) {
		assert.Equal(t, "36 Monate", DecodeMetafieldValue("36 Monate"))
	})

	t.Run("JSON array string decodes", func(t *testing.T) {
		got := DecodeMetafieldValue(`["prod-a","prod-b"]`)
		assert.Equal(t, []any{"prod-a", "prod-b"}, got)
	})

	t.Run("double-encoded JSON decodes fully", func(t *testing.T) {
		got := DecodeMetafieldValue(`"[\"prod-a\"]"`)
		assert.Equal(t, []any{"prod-a"}, got)
	})

	t.Run("non-string passes through", func(t *testing.T) {
		assert.Equal(t, float64(12), DecodeMetafieldValue(float64(12)))
	})

	t.Run("empty string passes through", func(t *testing.T) {
		assert.Equal(t, "", DecodeMetafieldValue(""))
	})
}

func TestRemoteMetafieldIsEmpty(t *testing.T) {
	assert.True(t, (&RemoteMetafield{Value: ""}).IsEmpty())
	assert.True(t, (&RemoteMetafield{Value: "[]"}).IsEmpty())
	assert.True(t, (&RemoteMetafield{Value: nil}).IsEmpty())
	assert.False(t, (&RemoteMetafield{Value: "2025-09-01"}).IsEmpty())
	assert.False(t, (&RemoteMetafield{Value: `["prod-a"]`}).IsEmpty())
}

func TestRemoteVariantIsTracked(t *testing.T) {
	assert.True(t, (&RemoteVariant{InventoryManagement: "shopify"}).IsTracked())
	assert.False(t, (&RemoteVariant{}).IsTracked())
}
