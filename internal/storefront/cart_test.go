package storefront

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateQuantityBelowOneMakesNoRequest(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	for _, qty := range []int{0, -1, -100} {
		_, err := client.UpdateQuantity(1, qty)
		assert.ErrorIs(t, err, ErrQuantityTooLow)
	}
	assert.Equal(t, int64(0), atomic.LoadInt64(&calls), "no network traffic for invalid quantities")
}

func TestUpdateQuantityRefetchesSnapshot(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/customer/cart/update/7", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var body struct {
			Quantity int `json:"quantity"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 3, body.Quantity)
		json.NewEncoder(w).Encode(map[string]string{"message": "Cart updated"})
	})
	mux.HandleFunc("/customer/cart", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"cart_items": []CartLine{
				{CartItemID: 7, Name: "Cetirizine", Price: 45, Quantity: 3, Subtotal: 135, ProductType: "OTC"},
			},
			"total":                 135.0,
			"item_count":            1,
			"requires_prescription": false,
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL)
	cart, err := client.UpdateQuantity(7, 3)
	require.NoError(t, err)

	// Totals come from the server snapshot, never computed locally.
	assert.Equal(t, 135.0, cart.Total)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestClearCartRefetchesSnapshot(t *testing.T) {
	var refetches int64
	mux := http.NewServeMux()
	mux.HandleFunc("/customer/cart/clear", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		json.NewEncoder(w).Encode(map[string]string{"message": "Cart cleared"})
	})
	mux.HandleFunc("/customer/cart", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&refetches, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"cart_items":            []CartLine{},
			"total":                 0.0,
			"item_count":            0,
			"requires_prescription": false,
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL)
	cart, err := client.ClearCart()
	require.NoError(t, err)

	// Like every other mutation, clearing ends with a fresh snapshot.
	assert.Equal(t, int64(1), atomic.LoadInt64(&refetches))
	assert.True(t, cart.Empty())
	assert.Equal(t, 0.0, cart.Total)
}

func TestFetchCartDecodesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Token is missing"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.FetchCart()

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Token is missing", apiErr.Message)
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{"cart_items": []CartLine{}})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.Session.SetLogin("token-123", &CustomerProfile{CustomerID: 1, Name: "Asha"})

	_, err := client.FetchCart()
	require.NoError(t, err)
	assert.Equal(t, "Bearer token-123", gotAuth)

	client.Session.Clear()
	_, err = client.FetchCart()
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}
