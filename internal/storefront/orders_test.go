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

func trackingPayload() map[string]interface{} {
	return map[string]interface{}{
		"order_id":       42,
		"current_status": "Out for Delivery",
		"tracking_stages": []map[string]interface{}{
			{"stage": "Order Placed", "status": "Pending Review", "completed": true},
			{"stage": "Prescription Verified", "status": "Approved", "completed": true},
			{"stage": "Processing", "status": "Processing", "completed": true},
			{"stage": "Out for Delivery", "status": "Out for Delivery", "completed": true},
			{"stage": "Delivered", "status": "Delivered", "completed": false},
		},
		"last_updated": "2026-08-29T10:30:00Z",
	}
}

func TestFetchTrackingPreservesServerOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customer/orders/42/track", r.URL.Path)
		json.NewEncoder(w).Encode(trackingPayload())
	}))
	defer server.Close()

	client := NewClient(server.URL)
	snapshot, err := client.FetchTracking(42)
	require.NoError(t, err)

	assert.Equal(t, int64(42), snapshot.OrderID)
	assert.Equal(t, "Out for Delivery", snapshot.CurrentStatus)

	wantStages := []string{"Order Placed", "Prescription Verified", "Processing", "Out for Delivery", "Delivered"}
	require.Len(t, snapshot.Stages, len(wantStages))
	for i, want := range wantStages {
		assert.Equal(t, want, snapshot.Stages[i].Stage)
	}
	assert.False(t, snapshot.Stages[4].Completed)
}

func TestFetchTrackingIsIdempotent(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		json.NewEncoder(w).Encode(trackingPayload())
	}))
	defer server.Close()

	client := NewClient(server.URL)
	first, err := client.FetchTracking(42)
	require.NoError(t, err)
	second, err := client.FetchTracking(42)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls), "one GET per fetch, nothing extra")
}

func TestFetchTrackingNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "Order not found"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.FetchTracking(999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPlaceOrderStreamsPrescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))
		assert.Equal(t, "221B Baker Street", r.FormValue("shipping_address"))

		file, header, err := r.FormFile("prescription")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "rx.pdf", header.Filename)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message":                      "Order placed successfully",
			"order_id":                     77,
			"total":                        120.0,
			"status":                       "Pending Review",
			"requires_prescription_review": true,
			"estimated_delivery":           "3-5 business days",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.PlaceOrder(
		ShippingDetails{Address: "221B Baker Street", City: "London"},
		&PrescriptionFile{Filename: "rx.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(77), result.OrderID)
	assert.True(t, result.RequiresPrescriptionReview)
	assert.Equal(t, "Pending Review", result.Status)
}
