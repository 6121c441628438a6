package storefront

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL)
}

func cartJSON(items []CartLine, requiresRx bool) map[string]interface{} {
	var total float64
	for _, item := range items {
		total += item.Subtotal
	}
	return map[string]interface{}{
		"cart_items":            items,
		"total":                 total,
		"item_count":            len(items),
		"requires_prescription": requiresRx,
	}
}

func otcCartHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/customer/cart", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(cartJSON([]CartLine{
			{CartItemID: 1, MedicineID: 10, Name: "Cetirizine", Price: 45, Quantity: 2, Subtotal: 90, ProductType: "OTC", InStock: true},
		}, false))
	})
	return mux
}

func rxCartHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/customer/cart", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(cartJSON([]CartLine{
			{CartItemID: 1, MedicineID: 20, Name: "Amoxicillin", Price: 120, Quantity: 1, Subtotal: 120, ProductType: "Rx", RequiresPrescription: true, InStock: true},
		}, true))
	})
	return mux
}

func TestBeginEmptyCart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/customer/cart", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(cartJSON(nil, false))
	})
	client := newTestServer(t, mux)

	wizard := NewWizard(client)
	_, err := wizard.Begin()
	assert.ErrorIs(t, err, ErrCartEmpty)
	assert.Equal(t, StepReviewCart, wizard.Step())
}

func TestWizardStepOrder(t *testing.T) {
	client := newTestServer(t, otcCartHandler())
	wizard := NewWizard(client)

	_, err := wizard.Begin()
	require.NoError(t, err)

	require.NoError(t, wizard.Next())
	assert.Equal(t, StepShipping, wizard.Step())

	// Blank address blocks the shipping step.
	wizard.SetShipping(ShippingDetails{Address: "   "})
	assert.ErrorIs(t, wizard.Next(), ErrShippingAddressBlank)
	assert.Equal(t, StepShipping, wizard.Step())

	wizard.SetShipping(ShippingDetails{Address: "12 Park Street", City: "Kolkata"})
	require.NoError(t, wizard.Next())
	assert.Equal(t, StepConfirm, wizard.Step())

	// Back keeps entered data.
	require.NoError(t, wizard.Back())
	assert.Equal(t, StepShipping, wizard.Step())
	assert.Equal(t, "12 Park Street", wizard.Shipping().Address)
	require.NoError(t, wizard.Next())
}

func TestPrescriptionGate(t *testing.T) {
	client := newTestServer(t, rxCartHandler())
	wizard := NewWizard(client)

	_, err := wizard.Begin()
	require.NoError(t, err)
	require.NoError(t, wizard.Next())
	wizard.SetShipping(ShippingDetails{Address: "5 MG Road"})
	require.NoError(t, wizard.Next())

	// No prescription attached: both the check and the action refuse.
	assert.False(t, wizard.CanSubmit())
	_, err = wizard.Submit()
	assert.ErrorIs(t, err, ErrPrescriptionRequired)
	assert.Equal(t, StepConfirm, wizard.Step())

	require.NoError(t, wizard.AttachPrescription("rx.pdf", "application/pdf", []byte("%PDF-1.4 test")))
	assert.True(t, wizard.CanSubmit())
}

func TestAttachPrescriptionSizeBoundary(t *testing.T) {
	wizard := NewWizard(nil)

	atLimit := make([]byte, MaxPrescriptionSize)
	assert.NoError(t, wizard.AttachPrescription("rx.png", "image/png", atLimit))

	overLimit := make([]byte, MaxPrescriptionSize+1)
	err := wizard.AttachPrescription("big.png", "image/png", overLimit)
	assert.Error(t, err)

	// The rejected file must not replace the accepted one.
	require.NotNil(t, wizard.Prescription())
	assert.Equal(t, "rx.png", wizard.Prescription().Filename)
}

func TestAttachPrescriptionTypes(t *testing.T) {
	accepted := []string{"image/png", "image/jpeg", "image/jpg", "application/pdf"}
	for _, contentType := range accepted {
		wizard := NewWizard(nil)
		assert.NoError(t, wizard.AttachPrescription("rx", contentType, []byte("data")), contentType)
	}

	rejected := []string{"image/gif", "text/plain", "application/zip"}
	for _, contentType := range rejected {
		wizard := NewWizard(nil)
		assert.Error(t, wizard.AttachPrescription("rx", contentType, []byte("data")), contentType)
		assert.Nil(t, wizard.Prescription())
	}
}

func TestAttachPrescriptionSniffsWhenTypeMissing(t *testing.T) {
	wizard := NewWizard(nil)

	pngData := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 64)...)
	assert.NoError(t, wizard.AttachPrescription("scan", "", pngData))
	assert.Equal(t, "image/png", wizard.Prescription().ContentType)

	plain := NewWizard(nil)
	assert.Error(t, plain.AttachPrescription("notes", "", []byte("just some text")))
}

func TestSubmitSuccessCarriesResult(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/customer/cart", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(cartJSON([]CartLine{
			{CartItemID: 1, MedicineID: 10, Name: "Cetirizine", Price: 45, Quantity: 2, Subtotal: 90, ProductType: "OTC", InStock: true},
		}, false))
	})
	mux.HandleFunc("/customer/orders/place", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))
		assert.Equal(t, "12 Park Street", r.FormValue("shipping_address"))
		_, _, err := r.FormFile("prescription")
		assert.Error(t, err, "OTC order must not carry a prescription part")

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message":                      "Order placed successfully",
			"order_id":                     311,
			"total":                        90.0,
			"status":                       "Processing",
			"requires_prescription_review": false,
			"estimated_delivery":           "3-5 business days",
		})
	})
	client := newTestServer(t, mux)

	wizard := NewWizard(client)
	_, err := wizard.Begin()
	require.NoError(t, err)
	require.NoError(t, wizard.Next())
	wizard.SetShipping(ShippingDetails{Address: "12 Park Street"})
	require.NoError(t, wizard.Next())

	result, err := wizard.Submit()
	require.NoError(t, err)
	assert.Equal(t, int64(311), result.OrderID)
	assert.Equal(t, 90.0, result.Total)
	assert.False(t, result.RequiresPrescriptionReview)
	assert.Equal(t, StepSubmitted, wizard.Step())
	assert.Same(t, result, wizard.Result())

	// Terminal: a second submit is refused.
	_, err = wizard.Submit()
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestSubmitFailureKeepsWizardState(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/customer/cart", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(cartJSON([]CartLine{
			{CartItemID: 1, MedicineID: 10, Name: "Cetirizine", Price: 45, Quantity: 2, Subtotal: 90, ProductType: "OTC", InStock: true},
		}, false))
	})
	mux.HandleFunc("/customer/orders/place", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "Insufficient stock for Cetirizine"})
	})
	client := newTestServer(t, mux)

	wizard := NewWizard(client)
	_, err := wizard.Begin()
	require.NoError(t, err)
	require.NoError(t, wizard.Next())
	wizard.SetShipping(ShippingDetails{Address: "12 Park Street"})
	require.NoError(t, wizard.Next())

	_, err = wizard.Submit()
	require.Error(t, err)
	assert.Equal(t, StepConfirm, wizard.Step())
	assert.False(t, wizard.Submitting())
	assert.Equal(t, "Insufficient stock for Cetirizine", wizard.LastError())
	assert.Nil(t, wizard.Result())
	assert.Equal(t, "12 Park Street", wizard.Shipping().Address)

	// Still allowed to retry from where we are.
	assert.True(t, wizard.CanSubmit())
}

func TestRxRemovalFlipsRequirement(t *testing.T) {
	rxInCart := true
	mux := http.NewServeMux()
	mux.HandleFunc("/customer/cart", func(w http.ResponseWriter, r *http.Request) {
		if rxInCart {
			json.NewEncoder(w).Encode(cartJSON([]CartLine{
				{CartItemID: 1, MedicineID: 20, Name: "Amoxicillin", Price: 120, Quantity: 1, Subtotal: 120, ProductType: "Rx", RequiresPrescription: true, InStock: true},
				{CartItemID: 2, MedicineID: 10, Name: "Cetirizine", Price: 45, Quantity: 1, Subtotal: 45, ProductType: "OTC", InStock: true},
			}, true))
			return
		}
		json.NewEncoder(w).Encode(cartJSON([]CartLine{
			{CartItemID: 2, MedicineID: 10, Name: "Cetirizine", Price: 45, Quantity: 1, Subtotal: 45, ProductType: "OTC", InStock: true},
		}, false))
	})
	mux.HandleFunc("/customer/cart/remove/1", func(w http.ResponseWriter, r *http.Request) {
		rxInCart = false
		json.NewEncoder(w).Encode(map[string]string{"message": "Item removed from cart"})
	})
	client := newTestServer(t, mux)

	cart, err := client.FetchCart()
	require.NoError(t, err)
	assert.True(t, cart.RequiresPrescription)

	cart, err = client.RemoveItem(1)
	require.NoError(t, err)
	assert.False(t, cart.RequiresPrescription, "flag must follow the fresh snapshot")

	wizard := NewWizard(client)
	_, err = wizard.Begin()
	require.NoError(t, err)
	require.NoError(t, wizard.Next())
	wizard.SetShipping(ShippingDetails{Address: "5 MG Road"})
	require.NoError(t, wizard.Next())
	assert.True(t, wizard.CanSubmit(), "no prescription needed once the Rx item is gone")
}
