package chatbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectIntent(t *testing.T) {
	cases := []struct {
		query      string
		wantIntent string
		wantEntity string
	}{
		{"hello", IntentGreeting, ""},
		{"Hi there", IntentGreeting, ""},
		{"help", IntentHelp, ""},
		{"what can you do", IntentHelp, ""},
		{"do you have paracetamol", IntentSearchProduct, "paracetamol"},
		{"price of crocin", IntentSearchProduct, "crocin"},
		{"add cetirizine to my cart", IntentAddToCart, "cetirizine"},
		{"show my cart", IntentViewCart, ""},
		{"what's in my cart", IntentViewCart, ""},
		{"track my order", IntentTrackOrder, ""},
		{"where is my order", IntentTrackOrder, ""},
		{"order history", IntentOrderHistory, ""},
		{"upload prescription", IntentPrescriptionOrder, ""},
		{"is aspirin available", IntentCheckAvailability, "aspirin"},
		{"tell me about dolo 650", IntentProductInfo, "dolo 650"},
		{"dosage of ibuprofen", IntentDrugInfo, "ibuprofen"},
		{"clear my cart", IntentClearCart, ""},
		{"remove aspirin from cart", IntentRemoveFromCart, "aspirin"},
		{"cancel my order", IntentCancelOrder, ""},
		{"recommend some medicines", IntentRecommendProducts, ""},
		{"proceed to checkout", IntentCheckout, ""},
		{"xyzzy plugh", IntentUnknown, ""},
	}

	for _, tc := range cases {
		intent, entity := DetectIntent(tc.query)
		assert.Equal(t, tc.wantIntent, intent, "query: %q", tc.query)
		assert.Equal(t, tc.wantEntity, entity, "query: %q", tc.query)
	}
}

func TestDetectIntentIsCaseInsensitive(t *testing.T) {
	intent, entity := DetectIntent("ADD Paracetamol TO MY CART")
	assert.Equal(t, IntentAddToCart, intent)
	assert.Equal(t, "paracetamol", entity)
}

func TestFormatProductResponse(t *testing.T) {
	assert.Contains(t, formatProductResponse(nil), "couldn't find any products")

	single := formatProductResponse([]Product{
		{Name: "Amoxicillin", Price: 120, Quantity: 30, RequiresPrescription: true},
	})
	assert.Contains(t, single, "Amoxicillin")
	assert.Contains(t, single, "prescription (Rx) medicine")
	assert.Contains(t, single, "30 units in stock")

	outOfStock := formatProductResponse([]Product{
		{Name: "Cetirizine", Price: 45, Quantity: 0},
	})
	assert.Contains(t, outOfStock, "out of stock")
	assert.Contains(t, outOfStock, "over-the-counter (OTC) medicine")

	many := make([]Product, 8)
	for i := range many {
		many[i] = Product{Name: "Med", Price: 10}
	}
	multi := formatProductResponse(many)
	assert.Contains(t, multi, "I found 8 products")
	// Only the first five are listed.
	assert.NotContains(t, multi, "6. ")
}

func TestFormatCartResponse(t *testing.T) {
	empty := formatCartResponse(&CartSummary{})
	assert.Contains(t, empty, "cart is empty")

	withRx := formatCartResponse(&CartSummary{
		Items: []CartLine{
			{MedicineName: "Amoxicillin", Quantity: 1, Subtotal: 120, RequiresPrescription: true},
		},
		Total:                120,
		RequiresPrescription: true,
	})
	assert.Contains(t, withRx, "Amoxicillin")
	assert.Contains(t, withRx, "upload a prescription during checkout")
}
