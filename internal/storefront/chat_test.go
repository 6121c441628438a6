package storefront

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendQueryRelaysSessionIdentity(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"answer": "You have 2 items in your cart.",
			"intent": "view_cart",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.Session.SetLogin("tok-9", &CustomerProfile{CustomerID: 9, Name: "Ravi"})

	response := client.SendQuery("show my cart")
	assert.Equal(t, "view_cart", response.Intent)
	assert.Equal(t, "tok-9", gotBody["token"])
	assert.Equal(t, float64(9), gotBody["customer_id"])
}

func TestSendQueryAnonymous(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"answer":        "To view your cart, you'll need to log in first.",
			"intent":        "view_cart",
			"requires_auth": true,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	response := client.SendQuery("show my cart")

	assert.True(t, response.RequiresAuth)
	_, hasToken := gotBody["token"]
	assert.False(t, hasToken)
}

func TestSendQueryCollapsesErrorsToFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	serverURL := server.URL
	server.Close() // also exercises the connection-refused path below

	// Server error
	errServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "Error processing query"})
	}))
	defer errServer.Close()

	client := NewClient(errServer.URL)
	response := client.SendQuery("hello")
	require.NotNil(t, response)
	assert.Equal(t, chatFallbackAnswer, response.Answer)

	// Dead server: transport error, same single fallback reply.
	deadClient := NewClient(serverURL)
	response = deadClient.SendQuery("hello")
	require.NotNil(t, response)
	assert.Equal(t, chatFallbackAnswer, response.Answer)
}
