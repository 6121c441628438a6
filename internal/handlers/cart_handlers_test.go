package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCartRouter wires GetCart behind a stub auth middleware that plants
// the customer ID the way CustomerAuthMiddleware does.
func newCartRouter(h *Handlers, customerID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/customer/cart", func(c *gin.Context) {
		c.Set("customerID", customerID)
	}, h.GetCart)
	return router
}

func TestGetCartComputesTotalsServerSide(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	future := time.Now().Add(365 * 24 * time.Hour)
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"cart_item_id", "medicine_id", "name", "company", "price", "quantity",
		"product_type", "image_url", "stock", "exp_date", "added_at",
	}).
		AddRow(1, 10, "Cetirizine", "Cipla", 45.50, 2, "OTC", nil, 100, future, now).
		AddRow(2, 20, "Amoxicillin", "GSK", 120.00, 1, "Rx", nil, 1, future, now)

	mock.ExpectQuery("FROM cart_items").WithArgs(int64(7)).WillReturnRows(rows)

	h := &Handlers{DB: db}
	router := newCartRouter(h, 7)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/customer/cart", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		CartItems            []CartItemResponse `json:"cart_items"`
		Total                float64            `json:"total"`
		ItemCount            int                `json:"item_count"`
		RequiresPrescription bool               `json:"requires_prescription"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, 211.0, body.Total) // 45.50*2 + 120.00
	assert.Equal(t, 2, body.ItemCount)
	assert.True(t, body.RequiresPrescription, "one Rx line flags the whole cart")
	assert.Equal(t, 91.0, body.CartItems[0].Subtotal)
	assert.True(t, body.CartItems[0].InStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCartEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM cart_items").WithArgs(int64(7)).WillReturnRows(
		sqlmock.NewRows([]string{
			"cart_item_id", "medicine_id", "name", "company", "price", "quantity",
			"product_type", "image_url", "stock", "exp_date", "added_at",
		}))

	h := &Handlers{DB: db}
	router := newCartRouter(h, 7)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/customer/cart", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		CartItems            []CartItemResponse `json:"cart_items"`
		Total                float64            `json:"total"`
		RequiresPrescription bool               `json:"requires_prescription"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.CartItems)
	assert.Zero(t, body.Total)
	assert.False(t, body.RequiresPrescription)
}

func TestGetCartFlagsExpiredStockAsUnavailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expired := time.Now().Add(-24 * time.Hour)
	rows := sqlmock.NewRows([]string{
		"cart_item_id", "medicine_id", "name", "company", "price", "quantity",
		"product_type", "image_url", "stock", "exp_date", "added_at",
	}).AddRow(1, 10, "Old Batch", "Cipla", 45.50, 2, "OTC", nil, 100, expired, time.Now())

	mock.ExpectQuery("FROM cart_items").WithArgs(int64(7)).WillReturnRows(rows)

	h := &Handlers{DB: db}
	router := newCartRouter(h, 7)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/customer/cart", nil))

	var body struct {
		CartItems []CartItemResponse `json:"cart_items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.CartItems, 1)
	assert.False(t, body.CartItems[0].InStock)
}
