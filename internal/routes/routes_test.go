package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/medimart/medimart-golang/internal/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShopRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return SetupRouter(&handlers.Handlers{DB: db}), mock
}

// The detail page looks medicines up by numeric ID, so the route
// parameter has to reach the handler under the name it reads.
func TestProductDetailRouteResolvesNumericID(t *testing.T) {
	router, mock := newShopRouter(t)

	mfg := time.Now().AddDate(0, -3, 0)
	exp := time.Now().AddDate(1, 0, 0)
	rows := sqlmock.NewRows([]string{
		"medicine_id", "name", "company", "company_id", "batch_no", "price",
		"product_type", "generic_name", "description", "image_url", "quantity",
		"mfg_date", "exp_date",
	}).AddRow(10, "Paracetamol 500mg", "Cipla", 3, "B-2041", 25.50,
		"OTC", "Paracetamol", "Pain and fever relief", nil, 40, mfg, exp)
	mock.ExpectQuery("FROM medicines m").WithArgs("10").WillReturnRows(rows)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/shop/products/10", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 10, body["medicine_id"])
	assert.Equal(t, "Paracetamol 500mg", body["name"])
	assert.Equal(t, false, body["requires_prescription"])
	assert.Equal(t, true, body["in_stock"])
	require.NoError(t, mock.ExpectationsWereMet())
}

// Availability checks carry a JSON list of items, so the endpoint
// accepts POST with a body rather than a path parameter.
func TestCheckAvailabilityAcceptsPostedItems(t *testing.T) {
	router, mock := newShopRouter(t)

	exp := time.Now().AddDate(0, 6, 0)
	mock.ExpectQuery("SELECT name, quantity, exp_date FROM medicines").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "quantity", "exp_date"}).
			AddRow("Cetirizine 10mg", 15, exp))

	payload, err := json.Marshal(gin.H{
		"items": []gin.H{{"medicine_id": 10, "quantity": 2}},
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/shop/check-availability", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		AllAvailable bool `json:"all_available"`
		Items        []struct {
			MedicineID int64 `json:"medicine_id"`
			Available  bool  `json:"available"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.AllAvailable)
	require.Len(t, body.Items, 1)
	assert.EqualValues(t, 10, body.Items[0].MedicineID)
	assert.True(t, body.Items[0].Available)
	require.NoError(t, mock.ExpectationsWereMet())
}
