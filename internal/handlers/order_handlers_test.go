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

	"github.com/medimart/medimart-golang/internal/models"
)

func stageNames(stages []trackingStage) []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Stage
	}
	return names
}

func TestBuildTrackingStagesRx(t *testing.T) {
	stages := buildTrackingStages(models.OrderStatusProcessing, true)

	assert.Equal(t, []string{
		"Order Placed", "Prescription Verified", "Processing", "Out for Delivery", "Delivered",
	}, stageNames(stages))

	assert.True(t, stages[0].Completed)
	assert.True(t, stages[1].Completed)
	assert.True(t, stages[2].Completed)
	assert.False(t, stages[3].Completed)
	assert.False(t, stages[4].Completed)
}

func TestBuildTrackingStagesOTCDropsVerification(t *testing.T) {
	stages := buildTrackingStages(models.OrderStatusProcessing, false)

	assert.Equal(t, []string{
		"Order Placed", "Processing", "Out for Delivery", "Delivered",
	}, stageNames(stages))
}

func TestBuildTrackingStagesDelivered(t *testing.T) {
	stages := buildTrackingStages(models.OrderStatusDelivered, true)
	for _, stage := range stages {
		assert.True(t, stage.Completed, stage.Stage)
	}
}

func TestBuildTrackingStagesPendingReview(t *testing.T) {
	stages := buildTrackingStages(models.OrderStatusPendingReview, true)

	assert.True(t, stages[0].Completed, "Order Placed is always done")
	for _, stage := range stages[1:] {
		assert.False(t, stage.Completed, stage.Stage)
	}
}

func newTrackRouter(h *Handlers, customerID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/customer/orders/:id/track", func(c *gin.Context) {
		c.Set("customerID", customerID)
	}, h.TrackOrder)
	return router
}

func TestTrackOrderResponseShape(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	updated := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)
	mock.ExpectQuery("FROM orders").
		WithArgs("42", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "status", "requires_prescription", "order_date", "updated_at"}).
			AddRow(42, models.OrderStatusOutForDelivery, true, updated.Add(-48*time.Hour), updated))

	h := &Handlers{DB: db}
	router := newTrackRouter(h, 7)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/customer/orders/42/track", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		OrderID       int64           `json:"order_id"`
		CurrentStatus string          `json:"current_status"`
		Stages        []trackingStage `json:"tracking_stages"`
		LastUpdated   string          `json:"last_updated"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, int64(42), body.OrderID)
	assert.Equal(t, models.OrderStatusOutForDelivery, body.CurrentStatus)
	assert.Equal(t, updated.Format(time.RFC3339), body.LastUpdated)
	require.Len(t, body.Stages, 5)
	assert.True(t, body.Stages[3].Completed)
	assert.False(t, body.Stages[4].Completed)
}

func TestTrackOrderNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM orders").
		WithArgs("999", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "status", "requires_prescription", "order_date", "updated_at"}))

	h := &Handlers{DB: db}
	router := newTrackRouter(h, 7)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/customer/orders/999/track", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Order not found", body["message"])
}
