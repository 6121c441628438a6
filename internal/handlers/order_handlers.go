package handlers

import (
	"database/sql"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/medimart/medimart-golang/internal/models"
)

//
// --- Order Handlers (Customer-Only) ---
//

// Prescription upload limits. The storefront enforces the same pair before
// sending anything; this is the trust boundary so we check again.
const MaxPrescriptionBytes = 5 * 1024 * 1024 // 5,242,880 — inclusive ceiling

var allowedPrescriptionExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".pdf":  true,
}

var allowedPrescriptionMIMEs = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"application/pdf": true,
}

// checkoutLine is a helper struct for fetching cart items during checkout.
type checkoutLine struct {
	MedicineID  int64
	Name        string
	Quantity    int
	UnitPrice   float64
	Stock       int
	ProductType string
	ExpDate     time.Time
}

// loadCheckoutLines reads the customer's cart inside the given transaction,
// locking the medicine rows so concurrent checkouts cannot oversell.
func loadCheckoutLines(tx *sql.Tx, customerID int64) ([]checkoutLine, error) {
	query := `
		SELECT ci.medicine_id, m.name, ci.quantity, m.price, m.quantity, m.product_type, m.exp_date
		FROM cart_items ci
		JOIN medicines m ON ci.medicine_id = m.medicine_id
		WHERE ci.customer_id = ?
		FOR UPDATE`
	rows, err := tx.Query(query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []checkoutLine
	for rows.Next() {
		var l checkoutLine
		if err := rows.Scan(&l.MedicineID, &l.Name, &l.Quantity, &l.UnitPrice, &l.Stock, &l.ProductType, &l.ExpDate); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ValidateCheckout is the handler for POST /api/customer/checkout/validate
// A dry run of the stock and expiry checks so the client can surface
// problems before the shopper fills in the shipping form.
func (h *Handlers) ValidateCheckout(c *gin.Context) {
	customerID_raw, _ := c.Get("customerID")
	customerID := customerID_raw.(int64)

	query := `
		SELECT ci.medicine_id, m.name, ci.quantity, m.price, m.quantity, m.product_type, m.exp_date
		FROM cart_items ci
		JOIN medicines m ON ci.medicine_id = m.medicine_id
		WHERE ci.customer_id = ?`
	rows, err := h.DB.Query(query, customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error validating checkout"})
		return
	}
	defer rows.Close()

	var lines []checkoutLine
	for rows.Next() {
		var l checkoutLine
		if err := rows.Scan(&l.MedicineID, &l.Name, &l.Quantity, &l.UnitPrice, &l.Stock, &l.ProductType, &l.ExpDate); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error validating checkout"})
			return
		}
		lines = append(lines, l)
	}

	if len(lines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cart is empty"})
		return
	}

	issues := []gin.H{}
	var total float64
	hasRxItems := false
	now := time.Now()

	for _, l := range lines {
		if l.Stock < l.Quantity {
			issues = append(issues, gin.H{
				"medicine": l.Name,
				"issue":    fmt.Sprintf("Only %d units available, but %d requested", l.Stock, l.Quantity),
			})
		}
		if !l.ExpDate.After(now) {
			issues = append(issues, gin.H{
				"medicine": l.Name,
				"issue":    "Medicine has expired",
			})
		}
		if l.ProductType == "Rx" {
			hasRxItems = true
		}
		total += l.UnitPrice * float64(l.Quantity)
	}

	if len(issues) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "issues": issues})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":                 true,
		"total":                 round2(total),
		"requires_prescription": hasRxItems,
		"item_count":            len(lines),
	})
}

// savePrescriptionFile validates and stores an uploaded prescription,
// returning the stored path. Validation failures come back as a
// user-facing message in err.
func (h *Handlers) savePrescriptionFile(c *gin.Context, file *multipart.FileHeader) (string, error) {
	if file.Size > MaxPrescriptionBytes {
		return "", fmt.Errorf("File too large. Maximum size is 5MB")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedPrescriptionExts[ext] {
		return "", fmt.Errorf("Invalid file type. Allowed: PNG, JPG, JPEG, PDF")
	}

	// Sniff the actual content, the extension alone is client-controlled.
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("Failed to read prescription file")
	}
	detected, err := mimetype.DetectReader(src)
	src.Close()
	if err != nil || !allowedPrescriptionMIMEs[detected.String()] {
		return "", fmt.Errorf("Invalid file type. Allowed: PNG, JPG, JPEG, PDF")
	}

	uploadDir := h.PrescriptionUploadDir()
	if _, err := os.Stat(uploadDir); os.IsNotExist(err) {
		os.MkdirAll(uploadDir, 0755)
	}

	// uuid + original extension keeps names unique and unguessable.
	storedName := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	savePath := filepath.Join(uploadDir, storedName)
	if err := c.SaveUploadedFile(file, savePath); err != nil {
		return "", fmt.Errorf("Failed to save prescription file")
	}

	return savePath, nil
}

// PlaceOrder is the handler for POST /api/customer/orders/place
// Accepts multipart form data: shipping fields plus an optional
// 'prescription' file part, required when the cart holds Rx items.
func (h *Handlers) PlaceOrder(c *gin.Context) {
	// 1. --- Get Customer ID ---
	customerID_raw, _ := c.Get("customerID")
	customerID := customerID_raw.(int64)

	// 2. --- Begin Transaction ---
	tx, err := h.DB.BeginTx(c, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to start transaction"})
		return
	}
	defer tx.Rollback() // Safety net

	// 3. --- Load Cart & Lock Stock ---
	lines, err := loadCheckoutLines(tx, customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get cart items"})
		return
	}
	if len(lines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cart is empty"})
		return
	}

	// 4. --- Final Stock/Expiry Check & Totals ---
	var total float64
	hasRxItems := false
	now := time.Now()
	for _, l := range lines {
		if l.Stock < l.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Insufficient stock for %s", l.Name)})
			return
		}
		if !l.ExpDate.After(now) {
			c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("%s has expired", l.Name)})
			return
		}
		if l.ProductType == "Rx" {
			hasRxItems = true
		}
		total += l.UnitPrice * float64(l.Quantity)
	}
	total = round2(total)

	// 5. --- Prescription Gate (server is the authority) ---
	var prescriptionPath sql.NullString
	if hasRxItems {
		file, err := c.FormFile("prescription")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Prescription required",
				"error":   "Your cart contains prescription medicines. Please upload a valid prescription.",
			})
			return
		}
		savedPath, err := h.savePrescriptionFile(c, file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		prescriptionPath = sql.NullString{String: savedPath, Valid: true}
	}

	// 6. --- Shipping Address (form fields, falling back to profile) ---
	shippingAddress := c.PostForm("shipping_address")
	shippingCity := c.PostForm("shipping_city")
	shippingState := c.PostForm("shipping_state")
	shippingPincode := c.PostForm("shipping_pincode")

	if shippingAddress == "" {
		var addr, city, state, pincode sql.NullString
		err := tx.QueryRow("SELECT address, city, state, pincode FROM customers WHERE customer_id = ?", customerID).
			Scan(&addr, &city, &state, &pincode)
		if err == nil {
			shippingAddress = addr.String
			if shippingCity == "" {
				shippingCity = city.String
			}
			if shippingState == "" {
				shippingState = state.String
			}
			if shippingPincode == "" {
				shippingPincode = pincode.String
			}
		}
	}
	if shippingAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Shipping address required"})
		return
	}

	// 7. --- Create Order ---
	// Rx orders wait for a pharmacist; pure OTC orders go straight to processing.
	orderStatus := models.OrderStatusProcessing
	prescriptionStatus := sql.NullString{}
	if hasRxItems {
		orderStatus = models.OrderStatusPendingReview
		prescriptionStatus = sql.NullString{String: "Pending", Valid: true}
	}

	orderQuery := `
		INSERT INTO orders (customer_id, order_date, total_amount, status, payment_method,
			shipping_address, shipping_city, shipping_state, shipping_pincode,
			requires_prescription, prescription_uploaded, prescription_file_path, prescription_status,
			updated_at)
		VALUES (?, ?, ?, ?, 'Cash on Delivery', ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.Exec(orderQuery,
		customerID, now, total, orderStatus,
		shippingAddress, shippingCity, shippingState, shippingPincode,
		hasRxItems, hasRxItems, prescriptionPath, prescriptionStatus, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create order"})
		return
	}
	orderID, err := result.LastInsertId()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to get new order ID"})
		return
	}

	// 8. --- Create Order Items & Deduct Stock ---
	itemQuery := `
		INSERT INTO order_items (order_id, medicine_id, quantity, unit_price, subtotal, product_type)
		VALUES (?, ?, ?, ?, ?, ?)`
	stockQuery := "UPDATE medicines SET quantity = quantity - ? WHERE medicine_id = ?"

	for _, l := range lines {
		subtotal := round2(l.UnitPrice * float64(l.Quantity))
		if _, err := tx.Exec(itemQuery, orderID, l.MedicineID, l.Quantity, l.UnitPrice, subtotal, l.ProductType); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to save order item"})
			return
		}
		if _, err := tx.Exec(stockQuery, l.Quantity, l.MedicineID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to deduct stock"})
			return
		}
	}

	// 9. --- Status History & Clear Cart ---
	_, err = tx.Exec(
		"INSERT INTO order_status_history (order_id, status, changed_at, notes) VALUES (?, ?, ?, ?)",
		orderID, orderStatus, now, "Order placed by customer")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to record order status"})
		return
	}

	if _, err := tx.Exec("DELETE FROM cart_items WHERE customer_id = ?", customerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to clear cart"})
		return
	}

	// 10. --- Commit & Respond ---
	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":                      "Order placed successfully",
		"order_id":                     orderID,
		"total":                        total,
		"status":                       orderStatus,
		"requires_prescription_review": hasRxItems,
		"estimated_delivery":           "3-5 business days",
	})
}

// GetMyOrders is the handler for GET /api/customer/orders
func (h *Handlers) GetMyOrders(c *gin.Context) {
	customerID_raw, _ := c.Get("customerID")
	customerID := customerID_raw.(int64)

	query := `
		SELECT o.order_id, o.order_date, o.total_amount, o.status, o.payment_method,
		       o.requires_prescription, o.prescription_status,
		       (SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.order_id)
		FROM orders o
		WHERE o.customer_id = ?
		ORDER BY o.order_date DESC`
	rows, err := h.DB.Query(query, customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error retrieving orders"})
		return
	}
	defer rows.Close()

	result := []gin.H{}
	for rows.Next() {
		var orderID int64
		var orderDate time.Time
		var total float64
		var status, paymentMethod string
		var requiresRx bool
		var prescriptionStatus sql.NullString
		var itemCount int

		if err := rows.Scan(&orderID, &orderDate, &total, &status, &paymentMethod,
			&requiresRx, &prescriptionStatus, &itemCount); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to scan order"})
			return
		}

		entry := gin.H{
			"order_id":              orderID,
			"order_date":            orderDate.Format(time.RFC3339),
			"total_amount":          total,
			"status":                status,
			"payment_method":        paymentMethod,
			"item_count":            itemCount,
			"requires_prescription": requiresRx,
		}
		if prescriptionStatus.Valid {
			entry["prescription_status"] = prescriptionStatus.String
		}
		result = append(result, entry)
	}

	c.JSON(http.StatusOK, result)
}

// GetOrderDetail is the handler for GET /api/customer/orders/:id
func (h *Handlers) GetOrderDetail(c *gin.Context) {
	customerID_raw, _ := c.Get("customerID")
	customerID := customerID_raw.(int64)
	orderID := c.Param("id")

	// 1. --- Fetch Order & Verify Ownership ---
	var o models.Order
	queryOrder := `
		SELECT order_id, customer_id, order_date, total_amount, status, payment_method,
		       shipping_address, shipping_city, shipping_state, shipping_pincode,
		       requires_prescription, prescription_uploaded, prescription_status,
		       staff_notes, updated_at
		FROM orders
		WHERE order_id = ? AND customer_id = ?`
	err := h.DB.QueryRow(queryOrder, orderID, customerID).Scan(
		&o.ID, &o.CustomerID, &o.OrderDate, &o.TotalAmount, &o.Status, &o.PaymentMethod,
		&o.ShippingAddress, &o.ShippingCity, &o.ShippingState, &o.ShippingPincode,
		&o.RequiresPrescription, &o.PrescriptionUploaded, &o.PrescriptionStatus,
		&o.StaffNotes, &o.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error retrieving order"})
		return
	}

	// 2. --- Fetch Order Items with Medicine Details ---
	queryItems := `
		SELECT oi.medicine_id, m.name, co.name, oi.quantity, oi.unit_price, oi.subtotal, oi.product_type
		FROM order_items oi
		JOIN medicines m ON oi.medicine_id = m.medicine_id
		JOIN companies co ON m.company_id = co.company_id
		WHERE oi.order_id = ?`
	rows, err := h.DB.Query(queryItems, o.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error retrieving order items"})
		return
	}
	defer rows.Close()

	items := []gin.H{}
	for rows.Next() {
		var item models.OrderItem
		var name, company string
		if err := rows.Scan(&item.MedicineID, &name, &company, &item.Quantity,
			&item.UnitPrice, &item.Subtotal, &item.ProductType); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to scan order item"})
			return
		}
		items = append(items, gin.H{
			"medicine_id":  item.MedicineID,
			"name":         name,
			"company":      company,
			"quantity":     item.Quantity,
			"unit_price":   item.UnitPrice,
			"subtotal":     item.Subtotal,
			"product_type": item.ProductType,
		})
	}

	// 3. --- Fetch Status History ---
	history, err := h.fetchStatusHistory(o.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error retrieving order history"})
		return
	}

	// 4. --- Return Combined Response ---
	c.JSON(http.StatusOK, gin.H{
		"order_id":              o.ID,
		"order_date":            o.OrderDate.Format(time.RFC3339),
		"total_amount":          o.TotalAmount,
		"status":                o.Status,
		"payment_method":        o.PaymentMethod,
		"shipping_address":      o.ShippingAddress,
		"shipping_city":         o.ShippingCity,
		"shipping_state":        o.ShippingState,
		"shipping_pincode":      o.ShippingPincode,
		"requires_prescription": o.RequiresPrescription,
		"prescription_uploaded": o.PrescriptionUploaded,
		"prescription_status":   o.PrescriptionStatus.String,
		"staff_notes":           o.StaffNotes.String,
		"items":                 items,
		"status_history":        history,
	})
}

func (h *Handlers) fetchStatusHistory(orderID int64) ([]gin.H, error) {
	rows, err := h.DB.Query(
		"SELECT status, changed_at, notes FROM order_status_history WHERE order_id = ? ORDER BY changed_at ASC",
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []gin.H{}
	for rows.Next() {
		var entry models.OrderStatusHistory
		if err := rows.Scan(&entry.Status, &entry.ChangedAt, &entry.Notes); err != nil {
			return nil, err
		}
		history = append(history, gin.H{
			"status":     entry.Status,
			"changed_at": entry.ChangedAt.Format(time.RFC3339),
			"notes":      entry.Notes.String,
		})
	}
	return history, rows.Err()
}

// trackingStage is one row of the tracking timeline.
type trackingStage struct {
	Stage     string `json:"stage"`
	Status    string `json:"status"`
	Completed bool   `json:"completed"`
}

// buildTrackingStages derives the timeline from the order's current status.
// Stage order is fixed; the prescription stage only exists for Rx orders.
func buildTrackingStages(status string, requiresPrescription bool) []trackingStage {
	reached := func(statuses ...string) bool {
		for _, s := range statuses {
			if status == s {
				return true
			}
		}
		return false
	}

	stages := []trackingStage{
		{Stage: "Order Placed", Status: models.OrderStatusPendingReview, Completed: true},
		{Stage: "Prescription Verified", Status: models.OrderStatusApproved,
			Completed: reached(models.OrderStatusApproved, models.OrderStatusProcessing, models.OrderStatusOutForDelivery, models.OrderStatusDelivered)},
		{Stage: "Processing", Status: models.OrderStatusProcessing,
			Completed: reached(models.OrderStatusProcessing, models.OrderStatusOutForDelivery, models.OrderStatusDelivered)},
		{Stage: "Out for Delivery", Status: models.OrderStatusOutForDelivery,
			Completed: reached(models.OrderStatusOutForDelivery, models.OrderStatusDelivered)},
		{Stage: "Delivered", Status: models.OrderStatusDelivered,
			Completed: status == models.OrderStatusDelivered},
	}

	if !requiresPrescription {
		// OTC-only orders never have a verification stage.
		stages = append(stages[:1], stages[2:]...)
	}
	return stages
}

// TrackOrder is the handler for GET /api/customer/orders/:id/track
func (h *Handlers) TrackOrder(c *gin.Context) {
	customerID_raw, _ := c.Get("customerID")
	customerID := customerID_raw.(int64)
	orderID := c.Param("id")

	var id int64
	var status string
	var requiresRx bool
	var orderDate, updatedAt time.Time
	err := h.DB.QueryRow(
		"SELECT order_id, status, requires_prescription, order_date, updated_at FROM orders WHERE order_id = ? AND customer_id = ?",
		orderID, customerID,
	).Scan(&id, &status, &requiresRx, &orderDate, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error tracking order"})
		return
	}

	lastUpdated := updatedAt
	if lastUpdated.IsZero() {
		lastUpdated = orderDate
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":        id,
		"current_status":  status,
		"tracking_stages": buildTrackingStages(status, requiresRx),
		"last_updated":    lastUpdated.Format(time.RFC3339),
	})
}

// CancelOrder is the handler for POST /api/customer/orders/:id/cancel
// Only orders that have not started processing can be cancelled; stock
// is returned to the shelf.
func (h *Handlers) CancelOrder(c *gin.Context) {
	customerID_raw, _ := c.Get("customerID")
	customerID := customerID_raw.(int64)
	orderID := c.Param("id")

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRow(
		"SELECT status FROM orders WHERE order_id = ? AND customer_id = ? FOR UPDATE",
		orderID, customerID,
	).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error retrieving order"})
		return
	}

	if status != models.OrderStatusPendingReview && status != models.OrderStatusApproved {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Order cannot be cancelled at this stage"})
		return
	}

	// Restore stock
	_, err = tx.Exec(`
		UPDATE medicines m
		JOIN order_items oi ON oi.medicine_id = m.medicine_id
		SET m.quantity = m.quantity + oi.quantity
		WHERE oi.order_id = ?`, orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to restore stock"})
		return
	}

	now := time.Now()
	if _, err := tx.Exec("UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ?",
		models.OrderStatusCancelled, now, orderID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to cancel order"})
		return
	}

	if _, err := tx.Exec(
		"INSERT INTO order_status_history (order_id, status, changed_at, notes) VALUES (?, ?, ?, ?)",
		orderID, models.OrderStatusCancelled, now, "Cancelled by customer"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to record cancellation"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled successfully"})
}
