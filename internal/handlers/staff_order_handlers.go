package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medimart/medimart-golang/internal/models"
)

//
// --- Staff Order Handlers (Staff-Only) ---
//

// GetOnlineOrders is the handler for GET /api/staff/orders
// Supports ?status= and ?needs_review=true filters.
func (h *Handlers) GetOnlineOrders(c *gin.Context) {
	query := `
		SELECT o.order_id, cu.name, o.order_date, o.total_amount, o.status,
		       o.requires_prescription, o.prescription_status,
		       (SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.order_id)
		FROM orders o
		JOIN customers cu ON o.customer_id = cu.customer_id`
	args := []interface{}{}
	conditions := []string{}

	if status := c.Query("status"); status != "" {
		conditions = append(conditions, "o.status = ?")
		args = append(args, status)
	}
	if c.Query("needs_review") == "true" {
		conditions = append(conditions, "o.requires_prescription = TRUE AND o.prescription_status = 'Pending'")
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY o.order_date DESC"

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error retrieving orders"})
		return
	}
	defer rows.Close()

	result := []gin.H{}
	for rows.Next() {
		var orderID int64
		var customerName, status string
		var orderDate time.Time
		var total float64
		var requiresRx bool
		var prescriptionStatus sql.NullString
		var itemCount int

		if err := rows.Scan(&orderID, &customerName, &orderDate, &total, &status,
			&requiresRx, &prescriptionStatus, &itemCount); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to scan order"})
			return
		}

		result = append(result, gin.H{
			"order_id":              orderID,
			"customer_name":         customerName,
			"order_date":            orderDate.Format(time.RFC3339),
			"total_amount":          total,
			"status":                status,
			"item_count":            itemCount,
			"requires_prescription": requiresRx,
			"prescription_status":   prescriptionStatus.String,
		})
	}

	c.JSON(http.StatusOK, result)
}

// GetStaffOrderDetail is the handler for GET /api/staff/orders/:id
func (h *Handlers) GetStaffOrderDetail(c *gin.Context) {
	orderID := c.Param("id")

	var o models.Order
	var customerName, customerPhone string
	query := `
		SELECT o.order_id, o.customer_id, cu.name, cu.phone, o.order_date, o.total_amount,
		       o.status, o.payment_method,
		       o.shipping_address, o.shipping_city, o.shipping_state, o.shipping_pincode,
		       o.requires_prescription, o.prescription_uploaded, o.prescription_file_path,
		       o.prescription_status, o.staff_notes, o.updated_at
		FROM orders o
		JOIN customers cu ON o.customer_id = cu.customer_id
		WHERE o.order_id = ?`
	err := h.DB.QueryRow(query, orderID).Scan(
		&o.ID, &o.CustomerID, &customerName, &customerPhone, &o.OrderDate, &o.TotalAmount,
		&o.Status, &o.PaymentMethod,
		&o.ShippingAddress, &o.ShippingCity, &o.ShippingState, &o.ShippingPincode,
		&o.RequiresPrescription, &o.PrescriptionUploaded, &o.PrescriptionFilePath,
		&o.PrescriptionStatus, &o.StaffNotes, &o.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error retrieving order"})
		return
	}

	itemRows, err := h.DB.Query(`
		SELECT oi.medicine_id, m.name, oi.quantity, oi.unit_price, oi.subtotal, oi.product_type
		FROM order_items oi
		JOIN medicines m ON oi.medicine_id = m.medicine_id
		WHERE oi.order_id = ?`, o.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error retrieving order items"})
		return
	}
	defer itemRows.Close()

	items := []gin.H{}
	for itemRows.Next() {
		var medicineID int64
		var name, productType string
		var quantity int
		var unitPrice, subtotal float64
		if err := itemRows.Scan(&medicineID, &name, &quantity, &unitPrice, &subtotal, &productType); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to scan order item"})
			return
		}
		items = append(items, gin.H{
			"medicine_id":  medicineID,
			"name":         name,
			"quantity":     quantity,
			"unit_price":   unitPrice,
			"subtotal":     subtotal,
			"product_type": productType,
		})
	}

	history, err := h.fetchStatusHistory(o.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error retrieving order history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":              o.ID,
		"customer_id":           o.CustomerID,
		"customer_name":         customerName,
		"customer_phone":        customerPhone,
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

// ViewPrescription is the handler for GET /api/staff/orders/:id/prescription
// Streams the uploaded prescription file to the reviewing pharmacist.
func (h *Handlers) ViewPrescription(c *gin.Context) {
	orderID := c.Param("id")

	var filePath sql.NullString
	err := h.DB.QueryRow("SELECT prescription_file_path FROM orders WHERE order_id = ?", orderID).Scan(&filePath)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error retrieving order"})
		return
	}
	if !filePath.Valid || filePath.String == "" {
		c.JSON(http.StatusNotFound, gin.H{"message": "No prescription on file for this order"})
		return
	}

	c.File(filePath.String)
}

// ReviewPrescription is the handler for POST /api/staff/orders/:id/review
// A pharmacist approves or rejects the uploaded prescription. Approval
// moves the order forward; rejection cancels it and restores stock.
func (h *Handlers) ReviewPrescription(c *gin.Context) {
	staffID_raw, _ := c.Get("staffID")
	staffID := staffID_raw.(int64)
	orderID := c.Param("id")

	var input struct {
		Decision string `json:"decision" binding:"required,oneof=approve reject"`
		Notes    string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Decision must be 'approve' or 'reject'"})
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	var status string
	var requiresRx bool
	err = tx.QueryRow(
		"SELECT status, requires_prescription FROM orders WHERE order_id = ? FOR UPDATE",
		orderID,
	).Scan(&status, &requiresRx)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error retrieving order"})
		return
	}

	if !requiresRx {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Order does not require a prescription review"})
		return
	}
	if status != models.OrderStatusPendingReview {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Order is not awaiting review"})
		return
	}

	now := time.Now()
	if input.Decision == "approve" {
		_, err = tx.Exec(`
			UPDATE orders SET status = ?, prescription_status = 'Approved',
				staff_notes = ?, reviewed_by = ?, updated_at = ?
			WHERE order_id = ?`,
			models.OrderStatusApproved, input.Notes, staffID, now, orderID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update order"})
			return
		}
		_, err = tx.Exec(
			"INSERT INTO order_status_history (order_id, status, changed_at, notes) VALUES (?, ?, ?, ?)",
			orderID, models.OrderStatusApproved, now, "Prescription approved by pharmacist")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to record review"})
			return
		}
	} else {
		// Rejection returns the reserved stock.
		_, err = tx.Exec(`
			UPDATE medicines m
			JOIN order_items oi ON oi.medicine_id = m.medicine_id
			SET m.quantity = m.quantity + oi.quantity
			WHERE oi.order_id = ?`, orderID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to restore stock"})
			return
		}
		_, err = tx.Exec(`
			UPDATE orders SET status = ?, prescription_status = 'Rejected',
				staff_notes = ?, reviewed_by = ?, updated_at = ?
			WHERE order_id = ?`,
			models.OrderStatusRejected, input.Notes, staffID, now, orderID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update order"})
			return
		}
		notes := "Prescription rejected by pharmacist"
		if input.Notes != "" {
			notes = "Prescription rejected: " + input.Notes
		}
		_, err = tx.Exec(
			"INSERT INTO order_status_history (order_id, status, changed_at, notes) VALUES (?, ?, ?, ?)",
			orderID, models.OrderStatusRejected, now, notes)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to record review"})
			return
		}
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Prescription review recorded", "decision": input.Decision})
}

// validStatusTransitions lists the statuses a staff member can move an
// order to from each current status.
var validStatusTransitions = map[string][]string{
	models.OrderStatusApproved:       {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing:     {models.OrderStatusOutForDelivery, models.OrderStatusCancelled},
	models.OrderStatusOutForDelivery: {models.OrderStatusDelivered},
}

// UpdateOrderStatus is the handler for PUT /api/staff/orders/:id/status
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	orderID := c.Param("id")

	var input struct {
		Status string `json:"status" binding:"required"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Status is required"})
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRow("SELECT status FROM orders WHERE order_id = ? FOR UPDATE", orderID).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error retrieving order"})
		return
	}

	allowed := false
	for _, next := range validStatusTransitions[current] {
		if next == input.Status {
			allowed = true
			break
		}
	}
	if !allowed {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Invalid status transition from '" + current + "' to '" + input.Status + "'",
		})
		return
	}

	now := time.Now()
	if input.Status == models.OrderStatusCancelled {
		_, err = tx.Exec(`
			UPDATE medicines m
			JOIN order_items oi ON oi.medicine_id = m.medicine_id
			SET m.quantity = m.quantity + oi.quantity
			WHERE oi.order_id = ?`, orderID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to restore stock"})
			return
		}
	}

	if _, err := tx.Exec("UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ?",
		input.Status, now, orderID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update order status"})
		return
	}

	if _, err := tx.Exec(
		"INSERT INTO order_status_history (order_id, status, changed_at, notes) VALUES (?, ?, ?, ?)",
		orderID, input.Status, now, input.Notes); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to record status change"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "status": input.Status})
}
