package models

import (
	"database/sql"
	"time"
)

// Order status values walk through the fulfilment pipeline:
// 'Pending Review' -> 'Approved' -> 'Processing' -> 'Out for Delivery' -> 'Delivered'
// plus the terminal side exits 'Rejected' and 'Cancelled'.
// Orders without Rx items skip review and start at 'Processing'.
const (
	OrderStatusPendingReview  = "Pending Review"
	OrderStatusApproved       = "Approved"
	OrderStatusProcessing     = "Processing"
	OrderStatusOutForDelivery = "Out for Delivery"
	OrderStatusDelivered      = "Delivered"
	OrderStatusRejected       = "Rejected"
	OrderStatusCancelled      = "Cancelled"
)

// Order is the model for the 'orders' table
type Order struct {
	ID          int64     `json:"order_id" db:"order_id"`
	CustomerID  int64     `json:"customer_id" db:"customer_id"`
	OrderDate   time.Time `json:"order_date" db:"order_date"`
	TotalAmount float64   `json:"total_amount" db:"total_amount"`
	Status      string    `json:"status" db:"status"`

	PaymentMethod string `json:"payment_method" db:"payment_method"`

	// --- Shipping Address (snapshot at order time) ---
	ShippingAddress string  `json:"shipping_address" db:"shipping_address"`
	ShippingCity    *string `json:"shipping_city,omitempty" db:"shipping_city"`
	ShippingState   *string `json:"shipping_state,omitempty" db:"shipping_state"`
	ShippingPincode *string `json:"shipping_pincode,omitempty" db:"shipping_pincode"`

	// --- Prescription Gate ---
	RequiresPrescription bool           `json:"requires_prescription" db:"requires_prescription"`
	PrescriptionUploaded bool           `json:"prescription_uploaded" db:"prescription_uploaded"`
	PrescriptionFilePath sql.NullString `json:"-" db:"prescription_file_path"`
	PrescriptionStatus   sql.NullString `json:"prescription_status,omitempty" db:"prescription_status"` // 'Pending', 'Approved', 'Rejected'

	// --- Staff Review ---
	StaffNotes sql.NullString `json:"staff_notes,omitempty" db:"staff_notes"`
	ReviewedBy sql.NullInt64  `json:"-" db:"reviewed_by"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// OrderItem is the model for the 'order_items' table
type OrderItem struct {
	ID         int64   `json:"order_item_id" db:"order_item_id"`
	OrderID    int64   `json:"order_id" db:"order_id"`
	MedicineID int64   `json:"medicine_id" db:"medicine_id"`
	Quantity   int     `json:"quantity" db:"quantity"`
	UnitPrice  float64 `json:"unit_price" db:"unit_price"` // Price at the time of purchase
	Subtotal   float64 `json:"subtotal" db:"subtotal"`
	// 'OTC' or 'Rx', snapshot at time of order (the medicine row may change later)
	ProductType string `json:"product_type" db:"product_type"`
}

// OrderStatusHistory is the model for the 'order_status_history' table
type OrderStatusHistory struct {
	ID        int64          `json:"history_id" db:"history_id"`
	OrderID   int64          `json:"order_id" db:"order_id"`
	Status    string         `json:"status" db:"status"`
	ChangedBy sql.NullInt64  `json:"-" db:"changed_by"`
	ChangedAt time.Time      `json:"changed_at" db:"changed_at"`
	Notes     sql.NullString `json:"notes,omitempty" db:"notes"`
}
