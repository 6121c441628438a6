package models

import "time"

// CartItem defines the struct for the 'cart_items' table.
// Carts are per-customer: there is no separate carts table, the
// customer_id on each row IS the cart.
type CartItem struct {
	ID         int64     `json:"cart_item_id" db:"cart_item_id"`
	CustomerID int64     `json:"customer_id" db:"customer_id"`
	MedicineID int64     `json:"medicine_id" db:"medicine_id"`
	Quantity   int       `json:"quantity" db:"quantity"`
	AddedAt    time.Time `json:"added_at" db:"added_at"`
}
