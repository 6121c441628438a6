package chatbot

import (
	"database/sql"
	"fmt"
	"math"
	"time"
)

// Product is a catalog entry as the assistant reports it.
type Product struct {
	MedicineID           int64   `json:"medicine_id"`
	Name                 string  `json:"name"`
	GenericName          string  `json:"generic_name"`
	Company              string  `json:"company"`
	Price                float64 `json:"price"`
	Quantity             int     `json:"quantity"`
	RequiresPrescription bool    `json:"requires_prescription"`
	MedicineType         string  `json:"medicine_type"`
}

// CartSummary mirrors the cart endpoint's shape so the client can
// render the same cart widget from a chat response.
type CartSummary struct {
	Items                []CartLine `json:"items"`
	Total                float64    `json:"total"`
	ItemCount            int        `json:"item_count"`
	RequiresPrescription bool       `json:"requires_prescription"`
}

type CartLine struct {
	CartItemID           int64   `json:"cart_item_id"`
	MedicineID           int64   `json:"medicine_id"`
	MedicineName         string  `json:"medicine_name"`
	Quantity             int     `json:"quantity"`
	Price                float64 `json:"price"`
	Subtotal             float64 `json:"subtotal"`
	RequiresPrescription bool    `json:"requires_prescription"`
}

// TrackingSummary is the assistant's view of an order's progress.
type TrackingSummary struct {
	OrderID            int64           `json:"order_id"`
	CurrentStatus      string          `json:"current_status"`
	Stages             []TrackingStage `json:"tracking_stages"`
	PrescriptionStatus string          `json:"prescription_status,omitempty"`
}

type TrackingStage struct {
	Stage     string `json:"stage"`
	Completed bool   `json:"completed"`
}

type OrderSummary struct {
	OrderID     int64   `json:"order_id"`
	OrderDate   string  `json:"order_date"`
	TotalAmount float64 `json:"total_amount"`
	Status      string  `json:"status"`
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

//
// --- DB-backed tools ---
//

func (s *Service) searchProducts(query string) ([]Product, error) {
	rows, err := s.DB.Query(`
		SELECT m.medicine_id, m.name, COALESCE(m.generic_name, m.name), co.name,
		       m.price, m.quantity, m.product_type
		FROM medicines m
		JOIN companies co ON m.company_id = co.company_id
		WHERE m.name LIKE ? AND m.exp_date > NOW()
		LIMIT 10`, "%"+query+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.MedicineID, &p.Name, &p.GenericName, &p.Company,
			&p.Price, &p.Quantity, &p.MedicineType); err != nil {
			return nil, err
		}
		p.RequiresPrescription = p.MedicineType == "Rx"
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Service) getCart(customerID int64) (*CartSummary, error) {
	rows, err := s.DB.Query(`
		SELECT ci.cart_item_id, ci.medicine_id, m.name, ci.quantity, m.price, m.product_type
		FROM cart_items ci
		JOIN medicines m ON ci.medicine_id = m.medicine_id
		WHERE ci.customer_id = ?`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := &CartSummary{Items: []CartLine{}}
	for rows.Next() {
		var line CartLine
		var productType string
		if err := rows.Scan(&line.CartItemID, &line.MedicineID, &line.MedicineName,
			&line.Quantity, &line.Price, &productType); err != nil {
			return nil, err
		}
		line.Subtotal = roundMoney(line.Price * float64(line.Quantity))
		line.RequiresPrescription = productType == "Rx"
		if line.RequiresPrescription {
			summary.RequiresPrescription = true
		}
		summary.Total += line.Subtotal
		summary.ItemCount += line.Quantity
		summary.Items = append(summary.Items, line)
	}
	summary.Total = roundMoney(summary.Total)
	return summary, rows.Err()
}

func (s *Service) addToCart(customerID, medicineID int64, quantity int) (string, error) {
	var name string
	var stock int
	err := s.DB.QueryRow("SELECT name, quantity FROM medicines WHERE medicine_id = ?", medicineID).Scan(&name, &stock)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("Medicine not found")
		}
		return "", err
	}
	if stock < quantity {
		return "", fmt.Errorf("Only %d units available", stock)
	}

	var cartItemID int64
	var existing int
	err = s.DB.QueryRow(
		"SELECT cart_item_id, quantity FROM cart_items WHERE customer_id = ? AND medicine_id = ?",
		customerID, medicineID,
	).Scan(&cartItemID, &existing)

	switch {
	case err == sql.ErrNoRows:
		_, err = s.DB.Exec(
			"INSERT INTO cart_items (customer_id, medicine_id, quantity, added_at) VALUES (?, ?, ?, ?)",
			customerID, medicineID, quantity, time.Now())
	case err == nil:
		if stock < existing+quantity {
			return "", fmt.Errorf("Only %d units available", stock)
		}
		_, err = s.DB.Exec(
			"UPDATE cart_items SET quantity = ? WHERE cart_item_id = ?",
			existing+quantity, cartItemID)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Added **%s** to your cart!", name), nil
}

func (s *Service) removeFromCart(customerID, medicineID int64) (string, error) {
	var name string
	if err := s.DB.QueryRow("SELECT name FROM medicines WHERE medicine_id = ?", medicineID).Scan(&name); err != nil {
		return "", err
	}
	result, err := s.DB.Exec(
		"DELETE FROM cart_items WHERE customer_id = ? AND medicine_id = ?",
		customerID, medicineID)
	if err != nil {
		return "", err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return "", fmt.Errorf("%s is not in your cart", name)
	}
	return fmt.Sprintf("Removed %s from your cart.", name), nil
}

func (s *Service) clearCart(customerID int64) error {
	_, err := s.DB.Exec("DELETE FROM cart_items WHERE customer_id = ?", customerID)
	return err
}

func (s *Service) getCustomerName(customerID int64) string {
	var name string
	if err := s.DB.QueryRow("SELECT name FROM customers WHERE customer_id = ?", customerID).Scan(&name); err != nil {
		return ""
	}
	return name
}

func (s *Service) getCustomerOrders(customerID int64, limit int) ([]OrderSummary, error) {
	rows, err := s.DB.Query(`
		SELECT order_id, order_date, total_amount, status
		FROM orders
		WHERE customer_id = ?
		ORDER BY order_date DESC
		LIMIT ?`, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []OrderSummary{}
	for rows.Next() {
		var o OrderSummary
		var orderDate time.Time
		if err := rows.Scan(&o.OrderID, &orderDate, &o.TotalAmount, &o.Status); err != nil {
			return nil, err
		}
		o.OrderDate = orderDate.Format("2006-01-02")
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// trackLatestOrder reports on the customer's most recent order.
func (s *Service) trackLatestOrder(customerID int64) (*TrackingSummary, error) {
	var t TrackingSummary
	var requiresRx bool
	var prescriptionStatus sql.NullString
	err := s.DB.QueryRow(`
		SELECT order_id, status, requires_prescription, prescription_status
		FROM orders
		WHERE customer_id = ?
		ORDER BY order_date DESC
		LIMIT 1`, customerID,
	).Scan(&t.OrderID, &t.CurrentStatus, &requiresRx, &prescriptionStatus)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("You don't have any orders yet")
		}
		return nil, err
	}
	t.PrescriptionStatus = prescriptionStatus.String

	reached := func(statuses ...string) bool {
		for _, st := range statuses {
			if t.CurrentStatus == st {
				return true
			}
		}
		return false
	}
	t.Stages = []TrackingStage{
		{Stage: "Order Placed", Completed: true},
		{Stage: "Prescription Verified", Completed: reached("Approved", "Processing", "Out for Delivery", "Delivered")},
		{Stage: "Processing", Completed: reached("Processing", "Out for Delivery", "Delivered")},
		{Stage: "Out for Delivery", Completed: reached("Out for Delivery", "Delivered")},
		{Stage: "Delivered", Completed: t.CurrentStatus == "Delivered"},
	}
	if !requiresRx {
		t.Stages = append(t.Stages[:1], t.Stages[2:]...)
	}
	return &t, nil
}

func (s *Service) cancelLatestOrder(customerID int64) (string, error) {
	orders, err := s.getCustomerOrders(customerID, 1)
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		return "", fmt.Errorf("You don't have any orders to cancel")
	}
	order := orders[0]
	if order.Status != "Pending Review" && order.Status != "Approved" {
		return "", fmt.Errorf("Order #%d cannot be cancelled at this stage", order.OrderID)
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE medicines m
		JOIN order_items oi ON oi.medicine_id = m.medicine_id
		SET m.quantity = m.quantity + oi.quantity
		WHERE oi.order_id = ?`, order.OrderID)
	if err != nil {
		return "", err
	}
	now := time.Now()
	if _, err := tx.Exec("UPDATE orders SET status = 'Cancelled', updated_at = ? WHERE order_id = ?",
		now, order.OrderID); err != nil {
		return "", err
	}
	if _, err := tx.Exec(
		"INSERT INTO order_status_history (order_id, status, changed_at, notes) VALUES (?, 'Cancelled', ?, ?)",
		order.OrderID, now, "Cancelled via chat assistant"); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return fmt.Sprintf("Order #%d has been cancelled.", order.OrderID), nil
}

// getRecommendations returns top in-stock OTC products.
func (s *Service) getRecommendations() ([]Product, error) {
	rows, err := s.DB.Query(`
		SELECT m.medicine_id, m.name, COALESCE(m.generic_name, m.name), co.name,
		       m.price, m.quantity, m.product_type
		FROM medicines m
		JOIN companies co ON m.company_id = co.company_id
		WHERE m.quantity > 0 AND m.product_type = 'OTC' AND m.exp_date > NOW()
		ORDER BY m.quantity DESC
		LIMIT 5`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.MedicineID, &p.Name, &p.GenericName, &p.Company,
			&p.Price, &p.Quantity, &p.MedicineType); err != nil {
			return nil, err
		}
		p.RequiresPrescription = p.MedicineType == "Rx"
		products = append(products, p)
	}
	return products, rows.Err()
}
