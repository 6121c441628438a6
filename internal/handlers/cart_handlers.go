package handlers

import (
	"database/sql"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medimart/medimart-golang/internal/models"
)

//
// --- Cart Handlers (Customer-Only) ---
//

// CartItemResponse is the wire shape of one cart line. The totals and the
// requires_prescription flag on the envelope are always computed here, never
// by the client, so price drift between the two sides is impossible.
type CartItemResponse struct {
	CartItemID           int64   `json:"cart_item_id"`
	MedicineID           int64   `json:"medicine_id"`
	Name                 string  `json:"name"`
	Company              string  `json:"company"`
	Price                float64 `json:"price"`
	Quantity             int     `json:"quantity"`
	Subtotal             float64 `json:"subtotal"`
	ProductType          string  `json:"product_type"`
	RequiresPrescription bool    `json:"requires_prescription"`
	ImageURL             string  `json:"image_url"`
	InStock              bool    `json:"in_stock"`
	AvailableQuantity    int     `json:"available_quantity"`
	AddedAt              string  `json:"added_at"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// GetCart is the handler for GET /api/customer/cart
func (h *Handlers) GetCart(c *gin.Context) {
	// 1. --- Get Customer ID ---
	customerID_raw, _ := c.Get("customerID")
	customerID := customerID_raw.(int64)

	// 2. --- Query Cart Items + Medicine Details ---
	query := `
		SELECT ci.cart_item_id, ci.medicine_id, m.name, co.name, m.price, ci.quantity,
		       m.product_type, m.image_url, m.quantity, m.exp_date, ci.added_at
		FROM cart_items ci
		JOIN medicines m ON ci.medicine_id = m.medicine_id
		JOIN companies co ON m.company_id = co.company_id
		WHERE ci.customer_id = ?`
	rows, err := h.DB.Query(query, customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error retrieving cart"})
		return
	}
	defer rows.Close()

	// 3. --- Scan Rows and Compute Totals ---
	items := []CartItemResponse{}
	var total float64
	hasRxItems := false

	for rows.Next() {
		var item CartItemResponse
		var imageURL sql.NullString
		var stock int
		var expDate, addedAt time.Time

		if err := rows.Scan(
			&item.CartItemID, &item.MedicineID, &item.Name, &item.Company,
			&item.Price, &item.Quantity, &item.ProductType, &imageURL,
			&stock, &expDate, &addedAt,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to scan cart item"})
			return
		}

		item.Subtotal = round2(item.Price * float64(item.Quantity))
		item.RequiresPrescription = item.ProductType == "Rx"
		item.ImageURL = imageURL.String
		if item.ImageURL == "" {
			item.ImageURL = medicinePlaceholderImage
		}
		// A line is in stock only if the requested quantity is still
		// coverable and the batch has not expired.
		item.InStock = stock >= item.Quantity && expDate.After(time.Now())
		item.AvailableQuantity = stock
		item.AddedAt = addedAt.Format(time.RFC3339)

		total += item.Subtotal
		if item.ProductType == "Rx" {
			hasRxItems = true
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error iterating cart items"})
		return
	}

	// 4. --- Send Snapshot ---
	c.JSON(http.StatusOK, gin.H{
		"cart_items":            items,
		"total":                 round2(total),
		"item_count":            len(items),
		"requires_prescription": hasRxItems,
	})
}

// AddToCartInput defines the JSON for adding an item to the cart.
type AddToCartInput struct {
	MedicineID int64 `json:"medicine_id" binding:"required"`
	Quantity   int   `json:"quantity" binding:"required,gt=0"`
}

// AddToCart is the handler for POST /api/customer/cart/add
func (h *Handlers) AddToCart(c *gin.Context) {
	customerID_raw, _ := c.Get("customerID")
	customerID := customerID_raw.(int64)

	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Medicine ID and quantity required"})
		return
	}

	// 1. --- Check Medicine Exists and Is Sellable ---
	var stock int
	var expDate time.Time
	err := h.DB.QueryRow("SELECT quantity, exp_date FROM medicines WHERE medicine_id = ?", input.MedicineID).
		Scan(&stock, &expDate)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"message": "Medicine not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}
	if !expDate.After(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Medicine has expired"})
		return
	}
	if stock < input.Quantity {
		c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Only %d units available", stock)})
		return
	}

	// 2. --- Upsert the Cart Line ---
	// If the item is already in the cart we add to its quantity, but the
	// combined quantity still has to fit inside the available stock.
	var existing models.CartItem
	err = h.DB.QueryRow(
		"SELECT cart_item_id, quantity FROM cart_items WHERE customer_id = ? AND medicine_id = ?",
		customerID, input.MedicineID,
	).Scan(&existing.ID, &existing.Quantity)

	if err == nil {
		newQuantity := existing.Quantity + input.Quantity
		if stock < newQuantity {
			c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Only %d units available", stock)})
			return
		}
		_, err = h.DB.Exec("UPDATE cart_items SET quantity = ? WHERE cart_item_id = ?", newQuantity, existing.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Error adding to cart"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":      "Cart updated successfully",
			"cart_item_id": existing.ID,
			"quantity":     newQuantity,
		})
		return
	}
	if err != sql.ErrNoRows {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	result, err := h.DB.Exec(
		"INSERT INTO cart_items (customer_id, medicine_id, quantity, added_at) VALUES (?, ?, ?, ?)",
		customerID, input.MedicineID, input.Quantity, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error adding to cart"})
		return
	}
	newID, _ := result.LastInsertId()

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Item added to cart",
		"cart_item_id": newID,
	})
}

// UpdateCartItemInput defines the JSON for updating an item's quantity.
type UpdateCartItemInput struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// UpdateCartItem is the handler for PUT /api/customer/cart/update/:id
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	// 1. --- Get IDs ---
	customerID_raw, _ := c.Get("customerID")
	customerID := customerID_raw.(int64)
	cartItemID := c.Param("id")

	// 2. --- Bind & Validate JSON ---
	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Quantity must be greater than 0"})
		return
	}

	// 3. --- Find the Cart Line (ownership check included) ---
	var medicineID int64
	err := h.DB.QueryRow(
		"SELECT medicine_id FROM cart_items WHERE cart_item_id = ? AND customer_id = ?",
		cartItemID, customerID,
	).Scan(&medicineID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"message": "Cart item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	// 4. --- Check Stock ---
	var stock int
	if err := h.DB.QueryRow("SELECT quantity FROM medicines WHERE medicine_id = ?", medicineID).Scan(&stock); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}
	if stock < input.Quantity {
		c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Only %d units available", stock)})
		return
	}

	// 5. --- Execute Update ---
	_, err = h.DB.Exec("UPDATE cart_items SET quantity = ? WHERE cart_item_id = ?", input.Quantity, cartItemID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Cart updated successfully",
		"quantity": input.Quantity,
	})
}

// RemoveFromCart is the handler for DELETE /api/customer/cart/remove/:id
func (h *Handlers) RemoveFromCart(c *gin.Context) {
	customerID_raw, _ := c.Get("customerID")
	customerID := customerID_raw.(int64)
	cartItemID := c.Param("id")

	result, err := h.DB.Exec(
		"DELETE FROM cart_items WHERE cart_item_id = ? AND customer_id = ?",
		cartItemID, customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error removing item"})
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Cart item not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

// ClearCart is the handler for DELETE /api/customer/cart/clear
func (h *Handlers) ClearCart(c *gin.Context) {
	customerID_raw, _ := c.Get("customerID")
	customerID := customerID_raw.(int64)

	_, err := h.DB.Exec("DELETE FROM cart_items WHERE customer_id = ?", customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error clearing cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared successfully"})
}

// GetCartCount is the handler for GET /api/customer/cart/count
func (h *Handlers) GetCartCount(c *gin.Context) {
	customerID_raw, _ := c.Get("customerID")
	customerID := customerID_raw.(int64)

	var count int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM cart_items WHERE customer_id = ?", customerID).Scan(&count); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error getting cart count"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
