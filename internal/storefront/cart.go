package storefront

import (
	"errors"
	"fmt"
)

// ErrQuantityTooLow is returned by UpdateQuantity for quantities below
// one, before any request is made.
var ErrQuantityTooLow = errors.New("quantity must be at least 1")

// CartLine is one row of the cart as the server reports it.
type CartLine struct {
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
}

// CartSnapshot is the server's authoritative view of the cart. The
// total and the prescription flag are never recomputed locally;
// whatever the latest snapshot says, wins.
type CartSnapshot struct {
	Items                []CartLine `json:"cart_items"`
	Total                float64    `json:"total"`
	ItemCount            int        `json:"item_count"`
	RequiresPrescription bool       `json:"requires_prescription"`
}

// Empty reports whether the cart has no lines.
func (s *CartSnapshot) Empty() bool {
	return len(s.Items) == 0
}

// FetchCart retrieves the current cart snapshot.
func (c *Client) FetchCart() (*CartSnapshot, error) {
	var snapshot CartSnapshot
	if err := c.Get("/customer/cart", &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// UpdateQuantity sets a cart line to the given quantity and returns the
// refreshed snapshot. Quantities below one are rejected here, locally,
// and no request is made; removal is a separate action.
func (c *Client) UpdateQuantity(cartItemID int64, quantity int) (*CartSnapshot, error) {
	if quantity < 1 {
		return nil, ErrQuantityTooLow
	}
	path := fmt.Sprintf("/customer/cart/update/%d", cartItemID)
	if err := c.Put(path, map[string]int{"quantity": quantity}, nil); err != nil {
		return nil, err
	}
	// Mutation then re-fetch. The server computes totals.
	return c.FetchCart()
}

// RemoveItem deletes a cart line and returns the refreshed snapshot.
func (c *Client) RemoveItem(cartItemID int64) (*CartSnapshot, error) {
	path := fmt.Sprintf("/customer/cart/remove/%d", cartItemID)
	if err := c.Delete(path, nil); err != nil {
		return nil, err
	}
	return c.FetchCart()
}

// AddToCart adds a medicine to the cart and returns the refreshed
// snapshot.
func (c *Client) AddToCart(medicineID int64, quantity int) (*CartSnapshot, error) {
	if quantity < 1 {
		return nil, ErrQuantityTooLow
	}
	err := c.Post("/customer/cart/add", map[string]int64{
		"medicine_id": medicineID,
		"quantity":    int64(quantity),
	}, nil)
	if err != nil {
		return nil, err
	}
	return c.FetchCart()
}

// ClearCart removes every line from the cart and returns the refreshed
// snapshot.
func (c *Client) ClearCart() (*CartSnapshot, error) {
	if err := c.Delete("/customer/cart/clear", nil); err != nil {
		return nil, err
	}
	return c.FetchCart()
}
