package storefront

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
)

// ErrOrderNotFound distinguishes a missing order from other failures so
// the caller can render an empty state instead of an error.
var ErrOrderNotFound = errors.New("order not found")

// OrderPlacementResult is the server's confirmation of a placed order.
// It is carried forward by the wizard, never refetched.
type OrderPlacementResult struct {
	Message                    string  `json:"message"`
	OrderID                    int64   `json:"order_id"`
	Total                      float64 `json:"total"`
	Status                     string  `json:"status"`
	RequiresPrescriptionReview bool    `json:"requires_prescription_review"`
	EstimatedDelivery          string  `json:"estimated_delivery"`
}

// PlaceOrder builds one multipart request with the shipping fields and,
// when present, the prescription file, and posts it. Exactly one
// network call; on failure nothing is retried and no state changes.
func (c *Client) PlaceOrder(shipping ShippingDetails, prescription *PrescriptionFile) (*OrderPlacementResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"shipping_address": shipping.Address,
		"shipping_city":    shipping.City,
		"shipping_state":   shipping.State,
		"shipping_pincode": shipping.Pincode,
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, err
		}
	}

	if prescription != nil {
		part, err := writer.CreateFormFile("prescription", prescription.Filename)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(prescription.Data); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	var result OrderPlacementResult
	err := c.PostMultipart("/customer/orders/place", writer.FormDataContentType(), &body, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// TrackingStage is one entry of the tracking timeline, kept exactly in
// the order the server sent it.
type TrackingStage struct {
	Stage     string `json:"stage"`
	Status    string `json:"status"`
	Completed bool   `json:"completed"`
}

// TrackingSnapshot is one point-in-time view of an order's progress.
type TrackingSnapshot struct {
	OrderID       int64           `json:"order_id"`
	CurrentStatus string          `json:"current_status"`
	Stages        []TrackingStage `json:"tracking_stages"`
	LastUpdated   string          `json:"last_updated"`
}

// FetchTracking retrieves the tracking timeline for one order. A 404
// maps to ErrOrderNotFound.
func (c *Client) FetchTracking(orderID int64) (*TrackingSnapshot, error) {
	var snapshot TrackingSnapshot
	err := c.Get(fmt.Sprintf("/customer/orders/%d/track", orderID), &snapshot)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == 404 {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &snapshot, nil
}

// OrderSummary is one row of the order history list.
type OrderSummary struct {
	OrderID              int64   `json:"order_id"`
	OrderDate            string  `json:"order_date"`
	TotalAmount          float64 `json:"total_amount"`
	Status               string  `json:"status"`
	ItemCount            int     `json:"item_count"`
	RequiresPrescription bool    `json:"requires_prescription"`
	PrescriptionStatus   string  `json:"prescription_status"`
}

// ListOrders retrieves the customer's order history, newest first.
func (c *Client) ListOrders() ([]OrderSummary, error) {
	var orders []OrderSummary
	if err := c.Get("/customer/orders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CancelOrder asks the server to cancel an order. Whether that is
// allowed depends on the order's status; the server decides.
func (c *Client) CancelOrder(orderID int64) error {
	return c.Post(fmt.Sprintf("/customer/orders/%d/cancel", orderID), nil, nil)
}
