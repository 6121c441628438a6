package storefront

import "encoding/json"

// ChatComponent is an interactive hint attached to an assistant reply;
// the UI decides how each type renders.
type ChatComponent struct {
	Type     string          `json:"type"`
	Products json.RawMessage `json:"products,omitempty"`
	Actions  []string        `json:"actions,omitempty"`
	Accept   string          `json:"accept,omitempty"`
	MaxSize  int             `json:"max_size,omitempty"`
	Endpoint string          `json:"endpoint,omitempty"`
}

// ChatProduct is a product card inside an assistant reply.
type ChatProduct struct {
	MedicineID           int64   `json:"medicine_id"`
	Name                 string  `json:"name"`
	Price                float64 `json:"price"`
	Quantity             int     `json:"quantity"`
	RequiresPrescription bool    `json:"requires_prescription"`
}

// ChatCart is the assistant's cart summary. It is shaped differently
// from the cart endpoint's snapshot, so it gets its own type.
type ChatCart struct {
	Items []struct {
		MedicineName string  `json:"medicine_name"`
		Quantity     int     `json:"quantity"`
		Subtotal     float64 `json:"subtotal"`
	} `json:"items"`
	Total                float64 `json:"total"`
	ItemCount            int     `json:"item_count"`
	RequiresPrescription bool    `json:"requires_prescription"`
}

// ChatResponse is one assistant reply.
type ChatResponse struct {
	Answer             string            `json:"answer"`
	Intent             string            `json:"intent"`
	Entity             string            `json:"entity"`
	RequiresAuth       bool              `json:"requires_auth"`
	RequiresFileUpload bool              `json:"requires_file_upload"`
	Components         []ChatComponent   `json:"interactive_components"`
	Products           []ChatProduct     `json:"products"`
	Cart               *ChatCart         `json:"cart"`
	Tracking           *TrackingSnapshot `json:"tracking"`
}

const chatFallbackAnswer = "Sorry, I'm having trouble responding right now. Please try again in a moment."

// SendQuery relays one message to the chat assistant. It never returns
// an error: any transport or server failure collapses into a single
// generic fallback reply, so the conversation always gets exactly one
// entry.
func (c *Client) SendQuery(text string) *ChatResponse {
	payload := map[string]interface{}{"query": text}
	if token := c.Session.Token(); token != "" {
		payload["token"] = token
	}
	if profile := c.Session.Customer(); profile != nil {
		payload["customer_id"] = profile.CustomerID
	}

	var response ChatResponse
	if err := c.Post("/chat/query", payload, &response); err != nil {
		return &ChatResponse{Answer: chatFallbackAnswer}
	}
	return &response
}
