package chatbot

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// MaxPrescriptionUploadBytes is advertised to the client in the
// file_upload interactive component.
const MaxPrescriptionUploadBytes = 5242880

// Component is an interactive UI hint attached to a chat response.
// The client decides how to render each type.
type Component struct {
	Type     string           `json:"type"`
	Products []Product        `json:"products,omitempty"`
	Actions  []string         `json:"actions,omitempty"`
	Cart     *CartSummary     `json:"cart,omitempty"`
	Tracking *TrackingSummary `json:"tracking_data,omitempty"`
	Accept   string           `json:"accept,omitempty"`
	MaxSize  int              `json:"max_size,omitempty"`
	Endpoint string           `json:"endpoint,omitempty"`
}

// Response is the full payload returned for a chat query.
type Response struct {
	Answer             string           `json:"answer"`
	Intent             string           `json:"intent"`
	Entity             string           `json:"entity,omitempty"`
	RequiresAuth       bool             `json:"requires_auth"`
	RequiresFileUpload bool             `json:"requires_file_upload"`
	Components         []Component      `json:"interactive_components"`
	Products           []Product        `json:"products,omitempty"`
	Cart               *CartSummary     `json:"cart,omitempty"`
	Tracking           *TrackingSummary `json:"tracking,omitempty"`
	Orders             []OrderSummary   `json:"orders,omitempty"`
	Fallback           bool             `json:"fallback,omitempty"`
}

// Service holds the database connection and an optional Gemini client
// used for free-form drug information queries.
type Service struct {
	DB     *sql.DB
	Gemini *genai.Client
}

// NewService initializes the chat service. The Gemini client is
// optional; with an empty API key the service answers drug information
// queries with a static safety message instead.
func NewService(db *sql.DB, geminiAPIKey string) (*Service, error) {
	s := &Service{DB: db}
	if geminiAPIKey != "" {
		client, err := genai.NewClient(context.Background(), option.WithAPIKey(geminiAPIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		s.Gemini = client
	}
	return s, nil
}

// Respond handles one chat query. customerID is 0 for anonymous
// shoppers; intents that need an account come back with requires_auth
// set instead of an error.
func (s *Service) Respond(ctx context.Context, query string, customerID int64) *Response {
	intent, entity := DetectIntent(query)

	resp := &Response{
		Intent:     intent,
		Entity:     entity,
		Components: []Component{},
	}

	switch intent {
	case IntentGreeting:
		name := ""
		if customerID != 0 {
			name = s.getCustomerName(customerID)
		}
		resp.Answer = formatGreetingResponse(name)

	case IntentHelp:
		resp.Answer = formatHelpResponse()

	case IntentSearchProduct:
		if entity == "" {
			resp.Answer = "What medicine are you looking for?"
			break
		}
		products, err := s.searchProducts(entity)
		if err != nil {
			resp.Answer = formatErrorResponse(err.Error())
			break
		}
		resp.Answer = formatProductResponse(products)
		resp.Products = products
		if len(products) > 0 {
			resp.Components = append(resp.Components, Component{Type: "product_card", Products: products})
		}

	case IntentAddToCart:
		if customerID == 0 {
			resp.Answer = formatAuthRequiredResponse("add items to your cart")
			resp.RequiresAuth = true
			break
		}
		if entity == "" {
			resp.Answer = "Which product would you like to add to your cart? Please specify the product name."
			break
		}
		products, err := s.searchProducts(entity)
		if err != nil || len(products) == 0 {
			resp.Answer = fmt.Sprintf("I couldn't find '%s' in our catalog. Please check the spelling or try a different name.", entity)
			break
		}
		message, err := s.addToCart(customerID, products[0].MedicineID, 1)
		if err != nil {
			resp.Answer = formatErrorResponse(err.Error())
			break
		}
		cart, cartErr := s.getCart(customerID)
		if cartErr == nil {
			resp.Answer = fmt.Sprintf("%s\n\nYour cart total is now ₹%.2f.", message, cart.Total)
			resp.Cart = cart
		} else {
			resp.Answer = message
		}
		resp.Components = append(resp.Components, Component{
			Type:    "cart_actions",
			Actions: []string{"view_cart", "continue_shopping", "checkout"},
		})

	case IntentViewCart:
		if customerID == 0 {
			resp.Answer = formatAuthRequiredResponse("view your cart")
			resp.RequiresAuth = true
			break
		}
		cart, err := s.getCart(customerID)
		if err != nil {
			resp.Answer = formatErrorResponse(err.Error())
			break
		}
		resp.Answer = formatCartResponse(cart)
		resp.Cart = cart
		if len(cart.Items) > 0 {
			resp.Components = append(resp.Components, Component{Type: "cart_summary", Cart: cart})
		}

	case IntentTrackOrder:
		if customerID == 0 {
			resp.Answer = formatAuthRequiredResponse("track your orders")
			resp.RequiresAuth = true
			break
		}
		tracking, err := s.trackLatestOrder(customerID)
		if err != nil {
			resp.Answer = formatErrorResponse(err.Error())
			break
		}
		resp.Answer = formatTrackingResponse(tracking)
		resp.Tracking = tracking
		resp.Components = append(resp.Components, Component{Type: "order_tracking", Tracking: tracking})

	case IntentOrderHistory:
		if customerID == 0 {
			resp.Answer = formatAuthRequiredResponse("view your order history")
			resp.RequiresAuth = true
			break
		}
		orders, err := s.getCustomerOrders(customerID, 10)
		if err != nil {
			resp.Answer = formatErrorResponse(err.Error())
			break
		}
		resp.Answer = formatOrderHistoryResponse(orders)
		resp.Orders = orders
		if len(orders) > 0 {
			resp.Components = append(resp.Components, Component{Type: "order_list"})
		}

	case IntentPrescriptionOrder:
		if customerID == 0 {
			resp.Answer = formatAuthRequiredResponse("order with prescription")
			resp.RequiresAuth = true
			break
		}
		resp.Answer = formatPrescriptionOrderResponse()
		resp.RequiresFileUpload = true
		resp.Components = append(resp.Components, Component{
			Type:     "file_upload",
			Accept:   ".png,.jpg,.jpeg,.pdf",
			MaxSize:  MaxPrescriptionUploadBytes,
			Endpoint: "/api/customer/orders/place",
		})

	case IntentCheckAvailability:
		if entity == "" {
			resp.Answer = "Which medicine would you like to check availability for?"
			break
		}
		products, err := s.searchProducts(entity)
		if err != nil || len(products) == 0 {
			resp.Answer = fmt.Sprintf("I couldn't find '%s' in our catalog. Please check the spelling or try a different name.", entity)
			break
		}
		p := products[0]
		if p.Quantity > 0 {
			resp.Answer = fmt.Sprintf("Yes, **%s** is available! We have %d units in stock at ₹%.2f each.", p.Name, p.Quantity, p.Price)
		} else {
			resp.Answer = fmt.Sprintf("Sorry, **%s** is currently out of stock. Would you like to check similar products?", p.Name)
		}
		resp.Products = []Product{p}

	case IntentProductInfo:
		if entity == "" {
			resp.Answer = "Which product would you like to know more about?"
			break
		}
		products, err := s.searchProducts(entity)
		if err != nil || len(products) == 0 {
			resp.Answer = fmt.Sprintf("I couldn't find information about '%s'. Please check the spelling.", entity)
			break
		}
		p := products[0]
		kind := "Over-the-Counter (OTC)"
		if p.RequiresPrescription {
			kind = "Prescription (Rx)"
		}
		resp.Answer = fmt.Sprintf("**%s**\n\nGeneric Name: %s\nCompany: %s\nPrice: ₹%.2f\nType: %s\nStock: %d units available\n\nWould you like to add it to your cart?",
			p.Name, p.GenericName, p.Company, p.Price, kind, p.Quantity)
		resp.Products = []Product{p}
		resp.Components = append(resp.Components, Component{Type: "product_card", Products: []Product{p}})

	case IntentClearCart:
		if customerID == 0 {
			resp.Answer = formatAuthRequiredResponse("clear your cart")
			resp.RequiresAuth = true
			break
		}
		if err := s.clearCart(customerID); err != nil {
			resp.Answer = formatErrorResponse(err.Error())
			break
		}
		resp.Answer = "✅ Your cart has been cleared successfully! Ready to start fresh?"

	case IntentRemoveFromCart:
		if customerID == 0 {
			resp.Answer = formatAuthRequiredResponse("remove items from cart")
			resp.RequiresAuth = true
			break
		}
		if entity == "" {
			resp.Answer = "Which item would you like to remove from your cart?"
			break
		}
		products, err := s.searchProducts(entity)
		if err != nil || len(products) == 0 {
			resp.Answer = fmt.Sprintf("I couldn't find '%s' in your cart.", entity)
			break
		}
		message, err := s.removeFromCart(customerID, products[0].MedicineID)
		if err != nil {
			resp.Answer = formatErrorResponse(err.Error())
			break
		}
		resp.Answer = "✅ " + message

	case IntentCancelOrder:
		if customerID == 0 {
			resp.Answer = formatAuthRequiredResponse("cancel orders")
			resp.RequiresAuth = true
			break
		}
		message, err := s.cancelLatestOrder(customerID)
		if err != nil {
			resp.Answer = formatErrorResponse(err.Error())
			break
		}
		resp.Answer = "✅ " + message

	case IntentRecommendProducts:
		products, err := s.getRecommendations()
		if err != nil {
			resp.Answer = formatErrorResponse(err.Error())
			break
		}
		resp.Answer = formatProductResponse(products)
		resp.Products = products
		if len(products) > 0 {
			resp.Components = append(resp.Components, Component{Type: "product_card", Products: products})
		}

	case IntentCheckout:
		if customerID == 0 {
			resp.Answer = formatAuthRequiredResponse("checkout")
			resp.RequiresAuth = true
			break
		}
		cart, err := s.getCart(customerID)
		if err != nil || len(cart.Items) == 0 {
			resp.Answer = "Your cart is empty. Would you like to browse our products?"
			break
		}
		answer := fmt.Sprintf("Great! Let me take you to checkout.\n\n**Cart Summary:**\n• %d item(s)\n• Total: ₹%.2f\n\n", cart.ItemCount, cart.Total)
		if cart.RequiresPrescription {
			answer += "⚠️ Your cart contains prescription medicines. You'll need to upload a prescription.\n\n"
		}
		answer += "Click below to proceed to checkout."
		resp.Answer = answer
		resp.Cart = cart
		resp.Components = append(resp.Components, Component{Type: "checkout_button"})

	case IntentDrugInfo:
		resp.Answer = s.drugInfoAnswer(ctx, query)
		resp.Fallback = true

	default:
		resp.Answer = formatUnknownResponse()
	}

	return resp
}

const drugInfoDisclaimer = "For detailed medical information about medicines (dosage, side effects, interactions), please consult our pharmacist or refer to the product information leaflet.\n\n⚠️ **Important**: I cannot provide medical advice. Always consult a healthcare professional."

// drugInfoAnswer asks Gemini for general medicine information when a
// client is configured, always appending the safety disclaimer. Any
// failure falls back to the static message.
func (s *Service) drugInfoAnswer(ctx context.Context, query string) string {
	if s.Gemini == nil {
		return drugInfoDisclaimer
	}

	model := s.Gemini.GenerativeModel("gemini-1.5-flash")
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(
			"You are a pharmacy assistant. Answer general questions about medicines briefly and factually. " +
				"Never give personal medical advice or dosing recommendations. " +
				"Always tell the user to consult a pharmacist or doctor.")},
	}

	res, err := model.GenerateContent(ctx, genai.Text(query))
	if err != nil {
		log.Printf("Gemini drug info error: %v", err)
		return drugInfoDisclaimer
	}
	if len(res.Candidates) == 0 || len(res.Candidates[0].Content.Parts) == 0 {
		return drugInfoDisclaimer
	}
	return fmt.Sprintf("%v", res.Candidates[0].Content.Parts[0]) + "\n\n" + drugInfoDisclaimer
}
