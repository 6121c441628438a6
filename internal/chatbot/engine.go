package chatbot

import (
	"fmt"
	"regexp"
	"strings"
)

// Intent names returned by the engine. Exposed in the API response so
// the client can render the right interactive components.
const (
	IntentSearchProduct     = "search_product"
	IntentAddToCart         = "add_to_cart"
	IntentViewCart          = "view_cart"
	IntentTrackOrder        = "track_order"
	IntentOrderHistory      = "order_history"
	IntentPrescriptionOrder = "prescription_order"
	IntentCheckAvailability = "check_availability"
	IntentProductInfo       = "product_info"
	IntentDrugInfo          = "drug_info"
	IntentGreeting          = "greeting"
	IntentHelp              = "help"
	IntentClearCart         = "clear_cart"
	IntentRemoveFromCart    = "remove_from_cart"
	IntentCancelOrder       = "cancel_order"
	IntentRecommendProducts = "recommend_products"
	IntentCheckout          = "checkout"
	IntentUnknown           = "unknown"
)

// intentRule pairs an intent with one of its trigger patterns. Rules are
// checked in order, so more specific intents must come before the
// catch-all search patterns.
type intentRule struct {
	intent  string
	pattern *regexp.Regexp
}

var intentRules = []intentRule{
	{IntentGreeting, regexp.MustCompile(`^(?:hi|hello|hey|good morning|good afternoon|good evening)`)},
	{IntentHelp, regexp.MustCompile(`\b(?:help|what can you do|commands)\b`)},
	{IntentClearCart, regexp.MustCompile(`(?:clear|empty|remove all|delete all)\s+(?:my\s+)?cart`)},
	{IntentRemoveFromCart, regexp.MustCompile(`(?:remove|delete)\s+(.+?)\s+from\s+(?:my\s+)?cart`)},
	{IntentViewCart, regexp.MustCompile(`(?:show|view|check|see)\s+(?:my\s+)?cart|what'?s?\s+in\s+my\s+cart|cart\s+(?:items|contents)`)},
	{IntentAddToCart, regexp.MustCompile(`add\s+(.+?)\s+to\s+(?:my\s+)?cart`)},
	{IntentTrackOrder, regexp.MustCompile(`(?:track|where is|status of)\s+(?:my\s+)?order|order\s+(?:status|tracking)|where'?s?\s+my\s+(?:order|package|delivery)`)},
	{IntentCancelOrder, regexp.MustCompile(`cancel\s+(?:my\s+)?order`)},
	{IntentOrderHistory, regexp.MustCompile(`(?:my\s+)?order\s+history|(?:previous|past|old)\s+orders|show\s+(?:my\s+)?orders`)},
	{IntentPrescriptionOrder, regexp.MustCompile(`(?:order|buy|need)\s+(?:with\s+)?(?:my\s+)?prescription|(?:rx|prescription)\s+(?:order|medicine|drug)|upload\s+prescription`)},
	{IntentCheckout, regexp.MustCompile(`(?:proceed to|go to|start)\s+checkout|(?:i want to|ready to)\s+(?:checkout|pay|complete order)|finish\s+(?:my\s+)?order`)},
	{IntentCheckAvailability, regexp.MustCompile(`(?:is|are)\s+(.+?)\s+(?:available|in stock)|(?:do you have|got)\s+(.+?)\s+(?:available|in stock)`)},
	{IntentRecommendProducts, regexp.MustCompile(`(?:recommend|suggest)\s+(?:some\s+)?(?:products|medicines|items)|what should i (?:buy|get|order)|(?:popular|best selling|trending)\s+(?:products|medicines)`)},
	{IntentDrugInfo, regexp.MustCompile(`(?:dosage|dose|side effects|interactions)\s+(?:of|for)?\s*(.+)|how to take\s+(.+)|contraindications\s+(?:of|for)?\s*(.+)`)},
	{IntentProductInfo, regexp.MustCompile(`(?:tell me about|info about|information on|details of)\s+(.+)|what is\s+(.+)`)},
	{IntentSearchProduct, regexp.MustCompile(`(?:do you have|search|find|looking for|need|want)\s+(.+)|(?:price of|cost of|how much is)\s+(.+)|(?:show me|get me)\s+(.+)`)},
	{IntentAddToCart, regexp.MustCompile(`(?:i want to buy|buy|purchase)\s+(.+)`)},
}

// DetectIntent classifies the query and extracts the entity (product
// name, usually) if the matching pattern captured one.
func DetectIntent(query string) (string, string) {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, rule := range intentRules {
		match := rule.pattern.FindStringSubmatch(q)
		if match == nil {
			continue
		}
		entity := ""
		for _, group := range match[1:] {
			if group != "" {
				entity = strings.TrimSpace(group)
				break
			}
		}
		return rule.intent, entity
	}
	return IntentUnknown, ""
}

//
// --- Response Formatters ---
//

func formatProductResponse(products []Product) string {
	if len(products) == 0 {
		return "I couldn't find any products matching your search. Would you like to try a different search term?"
	}

	if len(products) == 1 {
		p := products[0]
		var b strings.Builder
		fmt.Fprintf(&b, "Yes, we have **%s** for ₹%.2f. ", p.Name, p.Price)
		if p.RequiresPrescription {
			b.WriteString("This is a **prescription (Rx) medicine**. ")
		} else {
			b.WriteString("This is an **over-the-counter (OTC) medicine**. ")
		}
		if p.Quantity > 0 {
			fmt.Fprintf(&b, "We have %d units in stock. ", p.Quantity)
		} else {
			b.WriteString("Currently out of stock. ")
		}
		b.WriteString("\n\nWould you like to add it to your cart?")
		return b.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d products:\n\n", len(products))
	limit := len(products)
	if limit > 5 {
		limit = 5
	}
	for i := 0; i < limit; i++ {
		p := products[i]
		badge := "OTC"
		if p.RequiresPrescription {
			badge = "Rx"
		}
		fmt.Fprintf(&b, "%d. **%s** - ₹%.2f [%s]\n", i+1, p.Name, p.Price, badge)
	}
	b.WriteString("\nWhich one would you like to know more about?")
	return b.String()
}

func formatCartResponse(cart *CartSummary) string {
	if len(cart.Items) == 0 {
		return "Your cart is empty. Would you like to browse our products?"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You have **%d item(s)** in your cart:\n\n", len(cart.Items))
	for _, item := range cart.Items {
		fmt.Fprintf(&b, "• **%s** - Qty: %d - ₹%.2f\n", item.MedicineName, item.Quantity, item.Subtotal)
	}
	fmt.Fprintf(&b, "\n**Cart Total: ₹%.2f**\n\n", cart.Total)
	if cart.RequiresPrescription {
		b.WriteString("⚠️ Your cart contains prescription medicines. You'll need to upload a prescription during checkout.\n\n")
	}
	b.WriteString("Ready to checkout?")
	return b.String()
}

func formatTrackingResponse(t *TrackingSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Order #%d**\n\n", t.OrderID)
	fmt.Fprintf(&b, "Current Status: **%s**\n\n", t.CurrentStatus)
	if len(t.Stages) > 0 {
		b.WriteString("Progress:\n")
		for _, stage := range t.Stages {
			icon := "⏳"
			if stage.Completed {
				icon = "✅"
			}
			fmt.Fprintf(&b, "%s %s\n", icon, stage.Stage)
		}
	}
	if t.PrescriptionStatus != "" {
		fmt.Fprintf(&b, "\nPrescription Status: **%s**", t.PrescriptionStatus)
	}
	return b.String()
}

func formatOrderHistoryResponse(orders []OrderSummary) string {
	if len(orders) == 0 {
		return "You haven't placed any orders yet. Would you like to start shopping?"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You have **%d order(s)**:\n\n", len(orders))
	limit := len(orders)
	if limit > 5 {
		limit = 5
	}
	for i := 0; i < limit; i++ {
		o := orders[i]
		fmt.Fprintf(&b, "• **Order #%d** - %s - ₹%.2f - Status: %s\n", o.OrderID, o.OrderDate, o.TotalAmount, o.Status)
	}
	b.WriteString("\nWould you like to track any of these orders?")
	return b.String()
}

func formatPrescriptionOrderResponse() string {
	return "I can help you order prescription medicines! Here's how it works:\n\n" +
		"1. Upload your prescription (PNG, JPG, or PDF)\n" +
		"2. Our pharmacists will review it\n" +
		"3. Once approved, we'll add the medicines to your order\n" +
		"4. You'll receive a confirmation when ready\n\n" +
		"Please use the file upload button below to submit your prescription."
}

func formatGreetingResponse(customerName string) string {
	var b strings.Builder
	if customerName != "" {
		fmt.Fprintf(&b, "Hello %s! 👋 How can I help you today?\n\n", customerName)
	} else {
		b.WriteString("Hello! 👋 Welcome to MediMart. How can I help you today?\n\n")
	}
	b.WriteString("I can help you with:\n")
	b.WriteString("• 🔍 Search for medicines\n")
	b.WriteString("• 🛒 Add items to your cart\n")
	b.WriteString("• 📦 Track your orders\n")
	b.WriteString("• 💊 Order with prescription\n")
	b.WriteString("• ℹ️ Get medicine information\n\n")
	b.WriteString("Just ask me anything!")
	return b.String()
}

func formatHelpResponse() string {
	return "**Here's what I can do for you:**\n\n" +
		"**Shopping:**\n" +
		"• \"Do you have Paracetamol?\" - Search products\n" +
		"• \"Add Crocin to cart\" - Add items to cart\n" +
		"• \"Show my cart\" - View cart contents\n\n" +
		"**Orders:**\n" +
		"• \"Track my order\" - Check order status\n" +
		"• \"Order history\" - View past orders\n" +
		"• \"Order with prescription\" - Upload Rx\n\n" +
		"**Information:**\n" +
		"• \"Tell me about Aspirin\" - Product details\n" +
		"• \"Dosage of Paracetamol\" - Medicine info\n\n" +
		"What would you like to do?"
}

func formatErrorResponse(errMessage string) string {
	return fmt.Sprintf("I encountered an issue: %s\n\nPlease try again or contact support if the problem persists.", errMessage)
}

func formatAuthRequiredResponse(action string) string {
	return fmt.Sprintf("To %s, you'll need to log in or create an account first.\n\nWould you like me to guide you to the login page?", action)
}

func formatUnknownResponse() string {
	return "I'm not sure I understand. I can help you with:\n\n" +
		"• Searching for medicines\n" +
		"• Adding items to cart\n" +
		"• Tracking orders\n" +
		"• Ordering with prescription\n\n" +
		"What would you like to do?"
}
