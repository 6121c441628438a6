// Command shop is a terminal storefront: it logs a customer in, shows
// the cart, walks the three-step checkout, tracks orders and relays
// questions to the chat assistant.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/medimart/medimart-golang/internal/storefront"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	baseURL := os.Getenv("MEDIMART_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080/api"
	}

	client := storefront.NewClient(baseURL)
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("Welcome to the MediMart terminal storefront.")
	fmt.Println("Type 'help' for a list of commands.")

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		args := strings.Fields(strings.TrimSpace(line))
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "help":
			printHelp()
		case "login":
			runLogin(client, reader)
		case "logout":
			client.Logout()
			fmt.Println("Logged out.")
		case "cart":
			runShowCart(client)
		case "add":
			runAddToCart(client, args[1:])
		case "remove":
			runRemoveFromCart(client, args[1:])
		case "qty":
			runUpdateQuantity(client, args[1:])
		case "clear":
			runClearCart(client)
		case "checkout":
			runCheckout(client, reader)
		case "orders":
			runOrders(client)
		case "track":
			runTrack(client, args[1:])
		case "chat":
			runChat(client, strings.Join(args[1:], " "))
		case "quit", "exit":
			fmt.Println("Goodbye!")
			return
		default:
			fmt.Printf("Unknown command %q. Type 'help' for a list of commands.\n", args[0])
		}
	}
}

func printHelp() {
	fmt.Println(`Commands:
  login                      log in with email and password
  logout                     drop the current session
  cart                       show the cart
  add <medicine_id> [qty]    add a medicine to the cart
  qty <cart_item_id> <n>     change a cart line's quantity
  remove <cart_item_id>      remove a cart line
  clear                      empty the cart
  checkout                   start the checkout wizard
  orders                     list past orders
  track <order_id>           show an order's tracking timeline
  chat <message>             ask the assistant
  quit                       exit`)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func runLogin(client *storefront.Client, reader *bufio.Reader) {
	email := prompt(reader, "Email: ")
	password := prompt(reader, "Password: ")

	if err := client.Login(email, password); err != nil {
		fmt.Printf("Login failed: %v\n", err)
		return
	}
	if profile := client.Session.Customer(); profile != nil {
		fmt.Printf("Welcome back, %s!\n", profile.Name)
	} else {
		fmt.Println("Logged in.")
	}
}

func requireLogin(client *storefront.Client) bool {
	if !client.Session.LoggedIn() {
		fmt.Println("Please 'login' first.")
		return false
	}
	return true
}

func printCart(cart *storefront.CartSnapshot) {
	if cart.Empty() {
		fmt.Println("Your cart is empty.")
		return
	}
	fmt.Printf("%-6s %-30s %5s %10s %10s\n", "ID", "MEDICINE", "QTY", "PRICE", "SUBTOTAL")
	for _, line := range cart.Items {
		marker := ""
		if line.RequiresPrescription {
			marker = " [Rx]"
		}
		if !line.InStock {
			marker += " (out of stock)"
		}
		fmt.Printf("%-6d %-30s %5d %10.2f %10.2f%s\n",
			line.CartItemID, line.Name, line.Quantity, line.Price, line.Subtotal, marker)
	}
	fmt.Printf("Total: ₹%.2f (%d items)\n", cart.Total, cart.ItemCount)
	if cart.RequiresPrescription {
		fmt.Println("Note: this cart contains prescription medicines. A prescription upload is required at checkout.")
	}
}

func runShowCart(client *storefront.Client) {
	if !requireLogin(client) {
		return
	}
	cart, err := client.FetchCart()
	if err != nil {
		fmt.Printf("Could not fetch cart: %v\n", err)
		return
	}
	printCart(cart)
}

func runAddToCart(client *storefront.Client, args []string) {
	if !requireLogin(client) {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: add <medicine_id> [qty]")
		return
	}
	medicineID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Medicine ID must be a number.")
		return
	}
	qty := 1
	if len(args) > 1 {
		qty, err = strconv.Atoi(args[1])
		if err != nil {
			fmt.Println("Quantity must be a number.")
			return
		}
	}
	cart, err := client.AddToCart(medicineID, qty)
	if err != nil {
		fmt.Printf("Could not add to cart: %v\n", err)
		return
	}
	printCart(cart)
}

func runUpdateQuantity(client *storefront.Client, args []string) {
	if !requireLogin(client) {
		return
	}
	if len(args) < 2 {
		fmt.Println("Usage: qty <cart_item_id> <n>")
		return
	}
	cartItemID, err1 := strconv.ParseInt(args[0], 10, 64)
	qty, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		fmt.Println("Both arguments must be numbers.")
		return
	}
	cart, err := client.UpdateQuantity(cartItemID, qty)
	if err != nil {
		if errors.Is(err, storefront.ErrQuantityTooLow) {
			fmt.Println("Quantity must be at least 1. Use 'remove' to take an item out.")
			return
		}
		fmt.Printf("Could not update quantity: %v\n", err)
		return
	}
	printCart(cart)
}

func runRemoveFromCart(client *storefront.Client, args []string) {
	if !requireLogin(client) {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: remove <cart_item_id>")
		return
	}
	cartItemID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Cart item ID must be a number.")
		return
	}
	cart, err := client.RemoveItem(cartItemID)
	if err != nil {
		fmt.Printf("Could not remove item: %v\n", err)
		return
	}
	printCart(cart)
}

func runClearCart(client *storefront.Client) {
	if !requireLogin(client) {
		return
	}
	cart, err := client.ClearCart()
	if err != nil {
		fmt.Printf("Could not clear cart: %v\n", err)
		return
	}
	printCart(cart)
}

func runCheckout(client *storefront.Client, reader *bufio.Reader) {
	if !requireLogin(client) {
		return
	}

	wizard := storefront.NewWizard(client)
	cart, err := wizard.Begin()
	if err != nil {
		if errors.Is(err, storefront.ErrCartEmpty) {
			// Back to the cart, nothing to check out.
			fmt.Println("Your cart is empty. Add something before checking out.")
			return
		}
		fmt.Printf("Could not start checkout: %v\n", err)
		return
	}

	// Step 1: review
	fmt.Println("\n--- Step 1 of 3: Review Cart ---")
	printCart(cart)
	if prompt(reader, "Proceed to shipping? (y/n): ") != "y" {
		fmt.Println("Checkout cancelled.")
		return
	}
	if err := wizard.Next(); err != nil {
		fmt.Printf("Cannot continue: %v\n", err)
		return
	}

	// Step 2: shipping
	fmt.Println("\n--- Step 2 of 3: Shipping ---")
	current := wizard.Shipping()
	for {
		details := storefront.ShippingDetails{
			Address: promptDefault(reader, "Address", current.Address),
			City:    promptDefault(reader, "City", current.City),
			State:   promptDefault(reader, "State", current.State),
			Pincode: promptDefault(reader, "Pincode", current.Pincode),
		}
		wizard.SetShipping(details)
		if err := wizard.Next(); err != nil {
			fmt.Printf("Cannot continue: %v\n", err)
			current = details
			continue
		}
		break
	}

	// Step 3: confirm
	fmt.Println("\n--- Step 3 of 3: Confirm ---")
	if cart.RequiresPrescription {
		for wizard.Prescription() == nil {
			path := prompt(reader, "Prescription file path (PNG/JPG/PDF, max 5MB): ")
			if path == "" {
				fmt.Println("A prescription is required for this order.")
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Printf("Could not read file: %v\n", err)
				continue
			}
			if err := wizard.AttachPrescription(filepath.Base(path), "", data); err != nil {
				fmt.Printf("File rejected: %v\n", err)
				continue
			}
			fmt.Println("Prescription attached.")
		}
	}

	shipping := wizard.Shipping()
	fmt.Printf("Shipping to: %s, %s, %s %s\n", shipping.Address, shipping.City, shipping.State, shipping.Pincode)
	fmt.Printf("Order total: ₹%.2f\n", cart.Total)
	if prompt(reader, "Place order? (y/n): ") != "y" {
		fmt.Println("Checkout cancelled.")
		return
	}

	result, err := wizard.Submit()
	if err != nil {
		if msg := wizard.LastError(); msg != "" {
			fmt.Printf("Order failed: %s\n", msg)
		} else {
			fmt.Printf("Order failed: %v\n", err)
		}
		fmt.Println("You are still on the confirmation step; fix the issue and try again.")
		return
	}

	// Confirmation is rendered from the carried result, never refetched.
	fmt.Println("\n--- Order Confirmed ---")
	fmt.Printf("Order #%d placed. Total: ₹%.2f. Status: %s.\n", result.OrderID, result.Total, result.Status)
	if result.RequiresPrescriptionReview {
		fmt.Println("Your prescription is being reviewed by a pharmacist. You'll be notified once approved.")
	}
	fmt.Printf("Estimated delivery: %s\n", result.EstimatedDelivery)
}

func promptDefault(reader *bufio.Reader, label, current string) string {
	if current != "" {
		fmt.Printf("%s [%s]: ", label, current)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	return line
}

func runOrders(client *storefront.Client) {
	if !requireLogin(client) {
		return
	}
	orders, err := client.ListOrders()
	if err != nil {
		fmt.Printf("Could not fetch orders: %v\n", err)
		return
	}
	if len(orders) == 0 {
		fmt.Println("No orders yet.")
		return
	}
	fmt.Printf("%-8s %-22s %10s  %s\n", "ORDER", "DATE", "TOTAL", "STATUS")
	for _, o := range orders {
		fmt.Printf("%-8d %-22s %10.2f  %s\n", o.OrderID, o.OrderDate, o.TotalAmount, o.Status)
	}
}

func runTrack(client *storefront.Client, args []string) {
	if !requireLogin(client) {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: track <order_id>")
		return
	}
	orderID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Order ID must be a number.")
		return
	}
	snapshot, err := client.FetchTracking(orderID)
	if err != nil {
		if errors.Is(err, storefront.ErrOrderNotFound) {
			fmt.Printf("No order #%d found on your account.\n", orderID)
			return
		}
		fmt.Printf("Could not fetch tracking: %v\n", err)
		return
	}

	fmt.Printf("Order #%d - %s (updated %s)\n", snapshot.OrderID, snapshot.CurrentStatus, snapshot.LastUpdated)
	for _, stage := range snapshot.Stages {
		mark := "[ ]"
		if stage.Completed {
			mark = "[x]"
		}
		fmt.Printf("  %s %s\n", mark, stage.Stage)
	}
}

func runChat(client *storefront.Client, message string) {
	if message == "" {
		fmt.Println("Usage: chat <message>")
		return
	}
	response := client.SendQuery(message)
	fmt.Println(response.Answer)
	if response.RequiresAuth {
		fmt.Println("(Log in with 'login' to use this feature.)")
	}
	if response.RequiresFileUpload {
		fmt.Println("(Prescription uploads happen during 'checkout'.)")
	}
}
