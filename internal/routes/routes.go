package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medimart/medimart-golang/internal/handlers"
	"github.com/medimart/medimart-golang/internal/middleware"
)

// CORSMiddleware tells the browser the storefront origin is allowed to
// send credentialed requests to us.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Strictly allow ONLY the local storefront
		c.Writer.Header().Set("Access-Control-Allow-Origin", "http://localhost:5173")

		// 2. Allow standard security credentials
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		// 3. Allow the headers we actually use (specifically "Authorization" for JWT tokens)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")

		// 4. Allow the HTTP methods we use in our API
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// 5. Handle the "Preflight" OPTIONS request
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	// CORS must be the very first thing the router uses
	router.Use(CORSMiddleware())

	api := router.Group("/api")
	{
		// --- Ping Route (Public) ---
		api.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Public Shop Routes ---
		shop := api.Group("/shop")
		{
			shop.GET("/products", h.GetShopProducts)
			shop.GET("/products/:id", h.GetShopProductDetail)
			shop.GET("/featured", h.GetFeaturedProducts)
			shop.GET("/categories", h.GetShopCategories)
			shop.GET("/search-suggestions", h.GetSearchSuggestions)
			shop.POST("/check-availability", h.CheckAvailability)
		}

		// --- Auth Routes (Public) ---
		api.POST("/customer/register", h.RegisterCustomer)
		api.POST("/customer/login", h.LoginCustomer)
		api.POST("/auth/login", h.LoginStaff)

		// --- Chat Assistant (Public, token optional) ---
		api.POST("/chat/query", h.ChatQuery)

		// --- Customer Routes (Login Required) ---
		customer := api.Group("/customer")
		customer.Use(middleware.CustomerAuthMiddleware(h.DB))
		{
			customer.GET("/profile", h.GetCustomerProfile)
			customer.PUT("/profile", h.UpdateCustomerProfile)
			customer.PUT("/password", h.ChangeCustomerPassword)

			// --- Cart Routes ---
			customer.GET("/cart", h.GetCart)
			customer.POST("/cart/add", h.AddToCart)
			customer.PUT("/cart/update/:id", h.UpdateCartItem)
			customer.DELETE("/cart/remove/:id", h.RemoveFromCart)
			customer.DELETE("/cart/clear", h.ClearCart)
			customer.GET("/cart/count", h.GetCartCount)

			// --- Checkout & Order Routes ---
			customer.POST("/checkout/validate", h.ValidateCheckout)
			customer.POST("/orders/place", h.PlaceOrder)
			customer.GET("/orders", h.GetMyOrders)
			customer.GET("/orders/:id", h.GetOrderDetail)
			customer.GET("/orders/:id/track", h.TrackOrder)
			customer.POST("/orders/:id/cancel", h.CancelOrder)
		}

		// --- Staff Routes (Pharmacist/Admin Only) ---
		staff := api.Group("/staff")
		staff.Use(middleware.StaffAuthMiddleware(h.DB, "pharmacist", "admin"))
		{
			staff.GET("/orders", h.GetOnlineOrders)
			staff.GET("/orders/:id", h.GetStaffOrderDetail)
			staff.GET("/orders/:id/prescription", h.ViewPrescription)
			staff.POST("/orders/:id/review", h.ReviewPrescription)
			staff.PUT("/orders/:id/status", h.UpdateOrderStatus)
		}
	}

	return router
}
