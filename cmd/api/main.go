package main

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/medimart/medimart-golang/internal/chatbot"
	"github.com/medimart/medimart-golang/internal/database"
	"github.com/medimart/medimart-golang/internal/handlers"
	"github.com/medimart/medimart-golang/internal/routes"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	// 1. --- Database Connection ---
	db, err := database.OpenDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 2. --- Chat Assistant Initialization ---
	// GEMINI_API_KEY is optional: without it the assistant still handles
	// shopping intents, it just answers drug questions with a static message.
	geminiKey := os.Getenv("GEMINI_API_KEY")
	chatService, err := chatbot.NewService(db, geminiKey)
	if err != nil {
		log.Fatalf("Failed to initialize chat assistant: %v", err)
	}
	if geminiKey == "" {
		log.Println("WARNING: GEMINI_API_KEY not set. Drug information queries will use the static fallback.")
	}

	// --- Application Setup ---
	app := &handlers.Handlers{
		DB:          db,
		ChatService: chatService,
		UploadDir:   os.Getenv("PRESCRIPTION_UPLOAD_DIR"),
	}

	// 3. --- Background Workers (Cron) ---
	// Carts abandoned for more than 7 days are purged hourly so reserved
	// rows don't pile up.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		log.Println("Background worker started: purging stale carts...")

		for range ticker.C {
			app.PurgeStaleCartItems()
		}
	}()

	// --- Router Setup ---
	router := routes.SetupRouter(app)

	// --- Start Server ---
	log.Println("Starting MediMart API server on port 8080...")
	if err := router.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
