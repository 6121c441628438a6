package handlers

import (
	"database/sql"

	"github.com/medimart/medimart-golang/internal/chatbot"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	DB          *sql.DB          // Primary Read/Write connection
	ChatService *chatbot.Service // Conversational assistant (intent engine + optional Gemini fallback)
	UploadDir   string           // Where prescription uploads are stored (default "./uploads/prescriptions")
}

// PrescriptionUploadDir resolves the configured upload directory.
func (h *Handlers) PrescriptionUploadDir() string {
	if h.UploadDir == "" {
		return "./uploads/prescriptions"
	}
	return h.UploadDir
}
