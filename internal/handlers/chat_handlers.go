package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medimart/medimart-golang/internal/auth"
)

//
// --- Chat Assistant Handlers (Public) ---
//

// ChatQuery is the handler for POST /api/chat/query
// Works for both anonymous and logged-in shoppers. A token in the body
// is validated leniently: an invalid token just means anonymous.
func (h *Handlers) ChatQuery(c *gin.Context) {
	var input struct {
		Query      string `json:"query" binding:"required"`
		CustomerID int64  `json:"customer_id"`
		Token      string `json:"token"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Query is required"})
		return
	}

	if h.ChatService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Chat assistant is not available"})
		return
	}

	// Prefer the token over a raw customer_id so clients cannot act on
	// behalf of another account.
	customerID := int64(0)
	if input.Token != "" {
		if subjectID, audience, err := auth.ValidateToken(input.Token); err == nil && audience == auth.AudienceCustomer {
			customerID = subjectID
		}
	} else if input.CustomerID != 0 {
		customerID = input.CustomerID
	}

	response := h.ChatService.Respond(c, input.Query, customerID)
	c.JSON(http.StatusOK, response)
}
