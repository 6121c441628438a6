package middleware

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/medimart/medimart-golang/internal/auth"
)

// bearerToken extracts the token string from the Authorization header.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// CustomerAuthMiddleware guards the /customer surface. It validates the
// bearer token, checks the account is still active, and puts the customer
// ID into the gin context under "customerID".
func CustomerAuthMiddleware(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		tokenString, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Token is missing"})
			c.Abort()
			return
		}

		// 2. --- Validate Token ---
		customerID, audience, err := auth.ValidateToken(tokenString)
		if err != nil || audience != auth.AudienceCustomer {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			c.Abort()
			return
		}

		// 3. --- Check Account Status ---
		var isActive bool
		err = db.QueryRow("SELECT is_active FROM customers WHERE customer_id = ?", customerID).Scan(&isActive)
		if err != nil || !isActive {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			c.Abort()
			return
		}

		// 4. --- Success ---
		c.Set("customerID", customerID)
		c.Next()
	}
}

// StaffAuthMiddleware guards the /staff surface. Roles narrows access
// further: an empty list admits any staff member, otherwise the user's
// role must match one of the entries (e.g. "admin").
func StaffAuthMiddleware(db *sql.DB, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Token is missing"})
			c.Abort()
			return
		}

		userID, audience, err := auth.ValidateToken(tokenString)
		if err != nil || audience != auth.AudienceStaff {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			c.Abort()
			return
		}

		var role string
		if err := db.QueryRow("SELECT role FROM users WHERE id = ?", userID).Scan(&role); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			c.Abort()
			return
		}

		if len(roles) > 0 {
			allowed := false
			for _, r := range roles {
				if role == r {
					allowed = true
					break
				}
			}
			if !allowed {
				c.JSON(http.StatusForbidden, gin.H{"message": "Insufficient permissions"})
				c.Abort()
				return
			}
		}

		c.Set("staffID", userID)
		c.Set("staffRole", role)
		c.Next()
	}
}
