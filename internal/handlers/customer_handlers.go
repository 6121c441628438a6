package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medimart/medimart-golang/internal/auth"
	"github.com/medimart/medimart-golang/internal/models"
)

//
// --- Customer Account Handlers ---
//

// RegisterCustomerInput holds the *input* from the shopper.
// Separate from 'models.Customer' because we never accept an ID or
// is_active flag from the outside.
type RegisterCustomerInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
}

// RegisterCustomer is the handler for POST /api/customer/register
func (h *Handlers) RegisterCustomer(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input RegisterCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	// 2. --- Reject Duplicate Email ---
	var exists int
	err := h.DB.QueryRow("SELECT COUNT(*) FROM customers WHERE email = ?", input.Email).Scan(&exists)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}
	if exists > 0 {
		c.JSON(http.StatusConflict, gin.H{"message": "Email already registered"})
		return
	}

	// 3. --- Hash the Password ---
	var password models.Password
	if err := password.Set(input.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to hash password"})
		return
	}

	// 4. --- Save to Database ---
	query := `
		INSERT INTO customers (name, email, phone, password_hash, address, city, state, pincode, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, TRUE, ?)`
	result, err := h.DB.Exec(query,
		input.Name, input.Email, input.Phone, password.Hash,
		input.Address, input.City, input.State, input.Pincode, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create account"})
		return
	}
	customerID, _ := result.LastInsertId()

	// 5. --- Send Success Response ---
	c.JSON(http.StatusCreated, gin.H{
		"message":     "Registration successful",
		"customer_id": customerID,
	})
}

// LoginCustomerInput defines the JSON for customer login.
type LoginCustomerInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginCustomer is the handler for POST /api/customer/login
func (h *Handlers) LoginCustomer(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input LoginCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	// 2. --- Find Customer By Email ---
	var customer models.Customer
	query := `
		SELECT customer_id, name, email, phone, password_hash, address, city, state, pincode, is_active
		FROM customers WHERE email = ?`
	err := h.DB.QueryRow(query, input.Email).Scan(
		&customer.ID, &customer.Name, &customer.Email, &customer.Phone,
		&customer.PasswordHash, &customer.Address, &customer.City,
		&customer.State, &customer.Pincode, &customer.IsActive,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	if !customer.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"message": "Account is deactivated. Please contact support."})
		return
	}

	// 3. --- Check Password ---
	var password models.Password
	password.Hash = customer.PasswordHash

	match, err := password.Matches(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to check password"})
		return
	}
	if !match {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}

	// 4. --- Generate JWT ---
	token, err := auth.GenerateToken(customer.ID, auth.AudienceCustomer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate token"})
		return
	}

	// 5. --- Send Success Response ---
	// The client caches this customer object to pre-seed the shipping form.
	c.JSON(http.StatusOK, gin.H{
		"message":  "Login successful",
		"token":    token,
		"customer": customer,
	})
}

// GetCustomerProfile is the handler for GET /api/customer/profile
func (h *Handlers) GetCustomerProfile(c *gin.Context) {
	customerID_raw, _ := c.Get("customerID")
	customerID := customerID_raw.(int64)

	var customer models.Customer
	query := `
		SELECT customer_id, name, email, phone, address, city, state, pincode, is_active, created_at
		FROM customers WHERE customer_id = ?`
	err := h.DB.QueryRow(query, customerID).Scan(
		&customer.ID, &customer.Name, &customer.Email, &customer.Phone,
		&customer.Address, &customer.City, &customer.State, &customer.Pincode,
		&customer.IsActive, &customer.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"message": "Customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	c.JSON(http.StatusOK, customer)
}

// UpdateProfileInput defines the JSON for profile updates.
// All fields optional; only provided fields change.
type UpdateProfileInput struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	Pincode *string `json:"pincode"`
}

// UpdateCustomerProfile is the handler for PUT /api/customer/profile
func (h *Handlers) UpdateCustomerProfile(c *gin.Context) {
	customerID_raw, _ := c.Get("customerID")
	customerID := customerID_raw.(int64)

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	query := `
		UPDATE customers SET
			name    = COALESCE(?, name),
			phone   = COALESCE(?, phone),
			address = COALESCE(?, address),
			city    = COALESCE(?, city),
			state   = COALESCE(?, state),
			pincode = COALESCE(?, pincode)
		WHERE customer_id = ?`
	_, err := h.DB.Exec(query,
		input.Name, input.Phone, input.Address, input.City, input.State, input.Pincode,
		customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}

// ChangePasswordInput defines the JSON for password changes.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// ChangeCustomerPassword is the handler for PUT /api/customer/password
func (h *Handlers) ChangeCustomerPassword(c *gin.Context) {
	customerID_raw, _ := c.Get("customerID")
	customerID := customerID_raw.(int64)

	var input ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var hash string
	err := h.DB.QueryRow("SELECT password_hash FROM customers WHERE customer_id = ?", customerID).Scan(&hash)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	var password models.Password
	password.Hash = hash
	match, err := password.Matches(input.CurrentPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to check password"})
		return
	}
	if !match {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Current password is incorrect"})
		return
	}

	if err := password.Set(input.NewPassword); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to hash password"})
		return
	}

	_, err = h.DB.Exec("UPDATE customers SET password_hash = ? WHERE customer_id = ?", password.Hash, customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

//
// --- Staff Login ---
//

// LoginStaffInput defines the JSON for staff login.
type LoginStaffInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginStaff is the handler for POST /api/auth/login
func (h *Handlers) LoginStaff(c *gin.Context) {
	var input LoginStaffInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var user models.StaffUser
	query := "SELECT id, username, role, password_hash FROM users WHERE username = ?"
	err := h.DB.QueryRow(query, input.Username).Scan(&user.ID, &user.Username, &user.Role, &user.PasswordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	var password models.Password
	password.Hash = user.PasswordHash
	match, err := password.Matches(input.Password)
	if err != nil || !match {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(user.ID, auth.AudienceStaff)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"role":     user.Role,
		},
	})
}
