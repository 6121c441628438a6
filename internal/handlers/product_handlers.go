package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/medimart/medimart-golang/internal/models"
)

//
// --- Shop Catalog Handlers (Public) ---
//

// The catalog never shows exact stock above this; "100+" is enough for a shopper.
const displayQuantityCap = 100

// ShopProduct is the catalog view of a medicine.
type ShopProduct struct {
	MedicineID           int64   `json:"medicine_id"`
	Name                 string  `json:"name"`
	Company              string  `json:"company"`
	CompanyID            int64   `json:"company_id"`
	Price                float64 `json:"price"`
	ProductType          string  `json:"product_type"`
	Description          string  `json:"description"`
	ImageURL             string  `json:"image_url"`
	Slug                 string  `json:"slug"`
	InStock              bool    `json:"in_stock"`
	AvailableQuantity    int     `json:"available_quantity"`
	RequiresPrescription bool    `json:"requires_prescription"`
}

const medicinePlaceholderImage = "/static/images/medicine-placeholder.png"

func capQuantity(q int) int {
	if q > displayQuantityCap {
		return displayQuantityCap
	}
	return q
}

// GetShopProducts is the handler for GET /api/shop/products
// Only in-stock, unexpired medicines are listed.
func (h *Handlers) GetShopProducts(c *gin.Context) {
	// 1. --- Read Query Parameters ---
	search := c.Query("search")
	productType := c.Query("type") // 'OTC' or 'Rx'
	companyID := c.Query("company")
	sortBy := c.DefaultQuery("sort", "name")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	// 2. --- Build Query ---
	where := "m.quantity > 0 AND m.exp_date > ?"
	args := []interface{}{time.Now()}

	if search != "" {
		where += " AND (m.name LIKE ? OR c.name LIKE ? OR m.description LIKE ?)"
		like := "%" + search + "%"
		args = append(args, like, like, like)
	}
	if productType == "OTC" || productType == "Rx" {
		where += " AND m.product_type = ?"
		args = append(args, productType)
	}
	if companyID != "" {
		where += " AND m.company_id = ?"
		args = append(args, companyID)
	}

	orderBy := "m.name ASC"
	switch sortBy {
	case "price_asc":
		orderBy = "m.price ASC"
	case "price_desc":
		orderBy = "m.price DESC"
	}

	// 3. --- Count for Pagination ---
	var total int
	countQuery := "SELECT COUNT(*) FROM medicines m JOIN companies c ON m.company_id = c.company_id WHERE " + where
	if err := h.DB.QueryRow(countQuery, args...).Scan(&total); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error retrieving products"})
		return
	}

	// 4. --- Fetch Page ---
	query := `
		SELECT m.medicine_id, m.name, c.name, m.company_id, m.price, m.product_type,
		       m.description, m.image_url, m.quantity
		FROM medicines m
		JOIN companies c ON m.company_id = c.company_id
		WHERE ` + where + " ORDER BY " + orderBy + " LIMIT ? OFFSET ?"
	args = append(args, perPage, (page-1)*perPage)

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error retrieving products"})
		return
	}
	defer rows.Close()

	products := []ShopProduct{}
	for rows.Next() {
		var p ShopProduct
		var description, imageURL sql.NullString
		var quantity int
		if err := rows.Scan(&p.MedicineID, &p.Name, &p.Company, &p.CompanyID, &p.Price,
			&p.ProductType, &description, &imageURL, &quantity); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to scan product"})
			return
		}
		p.Description = description.String
		p.ImageURL = imageURL.String
		if p.ImageURL == "" {
			p.ImageURL = medicinePlaceholderImage
		}
		p.Slug = slug.Make(p.Name)
		p.InStock = quantity > 0
		p.AvailableQuantity = capQuantity(quantity)
		p.RequiresPrescription = p.ProductType == "Rx"
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error iterating products"})
		return
	}

	pages := (total + perPage - 1) / perPage
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
			"total":    total,
			"pages":    pages,
			"has_next": page < pages,
			"has_prev": page > 1,
		},
	})
}

// GetShopProductDetail is the handler for GET /api/shop/products/:id
func (h *Handlers) GetShopProductDetail(c *gin.Context) {
	id := c.Param("id")

	var m models.Medicine
	query := `
		SELECT m.medicine_id, m.name, c.name, m.company_id, m.batch_no, m.price,
		       m.product_type, m.generic_name, m.description, m.image_url, m.quantity,
		       m.mfg_date, m.exp_date
		FROM medicines m
		JOIN companies c ON m.company_id = c.company_id
		WHERE m.medicine_id = ?`
	err := h.DB.QueryRow(query, id).Scan(
		&m.ID, &m.Name, &m.CompanyName, &m.CompanyID, &m.BatchNo, &m.Price,
		&m.ProductType, &m.GenericName, &m.Description, &m.ImageURL, &m.Quantity,
		&m.MfgDate, &m.ExpDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"message": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error retrieving product"})
		return
	}

	imageOut := medicinePlaceholderImage
	if m.ImageURL != nil && *m.ImageURL != "" {
		imageOut = *m.ImageURL
	}
	genericName := ""
	if m.GenericName != nil {
		genericName = *m.GenericName
	}
	description := ""
	if m.Description != nil {
		description = *m.Description
	}

	c.JSON(http.StatusOK, gin.H{
		"medicine_id":           m.ID,
		"name":                  m.Name,
		"company":               m.CompanyName,
		"company_id":            m.CompanyID,
		"batch_no":              m.BatchNo,
		"price":                 m.Price,
		"product_type":          m.ProductType,
		"generic_name":          genericName,
		"description":           description,
		"image_url":             imageOut,
		"slug":                  slug.Make(m.Name),
		"in_stock":              m.Quantity > 0 && !m.Expired(time.Now()),
		"available_quantity":    capQuantity(m.Quantity),
		"requires_prescription": m.RequiresPrescription(),
		"mfg_date":              m.MfgDate.Format("2006-01-02"),
		"exp_date":              m.ExpDate.Format("2006-01-02"),
		"days_to_expiry":        int(time.Until(m.ExpDate).Hours() / 24),
	})
}

// GetFeaturedProducts is the handler for GET /api/shop/featured
// Top 10 OTC medicines by name. Tracking real sales popularity is a
// server-side reporting concern, not part of the catalog.
func (h *Handlers) GetFeaturedProducts(c *gin.Context) {
	query := `
		SELECT m.medicine_id, m.name, c.name, m.price, m.product_type, m.image_url
		FROM medicines m
		JOIN companies c ON m.company_id = c.company_id
		WHERE m.quantity > 0 AND m.exp_date > ? AND m.product_type = 'OTC'
		ORDER BY m.name ASC
		LIMIT 10`
	rows, err := h.DB.Query(query, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error retrieving featured products"})
		return
	}
	defer rows.Close()

	result := []gin.H{}
	for rows.Next() {
		var id int64
		var name, company, productType string
		var price float64
		var imageURL sql.NullString
		if err := rows.Scan(&id, &name, &company, &price, &productType, &imageURL); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to scan product"})
			return
		}
		image := imageURL.String
		if image == "" {
			image = medicinePlaceholderImage
		}
		result = append(result, gin.H{
			"medicine_id":           id,
			"name":                  name,
			"company":               company,
			"price":                 price,
			"product_type":          productType,
			"image_url":             image,
			"requires_prescription": false,
		})
	}

	c.JSON(http.StatusOK, result)
}

// GetShopCategories is the handler for GET /api/shop/categories
// Categories are manufacturers with at least one available product.
func (h *Handlers) GetShopCategories(c *gin.Context) {
	query := `
		SELECT c.company_id, c.name, COUNT(m.medicine_id)
		FROM companies c
		JOIN medicines m ON m.company_id = c.company_id
		WHERE m.quantity > 0 AND m.exp_date > ?
		GROUP BY c.company_id, c.name
		HAVING COUNT(m.medicine_id) > 0`
	rows, err := h.DB.Query(query, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error retrieving categories"})
		return
	}
	defer rows.Close()

	result := []gin.H{}
	for rows.Next() {
		var co models.Company
		var count int
		if err := rows.Scan(&co.ID, &co.Name, &count); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to scan category"})
			return
		}
		result = append(result, gin.H{
			"company_id":    co.ID,
			"name":          co.Name,
			"slug":          slug.Make(co.Name),
			"product_count": count,
		})
	}

	c.JSON(http.StatusOK, result)
}

// GetSearchSuggestions is the handler for GET /api/shop/search-suggestions
func (h *Handlers) GetSearchSuggestions(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if len(q) < 2 {
		c.JSON(http.StatusOK, []string{})
		return
	}

	query := `
		SELECT name FROM medicines
		WHERE name LIKE ? AND quantity > 0 AND exp_date > ?
		LIMIT 5`
	rows, err := h.DB.Query(query, "%"+q+"%", time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error getting suggestions"})
		return
	}
	defer rows.Close()

	suggestions := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to scan suggestion"})
			return
		}
		suggestions = append(suggestions, name)
	}

	c.JSON(http.StatusOK, suggestions)
}

// CheckAvailabilityInput defines the JSON for availability checks.
type CheckAvailabilityInput struct {
	Items []struct {
		MedicineID int64 `json:"medicine_id" binding:"required"`
		Quantity   int   `json:"quantity" binding:"required,gt=0"`
	} `json:"items" binding:"required"`
}

// CheckAvailability is the handler for POST /api/shop/check-availability
func (h *Handlers) CheckAvailability(c *gin.Context) {
	var input CheckAvailabilityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No items provided"})
		return
	}

	result := []gin.H{}
	allAvailable := true

	for _, item := range input.Items {
		var name string
		var quantity int
		var expDate time.Time
		err := h.DB.QueryRow(
			"SELECT name, quantity, exp_date FROM medicines WHERE medicine_id = ?",
			item.MedicineID,
		).Scan(&name, &quantity, &expDate)
		if err != nil {
			result = append(result, gin.H{
				"medicine_id": item.MedicineID,
				"available":   false,
				"reason":      "Product not found",
			})
			allAvailable = false
			continue
		}

		available := quantity >= item.Quantity && expDate.After(time.Now())
		if !available {
			allAvailable = false
		}
		result = append(result, gin.H{
			"medicine_id":        item.MedicineID,
			"name":               name,
			"requested_quantity": item.Quantity,
			"available_quantity": quantity,
			"available":          available,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"items":         result,
		"all_available": allAvailable,
	})
}
