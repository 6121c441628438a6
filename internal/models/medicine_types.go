package models

import (
	"time"
)

// Company is the model for the 'companies' table (manufacturers).
type Company struct {
	ID      int64   `json:"company_id" db:"company_id"`
	Name    string  `json:"name" db:"name"`
	Contact *string `json:"contact,omitempty" db:"contact"`
	Address *string `json:"address,omitempty" db:"address"`
}

// Medicine is the model for the 'medicines' table.
// ProductType drives prescription gating: 'Rx' items force a prescription
// upload at checkout, 'OTC' items do not.
type Medicine struct {
	ID        int64  `json:"medicine_id" db:"medicine_id"`
	Name      string `json:"name" db:"name"`
	CompanyID int64  `json:"company_id" db:"company_id"`
	BatchNo   string `json:"batch_no" db:"batch_no"`

	// --- Pricing & Stock ---
	Price    float64 `json:"price" db:"price"`
	Quantity int     `json:"quantity" db:"quantity"`
	MinStock int     `json:"min_stock" db:"min_stock"`

	// --- Classification ---
	ProductType string  `json:"product_type" db:"product_type"` // 'OTC' or 'Rx'
	GenericName *string `json:"generic_name,omitempty" db:"generic_name"`
	Description *string `json:"description,omitempty" db:"description"`
	ImageURL    *string `json:"image_url,omitempty" db:"image_url"`
	Slug        string  `json:"slug" db:"slug"`

	MfgDate time.Time `json:"mfg_date" db:"mfg_date"`
	ExpDate time.Time `json:"exp_date" db:"exp_date"`

	// Joins (Not in DB table, populated manually)
	CompanyName string `json:"company,omitempty" db:"-"`
}

// RequiresPrescription reports whether this medicine is prescription-gated.
func (m *Medicine) RequiresPrescription() bool {
	return m.ProductType == "Rx"
}

// Expired reports whether the medicine's expiry date has passed.
func (m *Medicine) Expired(now time.Time) bool {
	return !m.ExpDate.After(now)
}
