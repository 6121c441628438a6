package storefront

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Step is a position in the checkout wizard. Transitions only happen
// through Next, Back and Submit; there is no way to jump.
type Step int

const (
	StepReviewCart Step = iota
	StepShipping
	StepConfirm
	StepSubmitted
)

func (s Step) String() string {
	switch s {
	case StepReviewCart:
		return "Review Cart"
	case StepShipping:
		return "Shipping"
	case StepConfirm:
		return "Confirm"
	case StepSubmitted:
		return "Submitted"
	}
	return "Unknown"
}

var (
	// ErrCartEmpty means checkout cannot start; the caller sends the
	// shopper back to the cart.
	ErrCartEmpty = errors.New("cart is empty")

	// ErrPrescriptionRequired blocks submission of an Rx cart with no
	// attached prescription.
	ErrPrescriptionRequired = errors.New("Prescription upload is required for prescription medicines")

	ErrShippingAddressBlank = errors.New("shipping address is required")
	ErrAlreadySubmitted     = errors.New("order already submitted")
)

// MaxPrescriptionSize is the inclusive upload ceiling in bytes.
const MaxPrescriptionSize = 5242880

var allowedPrescriptionTypes = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"application/pdf": true,
}

// PrescriptionFile is a validated prescription attachment, held in the
// wizard until submission.
type PrescriptionFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ShippingDetails is what the shipping step collects. Only the street
// address is mandatory.
type ShippingDetails struct {
	Address string
	City    string
	State   string
	Pincode string
}

// Wizard drives the three-step checkout: review cart, shipping,
// confirm. It validates locally what it can (prescription file,
// address, step order) and defers everything else to the server.
type Wizard struct {
	client *Client

	step         Step
	cart         *CartSnapshot
	shipping     ShippingDetails
	prescription *PrescriptionFile
	submitting   bool
	lastError    string
	result       *OrderPlacementResult
}

// NewWizard creates a wizard bound to the given client. Begin must be
// called before anything else.
func NewWizard(client *Client) *Wizard {
	return &Wizard{client: client, step: StepReviewCart}
}

// Begin fetches the cart and enters the review step. An empty cart
// returns ErrCartEmpty and the wizard stays unusable.
func (w *Wizard) Begin() (*CartSnapshot, error) {
	cart, err := w.client.FetchCart()
	if err != nil {
		return nil, err
	}
	if cart.Empty() {
		return nil, ErrCartEmpty
	}
	w.cart = cart
	w.step = StepReviewCart

	// Prefill shipping from the cached profile when available.
	if profile := w.client.Session.Customer(); profile != nil {
		w.shipping = ShippingDetails{
			Address: profile.Address,
			City:    profile.City,
			State:   profile.State,
			Pincode: profile.Pincode,
		}
	}
	return cart, nil
}

// Step returns the wizard's current position.
func (w *Wizard) Step() Step {
	return w.step
}

// Cart returns the snapshot the wizard was begun with, refreshed by
// RefreshCart.
func (w *Wizard) Cart() *CartSnapshot {
	return w.cart
}

// RefreshCart re-fetches the cart while still in the review step. If
// the cart emptied out underneath us, the wizard resets and reports
// ErrCartEmpty.
func (w *Wizard) RefreshCart() (*CartSnapshot, error) {
	if w.step != StepReviewCart {
		return w.cart, nil
	}
	cart, err := w.client.FetchCart()
	if err != nil {
		return nil, err
	}
	if cart.Empty() {
		w.cart = nil
		return nil, ErrCartEmpty
	}
	w.cart = cart
	return cart, nil
}

// SetShipping records the shipping details entered in step two.
func (w *Wizard) SetShipping(details ShippingDetails) {
	w.shipping = details
}

// Shipping returns the current shipping details.
func (w *Wizard) Shipping() ShippingDetails {
	return w.shipping
}

// Next advances the wizard one step, enforcing each step's exit
// condition.
func (w *Wizard) Next() error {
	switch w.step {
	case StepReviewCart:
		if w.cart == nil || w.cart.Empty() {
			return ErrCartEmpty
		}
		w.step = StepShipping
	case StepShipping:
		if strings.TrimSpace(w.shipping.Address) == "" {
			return ErrShippingAddressBlank
		}
		w.step = StepConfirm
	case StepConfirm:
		return errors.New("use Submit to place the order")
	case StepSubmitted:
		return ErrAlreadySubmitted
	}
	return nil
}

// Back moves the wizard one step backwards. Entered data is kept.
func (w *Wizard) Back() error {
	switch w.step {
	case StepReviewCart:
		return errors.New("already at the first step")
	case StepShipping:
		w.step = StepReviewCart
	case StepConfirm:
		w.step = StepShipping
	case StepSubmitted:
		return ErrAlreadySubmitted
	}
	return nil
}

// AttachPrescription validates and stores a prescription file. A
// rejected file leaves the wizard, including any previously attached
// file, untouched. The declared content type wins when present;
// otherwise the file content is sniffed.
func (w *Wizard) AttachPrescription(filename, contentType string, data []byte) error {
	if len(data) > MaxPrescriptionSize {
		return fmt.Errorf("file exceeds the 5MB limit")
	}

	resolved := strings.ToLower(strings.TrimSpace(contentType))
	if resolved == "" {
		resolved = mimetype.Detect(data).String()
	}
	if !allowedPrescriptionTypes[resolved] {
		return fmt.Errorf("file type %q is not allowed; use PNG, JPG, JPEG or PDF", resolved)
	}

	w.prescription = &PrescriptionFile{
		Filename:    filename,
		ContentType: resolved,
		Data:        data,
	}
	return nil
}

// Prescription returns the attached file, or nil.
func (w *Wizard) Prescription() *PrescriptionFile {
	return w.prescription
}

// RemovePrescription discards the attached file.
func (w *Wizard) RemovePrescription() {
	w.prescription = nil
}

// LastError is the server's message from the most recent failed
// submission, empty otherwise.
func (w *Wizard) LastError() string {
	return w.lastError
}

// Result is the placement result after a successful Submit, nil before.
func (w *Wizard) Result() *OrderPlacementResult {
	return w.result
}

// Submitting reports whether a submission is in flight.
func (w *Wizard) Submitting() bool {
	return w.submitting
}

// CanSubmit reports whether Submit would be allowed right now: confirm
// step, not already submitting, and a prescription attached whenever
// the cart needs one.
func (w *Wizard) CanSubmit() bool {
	if w.step != StepConfirm || w.submitting {
		return false
	}
	if w.cart != nil && w.cart.RequiresPrescription && w.prescription == nil {
		return false
	}
	return true
}

// Submit places the order. On failure the wizard stays in the confirm
// step with everything intact and the server's message preserved; on
// success it becomes terminal and carries the placement result.
func (w *Wizard) Submit() (*OrderPlacementResult, error) {
	if w.step == StepSubmitted {
		return nil, ErrAlreadySubmitted
	}
	if w.step != StepConfirm {
		return nil, fmt.Errorf("cannot submit from the %s step", w.step)
	}
	if w.submitting {
		return nil, errors.New("submission already in progress")
	}
	// The gate is enforced here too, not only in CanSubmit.
	if w.cart != nil && w.cart.RequiresPrescription && w.prescription == nil {
		return nil, ErrPrescriptionRequired
	}

	w.submitting = true
	w.lastError = ""

	result, err := w.client.PlaceOrder(w.shipping, w.prescription)
	w.submitting = false
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			w.lastError = apiErr.Message
		} else {
			w.lastError = err.Error()
		}
		return nil, err
	}

	w.result = result
	w.step = StepSubmitted
	return result, nil
}
