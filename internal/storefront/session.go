package storefront

import "sync"

// CustomerProfile is the profile payload cached at login so the UI can
// prefill shipping details without another round trip.
type CustomerProfile struct {
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Pincode    string `json:"pincode"`
}

// Session holds the logged-in customer's token and cached profile.
// Everything that needs identity reads it from here; there are no
// package-level globals.
type Session struct {
	mu       sync.RWMutex
	token    string
	customer *CustomerProfile
}

func NewSession() *Session {
	return &Session{}
}

// SetLogin stores the token and profile returned by the login endpoint.
func (s *Session) SetLogin(token string, customer *CustomerProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.customer = customer
}

// Clear logs the session out.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.customer = nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Customer returns the cached profile, or nil when logged out.
func (s *Session) Customer() *CustomerProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customer
}

// LoggedIn reports whether a token is present.
func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Login authenticates against the API and stores the session on
// success.
func (c *Client) Login(email, password string) error {
	var result struct {
		Token    string           `json:"token"`
		Customer *CustomerProfile `json:"customer"`
	}
	err := c.Post("/customer/login", map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return err
	}
	c.Session.SetLogin(result.Token, result.Customer)
	return nil
}

// Logout drops the local session. The API is stateless, so there is
// nothing to tell the server.
func (c *Client) Logout() {
	c.Session.Clear()
}
