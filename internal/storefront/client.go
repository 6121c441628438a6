// Package storefront is the customer-facing API client: cart, checkout
// wizard, order tracking and the chat assistant relay. It talks to the
// REST API in internal/routes and holds no business rules of its own;
// totals, prescription flags and order status always come from the
// server.
package storefront

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the API, carrying the server's
// user-facing message when the body had one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Client wraps one API base URL plus the session whose token it sends.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Session *Session
}

// NewClient builds a client for the given base URL, e.g.
// "http://localhost:8080/api".
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
		Session: NewSession(),
	}
}

// do runs exactly one request. No retries: a failed call surfaces
// immediately and the caller decides what to do.
func (c *Client) do(req *http.Request, out interface{}) error {
	if token := c.Session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, body)
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// decodeAPIError pulls the server's message out of an error body. The
// API uses "message"; "error" is checked as a fallback.
func decodeAPIError(status int, body []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	apiErr := &APIError{Status: status}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			apiErr.Message = payload.Message
		} else if payload.Error != "" {
			apiErr.Message = payload.Error
		}
	}
	return apiErr
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// Get issues a GET to the given API path and decodes the JSON response
// into out.
func (c *Client) Get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.url(path), nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(path string, in, out interface{}) error {
	return c.sendJSON(http.MethodPost, path, in, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(path string, in, out interface{}) error {
	return c.sendJSON(http.MethodPut, path, in, out)
}

// Delete issues a DELETE to the given API path.
func (c *Client) Delete(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodDelete, c.url(path), nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) sendJSON(method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, c.url(path), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

// PostMultipart issues a POST with a prebuilt multipart body.
func (c *Client) PostMultipart(path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequest(http.MethodPost, c.url(path), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req, out)
}
