package tabby

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cleanserve/internal/logger"
)

var (
	ErrAPIError   = errors.New("tabby API error")
	ErrMissingKey = errors.New("tabby API key not configured")
	ErrNotFound   = errors.New("tabby session not found")
	ErrRejected   = errors.New("tabby rejected the installment plan")
)

// Client talks to the Tabby checkout API for pay-in-installments flows.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

func NewClient(apiKey, baseURL string, log *logger.Logger) (*Client, error) {
	if apiKey == "" {
		log.Error("TABBY", "TABBY_API_KEY environment variable not set")
		return nil, ErrMissingKey
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}, nil
}

type CheckoutParams struct {
	Amount      float64
	Currency    string
	Description string
	BuyerEmail  string
	BuyerPhone  string
	SuccessURL  string
	FailureURL  string
	ReferenceID string
}

// Session is the subset of a Tabby checkout session the service uses.
type Session struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	CheckoutURL string `json:"-"`
}

type sessionResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Configuration struct {
		AvailableProducts struct {
			Installments []struct {
				WebURL string `json:"web_url"`
			} `json:"installments"`
		} `json:"available_products"`
	} `json:"configuration"`
	Payment struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"payment"`
}

// CreateCheckout opens a Tabby checkout session. A rejected session is
// reported as ErrRejected so callers can fall back to another gateway.
func (c *Client) CreateCheckout(ctx context.Context, params CheckoutParams) (*Session, error) {
	body := map[string]any{
		"payment": map[string]any{
			"amount":      fmt.Sprintf("%.2f", params.Amount),
			"currency":    params.Currency,
			"description": params.Description,
			"buyer": map[string]any{
				"email": params.BuyerEmail,
				"phone": params.BuyerPhone,
			},
			"order": map[string]any{
				"reference_id": params.ReferenceID,
			},
		},
		"lang": "ar",
		"merchant_urls": map[string]any{
			"success": params.SuccessURL,
			"failure": params.FailureURL,
			"cancel":  params.FailureURL,
		},
	}

	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, "/checkout", body, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "rejected" {
		c.log.Warn("TABBY", fmt.Sprintf("checkout rejected for reference %s", params.ReferenceID))
		return nil, ErrRejected
	}

	session := &Session{ID: resp.Payment.ID, Status: resp.Payment.Status}
	if installments := resp.Configuration.AvailableProducts.Installments; len(installments) > 0 {
		session.CheckoutURL = installments[0].WebURL
	}
	c.log.LogPayment("tabby", "CREATE", fmt.Sprintf("session %s opened for reference %s", resp.ID, params.ReferenceID))
	return session, nil
}

// FetchPayment reads payment state back from Tabby.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Session, error) {
	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &resp); err != nil {
		return nil, err
	}
	return &Session{ID: resp.ID, Status: resp.Status}, nil
}

// Paid reports whether Tabby considers the payment captured.
func (s *Session) Paid() bool {
	return s.Status == "AUTHORIZED" || s.Status == "CLOSED"
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("TABBY", fmt.Sprintf("%s %s: %v", method, path, err))
		return fmt.Errorf("%w: %v", ErrAPIError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		c.log.Error("TABBY", fmt.Sprintf("%s %s: status %d: %s", method, path, resp.StatusCode, apiErr.Error))
		return fmt.Errorf("%w: status %d: %s", ErrAPIError, resp.StatusCode, apiErr.Error)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
