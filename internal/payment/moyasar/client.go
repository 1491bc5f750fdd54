package moyasar

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
	ErrAPIError   = errors.New("moyasar API error")
	ErrMissingKey = errors.New("moyasar API key not configured")
	ErrNotFound   = errors.New("moyasar payment not found")
)

// Client talks to the Moyasar REST API. Amounts on the wire are in
// halalas, the smallest SAR unit.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

func NewClient(apiKey, baseURL string, log *logger.Logger) (*Client, error) {
	if apiKey == "" {
		log.Error("MOYASAR", "MOYASAR_API_KEY environment variable not set")
		return nil, ErrMissingKey
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}, nil
}

type CreatePaymentParams struct {
	Amount      float64
	Currency    string
	Description string
	CallbackURL string
	Metadata    map[string]string
}

// PaymentResult is the subset of the Moyasar payment object the service
// cares about.
type PaymentResult struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Source   map[string]any    `json:"source"`
	Metadata map[string]string `json:"metadata"`
}

// Paid reports whether Moyasar considers this payment settled.
func (p *PaymentResult) Paid() bool {
	return p.Status == "paid" || p.Status == "captured"
}

func (c *Client) CreatePayment(ctx context.Context, params CreatePaymentParams) (*PaymentResult, error) {
	body := map[string]any{
		"amount":       int64(params.Amount * 100),
		"currency":     params.Currency,
		"description":  params.Description,
		"callback_url": params.CallbackURL,
		"metadata":     params.Metadata,
	}

	var result PaymentResult
	if err := c.do(ctx, http.MethodPost, "/payments", body, &result); err != nil {
		return nil, err
	}
	c.log.LogPayment("moyasar", "CREATE", fmt.Sprintf("payment %s created, status %s", result.ID, result.Status))
	return &result, nil
}

func (c *Client) FetchPayment(ctx context.Context, id string) (*PaymentResult, error) {
	var result PaymentResult
	if err := c.do(ctx, http.MethodGet, "/payments/"+id, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RefundPayment issues a full refund.
func (c *Client) RefundPayment(ctx context.Context, id string) (*PaymentResult, error) {
	var result PaymentResult
	if err := c.do(ctx, http.MethodPost, "/payments/"+id+"/refund", map[string]any{}, &result); err != nil {
		return nil, err
	}
	c.log.LogPayment("moyasar", "REFUND", fmt.Sprintf("payment %s refunded", id))
	return &result, nil
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
	// Moyasar authenticates with the secret key as the basic-auth user.
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("MOYASAR", fmt.Sprintf("%s %s: %v", method, path, err))
		return fmt.Errorf("%w: %v", ErrAPIError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		c.log.Error("MOYASAR", fmt.Sprintf("%s %s: status %d: %s", method, path, resp.StatusCode, apiErr.Message))
		return fmt.Errorf("%w: status %d: %s", ErrAPIError, resp.StatusCode, apiErr.Message)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
