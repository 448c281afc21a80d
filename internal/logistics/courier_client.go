package logistics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultRequestTimeout = 10 * time.Second

// CourierLogger defines the logging contract for courier client operations.
type CourierLogger func(ctx context.Context, event string, fields map[string]any)

// CourierClientConfig configures the HTTP courier aggregator client.
type CourierClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     CourierLogger
}

// CourierClient implements Provider against an HTTP/JSON courier aggregator.
type CourierClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  CourierLogger
}

// NewCourierClient constructs a courier aggregator client.
func NewCourierClient(cfg CourierClientConfig) (*CourierClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("logistics: base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("logistics: invalid base url: %w", err)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("logistics: api key is required")
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &CourierClient{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		client:  client,
		logger:  logger,
	}, nil
}

type quotationPayload struct {
	ReferenceCode string      `json:"referenceCode"`
	Stop          courierStop `json:"stop"`
}

type courierStop struct {
	Address   string  `json:"address"`
	Note      string  `json:"note,omitempty"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Recipient string  `json:"recipient,omitempty"`
	Phone     string  `json:"phone,omitempty"`
}

type quotationResponse struct {
	QuotationID string `json:"quotationId"`
	PriceMinor  int64  `json:"priceMinor"`
	Currency    string `json:"currency"`
	ExpiresAt   string `json:"expiresAt"`
}

type dispatchPayload struct {
	QuotationID   string      `json:"quotationId"`
	ReferenceCode string      `json:"referenceCode"`
	Stop          courierStop `json:"stop"`
}

type dispatchResponse struct {
	OrderRef string `json:"orderRef"`
	Status   string `json:"status"`
	ShareURL string `json:"shareUrl"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Quote prices a dispatch to the destination.
func (c *CourierClient) Quote(ctx context.Context, req QuoteRequest) (Quote, error) {
	payload := quotationPayload{
		ReferenceCode: req.ReferenceCode,
		Stop:          stopFromDestination(req.Destination),
	}

	var resp quotationResponse
	if err := c.do(ctx, http.MethodPost, "/v1/quotations", payload, &resp); err != nil {
		return Quote{}, err
	}

	quote := Quote{
		ID:       resp.QuotationID,
		Fee:      resp.PriceMinor,
		Currency: resp.Currency,
	}
	if resp.ExpiresAt != "" {
		if expires, err := time.Parse(time.RFC3339, resp.ExpiresAt); err == nil {
			quote.ExpiresAt = expires.UTC()
		}
	}

	c.logger(ctx, "logistics.quote.created", map[string]any{
		"quotationId":   quote.ID,
		"referenceCode": req.ReferenceCode,
		"fee":           quote.Fee,
	})
	return quote, nil
}

// CreateOrder books the quoted dispatch.
func (c *CourierClient) CreateOrder(ctx context.Context, req BookingRequest) (Booking, error) {
	if strings.TrimSpace(req.QuoteID) == "" {
		return Booking{}, errors.New("logistics: quote id is required")
	}

	payload := dispatchPayload{
		QuotationID:   req.QuoteID,
		ReferenceCode: req.ReferenceCode,
		Stop:          stopFromDestination(req.Destination),
	}

	var resp dispatchResponse
	if err := c.do(ctx, http.MethodPost, "/v1/orders", payload, &resp); err != nil {
		return Booking{}, err
	}

	c.logger(ctx, "logistics.order.created", map[string]any{
		"orderRef":      resp.OrderRef,
		"referenceCode": req.ReferenceCode,
		"status":        resp.Status,
	})
	return Booking{
		Ref:      resp.OrderRef,
		Status:   DeliveryStatus(strings.ToUpper(resp.Status)),
		ShareURL: resp.ShareURL,
	}, nil
}

// GetOrder fetches the current dispatch state used by delivery reconciliation.
func (c *CourierClient) GetOrder(ctx context.Context, ref string) (Booking, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return Booking{}, errors.New("logistics: order ref is required")
	}

	var resp dispatchResponse
	if err := c.do(ctx, http.MethodGet, "/v1/orders/"+url.PathEscape(trimmed), nil, &resp); err != nil {
		return Booking{}, err
	}
	return Booking{
		Ref:      resp.OrderRef,
		Status:   DeliveryStatus(strings.ToUpper(resp.Status)),
		ShareURL: resp.ShareURL,
	}, nil
}

func (c *CourierClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("logistics: encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("logistics: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("logistics: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("logistics: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("logistics: %s %s: %s (%s)", method, path, apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("logistics: %s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("logistics: decode response: %w", err)
	}
	return nil
}

func stopFromDestination(dest Destination) courierStop {
	return courierStop{
		Address:   strings.TrimSpace(dest.Address),
		Note:      strings.TrimSpace(dest.Note),
		Latitude:  dest.Latitude,
		Longitude: dest.Longitude,
		Recipient: strings.TrimSpace(dest.Recipient),
		Phone:     strings.TrimSpace(dest.Phone),
	}
}

var _ Provider = (*CourierClient)(nil)
