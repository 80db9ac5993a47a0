package client

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

	"go-pos-terminal/internal/model"
)

var ErrMissingSaleID = errors.New("backend accepted sale without sale_id")

// APIError is a non-2xx answer from the backend. Message holds the server's
// "error" field when it sent one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// Backend is the catalog and sale API the terminal sells against.
type Backend interface {
	SearchProducts(ctx context.Context, query string) ([]model.Product, error)
	SubmitSale(ctx context.Context, payload model.SalePayload, opts SubmitOptions) (*model.SaleReceipt, error)
}

type SubmitOptions struct {
	IdempotencyKey string
	Cashier        string
}

type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// BackendClient talks to the POS backend over HTTP/JSON.
type BackendClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewBackendClient(opts Options) *BackendClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BackendClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
	}
}

// SearchProducts calls GET /api/products/search. An empty query returns the full catalog.
func (c *BackendClient) SearchProducts(ctx context.Context, query string) ([]model.Product, error) {
	endpoint := fmt.Sprintf("%s/api/products/search?q=%s", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &APIError{StatusCode: status, Message: errorMessage(body)}
	}

	var products []model.Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("error unmarshalling products: %w", err)
	}
	return products, nil
}

type saleItemWire struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Qty      int         `json:"qty"`
	MaxStock int         `json:"max_stock"`
}

type saleWire struct {
	Items         []saleItemWire `json:"items"`
	Discount      json.Number    `json:"discount"`
	Tax           json.Number    `json:"tax"`
	CustomerName  string         `json:"customer_name"`
	CustomerPhone string         `json:"customer_phone"`
}

type saleResponse struct {
	SaleID  json.RawMessage `json:"sale_id"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// SubmitSale calls POST /api/sale. Amounts go out as JSON numbers.
func (c *BackendClient) SubmitSale(ctx context.Context, payload model.SalePayload, opts SubmitOptions) (*model.SaleReceipt, error) {
	wire := saleWire{
		Items:         make([]saleItemWire, 0, len(payload.Items)),
		Discount:      json.Number(payload.Discount.String()),
		Tax:           json.Number(payload.Tax.String()),
		CustomerName:  payload.CustomerName,
		CustomerPhone: payload.CustomerPhone,
	}
	for _, it := range payload.Items {
		wire.Items = append(wire.Items, saleItemWire{
			ID:       it.ID,
			Name:     it.Name,
			Price:    json.Number(it.Price.String()),
			Qty:      it.Qty,
			MaxStock: it.MaxStock,
		})
	}

	raw, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("error marshalling sale: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/sale", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if opts.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", opts.IdempotencyKey)
	}
	if opts.Cashier != "" {
		req.Header.Set("X-Cashier", opts.Cashier)
	}

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &APIError{StatusCode: status, Message: errorMessage(body)}
	}

	var res saleResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("error unmarshalling sale response: %w", err)
	}
	saleID := rawID(res.SaleID)
	if saleID == "" {
		return nil, ErrMissingSaleID
	}
	return &model.SaleReceipt{SaleID: saleID, Message: res.Message}, nil
}

func (c *BackendClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *BackendClient) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("error calling backend: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("error reading response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// errorMessage pulls the "error" field out of a JSON error body, if any.
func errorMessage(body []byte) string {
	var res struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return ""
	}
	return res.Error
}

// rawID accepts numeric and string sale ids.
func rawID(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return ""
		}
		return strings.TrimSpace(str)
	}
	return s
}
