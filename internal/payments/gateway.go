package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/docpoint/platform/pkg/logging"
)

// Order is a payment order created at the gateway. Receipt carries the
// appointment id so a verified payment can be traced back to its booking.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateOrderParams describes the order to open. Amount is in the currency's
// smallest unit.
type CreateOrderParams struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// Gateway talks to the payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error)
	GetOrder(ctx context.Context, orderID string) (*Order, error)
}

// RazorpayGateway implements Gateway against Razorpay's Orders API using
// basic auth with the key pair.
type RazorpayGateway struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	logger     *logging.Logger
}

var _ Gateway = (*RazorpayGateway)(nil)

func NewRazorpayGateway(baseURL, keyID, keySecret string, logger *logging.Logger) *RazorpayGateway {
	if baseURL == "" {
		panic("payments: gateway base URL cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RazorpayGateway{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("payments: marshal order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("payments: build order request: %w", err)
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set("Content-Type", "application/json")

	return g.do(req, http.StatusOK)
}

func (g *RazorpayGateway) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/orders/"+orderID, nil)
	if err != nil {
		return nil, fmt.Errorf("payments: build order lookup: %w", err)
	}
	req.SetBasicAuth(g.keyID, g.keySecret)

	return g.do(req, http.StatusOK)
}

func (g *RazorpayGateway) do(req *http.Request, wantStatus int) (*Order, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payments: call gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrOrderNotFound
	}
	if resp.StatusCode != wantStatus {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		g.logger.Error("gateway returned error",
			"status", resp.StatusCode, "path", req.URL.Path, "body", string(snippet))
		return nil, fmt.Errorf("payments: gateway returned status %d", resp.StatusCode)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("payments: decode gateway response: %w", err)
	}
	return &order, nil
}
