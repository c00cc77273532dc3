package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"bakeshop/internal/models"
	"bakeshop/internal/services"
)

// OrderReceipt is the slice of the order-creation response checkout needs:
// the order number drives the confirmation redirect.
type OrderReceipt struct {
	ID          string `json:"id"`
	OrderNumber string `json:"orderNumber"`
}

// OrderSubmissionGateway is the terminal transition of the checkout state
// machine. Implementations must create at most one order per call.
type OrderSubmissionGateway interface {
	Submit(ctx context.Context, draft models.OrderDraft) (*OrderReceipt, error)
}

// LocalGateway submits drafts straight to the in-process order service.
type LocalGateway struct {
	orders *services.OrderService
}

// NewLocalGateway creates a new LocalGateway.
func NewLocalGateway(orders *services.OrderService) *LocalGateway {
	return &LocalGateway{
		orders: orders,
	}
}

// Submit creates the order through the order service.
func (g *LocalGateway) Submit(_ context.Context, draft models.OrderDraft) (*OrderReceipt, error) {
	order, err := g.orders.CreateOrder(draft)
	if err != nil {
		return nil, err
	}
	return &OrderReceipt{ID: order.ID, OrderNumber: order.OrderNumber}, nil
}

// HTTPGateway posts order drafts to a remote order service speaking the
// customer-orders JSON contract.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway creates a new HTTPGateway for the given base URL.
func NewHTTPGateway(baseURL string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Submit posts the draft and decodes the receipt or the error body.
func (g *HTTPGateway) Submit(ctx context.Context, draft models.OrderDraft) (*OrderReceipt, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order draft: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&failure); decodeErr == nil {
			if failure.Error != "" {
				return nil, fmt.Errorf("order service rejected the order: %s", failure.Error)
			}
			if failure.Message != "" {
				return nil, fmt.Errorf("order service rejected the order: %s", failure.Message)
			}
		}
		return nil, fmt.Errorf("order service returned status %d", resp.StatusCode)
	}

	var receipt OrderReceipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}
	if receipt.OrderNumber == "" {
		return nil, fmt.Errorf("order response is missing an order number")
	}
	return &receipt, nil
}
