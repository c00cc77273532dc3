package services

import (
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"bakeshop/internal/models"
	"bakeshop/internal/pricing"
	"bakeshop/internal/repositories"
	"bakeshop/pkg/rabbitmq"

	"github.com/google/uuid"
)

// totalEpsilon is the tolerance when comparing a submitted total against the
// recomputed one; anything beyond rounding noise is a rejected draft.
const totalEpsilon = 0.01

// OrderService accepts order drafts from the checkout flow, verifies them
// against the catalog and the shared pricing rules, and persists the result.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	couponRepo  repositories.CouponRepository
	mqClient    *rabbitmq.Client // RabbitMQ client
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, couponRepo repositories.CouponRepository, mqClient *rabbitmq.Client) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		couponRepo:  couponRepo,
		mqClient:    mqClient,
	}
}

// GetAllOrders retrieves all orders.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// GetOrderByNumber retrieves a single order by its customer-facing number.
func (s *OrderService) GetOrderByNumber(orderNumber string) (*models.Order, error) {
	return s.orderRepo.GetByOrderNumber(orderNumber)
}

// ListOrdersByUser retrieves the order history for a user.
func (s *OrderService) ListOrdersByUser(userID string) ([]models.Order, error) {
	return s.orderRepo.ListByUser(userID)
}

// CreateOrder verifies a draft and creates the order.
func (s *OrderService) CreateOrder(draft models.OrderDraft) (*models.Order, error) {
	if strings.TrimSpace(draft.UserID) == "" {
		return nil, fmt.Errorf("order draft is missing a user id")
	}
	if len(draft.Items) == 0 {
		return nil, fmt.Errorf("order draft has no items")
	}

	// 1. Verify every item against the catalog.
	for _, item := range draft.Items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s not found: %w", item.ProductID, err)
		}
		if product.Stock < item.Quantity {
			return nil, fmt.Errorf("insufficient stock for product %s (requested: %d, available: %d)", product.Name, item.Quantity, product.Stock)
		}
	}

	// 2. Recompute the money breakdown through the same calculator the
	// storefront rendered, and reject a draft whose total disagrees. A client
	// cannot buy at a discount the items no longer earn.
	totals := pricing.ComputeOrder(draft.Items, draft.DiscountAmount)
	if math.Abs(totals.Total-draft.TotalAmount) > totalEpsilon {
		return nil, fmt.Errorf("order total mismatch: submitted %.2f, computed %.2f", draft.TotalAmount, totals.Total)
	}

	// 3. If a coupon rides along, it must still resolve server-side.
	if draft.CouponID != "" {
		if _, err := s.couponRepo.GetByID(draft.CouponID); err != nil {
			return nil, fmt.Errorf("coupon on order draft not found: %w", err)
		}
	}

	newOrder := &models.Order{
		ID:              uuid.New().String(),
		OrderNumber:     newOrderNumber(),
		UserID:          draft.UserID,
		Items:           draft.Items,
		ShippingAddress: draft.ShippingAddress,
		PaymentMethod:   draft.PaymentMethod,
		Subtotal:        totals.Subtotal,
		Shipping:        totals.Shipping,
		DiscountAmount:  totals.Discount,
		TotalAmount:     totals.Total,
		CouponCode:      draft.CouponCode,
		CouponID:        draft.CouponID,
		Status:          models.OrderStatusPending,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	// 4. Save the order to the repository.
	if err := s.orderRepo.Create(newOrder); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	// 5. Publish an order.created event for downstream consumers (invoice
	// generation, notification mails). Publish failures are logged, never
	// surfaced: the order is already accepted.
	if s.mqClient != nil {
		event := map[string]interface{}{
			"orderID":     newOrder.ID,
			"orderNumber": newOrder.OrderNumber,
			"userID":      newOrder.UserID,
			"status":      newOrder.Status,
			"total":       newOrder.TotalAmount,
		}
		if err := s.mqClient.PublishOrderCreated(event); err != nil {
			log.Printf("Warning: Failed to publish order created event for order %s: %v", newOrder.ID, err)
		} else {
			log.Printf("Published order created event for order %s", newOrder.OrderNumber)
		}
	} else {
		log.Println("RabbitMQ client is not initialized. Skipping message publication.")
	}

	return newOrder, nil
}

// UpdateOrderStatus updates the status of an existing order.
func (s *OrderService) UpdateOrderStatus(id string, status string) error {
	validStatuses := map[string]bool{
		models.OrderStatusPending:    true,
		models.OrderStatusProcessing: true,
		models.OrderStatusShipped:    true,
		models.OrderStatusDelivered:  true,
		models.OrderStatusCancelled:  true,
	}
	if _, ok := validStatuses[status]; !ok {
		return fmt.Errorf("invalid order status: %s", status)
	}

	if err := s.orderRepo.UpdateStatus(id, status); err != nil {
		return fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}
	return nil
}

// newOrderNumber builds the customer-facing order number: date plus a short
// unique suffix, e.g. ORD-20260901-1A2B3C.
func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), suffix)
}
