// Package checkout drives the multi-step order flow: collect a shipping
// address behind the delivery-region gate, pick a payment method, optionally
// attach a validated coupon, and submit the order exactly once.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"bakeshop/internal/models"
	"bakeshop/internal/pricing"
	"bakeshop/internal/region"
	"bakeshop/internal/services"

	"github.com/google/uuid"
)

// Session states.
const (
	StateCollectingShipping = "collecting_shipping"
	StateCollectingPayment  = "collecting_payment"
	StateSubmitting         = "submitting"
	StateSucceeded          = "succeeded"
	StateFailed             = "failed"
)

// Flows: how the session's items were sourced. Only the cart flow clears the
// cart on success; a buy-now purchase was never in the cart.
const (
	FlowCart   = "cart"
	FlowBuyNow = "buynow"
)

// SessionTTL bounds how long an untouched session survives. Succeeded and
// abandoned sessions are evicted lazily on lookup and swept on Begin, so the
// session map cannot grow for the life of the process.
const SessionTTL = time.Hour

var (
	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("checkout session not found")
	// ErrSubmissionInFlight makes a second submit while one is pending a
	// no-op instead of a queued duplicate.
	ErrSubmissionInFlight = errors.New("an order submission is already in progress")
	// ErrIncompleteIdentity marks an authenticated-but-malformed identity;
	// the draft is never sent to the order service in that case.
	ErrIncompleteIdentity = errors.New("your session looks invalid, please sign in again")
	// ErrNoItems is returned when there is nothing to check out.
	ErrNoItems = errors.New("there are no items to check out")
	// ErrUnserviceablePincode is the region gate rejection.
	ErrUnserviceablePincode = errors.New(region.ErrMessage)
)

// ShippingForm holds the step-1 fields. State and country are preset to the
// only supported region and city is overwritten by the pincode lookup.
type ShippingForm struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (f *ShippingForm) trim() {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Address = strings.TrimSpace(f.Address)
	f.City = strings.TrimSpace(f.City)
	f.PostalCode = strings.TrimSpace(f.PostalCode)
}

func (f ShippingForm) missing() []string {
	var fields []string
	for name, value := range map[string]string{
		"first_name":  f.FirstName,
		"last_name":   f.LastName,
		"email":       f.Email,
		"phone":       f.Phone,
		"address":     f.Address,
		"postal_code": f.PostalCode,
	} {
		if value == "" {
			fields = append(fields, name)
		}
	}
	return fields
}

// Session is one customer's checkout attempt. The item source is fixed at
// Begin and never re-evaluated mid-flow.
type Session struct {
	ID       string
	Identity models.Identity
	Flow     string
	Items    []models.CartItem

	State           string
	Form            ShippingForm
	PostalCodeError string
	PaymentMethod   string
	Applied         *pricing.Applied
	CouponError     string
	FailureMessage  string
	OrderNumber     string

	mu         sync.Mutex
	submitting bool
	touched    time.Time // guarded by the orchestrator mutex, not the session's
}

// View is the serializable snapshot of a session handed to the HTTP layer.
type View struct {
	ID              string            `json:"id"`
	State           string            `json:"state"`
	Flow            string            `json:"flow"`
	Items           []models.CartItem `json:"items"`
	Form            ShippingForm      `json:"form"`
	PostalCodeError string            `json:"postal_code_error,omitempty"`
	PaymentMethod   string            `json:"payment_method,omitempty"`
	Coupon          *pricing.Applied  `json:"coupon,omitempty"`
	CouponError     string            `json:"coupon_error,omitempty"`
	FailureMessage  string            `json:"failure_message,omitempty"`
	OrderNumber     string            `json:"order_number,omitempty"`
	Totals          pricing.Totals    `json:"totals"`
}

// Orchestrator owns all live checkout sessions.
type Orchestrator struct {
	carts   *services.CartService
	coupons *services.CouponService
	staging BuyNowStore
	gateway OrderSubmissionGateway
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(carts *services.CartService, coupons *services.CouponService, staging BuyNowStore, gateway OrderSubmissionGateway) *Orchestrator {
	return &Orchestrator{
		carts:    carts,
		coupons:  coupons,
		staging:  staging,
		gateway:  gateway,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// StageBuyNow stages a single item for a direct purchase, bypassing the cart.
func (o *Orchestrator) StageBuyNow(ctx context.Context, identity models.Identity, item models.CartItem) error {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	return o.staging.Stage(ctx, identity.ID, item)
}

// Begin opens a checkout session. The item source is reconciled exactly once
// here: a staged buy-now item wins and is consumed destructively; otherwise
// the cart is snapshotted. The form is seeded from the identity and the
// region constants.
func (o *Orchestrator) Begin(ctx context.Context, identity models.Identity) (*Session, error) {
	staged, err := o.staging.Consume(ctx, identity.ID)
	if err != nil {
		// A broken staging store must not strand the customer; fall back to
		// the cart flow.
		log.Printf("Buy-now staging read failed for %s: %v", identity.ID, err)
		staged = nil
	}

	session := &Session{
		ID:       uuid.New().String(),
		Identity: identity,
		State:    StateCollectingShipping,
	}

	if staged != nil {
		session.Flow = FlowBuyNow
		session.Items = []models.CartItem{*staged}
	} else {
		cart, _, err := o.carts.Get(identity.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load cart for checkout: %w", err)
		}
		if len(cart.Items) == 0 {
			return nil, ErrNoItems
		}
		session.Flow = FlowCart
		session.Items = make([]models.CartItem, len(cart.Items))
		copy(session.Items, cart.Items)
		if cart.HasCoupon() {
			session.Applied = &pricing.Applied{
				CouponID:       cart.CouponID,
				CouponCode:     cart.CouponCode,
				DiscountAmount: cart.CouponDiscount,
			}
		}
	}

	first, last := splitName(identity.Name)
	session.Form = ShippingForm{
		FirstName: first,
		LastName:  last,
		Email:     identity.Email,
		State:     region.State,
		Country:   region.Country,
	}

	o.mu.Lock()
	o.sweepExpiredLocked()
	session.touched = o.now()
	o.sessions[session.ID] = session
	o.mu.Unlock()
	return session, nil
}

// SubmitShipping validates the step-1 form. The transition to payment is
// guarded by all required fields being present and by the pincode clearing
// the region gate; a violation keeps the session in CollectingShipping with
// an inline message and makes no network call.
func (o *Orchestrator) SubmitShipping(sessionID string, form ShippingForm) (*Session, error) {
	session, err := o.session(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.State != StateCollectingShipping {
		return session, fmt.Errorf("cannot edit the shipping address in state %s", session.State)
	}

	form.trim()
	if missing := form.missing(); len(missing) > 0 {
		return session, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	city, ok := region.CityForPincode(form.PostalCode)
	if !ok {
		session.PostalCodeError = region.ErrMessage
		return session, ErrUnserviceablePincode
	}

	// The pincode decides the city; whatever the customer typed loses.
	form.City = city
	form.State = region.State
	form.Country = region.Country

	session.Form = form
	session.PostalCodeError = ""
	session.State = StateCollectingPayment
	return session, nil
}

// BackToShipping returns a payment-step session to the address step, keeping
// every form value.
func (o *Orchestrator) BackToShipping(sessionID string) (*Session, error) {
	session, err := o.session(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.State != StateCollectingPayment {
		return session, fmt.Errorf("cannot go back to shipping from state %s", session.State)
	}
	session.State = StateCollectingShipping
	return session, nil
}

// SelectPayment records the chosen payment method. Only the method string is
// recorded; no payment processing happens here.
func (o *Orchestrator) SelectPayment(sessionID, method string) (*Session, error) {
	session, err := o.session(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.State != StateCollectingPayment {
		return session, fmt.Errorf("cannot select a payment method in state %s", session.State)
	}
	if strings.TrimSpace(method) == "" {
		return session, fmt.Errorf("payment method is required")
	}
	session.PaymentMethod = method
	return session, nil
}

// ApplyCoupon validates a code against the session's current order amount and
// attaches the discount snapshot on success. At most one coupon is active; a
// new attach replaces the previous one.
func (o *Orchestrator) ApplyCoupon(sessionID, code string) (models.CouponResult, error) {
	session, err := o.session(sessionID)
	if err != nil {
		return models.CouponResult{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.State == StateSubmitting || session.State == StateSucceeded {
		return models.CouponResult{}, fmt.Errorf("cannot change the coupon in state %s", session.State)
	}

	result, err := o.coupons.Validate(code, session.Identity.ID, pricing.Subtotal(session.Items))
	if err != nil {
		return models.CouponResult{}, err
	}
	if !result.Valid {
		session.CouponError = result.Error
		return result, nil
	}

	session.Applied = &pricing.Applied{
		CouponID:       result.Coupon.ID,
		CouponCode:     result.Coupon.Code,
		DiscountAmount: result.DiscountAmount,
	}
	session.CouponError = ""
	return result, nil
}

// RemoveCoupon detaches the applied coupon, if any.
func (o *Orchestrator) RemoveCoupon(sessionID string) error {
	session, err := o.session(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.State == StateSubmitting || session.State == StateSucceeded {
		return fmt.Errorf("cannot change the coupon in state %s", session.State)
	}
	session.Applied = nil
	session.CouponError = ""
	return nil
}

// Submit is the terminal transition. Guards: payment step reached, pincode
// still clean, no submission already in flight. Local validation is re-run
// fail-fast before the network call; the applied coupon is re-validated so a
// stale discount can never reach the order service. On failure the session
// returns to the payment step with everything else intact so the customer can
// retry without re-entering data.
func (o *Orchestrator) Submit(ctx context.Context, sessionID string) (string, error) {
	session, err := o.session(sessionID)
	if err != nil {
		return "", err
	}

	session.mu.Lock()
	if session.submitting || session.State == StateSubmitting {
		session.mu.Unlock()
		return "", ErrSubmissionInFlight
	}
	if session.State != StateCollectingPayment {
		session.mu.Unlock()
		return "", fmt.Errorf("cannot submit an order in state %s", session.State)
	}
	if session.PostalCodeError != "" {
		session.mu.Unlock()
		return "", ErrUnserviceablePincode
	}
	if !session.Identity.Complete() {
		session.mu.Unlock()
		return "", ErrIncompleteIdentity
	}
	if len(session.Items) == 0 {
		session.mu.Unlock()
		return "", ErrNoItems
	}
	if missing := session.Form.missing(); len(missing) > 0 {
		session.mu.Unlock()
		return "", fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if session.PaymentMethod == "" {
		session.mu.Unlock()
		return "", fmt.Errorf("please choose a payment method")
	}

	if session.Applied != nil {
		result, err := o.coupons.Validate(session.Applied.CouponCode, session.Identity.ID, pricing.Subtotal(session.Items))
		if err != nil || !result.Valid {
			reason := "Coupon is no longer valid"
			if err == nil {
				reason = result.Error
			}
			session.Applied = nil
			session.CouponError = reason
		} else {
			session.Applied.DiscountAmount = result.DiscountAmount
		}
	}

	totals := pricing.Compute(session.Items, session.Applied)
	draft := assembleDraft(session, totals)

	session.submitting = true
	session.State = StateSubmitting
	session.mu.Unlock()

	receipt, submitErr := o.gateway.Submit(ctx, draft)

	session.mu.Lock()
	defer session.mu.Unlock()
	session.submitting = false

	if submitErr != nil {
		session.State = StateCollectingPayment
		session.FailureMessage = submitErr.Error()
		return "", submitErr
	}

	session.State = StateSucceeded
	session.FailureMessage = ""
	session.OrderNumber = receipt.OrderNumber

	if session.Flow == FlowCart {
		if err := o.carts.Clear(session.Identity.ID); err != nil {
			// The order is placed; a lingering cart is an annoyance, not a
			// failure.
			log.Printf("Failed to clear cart for %s after order %s: %v", session.Identity.ID, receipt.OrderNumber, err)
		}
	}
	return receipt.OrderNumber, nil
}

// Get returns a serializable snapshot of the session, totals included.
func (o *Orchestrator) Get(sessionID string) (View, error) {
	session, err := o.session(sessionID)
	if err != nil {
		return View{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	items := make([]models.CartItem, len(session.Items))
	copy(items, session.Items)
	// Copy the discount snapshot too: the view outlives the lock, and Submit
	// rewrites the applied amount through the same struct.
	var applied *pricing.Applied
	if session.Applied != nil {
		snapshot := *session.Applied
		applied = &snapshot
	}
	return View{
		ID:              session.ID,
		State:           session.State,
		Flow:            session.Flow,
		Items:           items,
		Form:            session.Form,
		PostalCodeError: session.PostalCodeError,
		PaymentMethod:   session.PaymentMethod,
		Coupon:          applied,
		CouponError:     session.CouponError,
		FailureMessage:  session.FailureMessage,
		OrderNumber:     session.OrderNumber,
		Totals:          pricing.Compute(session.Items, applied),
	}, nil
}

func (o *Orchestrator) session(id string) (*Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	session, ok := o.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if o.now().Sub(session.touched) > SessionTTL {
		delete(o.sessions, id)
		return nil, ErrSessionNotFound
	}
	session.touched = o.now()
	return session, nil
}

// sweepExpiredLocked drops sessions idle beyond SessionTTL. The caller must
// hold the orchestrator mutex.
func (o *Orchestrator) sweepExpiredLocked() {
	cutoff := o.now().Add(-SessionTTL)
	for id, session := range o.sessions {
		if session.touched.Before(cutoff) {
			delete(o.sessions, id)
		}
	}
}

// assembleDraft maps the session into the order service's field names. The
// caller must hold the session lock.
func assembleDraft(session *Session, totals pricing.Totals) models.OrderDraft {
	items := make([]models.OrderItem, 0, len(session.Items))
	for _, item := range session.Items {
		items = append(items, models.OrderItem{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.Price,
			VariantID:  item.VariantID,
			Weight:     item.Weight,
			CustomName: item.CustomName,
		})
	}

	draft := models.OrderDraft{
		UserID: session.Identity.ID,
		Items:  items,
		ShippingAddress: models.ShippingAddress{
			Street:    session.Form.Address,
			City:      session.Form.City,
			State:     session.Form.State,
			Pincode:   session.Form.PostalCode,
			Country:   session.Form.Country,
			FirstName: session.Form.FirstName,
			LastName:  session.Form.LastName,
			Phone:     session.Form.Phone,
			Email:     session.Form.Email,
		},
		PaymentMethod:  session.PaymentMethod,
		TotalAmount:    totals.Total,
		Subtotal:       totals.Subtotal,
		Shipping:       totals.Shipping,
		DiscountAmount: totals.Discount,
	}
	if session.Applied != nil {
		draft.CouponCode = session.Applied.CouponCode
		draft.CouponID = session.Applied.CouponID
	}
	return draft
}

func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return name, ""
	}
	return name[:idx], name[idx+1:]
}
