package checkout

import (
	"context"
	"sync"
	"time"

	"bakeshop/internal/models"
)

// StagingTTL bounds how long a staged buy-now item survives if the customer
// never reaches checkout.
const StagingTTL = 30 * time.Minute

// BuyNowStore stages a single direct-purchase item per customer. A staged
// item is consumed at most once: Consume returns it and erases it in the same
// step, so a page refresh can never replay it.
type BuyNowStore interface {
	Stage(ctx context.Context, ownerID string, item models.CartItem) error
	// Consume returns the staged item and removes it, or (nil, nil) when
	// nothing is staged.
	Consume(ctx context.Context, ownerID string) (*models.CartItem, error)
}

type stagedItem struct {
	item    models.CartItem
	expires time.Time
}

// MemoryBuyNowStore is the in-process BuyNowStore used for single-instance
// deployments and tests.
type MemoryBuyNowStore struct {
	items map[string]stagedItem
	mu    sync.Mutex
	now   func() time.Time
}

// NewMemoryBuyNowStore creates a new MemoryBuyNowStore.
func NewMemoryBuyNowStore() *MemoryBuyNowStore {
	return &MemoryBuyNowStore{
		items: make(map[string]stagedItem),
		now:   time.Now,
	}
}

// Stage stores the item, replacing any previously staged one.
func (s *MemoryBuyNowStore) Stage(_ context.Context, ownerID string, item models.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[ownerID] = stagedItem{item: item, expires: s.now().Add(StagingTTL)}
	return nil
}

// Consume removes and returns the staged item.
func (s *MemoryBuyNowStore) Consume(_ context.Context, ownerID string) (*models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged, ok := s.items[ownerID]
	if !ok {
		return nil, nil
	}
	delete(s.items, ownerID)
	if s.now().After(staged.expires) {
		return nil, nil
	}
	item := staged.item
	return &item, nil
}
