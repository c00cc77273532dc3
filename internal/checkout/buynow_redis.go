package checkout

import (
	"context"
	"encoding/json"
	"fmt"

	"bakeshop/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisBuyNowStore keeps staged buy-now items in Redis so they survive
// storefront restarts and are shared across instances. GETDEL gives the
// at-most-once consumption; the TTL erases abandoned stagings.
type RedisBuyNowStore struct {
	rdb *redis.Client
}

// NewRedisBuyNowStore creates a new RedisBuyNowStore.
func NewRedisBuyNowStore(rdb *redis.Client) *RedisBuyNowStore {
	return &RedisBuyNowStore{
		rdb: rdb,
	}
}

func buyNowKey(ownerID string) string {
	return "buynow:" + ownerID
}

// Stage stores the item with the staging TTL, replacing any previous one.
func (s *RedisBuyNowStore) Stage(ctx context.Context, ownerID string, item models.CartItem) error {
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal buy-now item: %w", err)
	}
	if err := s.rdb.Set(ctx, buyNowKey(ownerID), body, StagingTTL).Err(); err != nil {
		return fmt.Errorf("failed to stage buy-now item for %s: %w", ownerID, err)
	}
	return nil
}

// Consume atomically reads and deletes the staged item.
func (s *RedisBuyNowStore) Consume(ctx context.Context, ownerID string) (*models.CartItem, error) {
	body, err := s.rdb.GetDel(ctx, buyNowKey(ownerID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume buy-now item for %s: %w", ownerID, err)
	}

	var item models.CartItem
	if err := json.Unmarshal([]byte(body), &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal buy-now item for %s: %w", ownerID, err)
	}
	return &item, nil
}
