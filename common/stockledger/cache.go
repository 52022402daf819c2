package stockledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orderflow/pipeline/common/domain"
)

// CachedLedger wraps Ledger with a Redis cache-aside layer over Sum: the
// aggregation pipeline behind Sum is re-run on every call otherwise, and
// STOCK-WORKER calls it once per DECREASE it validates. Every write
// invalidates the product's cached sum rather than trying to keep it
// updated in place, so a concurrent Append elsewhere is never missed.
type CachedLedger struct {
	*Ledger
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedLedger(ledger *Ledger, redisClient *redis.Client, ttl time.Duration) *CachedLedger {
	return &CachedLedger{Ledger: ledger, redis: redisClient, ttl: ttl}
}

func sumKey(productID string) string {
	return fmt.Sprintf("stock:sum:%s", productID)
}

// Sum checks Redis first; on a miss it falls back to the underlying
// aggregation and populates the cache, best-effort.
func (c *CachedLedger) Sum(ctx context.Context, productID string) (int, error) {
	key := sumKey(productID)

	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		if total, parseErr := strconv.Atoi(cached); parseErr == nil {
			return total, nil
		}
	}

	total, err := c.Ledger.Sum(ctx, productID)
	if err != nil {
		return 0, err
	}

	if setErr := c.redis.Set(ctx, key, total, c.ttl).Err(); setErr != nil {
		// Cache population failure does not invalidate the read: the sum
		// computed from the ledger is authoritative either way.
		return total, nil
	}
	return total, nil
}

func (c *CachedLedger) Append(ctx context.Context, productID string, entryType domain.StockEntryType, quantity int, reason, orderID string) (domain.StockEntry, error) {
	entry, err := c.Ledger.Append(ctx, productID, entryType, quantity, reason, orderID)
	if err != nil {
		return domain.StockEntry{}, err
	}
	c.invalidate(ctx, productID)
	return entry, nil
}

func (c *CachedLedger) AppendCompensation(ctx context.Context, sourceEntry domain.StockEntry) (domain.StockEntry, error) {
	entry, err := c.Ledger.AppendCompensation(ctx, sourceEntry)
	if err != nil {
		return domain.StockEntry{}, err
	}
	c.invalidate(ctx, sourceEntry.ProductID)
	return entry, nil
}

func (c *CachedLedger) invalidate(ctx context.Context, productID string) {
	c.redis.Del(ctx, sumKey(productID))
}
