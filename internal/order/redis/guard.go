package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const admissionPrefix = "order_admission:"

// Guard is a best-effort fast path in front of the database's unique
// idempotency-key constraint. It serializes concurrent duplicate
// order-creation calls with SetNX so only one proceeds to the remote
// saga while the other falls back to a lookup. Redis being down never
// blocks admission; the DB constraint stays authoritative.
type Guard struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewGuard(client *redis.Client) *Guard {
	return &Guard{
		Client: client,
		Logger: log.Default(),
	}
}

// getAdmissionTTL returns the admission window from the environment or
// the default value.
func (g *Guard) getAdmissionTTL() time.Duration {
	defaultTTL := 5 * time.Minute

	ttlStr := os.Getenv("ORDER_ADMISSION_TTL_MINUTES")
	if ttlStr == "" {
		return defaultTTL
	}

	ttlMin, err := strconv.Atoi(ttlStr)
	if err != nil {
		g.Logger.Println("REDIS: Invalid ORDER_ADMISSION_TTL_MINUTES value '" + ttlStr + "', using default 5 minutes")
		return defaultTTL
	}

	return time.Duration(ttlMin) * time.Minute
}

// Admit claims the idempotency key for orderID. It returns the claim
// result plus the order id currently holding the key when the claim lost.
func (g *Guard) Admit(ctx context.Context, idempotencyKey, orderID string) (bool, string, error) {
	key := admissionPrefix + idempotencyKey

	ok, err := g.Client.SetNX(ctx, key, orderID, g.getAdmissionTTL()).Result()
	if err != nil {
		return false, "", err
	}
	if ok {
		return true, orderID, nil
	}

	holder, err := g.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		// Holder expired between SetNX and Get; treat as admitted.
		return true, orderID, nil
	}
	if err != nil {
		return false, "", err
	}
	return false, holder, nil
}

// Forget drops the admission claim, used when order creation aborts
// before anything was persisted so an immediate retry is not locked out.
func (g *Guard) Forget(ctx context.Context, idempotencyKey, orderID string) error {
	key := admissionPrefix + idempotencyKey

	val, err := g.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if val == orderID {
		_, err := g.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

// CheckAdmitted reports whether any order currently holds the key.
func (g *Guard) CheckAdmitted(ctx context.Context, idempotencyKey string) (bool, error) {
	key := admissionPrefix + idempotencyKey
	_, err := g.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check admission for %s: %w", idempotencyKey, err)
	}
	return true, nil
}
