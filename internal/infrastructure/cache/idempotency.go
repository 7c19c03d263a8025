// Package cache holds the short-lived request claims used to make payment
// submissions idempotent.
package cache

import (
	"context"
	"time"
)

// IdempotencyStore claims request keys for a limited time. A key can be
// claimed once until it expires or is released.
type IdempotencyStore interface {
	// Claim takes key for ttl. It returns false if the key is already held.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release drops a claim so the request can be retried
	Release(ctx context.Context, key string) error

	// IsClaimed reports whether key is currently held
	IsClaimed(ctx context.Context, key string) (bool, error)

	Close() error
}

// PaymentKey scopes a client supplied Idempotency-Key to one store
func PaymentKey(tenantID, key string) string {
	return "payment:" + tenantID + ":" + key
}
