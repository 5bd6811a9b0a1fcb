package cache

import (
	"context"
	"time"
)

// Cache records short lived keys such as processed webhook message ids.
type Cache interface {
	// SetNX stores val only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key, val string, ttl time.Duration) (bool, error)
}
