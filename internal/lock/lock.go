// Package lock provides the named mutual-exclusion lease that keeps two
// payout runs from overlapping across processes.
package lock

import (
	"context"
	"time"
)

// Locker grants a named lease. Acquire reports false, with a nil error, when
// another holder has a lease younger than ttl.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	// Release drops the lease if this Locker still holds it. Releasing a lock
	// that is not held is not an error.
	Release(ctx context.Context, name string) error
}
