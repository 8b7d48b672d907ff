package domain

import "time"

// CronLock is a named lease row. A lease older than its TTL is stale and may
// be taken over.
type CronLock struct {
	Name     string    `json:"name"`
	LockedAt time.Time `json:"locked_at"`
	Owner    string    `json:"owner"`
}
