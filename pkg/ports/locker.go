package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker. Releasing a
// lock that has already expired and been taken by another holder is a no-op.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates session access between replicas sharing one store.
//
// The session manager takes two keys per session: the session ID while it
// reads or writes the record, and "<id>:turn" for the whole duration of a turn.
type DistributedLocker interface {
	// Lock blocks until key is held or ctx is done. The lock expires after
	// ttl even if never released; zero means no expiry.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
