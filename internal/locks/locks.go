// Package locks provides per-document mutual exclusion for read-modify-write
// sequences against the metadata store.
package locks

import (
	"context"
	"errors"
)

// ErrNotHeld indicates a lock expired or was taken over before release.
var ErrNotHeld = errors.New("locks: lock not held")

// System acquires exclusive locks keyed by document id.
type System interface {
	// Lock blocks until key is held or ctx is done. The returned function
	// releases the lock and must be called exactly once.
	Lock(ctx context.Context, key string) (func(), error)
}
