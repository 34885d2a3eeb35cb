package store

import (
	"context"
	"time"

	"github.com/gofrs/flock"
)

// FileLock guards the store file against writers in other processes
type FileLock interface {
	// TryLockContext retries every interval until the lock is held or ctx
	// is done
	TryLockContext(ctx context.Context, interval time.Duration) (bool, error)
	Unlock() error
}

// FileLockFactory returns the lock for a lock-file path
type FileLockFactory interface {
	New(path string) FileLock
}

// FlockFactory hands out gofrs/flock locks. *flock.Flock already satisfies
// FileLock.
type FlockFactory struct{}

// New implements FileLockFactory
func (FlockFactory) New(path string) FileLock {
	return flock.New(path)
}
