package store

import "time"

// Option configures the JSON backend. The SQL backends ignore options.
type Option func(*jsonFileStore)

// WithFileSystem replaces the disk the store file and its temp copy are
// written to. Tests pass a MockFileSystem.
func WithFileSystem(fs FileSystem) Option {
	return func(s *jsonFileStore) { s.fs = fs }
}

// WithFileLockFactory replaces the flock-backed cross-process lock taken on
// "<path>.lock" around every write.
func WithFileLockFactory(factory FileLockFactory) Option {
	return func(s *jsonFileStore) { s.lockFactory = factory }
}

// WithTimeFunc sets the clock stamped into Metadata.CreatedAt of a new file
// and Metadata.UpdatedAt on every committed write.
func WithTimeFunc(fn func() time.Time) Option {
	return func(s *jsonFileStore) { s.timeFunc = fn }
}
