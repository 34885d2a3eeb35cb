package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/navtree/navtree/storage"
)

// jsonFileStore keeps the whole dataset in one JSON file. Writers hold the
// in-process write lock and the cross-process file lock for the whole
// read-modify-write cycle.
type jsonFileStore struct {
	filePath    string
	lockManager *storage.LockManager
	fs          FileSystem
	lockFactory FileLockFactory
	fileLock    FileLock

	data *storage.StoreData
	// timeFunc is used to get the current time, defaults to time.Now
	timeFunc func() time.Time
}

// NewJSONFileStore opens (or lazily creates) a JSON file store at filePath
func NewJSONFileStore(filePath string, opts ...Option) (Store, error) {
	return newJSONFileStore(filePath, opts...)
}

func newJSONFileStore(filePath string, opts ...Option) (*jsonFileStore, error) {
	s := &jsonFileStore{
		filePath:    filePath,
		lockManager: storage.NewLockManager(),
		timeFunc:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = OSFileSystem{}
	}
	if s.lockFactory == nil {
		s.lockFactory = FlockFactory{}
	}
	s.data = storage.NewStoreData(s.timeFunc())
	s.fileLock = s.lockFactory.New(filePath + ".lock")

	if err := s.loadWithLock(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	return s, nil
}

// Constants for file locking
const (
	lockTimeout    = 3 * time.Second
	lockMaxRetries = 3
	lockRetryDelay = 100 * time.Millisecond
)

// acquireLock attempts to acquire an exclusive file lock with retry logic
func (s *jsonFileStore) acquireLock(ctx context.Context) error {
	for i := 0; i < lockMaxRetries; i++ {
		locked, err := s.fileLock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if locked {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return fmt.Errorf("failed to acquire lock after %d attempts", lockMaxRetries)
}

func (s *jsonFileStore) releaseLock() error {
	return s.fileLock.Unlock()
}

func (s *jsonFileStore) loadWithLock() error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	if err := s.acquireLock(ctx); err != nil {
		return err
	}
	defer func() { _ = s.releaseLock() }()

	return s.load()
}

// load replaces the in-memory data with the file contents. A missing or
// empty file leaves the current data in place. Caller holds the locks.
func (s *jsonFileStore) load() error {
	if _, err := s.fs.Stat(s.filePath); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	raw, err := s.fs.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}

	data := storage.NewStoreData(s.timeFunc())
	if err := json.Unmarshal(raw, data); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	s.data = data
	return nil
}

// save writes data to a temp file and renames it over the store file.
// Caller holds the locks.
func (s *jsonFileStore) save(data *storage.StoreData) error {
	data.Metadata.UpdatedAt = s.timeFunc()
	if data.Metadata.Version == "" {
		data.Metadata.Version = storage.CurrentVersion
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if dir := filepath.Dir(s.filePath); dir != "." && dir != "" {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	tmpFile := s.filePath + ".tmp"
	if err := s.fs.WriteFile(tmpFile, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := s.fs.Rename(tmpFile, s.filePath); err != nil {
		_ = s.fs.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// Update runs fn against a copy of the data and commits the copy only when
// fn succeeds and the file was written.
func (s *jsonFileStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	return s.lockManager.Execute(storage.WriteOperation, func() error {
		lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
		defer cancel()

		if err := s.acquireLock(lockCtx); err != nil {
			return err
		}
		defer func() { _ = s.releaseLock() }()

		if err := s.load(); err != nil {
			return err
		}

		work := s.data.Clone()
		if err := fn(&jsonTx{data: work}); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.save(work); err != nil {
			return fmt.Errorf("failed to save: %w", err)
		}
		s.data = work
		return nil
	})
}

// View runs fn against the in-memory data. Changes committed by other
// processes become visible after this process's next Update.
func (s *jsonFileStore) View(ctx context.Context, fn func(tx Tx) error) error {
	return s.lockManager.Execute(storage.ReadOperation, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(&jsonTx{data: s.data, readOnly: true})
	})
}

// Close releases nothing; the file lock is only held during Update
func (s *jsonFileStore) Close() error {
	return nil
}
