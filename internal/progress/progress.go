package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/verte-zerg/dictype/internal/logger"
	"github.com/verte-zerg/dictype/internal/store"
)

// MaxAge is how long a checkpoint stays resumable.
const MaxAge = 24 * time.Hour

// Store reads and writes the single active checkpoint.
type Store struct {
	mu  sync.Mutex
	kv  store.KV
	now func() time.Time
	log *logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger used for discarded checkpoints.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// New returns a checkpoint store over kv.
func New(kv store.KV, opts ...Option) *Store {
	s := &Store{kv: kv, now: time.Now, log: logger.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithPrefix("progress")
	return s
}

// Save merges snap into the stored checkpoint and writes the result. The
// merged snapshot is returned.
func (s *Store) Save(ctx context.Context, snap Snapshot) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := snap.Clone()
	if existing, ok := s.read(ctx); ok {
		merged = Merge(existing, snap)
	}
	merged.Version = SnapshotVersion
	merged.Timestamp = s.now()

	raw, err := encode(merged)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := s.kv.Put(ctx, store.KeyProgress, raw); err != nil {
		return Snapshot{}, fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return merged, nil
}

// Load returns the stored checkpoint. Expired, corrupt and unreadable
// checkpoints are cleared and reported as absent.
func (s *Store) Load(ctx context.Context) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.read(ctx)
	if !ok {
		return Snapshot{}, false
	}
	if s.now().Sub(snap.Timestamp) > MaxAge {
		s.log.Info("checkpoint for %s expired at %s", snap.LibraryID, snap.Timestamp.Add(MaxAge).Format(time.RFC3339))
		s.clear(ctx)
		return Snapshot{}, false
	}
	return snap, true
}

// Clear removes the checkpoint.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, store.KeyProgress); err != nil {
		return fmt.Errorf("failed to clear checkpoint: %w", err)
	}
	return nil
}

func (s *Store) read(ctx context.Context) (Snapshot, bool) {
	raw, err := s.kv.Get(ctx, store.KeyProgress)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Warn("failed to read checkpoint: %v", err)
		}
		return Snapshot{}, false
	}
	snap, err := decode(raw)
	if err != nil {
		s.log.Warn("discarding checkpoint: %v", err)
		s.clear(ctx)
		return Snapshot{}, false
	}
	return snap, true
}

func (s *Store) clear(ctx context.Context) {
	if err := s.kv.Delete(ctx, store.KeyProgress); err != nil {
		s.log.Warn("failed to clear checkpoint: %v", err)
	}
}
