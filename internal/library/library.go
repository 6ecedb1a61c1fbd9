// Package library owns practice libraries and the wrong-item collection.
package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/dictype/internal/model"
	"github.com/verte-zerg/dictype/internal/store"
)

var (
	// ErrLibraryNotFound is returned for unknown library ids.
	ErrLibraryNotFound = errors.New("library not found")
	// ErrReservedLibrary is returned when an operation targets the wrong-item collection
	// in a way it does not support.
	ErrReservedLibrary = errors.New("operation not allowed on the wrong-item collection")
	// ErrNameConflict is returned when a library name is already taken, ignoring case.
	ErrNameConflict = errors.New("library name already exists")
	// ErrDuplicateID is returned when a library id is already taken.
	ErrDuplicateID = errors.New("library id already exists")
)

// Store is the authoritative item store. Every mutation is a single
// read-modify-write under one lock, so concurrent callers never interleave.
type Store struct {
	mu      sync.Mutex
	backend Backend
	now     func() time.Time
}

// New returns a Store over backend.
func New(backend Backend) *Store {
	return &Store{backend: backend, now: time.Now}
}

// Libraries returns copies of all libraries in stored order.
func (s *Store) Libraries(ctx context.Context) ([]model.Library, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	libs, err := s.backend.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Library, len(libs))
	for i, lib := range libs {
		out[i] = lib.Clone()
	}
	return out, nil
}

// Library returns a copy of the library with the given id. Asking for the
// wrong-item collection creates it when it does not exist yet.
func (s *Store) Library(ctx context.Context, id string) (model.Library, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	libs, err := s.backend.GetAll(ctx)
	if err != nil {
		return model.Library{}, err
	}
	if idx := indexOf(libs, id); idx >= 0 {
		return libs[idx].Clone(), nil
	}
	if id != model.WrongLibraryID {
		return model.Library{}, fmt.Errorf("%w: %s", ErrLibraryNotFound, id)
	}
	libs, idx := s.ensureWrong(libs)
	if err := s.backend.Put(ctx, libs); err != nil {
		return model.Library{}, err
	}
	return libs[idx].Clone(), nil
}

// AddLibrary appends lib, assigning ids where missing.
func (s *Store) AddLibrary(ctx context.Context, lib model.Library) (model.Library, error) {
	if lib.ID == model.WrongLibraryID {
		return model.Library{}, ErrReservedLibrary
	}
	lib = lib.Clone()
	now := s.now()
	if lib.ID == "" {
		lib.ID = uuid.NewString()
	}
	if lib.CreatedAt.IsZero() {
		lib.CreatedAt = now
	}
	for i := range lib.Items {
		if lib.Items[i].ID == "" {
			lib.Items[i].ID = uuid.NewString()
		}
		if lib.Items[i].CreatedAt.IsZero() {
			lib.Items[i].CreatedAt = now
		}
		if lib.Items[i].Type == "" {
			lib.Items[i].Type = model.ItemSentence
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	libs, err := s.backend.GetAll(ctx)
	if err != nil {
		return model.Library{}, err
	}
	if indexOf(libs, lib.ID) >= 0 {
		return model.Library{}, fmt.Errorf("%w: %s", ErrDuplicateID, lib.ID)
	}
	for _, existing := range libs {
		if strings.EqualFold(strings.TrimSpace(existing.Name), strings.TrimSpace(lib.Name)) {
			return model.Library{}, fmt.Errorf("%w: %s", ErrNameConflict, lib.Name)
		}
	}
	libs = append(libs, lib)
	if err := s.backend.Put(ctx, libs); err != nil {
		return model.Library{}, err
	}
	return lib.Clone(), nil
}

// DeleteLibrary removes a normal library. The wrong-item collection is never deleted.
func (s *Store) DeleteLibrary(ctx context.Context, id string) error {
	if id == model.WrongLibraryID {
		return ErrReservedLibrary
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	libs, err := s.backend.GetAll(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(libs, id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrLibraryNotFound, id)
	}
	libs = append(libs[:idx], libs[idx+1:]...)
	return s.backend.Put(ctx, libs)
}

// DeleteItem removes one item from a library. It reports whether the item existed.
func (s *Store) DeleteItem(ctx context.Context, libraryID, itemID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	libs, err := s.backend.GetAll(ctx)
	if err != nil {
		return false, err
	}
	idx := indexOf(libs, libraryID)
	if idx < 0 {
		return false, fmt.Errorf("%w: %s", ErrLibraryNotFound, libraryID)
	}
	items, removed := removeItem(libs[idx].Items, itemID)
	if !removed {
		return false, nil
	}
	libs[idx].Items = items
	return true, s.backend.Put(ctx, libs)
}

// AddWrongItem records item in the wrong-item collection under a fresh id,
// annotated with the library it came from. An entry with the same english and
// chinese text is kept as is; added reports whether a new entry was created.
func (s *Store) AddWrongItem(ctx context.Context, item model.Item, source model.Library) (model.Item, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	libs, err := s.backend.GetAll(ctx)
	if err != nil {
		return model.Item{}, false, err
	}
	libs, idx := s.ensureWrong(libs)
	wrong := &libs[idx]
	for _, existing := range wrong.Items {
		if existing.SameText(item) {
			return existing, false, nil
		}
	}
	entry := item
	entry.ID = uuid.NewString()
	entry.CreatedAt = s.now()
	entry.SourceLibraryID = source.ID
	entry.SourceLibraryName = source.Name
	wrong.Items = append([]model.Item{entry}, wrong.Items...)
	if err := s.backend.Put(ctx, libs); err != nil {
		return model.Item{}, false, err
	}
	return entry, true, nil
}

// RemoveWrongItem deletes an entry from the wrong-item collection.
func (s *Store) RemoveWrongItem(ctx context.Context, itemID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	libs, err := s.backend.GetAll(ctx)
	if err != nil {
		return false, err
	}
	idx := indexOf(libs, model.WrongLibraryID)
	if idx < 0 {
		return false, nil
	}
	items, removed := removeItem(libs[idx].Items, itemID)
	if !removed {
		return false, nil
	}
	libs[idx].Items = items
	return true, s.backend.Put(ctx, libs)
}

// Seed stores defaults on the very first run. Later runs, including ones where
// the user deleted every library, leave the collection alone.
func (s *Store) Seed(ctx context.Context, kv store.KV, defaults []model.Library) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := kv.Get(ctx, store.KeyInitialized); err == nil {
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	libs, err := s.backend.GetAll(ctx)
	if err != nil {
		return false, err
	}
	seeded := len(libs) == 0
	if seeded {
		for _, lib := range defaults {
			libs = append(libs, lib.Clone())
		}
		libs, _ = s.ensureWrong(libs)
		if err := s.backend.Put(ctx, libs); err != nil {
			return false, err
		}
	}
	if err := kv.Put(ctx, store.KeyInitialized, []byte("true")); err != nil {
		return false, err
	}
	return seeded, nil
}

func (s *Store) ensureWrong(libs []model.Library) ([]model.Library, int) {
	if idx := indexOf(libs, model.WrongLibraryID); idx >= 0 {
		return libs, idx
	}
	libs = append(libs, model.Library{
		ID:        model.WrongLibraryID,
		Name:      model.WrongLibraryName,
		Items:     []model.Item{},
		CreatedAt: s.now(),
	})
	return libs, len(libs) - 1
}

func indexOf(libs []model.Library, id string) int {
	for i, lib := range libs {
		if lib.ID == id {
			return i
		}
	}
	return -1
}

func removeItem(items []model.Item, id string) ([]model.Item, bool) {
	for i, it := range items {
		if it.ID == id {
			out := make([]model.Item, 0, len(items)-1)
			out = append(out, items[:i]...)
			return append(out, items[i+1:]...), true
		}
	}
	return items, false
}
