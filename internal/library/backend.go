package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/verte-zerg/dictype/internal/model"
	"github.com/verte-zerg/dictype/internal/store"
)

// Backend persists the whole library collection at once.
type Backend interface {
	GetAll(ctx context.Context) ([]model.Library, error)
	Put(ctx context.Context, libs []model.Library) error
}

// KVBackend stores the collection as one JSON record.
type KVBackend struct {
	kv store.KV
}

// NewKVBackend returns a Backend over kv.
func NewKVBackend(kv store.KV) *KVBackend {
	return &KVBackend{kv: kv}
}

// GetAll implements Backend. A missing record is an empty collection.
func (b *KVBackend) GetAll(ctx context.Context) ([]model.Library, error) {
	raw, err := b.kv.Get(ctx, store.KeyLibraries)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read libraries: %w", err)
	}
	var libs []model.Library
	if err := json.Unmarshal(raw, &libs); err != nil {
		return nil, fmt.Errorf("failed to decode libraries: %w", err)
	}
	return libs, nil
}

// Put implements Backend.
func (b *KVBackend) Put(ctx context.Context, libs []model.Library) error {
	raw, err := json.Marshal(libs)
	if err != nil {
		return fmt.Errorf("failed to encode libraries: %w", err)
	}
	if err := b.kv.Put(ctx, store.KeyLibraries, raw); err != nil {
		return fmt.Errorf("failed to write libraries: %w", err)
	}
	return nil
}
