package library

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/dictype/internal/model"
	"github.com/verte-zerg/dictype/internal/store"
)

func newTestStore(t *testing.T) (*Store, store.KV) {
	t.Helper()
	kv := store.NewMemory()
	return New(NewKVBackend(kv)), kv
}

func TestAddAndGetLibrary(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	lib, err := s.AddLibrary(ctx, model.Library{
		Name:  "Basics",
		Items: []model.Item{{English: "Hello.", Chinese: "你好。"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, lib.ID)
	require.NotEmpty(t, lib.Items[0].ID)
	assert.Equal(t, model.ItemSentence, lib.Items[0].Type)

	got, err := s.Library(ctx, lib.ID)
	require.NoError(t, err)
	assert.Equal(t, lib.Name, got.Name)

	_, err = s.Library(ctx, "missing")
	assert.True(t, errors.Is(err, ErrLibraryNotFound))
}

func TestWrongLibraryCreatedLazily(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	wrong, err := s.Library(ctx, model.WrongLibraryID)
	require.NoError(t, err)
	assert.Equal(t, model.WrongLibraryName, wrong.Name)
	assert.Empty(t, wrong.Items)

	libs, err := s.Libraries(ctx)
	require.NoError(t, err)
	assert.Len(t, libs, 1)
}

func TestWrongLibraryCannotBeDeletedOrAdded(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	assert.ErrorIs(t, s.DeleteLibrary(ctx, model.WrongLibraryID), ErrReservedLibrary)
	_, err := s.AddLibrary(ctx, model.Library{ID: model.WrongLibraryID})
	assert.ErrorIs(t, err, ErrReservedLibrary)
}

func TestAddWrongItemDedupesAndPrepends(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	source := model.Library{ID: "lib-1", Name: "Basics"}

	first := model.Item{ID: "a", English: "One.", Chinese: "一。", Type: model.ItemSentence}
	second := model.Item{ID: "b", English: "Two.", Chinese: "二。", Type: model.ItemSentence}

	entry, added, err := s.AddWrongItem(ctx, first, source)
	require.NoError(t, err)
	assert.True(t, added)
	assert.NotEqual(t, "a", entry.ID)
	assert.Equal(t, "lib-1", entry.SourceLibraryID)
	assert.Equal(t, "Basics", entry.SourceLibraryName)

	_, added, err = s.AddWrongItem(ctx, first, source)
	require.NoError(t, err)
	assert.False(t, added)

	_, _, err = s.AddWrongItem(ctx, second, source)
	require.NoError(t, err)

	wrong, err := s.Library(ctx, model.WrongLibraryID)
	require.NoError(t, err)
	require.Len(t, wrong.Items, 2)
	assert.Equal(t, "Two.", wrong.Items[0].English)
	assert.Equal(t, "One.", wrong.Items[1].English)

	removed, err := s.RemoveWrongItem(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.RemoveWrongItem(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestDeleteItem(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	lib, err := s.AddLibrary(ctx, model.Library{
		Name: "Basics",
		Items: []model.Item{
			{ID: "x", English: "X.", Type: model.ItemSentence},
			{ID: "y", English: "Y.", Type: model.ItemSentence},
		},
	})
	require.NoError(t, err)

	removed, err := s.DeleteItem(ctx, lib.ID, "x")
	require.NoError(t, err)
	assert.True(t, removed)

	got, err := s.Library(ctx, lib.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "y", got.Items[0].ID)
}

func TestSeedRunsOnce(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)
	defaults, err := Defaults()
	require.NoError(t, err)
	require.NotEmpty(t, defaults)

	seeded, err := s.Seed(ctx, kv, defaults)
	require.NoError(t, err)
	assert.True(t, seeded)

	libs, err := s.Libraries(ctx)
	require.NoError(t, err)
	assert.Len(t, libs, len(defaults)+1)

	for _, lib := range defaults {
		require.NoError(t, s.DeleteLibrary(ctx, lib.ID))
	}
	seeded, err = s.Seed(ctx, kv, defaults)
	require.NoError(t, err)
	assert.False(t, seeded)

	libs, err = s.Libraries(ctx)
	require.NoError(t, err)
	assert.Len(t, libs, 1)
}

func TestLibrariesReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, err := s.AddLibrary(ctx, model.Library{ID: "lib", Name: "L", Items: []model.Item{{ID: "i", English: "A."}}})
	require.NoError(t, err)

	libs, err := s.Libraries(ctx)
	require.NoError(t, err)
	libs[0].Items[0].English = "changed"

	got, err := s.Library(ctx, "lib")
	require.NoError(t, err)
	assert.Equal(t, "A.", got.Items[0].English)
}

func TestAddLibraryRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, err := s.AddLibrary(ctx, model.Library{ID: "one", Name: "Travel"})
	require.NoError(t, err)

	_, err = s.AddLibrary(ctx, model.Library{ID: "two", Name: " travel "})
	assert.ErrorIs(t, err, ErrNameConflict)
	_, err = s.AddLibrary(ctx, model.Library{ID: "one", Name: "Other"})
	assert.ErrorIs(t, err, ErrDuplicateID)
}
