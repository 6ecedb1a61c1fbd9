package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/dictype/internal/model"
)

func TestImportMergesWrongItemsAndSkipsConflicts(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	existing, err := s.AddLibrary(ctx, model.Library{Name: "Travel", Items: []model.Item{{English: "Where is it?", Chinese: "在哪里？"}}})
	require.NoError(t, err)
	_, _, err = s.AddWrongItem(ctx, model.Item{English: "Hi there.", Chinese: "你好。"}, existing)
	require.NoError(t, err)

	res, err := s.Import(ctx, []model.Library{
		{ID: existing.ID, Name: "Food", Items: []model.Item{{English: "Rice please.", Chinese: "请给我米饭。"}}},
		{Name: " travel ", Items: []model.Item{{English: "Left.", Chinese: "左。"}}},
		{ID: model.WrongLibraryID, Name: model.WrongLibraryName, Items: []model.Item{
			{English: "Hi there.", Chinese: "你好。"},
			{English: "Thanks a lot.", Chinese: "多谢。", SourceLibraryID: "old", SourceLibraryName: "Old"},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Libraries)
	assert.Equal(t, 1, res.Items)
	assert.Equal(t, 1, res.WrongItems)
	assert.Equal(t, []string{" travel "}, res.Skipped)

	libs, err := s.Libraries(ctx)
	require.NoError(t, err)
	require.Len(t, libs, 3)

	var food model.Library
	for _, lib := range libs {
		if lib.Name == "Food" {
			food = lib
		}
	}
	assert.NotEqual(t, existing.ID, food.ID)

	wrong, err := s.Library(ctx, model.WrongLibraryID)
	require.NoError(t, err)
	require.Len(t, wrong.Items, 2)
	assert.Equal(t, "Thanks a lot.", wrong.Items[0].English)
	assert.Equal(t, "Old", wrong.Items[0].SourceLibraryName)
}
