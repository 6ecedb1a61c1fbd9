package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/dictype/internal/audio"
	"github.com/verte-zerg/dictype/internal/library"
	"github.com/verte-zerg/dictype/internal/logger"
	"github.com/verte-zerg/dictype/internal/model"
	"github.com/verte-zerg/dictype/internal/progress"
	"github.com/verte-zerg/dictype/internal/queue"
	"github.com/verte-zerg/dictype/internal/store"
)

type fakeSpeaker struct {
	spoken []string
	stops  int
}

func (f *fakeSpeaker) Speak(text string) { f.spoken = append(f.spoken, text) }

func (f *fakeSpeaker) SpeakAsync(_ context.Context, text string) <-chan struct{} {
	f.spoken = append(f.spoken, text)
	done := make(chan struct{})
	close(done)
	return done
}

func (f *fakeSpeaker) Stop() { f.stops++ }

type fakeCues struct {
	played []audio.Cue
}

func (f *fakeCues) Play(cue audio.Cue) { f.played = append(f.played, cue) }

type fakeHistory struct {
	records []model.SessionRecord
	chars   [][]model.CharStats
}

func (f *fakeHistory) InsertSession(_ context.Context, rec model.SessionRecord, chars []model.CharStats) (int64, error) {
	f.records = append(f.records, rec)
	f.chars = append(f.chars, chars)
	return int64(len(f.records)), nil
}

type countingItems struct {
	ItemStore
	libraryCalls int
}

func (c *countingItems) Library(ctx context.Context, id string) (model.Library, error) {
	c.libraryCalls++
	return c.ItemStore.Library(ctx, id)
}

type harness struct {
	engine  *Engine
	items   *countingItems
	lib     *library.Store
	checks  *progress.Store
	speaker *fakeSpeaker
	cues    *fakeCues
	history *fakeHistory
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	kv := store.NewMemory()
	libs := library.New(library.NewKVBackend(kv))
	h := &harness{
		items:   &countingItems{ItemStore: libs},
		lib:     libs,
		checks:  progress.New(kv, progress.WithLogger(logger.Discard())),
		speaker: &fakeSpeaker{},
		cues:    &fakeCues{},
		history: &fakeHistory{},
	}
	h.engine = h.newEngine()
	return h
}

func (h *harness) newEngine() *Engine {
	return New(Deps{
		Items:       h.items,
		Checkpoints: h.checks,
		Cues:        h.cues,
		Speech:      h.speaker,
		History:     h.history,
		Shuffler:    queue.NewWithSeed(11),
		Logger:      logger.Discard(),
	})
}

func (h *harness) addLibrary(t *testing.T, id string, n int) model.Library {
	t.Helper()
	items := make([]model.Item, n)
	for i := range items {
		items[i] = model.Item{
			ID:      fmt.Sprintf("%s-%d", id, i),
			English: fmt.Sprintf("Sentence number %d.", i),
			Chinese: fmt.Sprintf("第%d句。", i),
			Type:    model.ItemSentence,
		}
	}
	lib, err := h.lib.AddLibrary(context.Background(), model.Library{ID: id, Name: "Library " + id, Items: items})
	require.NoError(t, err)
	return lib
}

func (h *harness) wrongItems(t *testing.T) []model.Item {
	t.Helper()
	wrong, err := h.lib.Library(context.Background(), model.WrongLibraryID)
	require.NoError(t, err)
	return wrong.Items
}

func (h *harness) typeCurrent(t *testing.T) Effects {
	t.Helper()
	item, ok := h.engine.Current()
	require.True(t, ok)
	res, fx := h.engine.Input(context.Background(), item.English)
	require.True(t, res.Complete)
	return fx
}

func TestDictationScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addLibrary(t, "lib", 3)

	fx, err := h.engine.Start(ctx, "lib", model.Dictation, model.ScopeLibrary)
	require.NoError(t, err)
	require.NotNil(t, fx.Prompt)
	assert.Equal(t, Active, h.engine.State())

	var hinted model.Item
	for i := 0; i < 3; i++ {
		if i == 1 {
			hinted, _ = h.engine.Current()
			h.engine.RevealHint()
			h.engine.HideHint()
		}
		fx := h.typeCurrent(t)
		require.NotNil(t, fx.Advance)
		assert.Equal(t, AfterDelay, fx.Advance.Wait)
		assert.Equal(t, 800*time.Millisecond, fx.Advance.Delay)
		_, ok := h.engine.Fire(ctx, *fx.Advance)
		require.True(t, ok)
	}

	assert.Equal(t, Completed, h.engine.State())
	assert.Equal(t, model.Stats{CorrectItems: 2, WrongItems: 1}, h.engine.Stats())
	missed := h.engine.WrongThisSession()
	require.Len(t, missed, 1)
	assert.Equal(t, hinted.ID, missed[0].ID)

	wrong := h.wrongItems(t)
	require.Len(t, wrong, 1)
	assert.Equal(t, hinted.English, wrong[0].English)
	assert.Equal(t, "lib", wrong[0].SourceLibraryID)
	assert.Equal(t, "Library lib", wrong[0].SourceLibraryName)

	_, ok := h.checks.Load(ctx)
	assert.False(t, ok, "completion clears the checkpoint")

	require.Len(t, h.history.records, 1)
	rec := h.history.records[0]
	assert.Equal(t, 3, rec.Items)
	assert.Equal(t, 2, rec.CorrectItems)
	assert.Equal(t, 1, rec.WrongItems)
	assert.NotEmpty(t, h.history.chars[0])
}

func TestMistakeMarksItemWrong(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addLibrary(t, "lib", 1)
	_, err := h.engine.Start(ctx, "lib", model.Dictation, model.ScopeLibrary)
	require.NoError(t, err)

	res, fx := h.engine.Input(ctx, "#")
	assert.True(t, res.Mistake)
	require.NotNil(t, fx.Rollback)
	assert.Equal(t, 1, h.engine.Mistakes())
	assert.True(t, h.engine.ApplyRollback(*fx.Rollback))
	assert.Equal(t, "", h.engine.Display())

	fx = h.typeCurrent(t)
	_, ok := h.engine.Fire(ctx, *fx.Advance)
	require.True(t, ok)
	assert.Equal(t, model.Stats{WrongItems: 1}, h.engine.Stats())
	assert.Contains(t, h.cues.played, audio.CueError)
	assert.Contains(t, h.cues.played, audio.CueCorrect)
}

func TestCaseMismatchDoesNotComplete(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.lib.AddLibrary(ctx, model.Library{ID: "lib", Name: "L", Items: []model.Item{
		{ID: "hello", English: "Hello", Chinese: "你好", Type: model.ItemSentence},
	}})
	require.NoError(t, err)
	_, err = h.engine.Start(ctx, "lib", model.Dictation, model.ScopeLibrary)
	require.NoError(t, err)

	res, fx := h.engine.Input(ctx, "hello")
	assert.False(t, res.Complete)
	assert.Equal(t, 0, res.MistakeIndex)
	assert.Nil(t, fx.Advance)
	assert.False(t, h.engine.Answered())
}

func TestRollbackOnlyLatestApplies(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addLibrary(t, "lib", 1)
	_, err := h.engine.Start(ctx, "lib", model.Dictation, model.ScopeLibrary)
	require.NoError(t, err)

	_, first := h.engine.Input(ctx, "S")
	assert.Nil(t, first.Rollback)
	_, first = h.engine.Input(ctx, "Sx")
	require.NotNil(t, first.Rollback)
	_, second := h.engine.Input(ctx, "Sxy")
	require.NotNil(t, second.Rollback)

	assert.False(t, h.engine.ApplyRollback(*first.Rollback))
	assert.Equal(t, "Sxy", h.engine.Display())
	assert.True(t, h.engine.ApplyRollback(*second.Rollback))
	assert.Equal(t, "S", h.engine.Display())
}

func TestBackspaceIsNotAMistake(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addLibrary(t, "lib", 1)
	_, err := h.engine.Start(ctx, "lib", model.Dictation, model.ScopeLibrary)
	require.NoError(t, err)

	h.engine.Input(ctx, "Sen")
	res, fx := h.engine.Input(ctx, "Se")
	assert.False(t, res.Mistake)
	assert.Nil(t, fx.Rollback)
	assert.Zero(t, h.engine.Mistakes())
}

func TestStaleAdvanceIsNoop(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addLibrary(t, "lib", 3)
	_, err := h.engine.Start(ctx, "lib", model.Dictation, model.ScopeLibrary)
	require.NoError(t, err)

	fx := h.typeCurrent(t)
	adv := *fx.Advance

	stale := adv
	stale.Generation--
	_, ok := h.engine.Fire(ctx, stale)
	assert.False(t, ok)

	_, ok = h.engine.Fire(ctx, adv)
	require.True(t, ok)
	assert.Equal(t, 1, h.engine.Index())

	_, ok = h.engine.Fire(ctx, adv)
	assert.False(t, ok, "a fired advance must not fire twice")
	assert.Equal(t, 1, h.engine.Index())
}

func TestAdvanceBeforeAnswerIsNoop(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addLibrary(t, "lib", 2)
	_, err := h.engine.Start(ctx, "lib", model.Dictation, model.ScopeLibrary)
	require.NoError(t, err)
	item, _ := h.engine.Current()

	_, ok := h.engine.Fire(ctx, Advance{Generation: h.engine.Generation(), LibraryID: "lib", ItemID: item.ID})
	assert.False(t, ok)
}

func TestCheckpointStoresPostAdvanceIndex(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addLibrary(t, "lib", 3)
	_, err := h.engine.Start(ctx, "lib", model.Dictation, model.ScopeLibrary)
	require.NoError(t, err)

	snap, ok := h.checks.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, 0, snap.CurrentIndex)

	fx := h.typeCurrent(t)
	snap, ok = h.checks.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, 1, snap.CurrentIndex, "answered item must not replay after reload")
	assert.Equal(t, 1, snap.Stats.CorrectItems)

	_, ok = h.engine.Fire(ctx, *fx.Advance)
	require.True(t, ok)
	snap, ok = h.checks.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, 1, snap.CurrentIndex)
}

func TestResumeRestoresWithoutRebuilding(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addLibrary(t, "lib", 4)
	_, err := h.engine.Start(ctx, "lib", model.Dictation, model.ScopeLibrary)
	require.NoError(t, err)
	fx := h.typeCurrent(t)
	_, ok := h.engine.Fire(ctx, *fx.Advance)
	require.True(t, ok)
	h.engine.Leave(ctx)
	assert.Equal(t, Idle, h.engine.State())

	snap, ok := h.checks.Load(ctx)
	require.True(t, ok)

	resumed := h.newEngine()
	calls := h.items.libraryCalls
	fx = resumed.Resume(ctx, snap)
	assert.Equal(t, calls, h.items.libraryCalls, "resume must not rebuild the queue")
	require.NotNil(t, fx.Prompt)
	assert.Equal(t, Active, resumed.State())
	assert.Equal(t, 1, resumed.Index())
	assert.Equal(t, snap.Queue, resumed.Queue())
	assert.Equal(t, model.Stats{CorrectItems: 1}, resumed.Stats())
	assert.Equal(t, "lib", resumed.Library().ID)
}

func TestScopeErrorsLeaveEngineUntouched(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addLibrary(t, "lib", 2)

	_, err := h.engine.Start(ctx, "", model.Dictation, model.ScopeLibrary)
	assert.ErrorIs(t, err, ErrNoLibrary)

	_, err = h.engine.Start(ctx, "lib", model.Dictation, model.ScopeWrong)
	assert.ErrorIs(t, err, ErrScopeMisuse)

	_, err = h.engine.Start(ctx, model.WrongLibraryID, model.Dictation, model.ScopeWrong)
	assert.ErrorIs(t, err, ErrEmptyWrongBook)

	_, err = h.engine.Start(ctx, "missing", model.Dictation, model.ScopeLibrary)
	assert.ErrorIs(t, err, library.ErrLibraryNotFound)

	assert.Equal(t, Idle, h.engine.State())
	assert.Zero(t, h.engine.Len())
}

func TestEmptyQueueCompletesImmediately(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.lib.AddLibrary(ctx, model.Library{ID: "words", Name: "Words", Items: []model.Item{
		{ID: "w", English: "cat", Chinese: "猫", Type: model.ItemWord},
	}})
	require.NoError(t, err)

	fx, err := h.engine.Start(ctx, "words", model.Dictation, model.ScopeLibrary)
	require.NoError(t, err)
	assert.True(t, fx.Empty())
	assert.Equal(t, Completed, h.engine.State())
	assert.Zero(t, h.engine.Len())
	assert.Empty(t, h.history.records)
}

func TestEmptyQueueKeepsOtherCheckpoint(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.lib.AddLibrary(ctx, model.Library{ID: "words", Name: "Words", Items: []model.Item{
		{ID: "w", English: "cat", Chinese: "猫", Type: model.ItemWord},
	}})
	require.NoError(t, err)
	_, err = h.checks.Save(ctx, progress.Snapshot{
		LibraryID:     "a",
		LibraryName:   "A",
		PracticeType:  model.Dictation,
		PracticeScope: model.ScopeLibrary,
		Queue: []model.Item{
			{ID: "1", English: "One.", Chinese: "一。", Type: model.ItemSentence},
			{ID: "2", English: "Two.", Chinese: "二。", Type: model.ItemSentence},
		},
		CurrentIndex: 1,
		StartedAt:    time.Now(),
	})
	require.NoError(t, err)

	_, err = h.engine.Start(ctx, "words", model.Dictation, model.ScopeLibrary)
	require.NoError(t, err)
	require.Equal(t, Completed, h.engine.State())

	snap, ok := h.checks.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, "a", snap.LibraryID)
	assert.Equal(t, 1, snap.CurrentIndex)
}

func TestWrongReviewScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	src := model.Library{ID: "lib", Name: "Source"}
	a, _, err := h.lib.AddWrongItem(ctx, model.Item{English: "Apple pie.", Chinese: "苹果派。", Type: model.ItemSentence}, src)
	require.NoError(t, err)
	b, _, err := h.lib.AddWrongItem(ctx, model.Item{English: "Blue sky.", Chinese: "蓝天。", Type: model.ItemSentence}, src)
	require.NoError(t, err)

	_, err = h.engine.Start(ctx, model.WrongLibraryID, model.Dictation, model.ScopeLibrary)
	require.NoError(t, err)
	assert.Equal(t, model.ScopeWrong, h.engine.Scope())
	require.Equal(t, 2, h.engine.Len())

	// Reach A, answering anything before it cleanly and keeping it.
	for {
		cur, ok := h.engine.Current()
		require.True(t, ok)
		if cur.ID == a.ID {
			break
		}
		h.typeCurrent(t)
		require.Equal(t, AwaitingDecision, h.engine.State())
		h.engine.Decide(ctx, false)
	}

	res, fx := h.engine.Input(ctx, "#")
	require.True(t, res.Mistake)
	h.engine.ApplyRollback(*fx.Rollback)
	fx = h.typeCurrent(t)
	assert.Nil(t, fx.Advance, "wrong review advances immediately")
	assert.Equal(t, 3, h.engine.Len())
	assert.Equal(t, 1, h.engine.Stats().WrongItems)
	assert.Len(t, h.wrongItems(t), 2, "a missed review item stays in the collection")

	for h.engine.State() != Completed {
		cur, ok := h.engine.Current()
		require.True(t, ok)
		h.typeCurrent(t)
		require.Equal(t, AwaitingDecision, h.engine.State())
		h.engine.Decide(ctx, cur.ID == a.ID)
	}

	remaining := h.wrongItems(t)
	require.Len(t, remaining, 1)
	assert.Equal(t, b.ID, remaining[0].ID)
}

func TestTranslationWaitsForSpeech(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addLibrary(t, "lib", 2)

	fx, err := h.engine.Start(ctx, "lib", model.Translation, model.ScopeLibrary)
	require.NoError(t, err)
	assert.Nil(t, fx.Prompt, "translation shows the meaning instead of speaking")
	assert.False(t, h.engine.Replay())

	item, _ := h.engine.Current()
	fx = h.typeCurrent(t)
	require.NotNil(t, fx.Advance)
	assert.Equal(t, AfterSpeech, fx.Advance.Wait)
	assert.Equal(t, item.English, fx.Advance.Text)
	assert.True(t, h.engine.Replay())

	// Switching away while the speech is pending turns the advance stale.
	h.engine.Leave(ctx)
	_, err = h.engine.Start(ctx, "lib", model.Translation, model.ScopeLibrary)
	require.NoError(t, err)
	_, ok := h.engine.Fire(ctx, *fx.Advance)
	assert.False(t, ok)
	assert.Equal(t, 0, h.engine.Index())
}

func TestPromptOnlySpeaksForCurrentItem(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addLibrary(t, "lib", 2)

	fx, err := h.engine.Start(ctx, "lib", model.Dictation, model.ScopeLibrary)
	require.NoError(t, err)
	first := *fx.Prompt
	item, _ := h.engine.Current()
	assert.Equal(t, item.English, first.Text)
	assert.Equal(t, 300*time.Millisecond, first.Delay)

	adv := h.typeCurrent(t).Advance
	_, ok := h.engine.Fire(ctx, *adv)
	require.True(t, ok)

	assert.False(t, h.engine.Speak(first))
	assert.Empty(t, h.speaker.spoken)
}

func TestInputIgnoredAfterAnswer(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addLibrary(t, "lib", 2)
	_, err := h.engine.Start(ctx, "lib", model.Dictation, model.ScopeLibrary)
	require.NoError(t, err)

	item, _ := h.engine.Current()
	h.typeCurrent(t)
	_, fx := h.engine.Input(ctx, item.English+"x")
	assert.True(t, fx.Empty())
	assert.Equal(t, item.English, h.engine.Display())
	h.engine.RevealHint()
	assert.False(t, h.engine.HintViewed())
}
