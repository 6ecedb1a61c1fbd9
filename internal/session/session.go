// Package session drives a single practice run.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/verte-zerg/dictype/internal/audio"
	"github.com/verte-zerg/dictype/internal/logger"
	"github.com/verte-zerg/dictype/internal/model"
	"github.com/verte-zerg/dictype/internal/progress"
	"github.com/verte-zerg/dictype/internal/queue"
	"github.com/verte-zerg/dictype/internal/speech"
	"github.com/verte-zerg/dictype/internal/typing"
)

var (
	// ErrNoLibrary is returned when Start is called without a library.
	ErrNoLibrary = errors.New("no library selected")
	// ErrScopeMisuse is returned when wrong review is requested for a normal library.
	ErrScopeMisuse = queue.ErrScopeMisuse
	// ErrEmptyWrongBook is returned when wrong review is requested with nothing to review.
	ErrEmptyWrongBook = errors.New("the wrong-item collection is empty")
)

// State is the engine's position in a session.
type State int

const (
	Idle State = iota
	Building
	Active
	AwaitingDecision
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Building:
		return "building"
	case Active:
		return "active"
	case AwaitingDecision:
		return "awaiting-decision"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// ItemStore is the subset of the library store the engine uses.
type ItemStore interface {
	Library(ctx context.Context, id string) (model.Library, error)
	AddWrongItem(ctx context.Context, item model.Item, source model.Library) (model.Item, bool, error)
	RemoveWrongItem(ctx context.Context, itemID string) (bool, error)
}

// Checkpoints persists the in-flight session.
type Checkpoints interface {
	Save(ctx context.Context, snap progress.Snapshot) (progress.Snapshot, error)
	Clear(ctx context.Context) error
}

// History records finished sessions.
type History interface {
	InsertSession(ctx context.Context, rec model.SessionRecord, chars []model.CharStats) (int64, error)
}

// Options holds timing settings.
type Options struct {
	AdvanceDelay  time.Duration
	RollbackDelay time.Duration
	SpeakDelay    time.Duration
}

// DefaultOptions returns the standard timings.
func DefaultOptions() Options {
	return Options{
		AdvanceDelay:  800 * time.Millisecond,
		RollbackDelay: 300 * time.Millisecond,
		SpeakDelay:    300 * time.Millisecond,
	}
}

// Deps wires the engine to its collaborators. Cues, Speech, History, Shuffler,
// Now and Logger are optional.
type Deps struct {
	Items       ItemStore
	Checkpoints Checkpoints
	Cues        audio.Player
	Speech      speech.Speaker
	History     History
	Shuffler    *queue.Shuffler
	Options     Options
	Now         func() time.Time
	Logger      *logger.Logger
}

type charStat struct {
	correct   int
	incorrect int
}

// Engine is the practice state machine. It is driven from a single goroutine
// and is not safe for concurrent use.
type Engine struct {
	deps Deps
	log  *logger.Logger

	state        State
	library      model.Library
	practiceType model.PracticeType
	scope        model.PracticeScope
	queue        []model.Item
	index        int
	stats        model.Stats
	wrong        []model.Item
	startedAt    time.Time

	// Per-item state.
	generation  uint64
	input       string
	display     string
	chars       []typing.CharStatus
	mistakes    int
	hintViewed  bool
	hintShown   bool
	answered    bool
	rollbackSeq uint64

	totalMistakes int
	charStats     map[rune]*charStat
}

// New returns an idle engine.
func New(deps Deps) *Engine {
	if deps.Cues == nil {
		deps.Cues = audio.Nop{}
	}
	if deps.Speech == nil {
		deps.Speech = speech.Nop{}
	}
	if deps.Shuffler == nil {
		deps.Shuffler = queue.New()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Options == (Options{}) {
		deps.Options = DefaultOptions()
	}
	log := deps.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Engine{deps: deps, log: log.WithPrefix("session"), charStats: map[rune]*charStat{}}
}

// Start builds a fresh queue for the library and begins at its first item.
// Selecting the wrong-item collection always reviews it. A rejected start
// leaves the engine untouched.
func (e *Engine) Start(ctx context.Context, libraryID string, practiceType model.PracticeType, scope model.PracticeScope) (Effects, error) {
	if libraryID == "" {
		return Effects{}, ErrNoLibrary
	}
	lib, err := e.deps.Items.Library(ctx, libraryID)
	if err != nil {
		return Effects{}, err
	}
	if lib.IsWrongLibrary() {
		scope = model.ScopeWrong
	}
	if scope == model.ScopeWrong && lib.IsWrongLibrary() && len(lib.Items) == 0 {
		return Effects{}, ErrEmptyWrongBook
	}
	items, err := e.deps.Shuffler.Build(lib, scope)
	if err != nil {
		return Effects{}, err
	}
	if practiceType != model.Translation {
		practiceType = model.Dictation
	}

	e.deps.Speech.Stop()
	e.state = Building
	e.library = model.Library{ID: lib.ID, Name: lib.Name}
	e.practiceType = practiceType
	e.scope = scope
	e.queue = items
	e.index = 0
	e.stats = model.Stats{}
	e.wrong = nil
	e.startedAt = e.deps.Now()
	e.totalMistakes = 0
	e.charStats = map[rune]*charStat{}
	e.log.Info("start %s (%s, %s) with %d items", lib.ID, practiceType, scope, len(items))

	if len(items) == 0 {
		e.generation++
		e.resetItem()
		e.state = Completed
		return Effects{}, nil
	}
	if err := e.deps.Checkpoints.Clear(ctx); err != nil {
		e.log.Warn("%v", err)
	}
	return e.enterItem(ctx), nil
}

// Resume restores a checkpoint as is. The queue is not rebuilt.
func (e *Engine) Resume(ctx context.Context, snap progress.Snapshot) Effects {
	snap = snap.Clone()
	e.deps.Speech.Stop()
	e.library = model.Library{ID: snap.LibraryID, Name: snap.LibraryName}
	e.practiceType = snap.PracticeType
	e.scope = snap.PracticeScope
	e.queue = snap.Queue
	e.index = snap.CurrentIndex
	e.stats = snap.Stats
	e.wrong = snap.WrongThisSession
	e.startedAt = snap.StartedAt
	if e.startedAt.IsZero() {
		e.startedAt = e.deps.Now()
	}
	e.totalMistakes = 0
	e.charStats = map[rune]*charStat{}
	e.log.Info("resume %s at %d/%d", snap.LibraryID, snap.CurrentIndex, len(snap.Queue))

	if e.index >= len(e.queue) {
		e.finish(ctx)
		return Effects{}
	}
	e.generation++
	e.resetItem()
	e.state = Active
	return e.itemEffects()
}

// Input validates a new value of the answer field.
func (e *Engine) Input(ctx context.Context, value string) (typing.Result, Effects) {
	item, ok := e.Current()
	if !ok || e.state != Active || e.answered {
		return typing.Result{Accepted: e.input, Display: e.display, Chars: e.chars, MistakeIndex: -1}, Effects{}
	}

	prev := e.display
	res := typing.Validate(value, prev, item.English)
	e.display = res.Display
	e.input = res.Accepted
	e.chars = res.Chars

	var fx Effects
	switch {
	case res.Mistake:
		e.mistakes++
		e.totalMistakes++
		e.countChar(item.English, res.MistakeIndex, false)
		e.rollbackSeq++
		fx.Rollback = &Rollback{
			Generation: e.generation,
			Index:      e.index,
			Seq:        e.rollbackSeq,
			Delay:      e.deps.Options.RollbackDelay,
		}
		e.deps.Cues.Play(audio.CueError)
	case res.Grew:
		for i := len([]rune(prev)); i < len([]rune(value)); i++ {
			e.countChar(item.English, i, true)
		}
		if !res.Complete {
			e.deps.Cues.Play(audio.CueType)
		}
	}

	if res.Complete {
		fx = e.answer(ctx, item)
	}
	return res, fx
}

// ApplyRollback erases a rejected character. Stale rollbacks return false.
func (e *Engine) ApplyRollback(rb Rollback) bool {
	if rb.Generation != e.generation || rb.Index != e.index || rb.Seq != e.rollbackSeq || e.state != Active {
		return false
	}
	e.display = e.input
	if item, ok := e.Current(); ok {
		e.chars = typing.Statuses(e.display, item.English)
	}
	return true
}

// RevealHint shows the answer. The current item then counts as missed.
func (e *Engine) RevealHint() {
	if e.state != Active || e.answered {
		return
	}
	e.hintViewed = true
	e.hintShown = true
}

// HideHint hides the answer again. The item stays marked.
func (e *Engine) HideHint() {
	e.hintShown = false
}

// Replay speaks the current item now. In translation mode it only does so
// once the answer has been given.
func (e *Engine) Replay() bool {
	item, ok := e.Current()
	if !ok || (e.state != Active && e.state != AwaitingDecision) {
		return false
	}
	if e.practiceType == model.Translation && !e.answered {
		return false
	}
	e.deps.Speech.Speak(item.English)
	return true
}

// Speak plays a scheduled prompt if it still belongs to the current item.
func (e *Engine) Speak(p Prompt) bool {
	if p.Generation != e.generation || e.state != Active {
		return false
	}
	e.deps.Speech.Speak(p.Text)
	return true
}

// Decide resolves a wrong-review prompt: remove deletes the item from the
// wrong-item collection, keep leaves it. Both move on.
func (e *Engine) Decide(ctx context.Context, remove bool) Effects {
	item, ok := e.Current()
	if !ok || e.state != AwaitingDecision {
		return Effects{}
	}
	if remove {
		if _, err := e.deps.Items.RemoveWrongItem(ctx, item.ID); err != nil {
			e.log.Error("failed to remove %s from wrong items: %v", item.ID, err)
		}
	}
	return e.advance(ctx)
}

// Fire performs a scheduled advance. Advances issued for another item or
// session are ignored and report false.
func (e *Engine) Fire(ctx context.Context, adv Advance) (Effects, bool) {
	if adv.Generation != e.generation || e.state != Active || !e.answered {
		return Effects{}, false
	}
	item, ok := e.Current()
	if !ok || adv.Index != e.index || adv.ItemID != item.ID || adv.LibraryID != e.library.ID {
		return Effects{}, false
	}
	return e.advance(ctx), true
}

// Checkpoint saves the session. A finished queue clears the checkpoint instead.
func (e *Engine) Checkpoint(ctx context.Context) error {
	if e.state != Active && e.state != AwaitingDecision {
		return nil
	}
	snap := e.Snapshot()
	if snap.Done() {
		return e.deps.Checkpoints.Clear(ctx)
	}
	_, err := e.deps.Checkpoints.Save(ctx, snap)
	return err
}

// Leave checkpoints the running session and returns to Idle.
func (e *Engine) Leave(ctx context.Context) {
	if err := e.Checkpoint(ctx); err != nil {
		e.log.Warn("checkpoint on leave failed: %v", err)
	}
	e.deps.Speech.Stop()
	e.generation++
	e.resetItem()
	e.state = Idle
}

// Snapshot returns the session as a checkpoint. Once the current item is
// answered the checkpoint already points at the next one.
func (e *Engine) Snapshot() progress.Snapshot {
	index := e.index
	if e.answered && index < len(e.queue) {
		index++
	}
	return progress.Snapshot{
		Version:          progress.SnapshotVersion,
		LibraryID:        e.library.ID,
		LibraryName:      e.library.Name,
		PracticeType:     e.practiceType,
		PracticeScope:    e.scope,
		Queue:            append([]model.Item(nil), e.queue...),
		CurrentIndex:     index,
		Stats:            e.stats,
		WrongThisSession: append([]model.Item(nil), e.wrong...),
		StartedAt:        e.startedAt,
	}
}

// answer settles a correctly typed item.
func (e *Engine) answer(ctx context.Context, item model.Item) Effects {
	e.answered = true
	e.hintShown = false
	missed := e.hintViewed || e.mistakes > 0
	e.deps.Cues.Play(audio.CueCorrect)

	if e.scope == model.ScopeWrong {
		if missed {
			e.stats.WrongItems++
			e.noteWrong(item)
			pos := e.deps.Shuffler.ReinsertPosition(e.index, len(e.queue))
			e.queue = queue.Insert(e.queue, pos, item)
			e.log.Debug("requeued %s at %d of %d", item.ID, pos, len(e.queue))
			return e.advance(ctx)
		}
		e.stats.CorrectItems++
		e.state = AwaitingDecision
		e.save(ctx)
		return Effects{}
	}

	if missed {
		e.stats.WrongItems++
		e.noteWrong(item)
		if _, _, err := e.deps.Items.AddWrongItem(ctx, item, e.library); err != nil {
			e.log.Error("failed to record wrong item %s: %v", item.ID, err)
		}
	} else {
		e.stats.CorrectItems++
	}
	e.save(ctx)

	adv := &Advance{
		Generation: e.generation,
		LibraryID:  e.library.ID,
		ItemID:     item.ID,
		Index:      e.index,
		Wait:       AfterDelay,
		Delay:      e.deps.Options.AdvanceDelay,
	}
	if e.practiceType == model.Translation {
		adv.Wait = AfterSpeech
		adv.Delay = 0
		adv.Text = item.English
	}
	return Effects{Advance: adv}
}

func (e *Engine) advance(ctx context.Context) Effects {
	e.index++
	if e.index >= len(e.queue) {
		e.finish(ctx)
		return Effects{}
	}
	return e.enterItem(ctx)
}

func (e *Engine) enterItem(ctx context.Context) Effects {
	e.generation++
	e.resetItem()
	e.state = Active
	e.save(ctx)
	return e.itemEffects()
}

func (e *Engine) itemEffects() Effects {
	item, ok := e.Current()
	if !ok || e.practiceType != model.Dictation {
		return Effects{}
	}
	return Effects{Prompt: &Prompt{Generation: e.generation, Text: item.English, Delay: e.deps.Options.SpeakDelay}}
}

func (e *Engine) finish(ctx context.Context) {
	e.generation++
	e.index = len(e.queue)
	e.resetItem()
	e.state = Completed
	if err := e.deps.Checkpoints.Clear(ctx); err != nil {
		e.log.Warn("%v", err)
	}
	e.log.Info("completed %s: %d correct, %d wrong", e.library.ID, e.stats.CorrectItems, e.stats.WrongItems)
	e.record(ctx)
}

func (e *Engine) record(ctx context.Context) {
	if e.deps.History == nil || len(e.queue) == 0 {
		return
	}
	now := e.deps.Now()
	rec := model.SessionRecord{
		StartedAt:    e.startedAt,
		EndedAt:      now,
		LibraryID:    e.library.ID,
		LibraryName:  e.library.Name,
		PracticeType: e.practiceType,
		Scope:        e.scope,
		Items:        len(e.queue),
		CorrectItems: e.stats.CorrectItems,
		WrongItems:   e.stats.WrongItems,
		Mistakes:     e.totalMistakes,
		DurationMs:   now.Sub(e.startedAt).Milliseconds(),
	}
	chars := make([]model.CharStats, 0, len(e.charStats))
	for r, cs := range e.charStats {
		chars = append(chars, model.CharStats{Char: string(r), Correct: cs.correct, Incorrect: cs.incorrect})
	}
	if _, err := e.deps.History.InsertSession(ctx, rec, chars); err != nil {
		e.log.Error("failed to record session: %v", err)
	}
}

func (e *Engine) save(ctx context.Context) {
	if err := e.Checkpoint(ctx); err != nil {
		e.log.Warn("checkpoint failed: %v", err)
	}
}

func (e *Engine) resetItem() {
	e.input = ""
	e.display = ""
	e.mistakes = 0
	e.hintViewed = false
	e.hintShown = false
	e.answered = false
	e.rollbackSeq = 0
	e.chars = nil
	if item, ok := e.Current(); ok {
		e.chars = typing.Statuses("", item.English)
	}
}

func (e *Engine) noteWrong(item model.Item) {
	for _, it := range e.wrong {
		if it.ID == item.ID {
			return
		}
	}
	e.wrong = append(e.wrong, item)
}

func (e *Engine) countChar(target string, index int, correct bool) {
	runes := []rune(target)
	if index < 0 || index >= len(runes) || runes[index] == ' ' {
		return
	}
	r := runes[index]
	cs := e.charStats[r]
	if cs == nil {
		cs = &charStat{}
		e.charStats[r] = cs
	}
	if correct {
		cs.correct++
	} else {
		cs.incorrect++
	}
}
