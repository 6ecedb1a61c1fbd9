package session

import (
	"github.com/verte-zerg/dictype/internal/model"
	"github.com/verte-zerg/dictype/internal/typing"
)

// State returns the current state.
func (e *Engine) State() State { return e.state }

// Current returns the item being practiced.
func (e *Engine) Current() (model.Item, bool) {
	if e.index < 0 || e.index >= len(e.queue) {
		return model.Item{}, false
	}
	return e.queue[e.index], true
}

// Index returns the position in the queue.
func (e *Engine) Index() int { return e.index }

// Len returns the queue length.
func (e *Engine) Len() int { return len(e.queue) }

// Queue returns a copy of the queue.
func (e *Engine) Queue() []model.Item { return append([]model.Item(nil), e.queue...) }

// Stats returns the session counters.
func (e *Engine) Stats() model.Stats { return e.stats }

// WrongThisSession returns the items missed so far.
func (e *Engine) WrongThisSession() []model.Item { return append([]model.Item(nil), e.wrong...) }

// Library returns the id and name of the practiced library.
func (e *Engine) Library() model.Library { return e.library }

// PracticeType returns the session's practice type.
func (e *Engine) PracticeType() model.PracticeType { return e.practiceType }

// Scope returns the session's scope.
func (e *Engine) Scope() model.PracticeScope { return e.scope }

// Display returns the answer field as shown, rejected character included.
func (e *Engine) Display() string { return e.display }

// Chars returns per-position statuses of the current item.
func (e *Engine) Chars() []typing.CharStatus { return append([]typing.CharStatus(nil), e.chars...) }

// HintShown reports whether the answer is revealed right now.
func (e *Engine) HintShown() bool { return e.hintShown }

// HintViewed reports whether the answer was revealed for this item.
func (e *Engine) HintViewed() bool { return e.hintViewed }

// Answered reports whether the current item has been typed correctly.
func (e *Engine) Answered() bool { return e.answered }

// Mistakes returns the rejected keystrokes on the current item.
func (e *Engine) Mistakes() int { return e.mistakes }

// Generation identifies the current item context.
func (e *Engine) Generation() uint64 { return e.generation }
