package session

import "time"

// Wait says what a deferred advance waits for.
type Wait int

const (
	// AfterDelay advances once Delay has elapsed.
	AfterDelay Wait = iota
	// AfterSpeech advances once Text has been spoken.
	AfterSpeech
)

// Advance is a scheduled move to the next item. It only takes effect while the
// engine is still on the item it was issued for.
type Advance struct {
	Generation uint64
	LibraryID  string
	ItemID     string
	Index      int
	Wait       Wait
	Delay      time.Duration
	Text       string
}

// Rollback erases a rejected character after Delay.
type Rollback struct {
	Generation uint64
	Index      int
	Seq        uint64
	Delay      time.Duration
}

// Prompt speaks the current item after Delay.
type Prompt struct {
	Generation uint64
	Text       string
	Delay      time.Duration
}

// Effects lists the deferred work a transition asks the caller to schedule.
type Effects struct {
	Prompt   *Prompt
	Advance  *Advance
	Rollback *Rollback
}

// Empty reports whether nothing needs scheduling.
func (e Effects) Empty() bool {
	return e.Prompt == nil && e.Advance == nil && e.Rollback == nil
}
