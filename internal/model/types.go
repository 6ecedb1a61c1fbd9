// Package model defines shared data structures.
package model

import (
	"strings"
	"time"
)

// WrongLibraryID is the reserved id of the wrong-item collection.
const WrongLibraryID = "global_wrong_items"

// WrongLibraryName is the display name of the wrong-item collection.
const WrongLibraryName = "Wrong answers"

// ItemType distinguishes single words from full sentences.
type ItemType string

const (
	ItemWord     ItemType = "word"
	ItemSentence ItemType = "sentence"
)

// Item is a single bilingual practice entry.
type Item struct {
	ID        string    `json:"id"`
	Chinese   string    `json:"chinese"`
	English   string    `json:"english"`
	Type      ItemType  `json:"type"`
	CreatedAt time.Time `json:"createdAt"`

	// Set only on items of the wrong-item collection.
	SourceLibraryID   string `json:"sourceLibraryId,omitempty"`
	SourceLibraryName string `json:"sourceLibraryName,omitempty"`
}

// SameText reports whether two items carry identical english and chinese text.
func (it Item) SameText(other Item) bool {
	return it.English == other.English && it.Chinese == other.Chinese
}

// Library is a named, ordered collection of items.
type Library struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsWrongLibrary reports whether the library is the wrong-item collection.
func (l Library) IsWrongLibrary() bool {
	return l.ID == WrongLibraryID
}

// Clone returns a copy that shares no item storage with l.
func (l Library) Clone() Library {
	out := l
	out.Items = append([]Item(nil), l.Items...)
	return out
}

// CountType returns how many items have the given type.
func (l Library) CountType(t ItemType) int {
	n := 0
	for _, it := range l.Items {
		if it.Type == t {
			n++
		}
	}
	return n
}

// PracticeType selects the prompt shown for an item.
type PracticeType string

const (
	// Dictation speaks the english text; the user types what was heard.
	Dictation PracticeType = "dictation"
	// Translation shows the chinese meaning; the user types the english text.
	Translation PracticeType = "translation"
)

// ParsePracticeType normalizes a stored or user supplied practice type.
// Legacy tags ("all", "word", "sentence" and empty) map to Dictation; ok is
// false whenever the raw value was not already a current tag.
func ParsePracticeType(raw string) (PracticeType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(Dictation):
		return Dictation, true
	case string(Translation):
		return Translation, true
	default:
		return Dictation, false
	}
}

// PracticeScope selects where the queue is drawn from.
type PracticeScope string

const (
	ScopeLibrary PracticeScope = "library"
	ScopeWrong   PracticeScope = "wrong"
)

// ParsePracticeScope normalizes a stored scope, defaulting to ScopeLibrary.
func ParsePracticeScope(raw string) PracticeScope {
	if strings.EqualFold(strings.TrimSpace(raw), string(ScopeWrong)) {
		return ScopeWrong
	}
	return ScopeLibrary
}

// Stats counts answered items in a session.
type Stats struct {
	CorrectItems int `json:"correctItems"`
	WrongItems   int `json:"wrongItems"`
}

// Config defines practice settings.
type Config struct {
	Type           PracticeType
	Library        string
	AdvanceDelay   time.Duration
	RollbackDelay  time.Duration
	SpeakDelay     time.Duration
	SpeechEnabled  bool
	SpeechCommand  string
	SpeechArgs     []string
	AudioEnabled   bool
	AudioBell      bool
	AudioPlayer    string
	AudioSounds    map[string]string
	AudioPoolSize  int
	StorageBackend string
	DataDir        string
}

// HistoryFilter defines filters for practice history queries.
type HistoryFilter struct {
	LibraryID string
	Since     *time.Time
	Last      int
	Window    int
}

// SessionRecord captures a completed practice session.
type SessionRecord struct {
	StartedAt    time.Time
	EndedAt      time.Time
	LibraryID    string
	LibraryName  string
	PracticeType PracticeType
	Scope        PracticeScope
	Items        int
	CorrectItems int
	WrongItems   int
	Mistakes     int
	DurationMs   int64
}

// CharStats stores per-character typing results for a session.
type CharStats struct {
	Char      string
	Correct   int
	Incorrect int
}

// CharAggregate aggregates character stats across sessions.
type CharAggregate struct {
	Char      string
	Correct   int
	Incorrect int
}

// SessionAggregate summarizes a stored session for reporting.
type SessionAggregate struct {
	SessionID    int64
	EndedAt      time.Time
	LibraryName  string
	Scope        PracticeScope
	CorrectItems int
	WrongItems   int
	Mistakes     int
	DurationMs   int64
}
