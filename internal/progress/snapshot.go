// Package progress persists the in-flight practice session.
package progress

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/verte-zerg/dictype/internal/model"
)

// SnapshotVersion is the current encoding version of a checkpoint.
const SnapshotVersion = 2

// Snapshot is a resumable copy of a session.
type Snapshot struct {
	Version          int
	LibraryID        string
	LibraryName      string
	PracticeType     model.PracticeType
	PracticeScope    model.PracticeScope
	Queue            []model.Item
	CurrentIndex     int
	Stats            model.Stats
	WrongThisSession []model.Item
	StartedAt        time.Time
	Timestamp        time.Time
}

// Clone returns a copy that shares no slices with s.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Queue = append([]model.Item(nil), s.Queue...)
	out.WrongThisSession = append([]model.Item(nil), s.WrongThisSession...)
	return out
}

// Done reports whether the snapshot points past its last item.
func (s Snapshot) Done() bool {
	return s.CurrentIndex >= len(s.Queue)
}

// record is the stored shape. Timestamps are unix milliseconds and the
// practice type is kept as a raw tag so older values can be migrated.
type record struct {
	Version          int          `json:"version,omitempty"`
	LibraryID        string       `json:"libraryId"`
	LibraryName      string       `json:"libraryName,omitempty"`
	PracticeType     string       `json:"practiceType"`
	PracticeScope    string       `json:"practiceScope,omitempty"`
	Queue            []model.Item `json:"queue"`
	CurrentIndex     int          `json:"currentIndex"`
	Stats            model.Stats  `json:"stats"`
	WrongThisSession []model.Item `json:"wrongThisSession"`
	StartedAt        int64        `json:"startedAt,omitempty"`
	Timestamp        int64        `json:"timestamp"`
}

func encode(s Snapshot) ([]byte, error) {
	rec := record{
		Version:          SnapshotVersion,
		LibraryID:        s.LibraryID,
		LibraryName:      s.LibraryName,
		PracticeType:     string(s.PracticeType),
		PracticeScope:    string(s.PracticeScope),
		Queue:            s.Queue,
		CurrentIndex:     s.CurrentIndex,
		Stats:            s.Stats,
		WrongThisSession: s.WrongThisSession,
		Timestamp:        s.Timestamp.UnixMilli(),
	}
	if !s.StartedAt.IsZero() {
		rec.StartedAt = s.StartedAt.UnixMilli()
	}
	return json.Marshal(rec)
}

// decode parses a stored checkpoint and normalizes older encodings: version 1
// records carry no version field and may use the retired practice type tags.
func decode(raw []byte) (Snapshot, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if rec.LibraryID == "" {
		return Snapshot{}, fmt.Errorf("checkpoint has no library id")
	}
	if rec.CurrentIndex < 0 || rec.CurrentIndex > len(rec.Queue) {
		return Snapshot{}, fmt.Errorf("checkpoint index %d out of range 0..%d", rec.CurrentIndex, len(rec.Queue))
	}
	practiceType, _ := model.ParsePracticeType(rec.PracticeType)
	scope := model.ParsePracticeScope(rec.PracticeScope)
	if rec.PracticeScope == "" && rec.LibraryID == model.WrongLibraryID {
		scope = model.ScopeWrong
	}
	snap := Snapshot{
		Version:          SnapshotVersion,
		LibraryID:        rec.LibraryID,
		LibraryName:      rec.LibraryName,
		PracticeType:     practiceType,
		PracticeScope:    scope,
		Queue:            rec.Queue,
		CurrentIndex:     rec.CurrentIndex,
		Stats:            rec.Stats,
		WrongThisSession: rec.WrongThisSession,
		Timestamp:        time.UnixMilli(rec.Timestamp),
	}
	if rec.StartedAt > 0 {
		snap.StartedAt = time.UnixMilli(rec.StartedAt)
	}
	return snap, nil
}

// Merge combines a stored checkpoint with an incoming one. Checkpoints of
// different libraries do not merge: incoming wins. For the same library the
// result never moves backwards: the larger index and the larger of each
// counter are kept and missed items are unioned.
func Merge(existing, incoming Snapshot) Snapshot {
	if existing.LibraryID != incoming.LibraryID {
		return incoming.Clone()
	}
	out := incoming.Clone()
	if len(existing.Queue) > len(incoming.Queue) {
		out.Queue = append([]model.Item(nil), existing.Queue...)
	}
	out.CurrentIndex = max(existing.CurrentIndex, incoming.CurrentIndex)
	if out.CurrentIndex > len(out.Queue) {
		out.CurrentIndex = len(out.Queue)
	}
	out.Stats = model.Stats{
		CorrectItems: max(existing.Stats.CorrectItems, incoming.Stats.CorrectItems),
		WrongItems:   max(existing.Stats.WrongItems, incoming.Stats.WrongItems),
	}
	out.WrongThisSession = unionItems(existing.WrongThisSession, incoming.WrongThisSession)
	if !existing.StartedAt.IsZero() && (out.StartedAt.IsZero() || existing.StartedAt.Before(out.StartedAt)) {
		out.StartedAt = existing.StartedAt
	}
	return out
}

func unionItems(a, b []model.Item) []model.Item {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]model.Item, 0, len(a)+len(b))
	for _, list := range [][]model.Item{a, b} {
		for _, it := range list {
			key := itemKey(it)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, it)
		}
	}
	return out
}

func itemKey(it model.Item) string {
	if it.ID != "" {
		return "id:" + it.ID
	}
	return "text:" + it.English + "\x00" + it.Chinese
}
