package entities

import "time"

// EntryView records that a judge has opened an entry at least once. It is
// written once per (entry, judge) pair and consumed only by the stage
// advancement gate as a completeness signal.
type EntryView struct {
	ViewID    string
	EntryID   string
	ContestID string
	JudgeID   string
	CreatedAt time.Time
}
