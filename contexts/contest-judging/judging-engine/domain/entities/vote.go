package entities

import "time"

// Vote is one judge picking one entry under one category in one stage.
// CategoryID is empty for contest-wide judging. ContestID is denormalized
// from the entry so quota counts never join through the entry projection.
type Vote struct {
	VoteID     string
	EntryID    string
	ContestID  string
	CategoryID string
	JudgeID    string
	Stage      int
	CreatedAt  time.Time
}
