package entities

import "time"

// JudgeScore is one judge's aggregate rating of one entry under one category
// in one stage. TotalScore is derived from the detailed scores and is never
// accepted from callers directly while detailed scores exist.
type JudgeScore struct {
	ScoreID    string
	EntryID    string
	ContestID  string
	CategoryID string
	JudgeID    string
	Stage      int
	TotalScore int
	Comment    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DetailedScore rates one entry against one criteria within a JudgeScore.
type DetailedScore struct {
	DetailedScoreID string
	ScoreID         string
	CriteriaID      string
	Score           int
	Comment         string
	CreatedAt       time.Time
}

// SumDetailedScores is the canonical total recomputation.
func SumDetailedScores(details []DetailedScore) int {
	total := 0
	for _, detail := range details {
		total += detail.Score
	}
	return total
}
