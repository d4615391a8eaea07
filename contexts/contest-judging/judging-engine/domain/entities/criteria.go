package entities

import "time"

// JudgingCriteria is a bounded scoring dimension for score-mode contests.
// An empty CategoryID applies the criteria to every category in the contest.
type JudgingCriteria struct {
	CriteriaID string
	ContestID  string
	CategoryID string
	Name       string
	MaxScore   int
	Order      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AppliesTo reports whether the criteria is usable when judging under the
// given category (empty categoryID means contest-wide judging).
func (c JudgingCriteria) AppliesTo(categoryID string) bool {
	return c.CategoryID == "" || c.CategoryID == categoryID
}
