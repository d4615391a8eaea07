package services

import (
	"fmt"

	domainerrors "photojury/contexts/contest-judging/judging-engine/domain/errors"
)

// JudgeStageProgress is one judge's measured progress through the current
// stage of one category.
type JudgeStageProgress struct {
	JudgeID       string
	ViewedEntries int
	TotalEntries  int
	Votes         int
	RequiredVotes int
}

// EvaluateStageReadiness decides whether a category may advance. Completeness
// (every judge viewed every approved entry) is checked for the whole panel
// before quota satisfaction, and the first unmet condition fails the gate with
// the offending judge named.
func EvaluateStageReadiness(progress []JudgeStageProgress) error {
	for _, p := range progress {
		if p.ViewedEntries < p.TotalEntries {
			return domainerrors.AdvancementBlockedError{
				JudgeID: p.JudgeID,
				Reason: fmt.Sprintf("judge %s has not viewed all entries (%d of %d)",
					p.JudgeID, p.ViewedEntries, p.TotalEntries),
			}
		}
	}
	for _, p := range progress {
		if p.Votes < p.RequiredVotes {
			return domainerrors.AdvancementBlockedError{
				JudgeID: p.JudgeID,
				Reason: fmt.Sprintf("judge %s has cast %d of %d required votes",
					p.JudgeID, p.Votes, p.RequiredVotes),
			}
		}
	}
	return nil
}
