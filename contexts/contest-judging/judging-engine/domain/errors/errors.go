package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid judging input")
	ErrPhaseMismatch    = errors.New("operation not allowed in current contest phase")
	ErrModeMismatch     = errors.New("operation does not match contest judging type")
	ErrQuotaExceeded    = errors.New("vote quota exhausted")
	ErrDuplicateVote    = errors.New("vote already exists for this entry, category and stage")
	ErrDuplicateRecord  = errors.New("record already exists")
	ErrScoreOutOfRange  = errors.New("score outside permitted range")
	ErrStageOutOfRange  = errors.New("stage number out of range")
	ErrStagesDisabled   = errors.New("staged judging is not enabled")
	ErrFinalStage       = errors.New("category is already at its final stage")
	ErrNotReady         = errors.New("category is not ready to advance")
	ErrStaleAdvancement = errors.New("advancement conditions no longer met")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotAJudge        = errors.New("user is not a judge of this contest")

	ErrContestNotFound  = errors.New("contest not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCriteriaNotFound = errors.New("judging criteria not found")
	ErrEntryNotFound    = errors.New("entry not found")
	ErrEntryNotApproved = errors.New("entry is not approved for judging")
	ErrVoteNotFound     = errors.New("vote not found")
	ErrScoreNotFound    = errors.New("judge score not found")
)

// QuotaExceededError carries the resolved limit and the judge's current count
// so callers can surface both, while still matching ErrQuotaExceeded.
type QuotaExceededError struct {
	Limit int
	Count int
}

func (e QuotaExceededError) Error() string {
	return fmt.Sprintf("vote quota exhausted: %d of %d votes already cast", e.Count, e.Limit)
}

func (e QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// ScoreOutOfRangeError identifies the offending criteria and bound. An empty
// CriteriaID marks the legacy direct-total path.
type ScoreOutOfRangeError struct {
	CriteriaID string
	Score      int
	MaxScore   int
}

func (e ScoreOutOfRangeError) Error() string {
	if e.CriteriaID == "" {
		return fmt.Sprintf("score %d outside range 0..%d", e.Score, e.MaxScore)
	}
	return fmt.Sprintf("score %d for criteria %s outside range 0..%d", e.Score, e.CriteriaID, e.MaxScore)
}

func (e ScoreOutOfRangeError) Is(target error) bool {
	return target == ErrScoreOutOfRange
}

// AdvancementBlockedError names the first judge whose progress blocks the
// stage gate, with a human-readable reason.
type AdvancementBlockedError struct {
	JudgeID string
	Reason  string
}

func (e AdvancementBlockedError) Error() string {
	return e.Reason
}

func (e AdvancementBlockedError) Is(target error) bool {
	return target == ErrNotReady
}
