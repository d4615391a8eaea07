package entities

import "time"

// Phase is the position of a contest inside its configured time window.
type Phase string

const (
	PhaseUpcoming   Phase = "upcoming"
	PhaseSubmission Phase = "submission"
	PhaseVoting     Phase = "voting"
	PhaseClosed     Phase = "closed"
)

// JudgingType selects how the judge panel determines results.
type JudgingType string

const (
	JudgingTypeVote  JudgingType = "vote"
	JudgingTypeScore JudgingType = "score"
)

// Contest is the aggregate root for one judging window. Entries and users are
// owned elsewhere; the contest only references judges by ID.
type Contest struct {
	ContestID        string
	Slug             string
	Title            string
	CreatorID        string
	JudgingType      JudgingType
	StartAt          time.Time
	EndAt            time.Time
	VotingEndAt      *time.Time
	MaxVotesPerJudge int
	JudgeIDs         []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Phase maps the contest window to its current phase. Bounds are inclusive on
// both ends of the submission window and on the voting deadline.
func (c Contest) Phase(now time.Time) Phase {
	if now.Before(c.StartAt) {
		return PhaseUpcoming
	}
	if !now.After(c.EndAt) {
		return PhaseSubmission
	}
	if c.VotingEndAt != nil && !now.After(*c.VotingEndAt) {
		return PhaseVoting
	}
	return PhaseClosed
}

// JudgingOpen reports whether votes and scores may be recorded. Judging is
// allowed while submissions are still open, not only in the voting phase.
func (c Contest) JudgingOpen(now time.Time) bool {
	phase := c.Phase(now)
	return phase == PhaseSubmission || phase == PhaseVoting
}

// ConfigurationOpen reports whether categories and criteria may still change.
func (c Contest) ConfigurationOpen(now time.Time) bool {
	return c.Phase(now) != PhaseClosed
}

// HasJudge reports whether the user belongs to the contest's judge panel.
func (c Contest) HasJudge(userID string) bool {
	for _, id := range c.JudgeIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ManagedBy reports whether the actor may reconfigure this contest.
func (c Contest) ManagedBy(actorID string, actorIsAdmin bool) bool {
	return actorIsAdmin || (actorID != "" && actorID == c.CreatorID)
}
