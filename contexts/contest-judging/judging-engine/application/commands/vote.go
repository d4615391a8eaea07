package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "photojury/contexts/contest-judging/judging-engine/application"
	"photojury/contexts/contest-judging/judging-engine/domain/entities"
	domainerrors "photojury/contexts/contest-judging/judging-engine/domain/errors"
	"photojury/contexts/contest-judging/judging-engine/ports"
)

// CastVoteCommand is the write-model input for vote creation.
type CastVoteCommand struct {
	EntryID    string
	CategoryID string
	JudgeID    string
	Stage      int
}

// RemoveVoteCommand requests deletion of the judge's own vote.
type RemoveVoteCommand struct {
	EntryID    string
	CategoryID string
	JudgeID    string
	Stage      int
}

// VoteUseCase orchestrates the vote ledger: one vote per judge per entry per
// category per stage, gated by contest phase, judging mode and quota.
type VoteUseCase struct {
	Catalog ports.CatalogRepository
	Votes   ports.VoteRepository
	Entries ports.EntryDirectory
	Outbox  ports.OutboxWriter
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

// CastVote records one vote. Each precondition failure surfaces as its own
// error kind; the quota is re-validated inside the repository transaction so
// concurrent casts near the limit cannot overshoot.
func (uc VoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (entities.Vote, error) {
	logger := application.ResolveLogger(uc.Logger)
	judgeID := strings.TrimSpace(cmd.JudgeID)
	entryID := strings.TrimSpace(cmd.EntryID)
	if judgeID == "" || entryID == "" {
		return entities.Vote{}, domainerrors.ErrInvalidInput
	}
	stage := normalizeStage(cmd.Stage)

	scope, err := resolveJudgingScope(ctx, uc.Catalog, uc.Entries, entryID, cmd.CategoryID, judgeID, stage)
	if err != nil {
		logger.Warn("vote cast rejected",
			"event", "judging_vote_cast_rejected",
			"module", "contest-judging/judging-engine",
			"layer", "application",
			"entry_id", entryID,
			"judge_id", judgeID,
			"error", err.Error(),
		)
		return entities.Vote{}, err
	}
	if scope.contest.JudgingType != entities.JudgingTypeVote {
		return entities.Vote{}, domainerrors.ErrModeMismatch
	}
	if !scope.contest.JudgingOpen(uc.now()) {
		return entities.Vote{}, domainerrors.ErrPhaseMismatch
	}

	categoryID := ""
	if scope.hasCategory {
		categoryID = scope.category.CategoryID
	}

	if _, found, err := uc.Votes.GetVoteByIdentity(ctx, entryID, judgeID, categoryID, stage); err != nil {
		return entities.Vote{}, err
	} else if found {
		return entities.Vote{}, domainerrors.ErrDuplicateVote
	}

	limit := scope.quota(stage)
	if limit > 0 {
		count, err := uc.Votes.CountVotes(ctx, scope.contest.ContestID, judgeID, categoryID, stage)
		if err != nil {
			return entities.Vote{}, err
		}
		if count >= limit {
			return entities.Vote{}, domainerrors.QuotaExceededError{Limit: limit, Count: count}
		}
	}

	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Vote{}, err
	}
	now := uc.now()
	vote := entities.Vote{
		VoteID:     voteID,
		EntryID:    entryID,
		ContestID:  scope.contest.ContestID,
		CategoryID: categoryID,
		JudgeID:    judgeID,
		Stage:      stage,
		CreatedAt:  now,
	}
	if err := uc.Votes.CreateVote(ctx, vote, limit); err != nil {
		return entities.Vote{}, err
	}
	if err := uc.appendVoteEvent(ctx, "vote.cast", vote, now, nil); err != nil {
		return entities.Vote{}, err
	}

	logger.Info("vote cast",
		"event", "judging_vote_cast",
		"module", "contest-judging/judging-engine",
		"layer", "application",
		"vote_id", vote.VoteID,
		"entry_id", vote.EntryID,
		"contest_id", vote.ContestID,
		"category_id", vote.CategoryID,
		"judge_id", vote.JudgeID,
		"stage", vote.Stage,
	)
	return vote, nil
}

// RemoveVote deletes the judge's vote. A missing vote is reported as not
// found rather than swallowed, so client bookkeeping bugs stay visible.
func (uc VoteUseCase) RemoveVote(ctx context.Context, cmd RemoveVoteCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	judgeID := strings.TrimSpace(cmd.JudgeID)
	entryID := strings.TrimSpace(cmd.EntryID)
	if judgeID == "" || entryID == "" {
		return domainerrors.ErrInvalidInput
	}
	stage := normalizeStage(cmd.Stage)
	categoryID := strings.TrimSpace(cmd.CategoryID)

	vote, found, err := uc.Votes.GetVoteByIdentity(ctx, entryID, judgeID, categoryID, stage)
	if err != nil {
		return err
	}
	if !found {
		return domainerrors.ErrVoteNotFound
	}
	if err := uc.Votes.DeleteVoteByIdentity(ctx, entryID, judgeID, categoryID, stage); err != nil {
		if errors.Is(err, domainerrors.ErrVoteNotFound) {
			return domainerrors.ErrVoteNotFound
		}
		return err
	}
	now := uc.now()
	if err := uc.appendVoteEvent(ctx, "vote.removed", vote, now, nil); err != nil {
		return err
	}

	logger.Info("vote removed",
		"event", "judging_vote_removed",
		"module", "contest-judging/judging-engine",
		"layer", "application",
		"vote_id", vote.VoteID,
		"entry_id", entryID,
		"judge_id", judgeID,
		"category_id", categoryID,
		"stage", stage,
	)
	return nil
}

func (uc VoteUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc VoteUseCase) appendVoteEvent(
	ctx context.Context,
	eventType string,
	vote entities.Vote,
	occurredAt time.Time,
	metadata map[string]any,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data := map[string]any{
		"vote_id":     vote.VoteID,
		"entry_id":    vote.EntryID,
		"contest_id":  vote.ContestID,
		"category_id": vote.CategoryID,
		"judge_id":    vote.JudgeID,
		"stage":       vote.Stage,
		"occurred_at": occurredAt.Format(time.RFC3339),
	}
	for key, value := range metadata {
		data[key] = value
	}
	envelope, err := newJudgingEnvelope(eventID, eventType, vote.EntryID, occurredAt, data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}
