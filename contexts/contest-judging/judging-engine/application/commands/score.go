package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "photojury/contexts/contest-judging/judging-engine/application"
	"photojury/contexts/contest-judging/judging-engine/domain/entities"
	domainerrors "photojury/contexts/contest-judging/judging-engine/domain/errors"
	"photojury/contexts/contest-judging/judging-engine/ports"
)

// legacyMaxScore bounds the direct-total path kept for contests that never
// configured criteria.
const legacyMaxScore = 100

// DetailedScoreInput is one criteria rating inside a score submission.
type DetailedScoreInput struct {
	CriteriaID string
	Score      int
	Comment    string
}

// SubmitScoreCommand creates or replaces the judge's score for one entry.
// When Details is empty, Total is recorded directly (legacy single-value
// scoring); otherwise Total is ignored and recomputed from the details.
type SubmitScoreCommand struct {
	EntryID    string
	CategoryID string
	JudgeID    string
	Stage      int
	Comment    string
	Total      int
	Details    []DetailedScoreInput
}

// SubmitScoreResult returns the persisted score and an update marker.
type SubmitScoreResult struct {
	Score     entities.JudgeScore
	Details   []entities.DetailedScore
	WasUpdate bool
}

// ScoreUseCase orchestrates the score ledger: batch-validated detailed scores
// with the total recomputed inside the same transaction that writes them.
type ScoreUseCase struct {
	Catalog     ports.CatalogRepository
	Scores      ports.ScoreRepository
	Entries     ports.EntryDirectory
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	LegacyTotal bool
	Logger      *slog.Logger
}

// SubmitScore validates the whole detailed-score batch before writing any of
// it; one out-of-range detail aborts the submission and leaves prior state
// intact.
func (uc ScoreUseCase) SubmitScore(ctx context.Context, cmd SubmitScoreCommand) (SubmitScoreResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	judgeID := strings.TrimSpace(cmd.JudgeID)
	entryID := strings.TrimSpace(cmd.EntryID)
	if judgeID == "" || entryID == "" {
		return SubmitScoreResult{}, domainerrors.ErrInvalidInput
	}
	stage := normalizeStage(cmd.Stage)

	scope, err := resolveJudgingScope(ctx, uc.Catalog, uc.Entries, entryID, cmd.CategoryID, judgeID, stage)
	if err != nil {
		logger.Warn("score submit rejected",
			"event", "judging_score_submit_rejected",
			"module", "contest-judging/judging-engine",
			"layer", "application",
			"entry_id", entryID,
			"judge_id", judgeID,
			"error", err.Error(),
		)
		return SubmitScoreResult{}, err
	}
	if scope.contest.JudgingType != entities.JudgingTypeScore {
		return SubmitScoreResult{}, domainerrors.ErrModeMismatch
	}
	if !scope.contest.JudgingOpen(uc.now()) {
		return SubmitScoreResult{}, domainerrors.ErrPhaseMismatch
	}

	categoryID := ""
	if scope.hasCategory {
		categoryID = scope.category.CategoryID
	}

	total, err := uc.validateBatch(ctx, scope.contest.ContestID, categoryID, cmd)
	if err != nil {
		return SubmitScoreResult{}, err
	}

	now := uc.now()
	score := entities.JudgeScore{
		EntryID:    entryID,
		ContestID:  scope.contest.ContestID,
		CategoryID: categoryID,
		JudgeID:    judgeID,
		Stage:      stage,
		TotalScore: total,
		Comment:    strings.TrimSpace(cmd.Comment),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	existing, found, err := uc.Scores.GetScoreByIdentity(ctx, entryID, judgeID, categoryID, stage)
	if err != nil {
		return SubmitScoreResult{}, err
	}
	if found {
		score.ScoreID = existing.ScoreID
		score.CreatedAt = existing.CreatedAt
	} else {
		scoreID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return SubmitScoreResult{}, err
		}
		score.ScoreID = scoreID
	}

	details := make([]entities.DetailedScore, 0, len(cmd.Details))
	for _, input := range cmd.Details {
		detailID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return SubmitScoreResult{}, err
		}
		details = append(details, entities.DetailedScore{
			DetailedScoreID: detailID,
			ScoreID:         score.ScoreID,
			CriteriaID:      strings.TrimSpace(input.CriteriaID),
			Score:           input.Score,
			Comment:         strings.TrimSpace(input.Comment),
			CreatedAt:       now,
		})
	}

	if err := uc.Scores.SaveScore(ctx, score, details); err != nil {
		return SubmitScoreResult{}, err
	}
	if err := uc.appendScoreEvent(ctx, score, found, now); err != nil {
		return SubmitScoreResult{}, err
	}

	logger.Info("score submitted",
		"event", "judging_score_submitted",
		"module", "contest-judging/judging-engine",
		"layer", "application",
		"score_id", score.ScoreID,
		"entry_id", score.EntryID,
		"judge_id", score.JudgeID,
		"category_id", score.CategoryID,
		"stage", score.Stage,
		"total_score", score.TotalScore,
		"detail_count", len(details),
		"was_update", found,
	)
	return SubmitScoreResult{Score: score, Details: details, WasUpdate: found}, nil
}

// RecomputeTotal re-derives a judge score's total from its committed detailed
// scores. Recomputing twice with no intervening change yields the same total.
func (uc ScoreUseCase) RecomputeTotal(ctx context.Context, scoreID string) (int, error) {
	logger := application.ResolveLogger(uc.Logger)
	scoreID = strings.TrimSpace(scoreID)
	if scoreID == "" {
		return 0, domainerrors.ErrInvalidInput
	}
	total, err := uc.Scores.RecomputeTotal(ctx, scoreID)
	if err != nil {
		return 0, err
	}
	logger.Info("score total recomputed",
		"event", "judging_score_recomputed",
		"module", "contest-judging/judging-engine",
		"layer", "application",
		"score_id", scoreID,
		"total_score", total,
	)
	return total, nil
}

// validateBatch checks every detailed score against its criteria before any
// write happens, and returns the derived total.
func (uc ScoreUseCase) validateBatch(
	ctx context.Context,
	contestID string,
	categoryID string,
	cmd SubmitScoreCommand,
) (int, error) {
	if len(cmd.Details) == 0 {
		if !uc.LegacyTotal {
			return 0, domainerrors.ErrInvalidInput
		}
		if cmd.Total < 0 || cmd.Total > legacyMaxScore {
			return 0, domainerrors.ScoreOutOfRangeError{Score: cmd.Total, MaxScore: legacyMaxScore}
		}
		return cmd.Total, nil
	}

	criteria, err := uc.Catalog.ListCriteriaFor(ctx, contestID, categoryID)
	if err != nil {
		return 0, err
	}
	byID := make(map[string]entities.JudgingCriteria, len(criteria))
	for _, c := range criteria {
		byID[c.CriteriaID] = c
	}

	seen := make(map[string]bool, len(cmd.Details))
	total := 0
	for _, input := range cmd.Details {
		criteriaID := strings.TrimSpace(input.CriteriaID)
		c, ok := byID[criteriaID]
		if !ok {
			return 0, domainerrors.ErrCriteriaNotFound
		}
		if seen[criteriaID] {
			return 0, domainerrors.ErrInvalidInput
		}
		seen[criteriaID] = true
		if input.Score < 0 || input.Score > c.MaxScore {
			return 0, domainerrors.ScoreOutOfRangeError{
				CriteriaID: criteriaID,
				Score:      input.Score,
				MaxScore:   c.MaxScore,
			}
		}
		total += input.Score
	}
	return total, nil
}

func (uc ScoreUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc ScoreUseCase) appendScoreEvent(
	ctx context.Context,
	score entities.JudgeScore,
	wasUpdate bool,
	occurredAt time.Time,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newJudgingEnvelope(eventID, "score.submitted", score.EntryID, occurredAt, map[string]any{
		"score_id":    score.ScoreID,
		"entry_id":    score.EntryID,
		"contest_id":  score.ContestID,
		"category_id": score.CategoryID,
		"judge_id":    score.JudgeID,
		"stage":       score.Stage,
		"total_score": score.TotalScore,
		"was_update":  wasUpdate,
		"occurred_at": occurredAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}
