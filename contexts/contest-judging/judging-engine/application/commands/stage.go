package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "photojury/contexts/contest-judging/judging-engine/application"
	"photojury/contexts/contest-judging/judging-engine/domain/entities"
	domainerrors "photojury/contexts/contest-judging/judging-engine/domain/errors"
	"photojury/contexts/contest-judging/judging-engine/domain/services"
	"photojury/contexts/contest-judging/judging-engine/ports"
)

// CanAdvanceResult is the advisory readiness answer for organizers.
type CanAdvanceResult struct {
	Ready  bool
	Reason string
}

// AdvanceStageCommand moves a category's judging to its next round.
type AdvanceStageCommand struct {
	CategoryID   string
	ActorID      string
	ActorIsAdmin bool
}

// StageUseCase owns the stage advancement gate: completeness of entry views
// and quota satisfaction across the whole judge panel.
type StageUseCase struct {
	Catalog ports.CatalogRepository
	Stages  ports.StageAdvancer
	Votes   ports.VoteRepository
	Views   ports.ViewRepository
	Entries ports.EntryDirectory
	Outbox  ports.OutboxWriter
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

// CanAdvance answers whether a category is ready to progress. The result is
// advisory: state can change between this read and AdvanceStage, which is why
// the actual advancement re-runs the same gate transactionally.
func (uc StageUseCase) CanAdvance(ctx context.Context, categoryID string) (CanAdvanceResult, error) {
	category, contest, err := uc.loadCategory(ctx, categoryID)
	if err != nil {
		return CanAdvanceResult{}, err
	}
	if !category.EnableStages {
		return CanAdvanceResult{Reason: fmt.Sprintf("staged judging is not enabled for %s", category.Name)}, nil
	}
	if category.AtFinalStage() {
		return CanAdvanceResult{Reason: fmt.Sprintf("%s is already at its final stage", category.Name)}, nil
	}

	reader := liveJudgingReader{entries: uc.Entries, views: uc.Views, votes: uc.Votes}
	if err := uc.evaluateGate(ctx, reader, contest, category); err != nil {
		var blocked domainerrors.AdvancementBlockedError
		if errors.As(err, &blocked) {
			return CanAdvanceResult{Reason: blocked.Reason}, nil
		}
		return CanAdvanceResult{}, err
	}
	return CanAdvanceResult{
		Ready:  true,
		Reason: fmt.Sprintf("all judges completed %s", category.StageName(category.CurrentStage)),
	}, nil
}

// AdvanceStage increments the category's current stage after re-running the
// full readiness check inside the same transaction. A gate failure at commit
// time is reported as stale advancement, never acted on silently.
func (uc StageUseCase) AdvanceStage(ctx context.Context, cmd AdvanceStageCommand) (entities.Category, error) {
	logger := application.ResolveLogger(uc.Logger)
	category, contest, err := uc.loadCategory(ctx, cmd.CategoryID)
	if err != nil {
		return entities.Category{}, err
	}
	if !contest.ManagedBy(strings.TrimSpace(cmd.ActorID), cmd.ActorIsAdmin) {
		return entities.Category{}, domainerrors.ErrPermissionDenied
	}
	if !category.EnableStages {
		return entities.Category{}, domainerrors.ErrStagesDisabled
	}
	if category.AtFinalStage() {
		return entities.Category{}, domainerrors.ErrFinalStage
	}

	fromStage := category.CurrentStage
	gate := func(ctx context.Context, reader ports.JudgingReader) error {
		return uc.evaluateGate(ctx, reader, contest, category)
	}
	updated, err := uc.Stages.AdvanceCategoryStage(ctx, category.CategoryID, fromStage, gate)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotReady) {
			return entities.Category{}, fmt.Errorf("%w: %v", domainerrors.ErrStaleAdvancement, err)
		}
		return entities.Category{}, err
	}

	now := uc.now()
	if err := uc.appendStageEvent(ctx, updated, fromStage, now); err != nil {
		return entities.Category{}, err
	}
	logger.Info("category stage advanced",
		"event", "judging_stage_advanced",
		"module", "contest-judging/judging-engine",
		"layer", "application",
		"category_id", updated.CategoryID,
		"contest_id", updated.ContestID,
		"from_stage", fromStage,
		"to_stage", updated.CurrentStage,
	)
	return updated, nil
}

// evaluateGate measures every judge's progress against the reader's snapshot
// and applies the readiness policy. Judges are walked in a stable order so the
// reported blocking judge is deterministic.
func (uc StageUseCase) evaluateGate(
	ctx context.Context,
	reader ports.JudgingReader,
	contest entities.Contest,
	category entities.Category,
) error {
	approved, err := reader.ListApprovedEntryIDs(ctx, contest.ContestID)
	if err != nil {
		return err
	}
	approvedSet := make(map[string]bool, len(approved))
	for _, id := range approved {
		approvedSet[id] = true
	}

	required := category.MaxVotes(category.CurrentStage, contest.MaxVotesPerJudge)
	judges := append([]string(nil), contest.JudgeIDs...)
	sort.Strings(judges)

	progress := make([]services.JudgeStageProgress, 0, len(judges))
	for _, judgeID := range judges {
		viewed, err := reader.ListViewedEntryIDs(ctx, contest.ContestID, judgeID)
		if err != nil {
			return err
		}
		viewedApproved := 0
		for _, id := range viewed {
			if approvedSet[id] {
				viewedApproved++
			}
		}
		votes, err := reader.CountVotes(ctx, contest.ContestID, judgeID, category.CategoryID, category.CurrentStage)
		if err != nil {
			return err
		}
		progress = append(progress, services.JudgeStageProgress{
			JudgeID:       judgeID,
			ViewedEntries: viewedApproved,
			TotalEntries:  len(approved),
			Votes:         votes,
			RequiredVotes: required,
		})
	}
	return services.EvaluateStageReadiness(progress)
}

func (uc StageUseCase) loadCategory(ctx context.Context, categoryID string) (entities.Category, entities.Contest, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return entities.Category{}, entities.Contest{}, domainerrors.ErrInvalidInput
	}
	category, err := uc.Catalog.GetCategory(ctx, categoryID)
	if err != nil {
		return entities.Category{}, entities.Contest{}, err
	}
	contest, err := uc.Catalog.GetContest(ctx, category.ContestID)
	if err != nil {
		return entities.Category{}, entities.Contest{}, err
	}
	return category, contest, nil
}

func (uc StageUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc StageUseCase) appendStageEvent(
	ctx context.Context,
	category entities.Category,
	fromStage int,
	occurredAt time.Time,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newJudgingEnvelope(eventID, "stage.advanced", category.CategoryID, occurredAt, map[string]any{
		"category_id": category.CategoryID,
		"contest_id":  category.ContestID,
		"from_stage":  fromStage,
		"to_stage":    category.CurrentStage,
		"stage_name":  category.StageName(category.CurrentStage),
		"occurred_at": occurredAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

// liveJudgingReader satisfies the gate's read surface for the advisory
// CanAdvance path, without transactional snapshot guarantees.
type liveJudgingReader struct {
	entries ports.EntryDirectory
	views   ports.ViewRepository
	votes   ports.VoteRepository
}

func (r liveJudgingReader) ListApprovedEntryIDs(ctx context.Context, contestID string) ([]string, error) {
	return r.entries.ListApprovedEntryIDs(ctx, contestID)
}

func (r liveJudgingReader) ListViewedEntryIDs(ctx context.Context, contestID string, judgeID string) ([]string, error) {
	return r.views.ListViewedEntryIDs(ctx, contestID, judgeID)
}

func (r liveJudgingReader) CountVotes(ctx context.Context, contestID string, judgeID string, categoryID string, stage int) (int, error) {
	return r.votes.CountVotes(ctx, contestID, judgeID, categoryID, stage)
}
