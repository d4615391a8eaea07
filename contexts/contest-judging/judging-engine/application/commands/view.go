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

// RecordViewCommand marks an entry as viewed by a judge.
type RecordViewCommand struct {
	EntryID string
	JudgeID string
}

// ViewUseCase tracks which entries each judge has opened. Views exist only as
// a completeness signal for stage advancement.
type ViewUseCase struct {
	Catalog ports.CatalogRepository
	Views   ports.ViewRepository
	Entries ports.EntryDirectory
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

// RecordView records the first view of an entry by a judge. A judge revisiting
// an entry is expected; repeats report created=false without error.
func (uc ViewUseCase) RecordView(ctx context.Context, cmd RecordViewCommand) (bool, error) {
	logger := application.ResolveLogger(uc.Logger)
	judgeID := strings.TrimSpace(cmd.JudgeID)
	entryID := strings.TrimSpace(cmd.EntryID)
	if judgeID == "" || entryID == "" {
		return false, domainerrors.ErrInvalidInput
	}

	entry, err := uc.Entries.GetEntry(ctx, entryID)
	if err != nil {
		return false, err
	}
	if !entry.Approved {
		return false, domainerrors.ErrEntryNotApproved
	}
	contest, err := uc.Catalog.GetContest(ctx, entry.ContestID)
	if err != nil {
		return false, err
	}
	if !contest.HasJudge(judgeID) {
		return false, domainerrors.ErrNotAJudge
	}

	viewID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	created, err := uc.Views.RecordView(ctx, entities.EntryView{
		ViewID:    viewID,
		EntryID:   entryID,
		ContestID: contest.ContestID,
		JudgeID:   judgeID,
		CreatedAt: now,
	})
	if err != nil {
		return false, err
	}
	if created {
		logger.Info("entry view recorded",
			"event", "judging_entry_view_recorded",
			"module", "contest-judging/judging-engine",
			"layer", "application",
			"entry_id", entryID,
			"contest_id", contest.ContestID,
			"judge_id", judgeID,
		)
	}
	return created, nil
}
