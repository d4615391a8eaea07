package unit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	judgingengine "photojury/contexts/contest-judging/judging-engine"
	"photojury/contexts/contest-judging/judging-engine/application/commands"
	domainerrors "photojury/contexts/contest-judging/judging-engine/domain/errors"
	"photojury/contexts/contest-judging/judging-engine/ports"
	httptransport "photojury/contexts/contest-judging/judging-engine/transport/http"
)

var judgingNow = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

func newJudgingModule(t *testing.T) judgingengine.Module {
	t.Helper()
	module := judgingengine.NewInMemoryModule(nil)
	module.Store.SetNow(judgingNow)
	return module
}

func configureContest(
	t *testing.T,
	module judgingengine.Module,
	judgingType string,
	maxVotes int,
	judges []string,
) httptransport.ContestResponse {
	t.Helper()
	votingEnd := judgingNow.Add(72 * time.Hour)
	contest, err := module.Handler.ConfigureContestHandler(context.Background(), "organizer-1", false, httptransport.ConfigureContestRequest{
		Slug:             "spring-open",
		Title:            "Spring Open",
		JudgingType:      judgingType,
		StartAt:          judgingNow.Add(-24 * time.Hour),
		EndAt:            judgingNow.Add(24 * time.Hour),
		VotingEndAt:      &votingEnd,
		MaxVotesPerJudge: maxVotes,
		JudgeIDs:         judges,
	})
	if err != nil {
		t.Fatalf("configure contest failed: %v", err)
	}
	return contest
}

func seedEntries(module judgingengine.Module, contestID string, entryIDs ...string) {
	for _, entryID := range entryIDs {
		module.Store.SetEntry(ports.EntryProjection{
			EntryID:   entryID,
			ContestID: contestID,
			AuthorID:  "author-" + entryID,
			Approved:  true,
		})
	}
}

func TestCastVoteQuotaAndDuplicate(t *testing.T) {
	module := newJudgingModule(t)
	contest := configureContest(t, module, "vote", 3, []string{"judge-1", "judge-2"})
	seedEntries(module, contest.ContestID, "entry-1", "entry-2", "entry-3", "entry-4")

	for _, entryID := range []string{"entry-1", "entry-2", "entry-3"} {
		if _, err := module.Handler.CastVoteHandler(context.Background(), "judge-1", httptransport.CastVoteRequest{
			EntryID: entryID,
		}); err != nil {
			t.Fatalf("cast vote for %s failed: %v", entryID, err)
		}
	}

	_, err := module.Handler.CastVoteHandler(context.Background(), "judge-1", httptransport.CastVoteRequest{
		EntryID: "entry-4",
	})
	if !errors.Is(err, domainerrors.ErrQuotaExceeded) {
		t.Fatalf("expected quota exceeded on fourth vote, got %v", err)
	}

	// Another judge still has a full quota.
	if _, err := module.Handler.CastVoteHandler(context.Background(), "judge-2", httptransport.CastVoteRequest{
		EntryID: "entry-4",
	}); err != nil {
		t.Fatalf("second judge vote failed: %v", err)
	}

	_, err = module.Handler.CastVoteHandler(context.Background(), "judge-2", httptransport.CastVoteRequest{
		EntryID: "entry-4",
	})
	if !errors.Is(err, domainerrors.ErrDuplicateVote) {
		t.Fatalf("expected duplicate vote, got %v", err)
	}
}

func TestVotePreconditions(t *testing.T) {
	module := newJudgingModule(t)
	contest := configureContest(t, module, "vote", 0, []string{"judge-1"})
	seedEntries(module, contest.ContestID, "entry-1")
	module.Store.SetEntry(ports.EntryProjection{
		EntryID:   "entry-pending",
		ContestID: contest.ContestID,
		AuthorID:  "author-9",
		Approved:  false,
	})

	_, err := module.Handler.CastVoteHandler(context.Background(), "stranger-1", httptransport.CastVoteRequest{
		EntryID: "entry-1",
	})
	if !errors.Is(err, domainerrors.ErrNotAJudge) {
		t.Fatalf("expected not-a-judge, got %v", err)
	}

	_, err = module.Handler.CastVoteHandler(context.Background(), "judge-1", httptransport.CastVoteRequest{
		EntryID: "entry-pending",
	})
	if !errors.Is(err, domainerrors.ErrEntryNotApproved) {
		t.Fatalf("expected entry not approved, got %v", err)
	}

	_, err = module.Handler.CastVoteHandler(context.Background(), "judge-1", httptransport.CastVoteRequest{
		EntryID: "entry-missing",
	})
	if !errors.Is(err, domainerrors.ErrEntryNotFound) {
		t.Fatalf("expected entry not found, got %v", err)
	}

	// Judging closes once the voting deadline passes.
	module.Store.SetNow(judgingNow.Add(100 * time.Hour))
	_, err = module.Handler.CastVoteHandler(context.Background(), "judge-1", httptransport.CastVoteRequest{
		EntryID: "entry-1",
	})
	if !errors.Is(err, domainerrors.ErrPhaseMismatch) {
		t.Fatalf("expected phase mismatch after voting deadline, got %v", err)
	}
}

func TestVoteModeMismatch(t *testing.T) {
	module := newJudgingModule(t)
	contest := configureContest(t, module, "score", 0, []string{"judge-1"})
	seedEntries(module, contest.ContestID, "entry-1")

	_, err := module.Handler.CastVoteHandler(context.Background(), "judge-1", httptransport.CastVoteRequest{
		EntryID: "entry-1",
	})
	if !errors.Is(err, domainerrors.ErrModeMismatch) {
		t.Fatalf("expected mode mismatch voting on a score contest, got %v", err)
	}
}

func TestQuotaOverrideResolution(t *testing.T) {
	module := newJudgingModule(t)
	contest := configureContest(t, module, "vote", 1, []string{"judge-1"})
	entryIDs := []string{"entry-1", "entry-2", "entry-3", "entry-4", "entry-5", "entry-6"}
	seedEntries(module, contest.ContestID, entryIDs...)

	category, err := module.Handler.ConfigureCategoryHandler(context.Background(), "organizer-1", false, httptransport.ConfigureCategoryRequest{
		ContestID:        contest.ContestID,
		Name:             "Landscape",
		MaxVotesPerJudge: 3,
		EnableStages:     true,
		StageCount:       2,
		StageSettings: []httptransport.StageSettingPayload{
			{StageNumber: 2, Name: "Final", MaxVotes: 5},
		},
	})
	if err != nil {
		t.Fatalf("configure category failed: %v", err)
	}

	// Stage 1 has no explicit setting, so the category quota of 3 applies
	// even though the contest default is 1.
	for _, entryID := range entryIDs[:3] {
		if _, err := module.Handler.CastVoteHandler(context.Background(), "judge-1", httptransport.CastVoteRequest{
			EntryID:    entryID,
			CategoryID: category.CategoryID,
			Stage:      1,
		}); err != nil {
			t.Fatalf("stage 1 vote for %s failed: %v", entryID, err)
		}
	}
	_, err = module.Handler.CastVoteHandler(context.Background(), "judge-1", httptransport.CastVoteRequest{
		EntryID:    entryIDs[3],
		CategoryID: category.CategoryID,
		Stage:      1,
	})
	if !errors.Is(err, domainerrors.ErrQuotaExceeded) {
		t.Fatalf("expected stage 1 quota of 3, got %v", err)
	}

	// Stage 2 carries an explicit override of 5.
	for _, entryID := range entryIDs[:5] {
		if _, err := module.Handler.CastVoteHandler(context.Background(), "judge-1", httptransport.CastVoteRequest{
			EntryID:    entryID,
			CategoryID: category.CategoryID,
			Stage:      2,
		}); err != nil {
			t.Fatalf("stage 2 vote for %s failed: %v", entryID, err)
		}
	}
	_, err = module.Handler.CastVoteHandler(context.Background(), "judge-1", httptransport.CastVoteRequest{
		EntryID:    entryIDs[5],
		CategoryID: category.CategoryID,
		Stage:      2,
	})
	if !errors.Is(err, domainerrors.ErrQuotaExceeded) {
		t.Fatalf("expected stage 2 quota of 5, got %v", err)
	}

	// Contest-wide voting (no category) falls back to the contest default.
	if _, err := module.Handler.CastVoteHandler(context.Background(), "judge-1", httptransport.CastVoteRequest{
		EntryID: entryIDs[0],
	}); err != nil {
		t.Fatalf("contest-wide vote failed: %v", err)
	}
	_, err = module.Handler.CastVoteHandler(context.Background(), "judge-1", httptransport.CastVoteRequest{
		EntryID: entryIDs[1],
	})
	if !errors.Is(err, domainerrors.ErrQuotaExceeded) {
		t.Fatalf("expected contest default quota of 1, got %v", err)
	}

	// Stage 3 does not exist on a two-stage category.
	_, err = module.Handler.CastVoteHandler(context.Background(), "judge-1", httptransport.CastVoteRequest{
		EntryID:    entryIDs[0],
		CategoryID: category.CategoryID,
		Stage:      3,
	})
	if !errors.Is(err, domainerrors.ErrStageOutOfRange) {
		t.Fatalf("expected stage out of range, got %v", err)
	}
}

func TestRemoveVoteFreesQuota(t *testing.T) {
	module := newJudgingModule(t)
	contest := configureContest(t, module, "vote", 1, []string{"judge-1"})
	seedEntries(module, contest.ContestID, "entry-1", "entry-2")

	err := module.Handler.RemoveVoteHandler(context.Background(), "judge-1", httptransport.RemoveVoteRequest{
		EntryID: "entry-1",
	})
	if !errors.Is(err, domainerrors.ErrVoteNotFound) {
		t.Fatalf("expected vote not found removing a never-cast vote, got %v", err)
	}

	if _, err := module.Handler.CastVoteHandler(context.Background(), "judge-1", httptransport.CastVoteRequest{
		EntryID: "entry-1",
	}); err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if err := module.Handler.RemoveVoteHandler(context.Background(), "judge-1", httptransport.RemoveVoteRequest{
		EntryID: "entry-1",
	}); err != nil {
		t.Fatalf("remove vote failed: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(context.Background(), "judge-1", httptransport.CastVoteRequest{
		EntryID: "entry-2",
	}); err != nil {
		t.Fatalf("expected quota freed after removal, got %v", err)
	}
}

func TestSubmitScoreBatchValidation(t *testing.T) {
	module := newJudgingModule(t)
	contest := configureContest(t, module, "score", 0, []string{"judge-1"})
	seedEntries(module, contest.ContestID, "entry-1")

	composition, err := module.Handler.ConfigureCriteriaHandler(context.Background(), "organizer-1", false, httptransport.ConfigureCriteriaRequest{
		ContestID: contest.ContestID,
		Name:      "Composition",
		MaxScore:  10,
	})
	if err != nil {
		t.Fatalf("configure criteria failed: %v", err)
	}
	lighting, err := module.Handler.ConfigureCriteriaHandler(context.Background(), "organizer-1", false, httptransport.ConfigureCriteriaRequest{
		ContestID: contest.ContestID,
		Name:      "Lighting",
		MaxScore:  15,
	})
	if err != nil {
		t.Fatalf("configure criteria failed: %v", err)
	}

	// One out-of-range detail aborts the whole batch.
	_, err = module.Handler.SubmitScoreHandler(context.Background(), "judge-1", httptransport.SubmitScoreRequest{
		EntryID: "entry-1",
		Details: []httptransport.DetailedScorePayload{
			{CriteriaID: composition.CriteriaID, Score: 12},
			{CriteriaID: lighting.CriteriaID, Score: 5},
		},
	})
	if !errors.Is(err, domainerrors.ErrScoreOutOfRange) {
		t.Fatalf("expected score out of range, got %v", err)
	}
	if _, found, err := module.Store.GetScoreByIdentity(context.Background(), "entry-1", "judge-1", "", 1); err != nil || found {
		t.Fatalf("no score must persist after a rejected batch, found=%v err=%v", found, err)
	}

	first, err := module.Handler.SubmitScoreHandler(context.Background(), "judge-1", httptransport.SubmitScoreRequest{
		EntryID: "entry-1",
		Details: []httptransport.DetailedScorePayload{
			{CriteriaID: composition.CriteriaID, Score: 8},
			{CriteriaID: lighting.CriteriaID, Score: 10},
		},
	})
	if err != nil {
		t.Fatalf("submit score failed: %v", err)
	}
	if first.TotalScore != 18 {
		t.Fatalf("expected total 18, got %d", first.TotalScore)
	}
	if first.WasUpdate {
		t.Fatalf("first submission must not be an update")
	}

	// Resubmission replaces the detail set and the derived total.
	second, err := module.Handler.SubmitScoreHandler(context.Background(), "judge-1", httptransport.SubmitScoreRequest{
		EntryID: "entry-1",
		Details: []httptransport.DetailedScorePayload{
			{CriteriaID: composition.CriteriaID, Score: 3},
			{CriteriaID: lighting.CriteriaID, Score: 4},
		},
	})
	if err != nil {
		t.Fatalf("resubmit score failed: %v", err)
	}
	if !second.WasUpdate {
		t.Fatalf("expected resubmission to report an update")
	}
	if second.ScoreID != first.ScoreID {
		t.Fatalf("expected stable score id, got %s and %s", first.ScoreID, second.ScoreID)
	}
	if second.TotalScore != 7 {
		t.Fatalf("expected replaced total 7, got %d", second.TotalScore)
	}

	scores, err := module.Handler.MyScoresHandler(context.Background(), contest.ContestID, "judge-1")
	if err != nil {
		t.Fatalf("my scores failed: %v", err)
	}
	if len(scores.Items) != 1 {
		t.Fatalf("expected one score record, got %d", len(scores.Items))
	}

	// Recomputing from committed details is idempotent.
	for i := 0; i < 2; i++ {
		total, err := module.Handler.RecomputeTotalHandler(context.Background(), second.ScoreID)
		if err != nil {
			t.Fatalf("recompute total failed: %v", err)
		}
		if total != 7 {
			t.Fatalf("expected recomputed total 7, got %d", total)
		}
	}
}

func TestSubmitScoreRejectsBadBatches(t *testing.T) {
	module := newJudgingModule(t)
	contest := configureContest(t, module, "score", 0, []string{"judge-1"})
	seedEntries(module, contest.ContestID, "entry-1")

	criteria, err := module.Handler.ConfigureCriteriaHandler(context.Background(), "organizer-1", false, httptransport.ConfigureCriteriaRequest{
		ContestID: contest.ContestID,
		Name:      "Impact",
		MaxScore:  10,
	})
	if err != nil {
		t.Fatalf("configure criteria failed: %v", err)
	}

	_, err = module.Handler.SubmitScoreHandler(context.Background(), "judge-1", httptransport.SubmitScoreRequest{
		EntryID: "entry-1",
		Details: []httptransport.DetailedScorePayload{
			{CriteriaID: "criteria-missing", Score: 5},
		},
	})
	if !errors.Is(err, domainerrors.ErrCriteriaNotFound) {
		t.Fatalf("expected criteria not found, got %v", err)
	}

	_, err = module.Handler.SubmitScoreHandler(context.Background(), "judge-1", httptransport.SubmitScoreRequest{
		EntryID: "entry-1",
		Details: []httptransport.DetailedScorePayload{
			{CriteriaID: criteria.CriteriaID, Score: 5},
			{CriteriaID: criteria.CriteriaID, Score: 6},
		},
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for duplicated criteria, got %v", err)
	}

	_, err = module.Handler.SubmitScoreHandler(context.Background(), "judge-1", httptransport.SubmitScoreRequest{
		EntryID: "entry-1",
		Details: []httptransport.DetailedScorePayload{
			{CriteriaID: criteria.CriteriaID, Score: -1},
		},
	})
	if !errors.Is(err, domainerrors.ErrScoreOutOfRange) {
		t.Fatalf("expected negative score rejected, got %v", err)
	}

	// Without legacy scoring enabled an empty batch is meaningless.
	_, err = module.Handler.SubmitScoreHandler(context.Background(), "judge-1", httptransport.SubmitScoreRequest{
		EntryID: "entry-1",
		Total:   42,
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty detail batch, got %v", err)
	}
}

func TestLegacySingleValueScoring(t *testing.T) {
	module := newJudgingModule(t)
	contest := configureContest(t, module, "score", 0, []string{"judge-1"})
	seedEntries(module, contest.ContestID, "entry-1")

	useCase := commands.ScoreUseCase{
		Catalog:     module.Store,
		Scores:      module.Store,
		Entries:     module.Store,
		Clock:       module.Store,
		IDGen:       module.Store,
		LegacyTotal: true,
	}

	result, err := useCase.SubmitScore(context.Background(), commands.SubmitScoreCommand{
		EntryID: "entry-1",
		JudgeID: "judge-1",
		Total:   50,
	})
	if err != nil {
		t.Fatalf("legacy score failed: %v", err)
	}
	if result.Score.TotalScore != 50 {
		t.Fatalf("expected direct total 50, got %d", result.Score.TotalScore)
	}

	_, err = useCase.SubmitScore(context.Background(), commands.SubmitScoreCommand{
		EntryID: "entry-1",
		JudgeID: "judge-1",
		Total:   120,
	})
	if !errors.Is(err, domainerrors.ErrScoreOutOfRange) {
		t.Fatalf("expected legacy total capped at 100, got %v", err)
	}
}

func TestRecordViewIdempotent(t *testing.T) {
	module := newJudgingModule(t)
	contest := configureContest(t, module, "vote", 0, []string{"judge-1"})
	seedEntries(module, contest.ContestID, "entry-1")

	first, err := module.Handler.RecordViewHandler(context.Background(), "judge-1", httptransport.RecordViewRequest{
		EntryID: "entry-1",
	})
	if err != nil {
		t.Fatalf("record view failed: %v", err)
	}
	if !first.Created {
		t.Fatalf("first view must create a record")
	}

	second, err := module.Handler.RecordViewHandler(context.Background(), "judge-1", httptransport.RecordViewRequest{
		EntryID: "entry-1",
	})
	if err != nil {
		t.Fatalf("repeat view failed: %v", err)
	}
	if second.Created {
		t.Fatalf("repeat view must not create a record")
	}
}

func TestStageAdvancementGate(t *testing.T) {
	module := newJudgingModule(t)
	contest := configureContest(t, module, "vote", 0, []string{"judge-1", "judge-2"})
	seedEntries(module, contest.ContestID, "entry-1", "entry-2")

	category, err := module.Handler.ConfigureCategoryHandler(context.Background(), "organizer-1", false, httptransport.ConfigureCategoryRequest{
		ContestID:        contest.ContestID,
		Name:             "Portrait",
		MaxVotesPerJudge: 1,
		EnableStages:     true,
		StageCount:       2,
	})
	if err != nil {
		t.Fatalf("configure category failed: %v", err)
	}

	vote := func(judgeID, entryID string) {
		t.Helper()
		if _, err := module.Handler.CastVoteHandler(context.Background(), judgeID, httptransport.CastVoteRequest{
			EntryID:    entryID,
			CategoryID: category.CategoryID,
			Stage:      1,
		}); err != nil {
			t.Fatalf("vote by %s failed: %v", judgeID, err)
		}
	}
	view := func(judgeID, entryID string) {
		t.Helper()
		if _, err := module.Handler.RecordViewHandler(context.Background(), judgeID, httptransport.RecordViewRequest{
			EntryID: entryID,
		}); err != nil {
			t.Fatalf("view by %s failed: %v", judgeID, err)
		}
	}

	view("judge-1", "entry-1")
	view("judge-1", "entry-2")
	vote("judge-1", "entry-1")
	view("judge-2", "entry-1")

	answer, err := module.Handler.CanAdvanceHandler(context.Background(), category.CategoryID)
	if err != nil {
		t.Fatalf("can advance failed: %v", err)
	}
	if answer.Ready {
		t.Fatalf("expected not ready while judge-2 has unviewed entries")
	}
	if !strings.Contains(answer.Reason, "judge-2") || !strings.Contains(answer.Reason, "has not viewed all entries") {
		t.Fatalf("unexpected blocking reason: %s", answer.Reason)
	}

	// Advancing while blocked must fail at the transactional re-check.
	_, err = module.Handler.AdvanceStageHandler(context.Background(), category.CategoryID, "organizer-1", false)
	if !errors.Is(err, domainerrors.ErrStaleAdvancement) {
		t.Fatalf("expected stale advancement while gate blocks, got %v", err)
	}

	view("judge-2", "entry-2")
	answer, err = module.Handler.CanAdvanceHandler(context.Background(), category.CategoryID)
	if err != nil {
		t.Fatalf("can advance failed: %v", err)
	}
	if answer.Ready || !strings.Contains(answer.Reason, "has cast 0 of 1 required votes") {
		t.Fatalf("expected quota block for judge-2, got ready=%v reason=%s", answer.Ready, answer.Reason)
	}

	vote("judge-2", "entry-2")
	answer, err = module.Handler.CanAdvanceHandler(context.Background(), category.CategoryID)
	if err != nil {
		t.Fatalf("can advance failed: %v", err)
	}
	if !answer.Ready {
		t.Fatalf("expected ready, got reason %s", answer.Reason)
	}

	_, err = module.Handler.AdvanceStageHandler(context.Background(), category.CategoryID, "intruder-1", false)
	if !errors.Is(err, domainerrors.ErrPermissionDenied) {
		t.Fatalf("expected permission denied for non-organizer, got %v", err)
	}

	advanced, err := module.Handler.AdvanceStageHandler(context.Background(), category.CategoryID, "organizer-1", false)
	if err != nil {
		t.Fatalf("advance stage failed: %v", err)
	}
	if advanced.CurrentStage != 2 {
		t.Fatalf("expected stage 2, got %d", advanced.CurrentStage)
	}

	_, err = module.Handler.AdvanceStageHandler(context.Background(), category.CategoryID, "organizer-1", false)
	if !errors.Is(err, domainerrors.ErrFinalStage) {
		t.Fatalf("expected final stage error, got %v", err)
	}
}

func TestAdvanceStageRequiresStagedCategory(t *testing.T) {
	module := newJudgingModule(t)
	contest := configureContest(t, module, "vote", 0, []string{"judge-1"})

	category, err := module.Handler.ConfigureCategoryHandler(context.Background(), "organizer-1", false, httptransport.ConfigureCategoryRequest{
		ContestID: contest.ContestID,
		Name:      "Street",
	})
	if err != nil {
		t.Fatalf("configure category failed: %v", err)
	}

	_, err = module.Handler.AdvanceStageHandler(context.Background(), category.CategoryID, "organizer-1", false)
	if !errors.Is(err, domainerrors.ErrStagesDisabled) {
		t.Fatalf("expected stages disabled, got %v", err)
	}
}

func TestAdvanceStageStaleObservation(t *testing.T) {
	module := newJudgingModule(t)
	contest := configureContest(t, module, "vote", 0, []string{})

	category, err := module.Handler.ConfigureCategoryHandler(context.Background(), "organizer-1", false, httptransport.ConfigureCategoryRequest{
		ContestID:    contest.ContestID,
		Name:         "Wildlife",
		EnableStages: true,
		StageCount:   3,
	})
	if err != nil {
		t.Fatalf("configure category failed: %v", err)
	}

	// A caller acting on an outdated stage observation is rejected.
	passGate := func(context.Context, ports.JudgingReader) error { return nil }
	_, err = module.Store.AdvanceCategoryStage(context.Background(), category.CategoryID, 2, passGate)
	if !errors.Is(err, domainerrors.ErrStaleAdvancement) {
		t.Fatalf("expected stale advancement for wrong from-stage, got %v", err)
	}
}

func TestEntryResultsAndContestSummary(t *testing.T) {
	module := newJudgingModule(t)
	contest := configureContest(t, module, "score", 0, []string{"judge-1", "judge-2"})
	seedEntries(module, contest.ContestID, "entry-1", "entry-2")

	criteria, err := module.Handler.ConfigureCriteriaHandler(context.Background(), "organizer-1", false, httptransport.ConfigureCriteriaRequest{
		ContestID: contest.ContestID,
		Name:      "Overall",
		MaxScore:  20,
	})
	if err != nil {
		t.Fatalf("configure criteria failed: %v", err)
	}

	submit := func(judgeID string, score int) {
		t.Helper()
		if _, err := module.Handler.SubmitScoreHandler(context.Background(), judgeID, httptransport.SubmitScoreRequest{
			EntryID: "entry-1",
			Details: []httptransport.DetailedScorePayload{
				{CriteriaID: criteria.CriteriaID, Score: score},
			},
		}); err != nil {
			t.Fatalf("score by %s failed: %v", judgeID, err)
		}
	}
	submit("judge-1", 10)
	submit("judge-2", 20)

	results, err := module.Handler.EntryResultsHandler(context.Background(), "entry-1")
	if err != nil {
		t.Fatalf("entry results failed: %v", err)
	}
	if results.ScoreCount != 2 {
		t.Fatalf("expected 2 scores, got %d", results.ScoreCount)
	}
	if results.OverallAverage != 15 {
		t.Fatalf("expected average 15, got %f", results.OverallAverage)
	}

	summary, err := module.Handler.ContestSummaryHandler(context.Background(), contest.ContestID)
	if err != nil {
		t.Fatalf("contest summary failed: %v", err)
	}
	if summary.ApprovedEntries != 2 {
		t.Fatalf("expected 2 approved entries, got %d", summary.ApprovedEntries)
	}
	if summary.Phase != "submission" {
		t.Fatalf("expected submission phase, got %s", summary.Phase)
	}
}

func TestCategoryProgressQuery(t *testing.T) {
	module := newJudgingModule(t)
	contest := configureContest(t, module, "vote", 2, []string{"judge-1", "judge-2"})
	seedEntries(module, contest.ContestID, "entry-1", "entry-2")

	category, err := module.Handler.ConfigureCategoryHandler(context.Background(), "organizer-1", false, httptransport.ConfigureCategoryRequest{
		ContestID:    contest.ContestID,
		Name:         "Macro",
		EnableStages: true,
		StageCount:   2,
		StageSettings: []httptransport.StageSettingPayload{
			{StageNumber: 1, Name: "Longlist"},
		},
	})
	if err != nil {
		t.Fatalf("configure category failed: %v", err)
	}

	if _, err := module.Handler.RecordViewHandler(context.Background(), "judge-1", httptransport.RecordViewRequest{
		EntryID: "entry-1",
	}); err != nil {
		t.Fatalf("record view failed: %v", err)
	}
	if _, err := module.Handler.CastVoteHandler(context.Background(), "judge-1", httptransport.CastVoteRequest{
		EntryID:    "entry-1",
		CategoryID: category.CategoryID,
		Stage:      1,
	}); err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}

	progress, err := module.Handler.CategoryProgressHandler(context.Background(), category.CategoryID)
	if err != nil {
		t.Fatalf("category progress failed: %v", err)
	}
	if progress.StageName != "Longlist" {
		t.Fatalf("expected configured stage name, got %s", progress.StageName)
	}
	if len(progress.Judges) != 2 {
		t.Fatalf("expected both judges reported, got %d", len(progress.Judges))
	}
	byJudge := map[string]httptransport.JudgeProgressItem{}
	for _, judge := range progress.Judges {
		byJudge[judge.JudgeID] = judge
	}
	if got := byJudge["judge-1"]; got.ViewedEntries != 1 || got.TotalEntries != 2 || got.Votes != 1 || got.RequiredVotes != 2 {
		t.Fatalf("unexpected judge-1 progress: %+v", got)
	}
	if got := byJudge["judge-2"]; got.ViewedEntries != 0 || got.Votes != 0 {
		t.Fatalf("unexpected judge-2 progress: %+v", got)
	}
}

func TestCategoryConfigurationRules(t *testing.T) {
	module := newJudgingModule(t)
	contest := configureContest(t, module, "vote", 0, []string{"judge-1"})

	_, err := module.Handler.ConfigureCategoryHandler(context.Background(), "organizer-1", false, httptransport.ConfigureCategoryRequest{
		ContestID:    contest.ContestID,
		Name:         "Abstract",
		EnableStages: true,
		StageCount:   2,
		StageSettings: []httptransport.StageSettingPayload{
			{StageNumber: 5, MaxVotes: 1},
		},
	})
	if !errors.Is(err, domainerrors.ErrStageOutOfRange) {
		t.Fatalf("expected stage out of range for setting 5 of 2, got %v", err)
	}

	_, err = module.Handler.ConfigureCategoryHandler(context.Background(), "organizer-1", false, httptransport.ConfigureCategoryRequest{
		ContestID: contest.ContestID,
		Name:      "Abstract",
		StageSettings: []httptransport.StageSettingPayload{
			{StageNumber: 1, MaxVotes: 1},
		},
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for settings without stages, got %v", err)
	}

	if _, err := module.Handler.ConfigureCategoryHandler(context.Background(), "organizer-1", false, httptransport.ConfigureCategoryRequest{
		ContestID: contest.ContestID,
		Name:      "Abstract",
	}); err != nil {
		t.Fatalf("configure category failed: %v", err)
	}
	_, err = module.Handler.ConfigureCategoryHandler(context.Background(), "organizer-1", false, httptransport.ConfigureCategoryRequest{
		ContestID: contest.ContestID,
		Name:      "Abstract",
	})
	if !errors.Is(err, domainerrors.ErrDuplicateRecord) {
		t.Fatalf("expected duplicate category name rejected, got %v", err)
	}

	_, err = module.Handler.ConfigureCategoryHandler(context.Background(), "someone-else", false, httptransport.ConfigureCategoryRequest{
		ContestID: contest.ContestID,
		Name:      "Night",
	})
	if !errors.Is(err, domainerrors.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}

	// Configuration freezes once the contest closes.
	module.Store.SetNow(judgingNow.Add(200 * time.Hour))
	_, err = module.Handler.ConfigureCategoryHandler(context.Background(), "organizer-1", false, httptransport.ConfigureCategoryRequest{
		ContestID: contest.ContestID,
		Name:      "Night",
	})
	if !errors.Is(err, domainerrors.ErrPhaseMismatch) {
		t.Fatalf("expected phase mismatch after close, got %v", err)
	}
}

func TestContestConfigurationValidation(t *testing.T) {
	module := newJudgingModule(t)

	_, err := module.Handler.ConfigureContestHandler(context.Background(), "organizer-1", false, httptransport.ConfigureContestRequest{
		Title:       "Bad Window",
		JudgingType: "vote",
		StartAt:     judgingNow,
		EndAt:       judgingNow.Add(-time.Hour),
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid window rejected, got %v", err)
	}

	_, err = module.Handler.ConfigureContestHandler(context.Background(), "organizer-1", false, httptransport.ConfigureContestRequest{
		Title:       "Bad Mode",
		JudgingType: "ranked",
		StartAt:     judgingNow,
		EndAt:       judgingNow.Add(time.Hour),
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected unknown judging type rejected, got %v", err)
	}

	votingEnd := judgingNow.Add(30 * time.Minute)
	_, err = module.Handler.ConfigureContestHandler(context.Background(), "organizer-1", false, httptransport.ConfigureContestRequest{
		Title:       "Bad Voting Window",
		JudgingType: "vote",
		StartAt:     judgingNow,
		EndAt:       judgingNow.Add(time.Hour),
		VotingEndAt: &votingEnd,
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected voting window before end rejected, got %v", err)
	}

	contest := configureContest(t, module, "vote", 0, []string{"judge-1", "judge-1", "judge-2"})
	if len(contest.JudgeIDs) != 2 {
		t.Fatalf("expected judge panel deduplicated, got %v", contest.JudgeIDs)
	}
}
