package queries

import (
	"context"
	"sort"
	"strings"

	"photojury/contexts/contest-judging/judging-engine/ports"
)

// JudgeProgress is one judge's standing in a category's current stage.
type JudgeProgress struct {
	JudgeID       string
	ViewedEntries int
	TotalEntries  int
	Votes         int
	RequiredVotes int
}

// CategoryProgress is the organizer dashboard view of a category's stage.
type CategoryProgress struct {
	CategoryID   string
	ContestID    string
	CurrentStage int
	StageName    string
	Judges       []JudgeProgress
}

// ProgressUseCase reports per-judge completeness for organizer dashboards.
// It reads the same signals as the advancement gate but never mutates state.
type ProgressUseCase struct {
	Catalog ports.CatalogRepository
	Votes   ports.VoteRepository
	Views   ports.ViewRepository
	Entries ports.EntryDirectory
}

// CategoryProgress measures every panel judge against the category's current
// stage quota and the approved entry set.
func (uc ProgressUseCase) CategoryProgress(ctx context.Context, categoryID string) (CategoryProgress, error) {
	category, err := uc.Catalog.GetCategory(ctx, strings.TrimSpace(categoryID))
	if err != nil {
		return CategoryProgress{}, err
	}
	contest, err := uc.Catalog.GetContest(ctx, category.ContestID)
	if err != nil {
		return CategoryProgress{}, err
	}
	approved, err := uc.Entries.ListApprovedEntryIDs(ctx, contest.ContestID)
	if err != nil {
		return CategoryProgress{}, err
	}
	approvedSet := make(map[string]bool, len(approved))
	for _, id := range approved {
		approvedSet[id] = true
	}

	required := category.MaxVotes(category.CurrentStage, contest.MaxVotesPerJudge)
	judges := append([]string(nil), contest.JudgeIDs...)
	sort.Strings(judges)

	progress := CategoryProgress{
		CategoryID:   category.CategoryID,
		ContestID:    contest.ContestID,
		CurrentStage: category.CurrentStage,
		StageName:    category.StageName(category.CurrentStage),
		Judges:       make([]JudgeProgress, 0, len(judges)),
	}
	for _, judgeID := range judges {
		viewed, err := uc.Views.ListViewedEntryIDs(ctx, contest.ContestID, judgeID)
		if err != nil {
			return CategoryProgress{}, err
		}
		viewedApproved := 0
		for _, id := range viewed {
			if approvedSet[id] {
				viewedApproved++
			}
		}
		votes, err := uc.Votes.CountVotes(ctx, contest.ContestID, judgeID, category.CategoryID, category.CurrentStage)
		if err != nil {
			return CategoryProgress{}, err
		}
		progress.Judges = append(progress.Judges, JudgeProgress{
			JudgeID:       judgeID,
			ViewedEntries: viewedApproved,
			TotalEntries:  len(approved),
			Votes:         votes,
			RequiredVotes: required,
		})
	}
	return progress, nil
}
