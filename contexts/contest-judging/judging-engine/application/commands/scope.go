package commands

import (
	"context"
	"strings"

	"photojury/contexts/contest-judging/judging-engine/domain/entities"
	domainerrors "photojury/contexts/contest-judging/judging-engine/domain/errors"
	"photojury/contexts/contest-judging/judging-engine/ports"
)

// judgingScope is the resolved context shared by vote, score and view writes.
type judgingScope struct {
	entry       ports.EntryProjection
	contest     entities.Contest
	category    entities.Category
	hasCategory bool
}

// quota resolves the vote limit for this scope; zero or less means unlimited.
func (s judgingScope) quota(stage int) int {
	if s.hasCategory {
		return s.category.MaxVotes(stage, s.contest.MaxVotesPerJudge)
	}
	return s.contest.MaxVotesPerJudge
}

// resolveJudgingScope validates the preconditions every judging write shares:
// the entry exists and is approved, the judge belongs to the contest panel,
// the category (if supplied) belongs to the same contest, and the stage
// addresses an existing round. Contest-wide judging only has stage 1.
func resolveJudgingScope(
	ctx context.Context,
	catalog ports.CatalogRepository,
	entries ports.EntryDirectory,
	entryID string,
	categoryID string,
	judgeID string,
	stage int,
) (judgingScope, error) {
	entry, err := entries.GetEntry(ctx, strings.TrimSpace(entryID))
	if err != nil {
		return judgingScope{}, err
	}
	if !entry.Approved {
		return judgingScope{}, domainerrors.ErrEntryNotApproved
	}

	contest, err := catalog.GetContest(ctx, entry.ContestID)
	if err != nil {
		return judgingScope{}, err
	}
	if !contest.HasJudge(strings.TrimSpace(judgeID)) {
		return judgingScope{}, domainerrors.ErrNotAJudge
	}

	scope := judgingScope{entry: entry, contest: contest}
	if strings.TrimSpace(categoryID) == "" {
		if stage != 1 {
			return judgingScope{}, domainerrors.ErrStageOutOfRange
		}
		return scope, nil
	}

	category, err := catalog.GetCategory(ctx, strings.TrimSpace(categoryID))
	if err != nil {
		return judgingScope{}, err
	}
	if category.ContestID != contest.ContestID {
		return judgingScope{}, domainerrors.ErrCategoryNotFound
	}
	if !category.ValidStage(stage) {
		return judgingScope{}, domainerrors.ErrStageOutOfRange
	}
	scope.category = category
	scope.hasCategory = true
	return scope, nil
}

// normalizeStage applies the default stage for callers that omit it.
func normalizeStage(stage int) int {
	if stage == 0 {
		return 1
	}
	return stage
}
