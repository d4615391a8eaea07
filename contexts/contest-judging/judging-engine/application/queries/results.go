package queries

import (
	"context"
	"sort"
	"strings"
	"time"

	"photojury/contexts/contest-judging/judging-engine/domain/entities"
	"photojury/contexts/contest-judging/judging-engine/ports"
)

// CategoryAverage is the mean judge score for one category of an entry.
type CategoryAverage struct {
	CategoryID string
	JudgeCount int
	Average    float64
}

// EntryResults is the on-demand result view for one entry. OverallAverage
// blends every judge score regardless of category (the historical behavior);
// ByCategory makes the per-category scoping explicit for multi-category
// contests.
type EntryResults struct {
	EntryID        string
	VoteCount      int
	ScoreCount     int
	OverallAverage float64
	ByCategory     []CategoryAverage
}

// ContestSummary is the organizer-facing stats view of a contest.
type ContestSummary struct {
	ContestID       string
	Phase           entities.Phase
	ApprovedEntries int
	TotalVotes      int
	UniqueVoters    int
}

// ResultsUseCase computes aggregates on demand; nothing here is pushed or
// cached, every read walks current ledger state.
type ResultsUseCase struct {
	Catalog ports.CatalogRepository
	Votes   ports.VoteRepository
	Scores  ports.ScoreRepository
	Entries ports.EntryDirectory
	Clock   ports.Clock
}

// EntryResults aggregates votes and judge scores for one entry.
func (uc ResultsUseCase) EntryResults(ctx context.Context, entryID string) (EntryResults, error) {
	entryID = strings.TrimSpace(entryID)
	entry, err := uc.Entries.GetEntry(ctx, entryID)
	if err != nil {
		return EntryResults{}, err
	}

	votes, err := uc.Votes.ListVotesByEntry(ctx, entry.EntryID)
	if err != nil {
		return EntryResults{}, err
	}
	scores, err := uc.Scores.ListScoresByEntry(ctx, entry.EntryID)
	if err != nil {
		return EntryResults{}, err
	}

	results := EntryResults{
		EntryID:    entry.EntryID,
		VoteCount:  len(votes),
		ScoreCount: len(scores),
	}
	if len(scores) == 0 {
		return results, nil
	}

	total := 0
	totalsByCategory := make(map[string]int)
	countsByCategory := make(map[string]int)
	for _, score := range scores {
		total += score.TotalScore
		totalsByCategory[score.CategoryID] += score.TotalScore
		countsByCategory[score.CategoryID]++
	}
	results.OverallAverage = float64(total) / float64(len(scores))

	for categoryID, sum := range totalsByCategory {
		results.ByCategory = append(results.ByCategory, CategoryAverage{
			CategoryID: categoryID,
			JudgeCount: countsByCategory[categoryID],
			Average:    float64(sum) / float64(countsByCategory[categoryID]),
		})
	}
	sort.Slice(results.ByCategory, func(i, j int) bool {
		return results.ByCategory[i].CategoryID < results.ByCategory[j].CategoryID
	})
	return results, nil
}

// ContestSummary reports phase and participation counters for a contest.
func (uc ResultsUseCase) ContestSummary(ctx context.Context, contestID string) (ContestSummary, error) {
	contest, err := uc.Catalog.GetContest(ctx, strings.TrimSpace(contestID))
	if err != nil {
		return ContestSummary{}, err
	}
	approved, err := uc.Entries.ListApprovedEntryIDs(ctx, contest.ContestID)
	if err != nil {
		return ContestSummary{}, err
	}
	votes, err := uc.Votes.ListVotesByContest(ctx, contest.ContestID)
	if err != nil {
		return ContestSummary{}, err
	}

	voters := make(map[string]bool, len(votes))
	for _, vote := range votes {
		voters[vote.JudgeID] = true
	}

	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return ContestSummary{
		ContestID:       contest.ContestID,
		Phase:           contest.Phase(now),
		ApprovedEntries: len(approved),
		TotalVotes:      len(votes),
		UniqueVoters:    len(voters),
	}, nil
}

// VotesByJudge lists one judge's votes inside a contest, newest first.
func (uc ResultsUseCase) VotesByJudge(ctx context.Context, contestID string, judgeID string) ([]entities.Vote, error) {
	return uc.Votes.ListVotesByJudge(ctx, strings.TrimSpace(contestID), strings.TrimSpace(judgeID))
}

// ScoresByJudge lists one judge's scores inside a contest, newest first.
func (uc ResultsUseCase) ScoresByJudge(ctx context.Context, contestID string, judgeID string) ([]entities.JudgeScore, error) {
	return uc.Scores.ListScoresByJudge(ctx, strings.TrimSpace(contestID), strings.TrimSpace(judgeID))
}
