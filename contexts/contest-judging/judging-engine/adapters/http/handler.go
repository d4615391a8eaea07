package httpadapter

import (
	"context"
	"log/slog"

	"photojury/contexts/contest-judging/judging-engine/application/commands"
	"photojury/contexts/contest-judging/judging-engine/application/queries"
	"photojury/contexts/contest-judging/judging-engine/domain/entities"
	httptransport "photojury/contexts/contest-judging/judging-engine/transport/http"
)

// Handler is the transport-agnostic facade over the judging use cases.
// Authentication and routing stay outside; every method takes the resolved
// actor identity and a decoded request.
type Handler struct {
	Catalog  commands.CatalogUseCase
	Votes    commands.VoteUseCase
	Scores   commands.ScoreUseCase
	Views    commands.ViewUseCase
	Stages   commands.StageUseCase
	Results  queries.ResultsUseCase
	Progress queries.ProgressUseCase
	Logger   *slog.Logger
}

func (h Handler) ConfigureContestHandler(
	ctx context.Context,
	actorID string,
	actorIsAdmin bool,
	req httptransport.ConfigureContestRequest,
) (httptransport.ContestResponse, error) {
	contest, err := h.Catalog.ConfigureContest(ctx, commands.ConfigureContestCommand{
		ContestID:        req.ContestID,
		ActorID:          actorID,
		ActorIsAdmin:     actorIsAdmin,
		Slug:             req.Slug,
		Title:            req.Title,
		JudgingType:      entities.JudgingType(req.JudgingType),
		StartAt:          req.StartAt,
		EndAt:            req.EndAt,
		VotingEndAt:      req.VotingEndAt,
		MaxVotesPerJudge: req.MaxVotesPerJudge,
		JudgeIDs:         req.JudgeIDs,
	})
	if err != nil {
		return httptransport.ContestResponse{}, err
	}
	return h.contestResponse(contest), nil
}

func (h Handler) GetContestHandler(ctx context.Context, contestID string) (httptransport.ContestResponse, error) {
	contest, err := h.Catalog.Catalog.GetContest(ctx, contestID)
	if err != nil {
		return httptransport.ContestResponse{}, err
	}
	return h.contestResponse(contest), nil
}

func (h Handler) ConfigureCategoryHandler(
	ctx context.Context,
	actorID string,
	actorIsAdmin bool,
	req httptransport.ConfigureCategoryRequest,
) (httptransport.CategoryResponse, error) {
	settings := make([]commands.StageSettingInput, 0, len(req.StageSettings))
	for _, setting := range req.StageSettings {
		settings = append(settings, commands.StageSettingInput{
			StageNumber: setting.StageNumber,
			Name:        setting.Name,
			MaxVotes:    setting.MaxVotes,
		})
	}
	category, err := h.Catalog.ConfigureCategory(ctx, commands.ConfigureCategoryCommand{
		CategoryID:       req.CategoryID,
		ContestID:        req.ContestID,
		ActorID:          actorID,
		ActorIsAdmin:     actorIsAdmin,
		Name:             req.Name,
		Order:            req.Order,
		MaxVotesPerJudge: req.MaxVotesPerJudge,
		EnableStages:     req.EnableStages,
		StageCount:       req.StageCount,
		StageSettings:    settings,
	})
	if err != nil {
		return httptransport.CategoryResponse{}, err
	}
	return categoryResponse(category), nil
}

func (h Handler) DeleteCategoryHandler(ctx context.Context, categoryID string, actorID string, actorIsAdmin bool) error {
	return h.Catalog.DeleteCategory(ctx, commands.DeleteCommand{
		ID:           categoryID,
		ActorID:      actorID,
		ActorIsAdmin: actorIsAdmin,
	})
}

func (h Handler) ConfigureCriteriaHandler(
	ctx context.Context,
	actorID string,
	actorIsAdmin bool,
	req httptransport.ConfigureCriteriaRequest,
) (httptransport.CriteriaResponse, error) {
	criteria, err := h.Catalog.ConfigureCriteria(ctx, commands.ConfigureCriteriaCommand{
		CriteriaID:   req.CriteriaID,
		ContestID:    req.ContestID,
		CategoryID:   req.CategoryID,
		ActorID:      actorID,
		ActorIsAdmin: actorIsAdmin,
		Name:         req.Name,
		MaxScore:     req.MaxScore,
		Order:        req.Order,
	})
	if err != nil {
		return httptransport.CriteriaResponse{}, err
	}
	return httptransport.CriteriaResponse{
		CriteriaID: criteria.CriteriaID,
		ContestID:  criteria.ContestID,
		CategoryID: criteria.CategoryID,
		Name:       criteria.Name,
		MaxScore:   criteria.MaxScore,
		Order:      criteria.Order,
	}, nil
}

func (h Handler) DeleteCriteriaHandler(ctx context.Context, criteriaID string, actorID string, actorIsAdmin bool) error {
	return h.Catalog.DeleteCriteria(ctx, commands.DeleteCommand{
		ID:           criteriaID,
		ActorID:      actorID,
		ActorIsAdmin: actorIsAdmin,
	})
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	judgeID string,
	req httptransport.CastVoteRequest,
) (httptransport.VoteResponse, error) {
	vote, err := h.Votes.CastVote(ctx, commands.CastVoteCommand{
		EntryID:    req.EntryID,
		CategoryID: req.CategoryID,
		JudgeID:    judgeID,
		Stage:      req.Stage,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return voteResponse(vote), nil
}

func (h Handler) RemoveVoteHandler(
	ctx context.Context,
	judgeID string,
	req httptransport.RemoveVoteRequest,
) error {
	return h.Votes.RemoveVote(ctx, commands.RemoveVoteCommand{
		EntryID:    req.EntryID,
		CategoryID: req.CategoryID,
		JudgeID:    judgeID,
		Stage:      req.Stage,
	})
}

func (h Handler) SubmitScoreHandler(
	ctx context.Context,
	judgeID string,
	req httptransport.SubmitScoreRequest,
) (httptransport.ScoreResponse, error) {
	details := make([]commands.DetailedScoreInput, 0, len(req.Details))
	for _, detail := range req.Details {
		details = append(details, commands.DetailedScoreInput{
			CriteriaID: detail.CriteriaID,
			Score:      detail.Score,
			Comment:    detail.Comment,
		})
	}
	result, err := h.Scores.SubmitScore(ctx, commands.SubmitScoreCommand{
		EntryID:    req.EntryID,
		CategoryID: req.CategoryID,
		JudgeID:    judgeID,
		Stage:      req.Stage,
		Comment:    req.Comment,
		Total:      req.Total,
		Details:    details,
	})
	if err != nil {
		return httptransport.ScoreResponse{}, err
	}
	return scoreResponse(result.Score, result.Details, result.WasUpdate), nil
}

func (h Handler) RecomputeTotalHandler(ctx context.Context, scoreID string) (int, error) {
	return h.Scores.RecomputeTotal(ctx, scoreID)
}

func (h Handler) RecordViewHandler(
	ctx context.Context,
	judgeID string,
	req httptransport.RecordViewRequest,
) (httptransport.ViewResponse, error) {
	created, err := h.Views.RecordView(ctx, commands.RecordViewCommand{
		EntryID: req.EntryID,
		JudgeID: judgeID,
	})
	if err != nil {
		return httptransport.ViewResponse{}, err
	}
	return httptransport.ViewResponse{
		EntryID: req.EntryID,
		JudgeID: judgeID,
		Created: created,
	}, nil
}

func (h Handler) CanAdvanceHandler(ctx context.Context, categoryID string) (httptransport.CanAdvanceResponse, error) {
	result, err := h.Stages.CanAdvance(ctx, categoryID)
	if err != nil {
		return httptransport.CanAdvanceResponse{}, err
	}
	return httptransport.CanAdvanceResponse{
		Ready:  result.Ready,
		Reason: result.Reason,
	}, nil
}

func (h Handler) AdvanceStageHandler(
	ctx context.Context,
	categoryID string,
	actorID string,
	actorIsAdmin bool,
) (httptransport.CategoryResponse, error) {
	category, err := h.Stages.AdvanceStage(ctx, commands.AdvanceStageCommand{
		CategoryID:   categoryID,
		ActorID:      actorID,
		ActorIsAdmin: actorIsAdmin,
	})
	if err != nil {
		return httptransport.CategoryResponse{}, err
	}
	return categoryResponse(category), nil
}

func (h Handler) EntryResultsHandler(ctx context.Context, entryID string) (httptransport.EntryResultsResponse, error) {
	results, err := h.Results.EntryResults(ctx, entryID)
	if err != nil {
		return httptransport.EntryResultsResponse{}, err
	}
	byCategory := make([]httptransport.CategoryAverageItem, 0, len(results.ByCategory))
	for _, item := range results.ByCategory {
		byCategory = append(byCategory, httptransport.CategoryAverageItem{
			CategoryID: item.CategoryID,
			JudgeCount: item.JudgeCount,
			Average:    item.Average,
		})
	}
	return httptransport.EntryResultsResponse{
		EntryID:        results.EntryID,
		VoteCount:      results.VoteCount,
		ScoreCount:     results.ScoreCount,
		OverallAverage: results.OverallAverage,
		ByCategory:     byCategory,
	}, nil
}

func (h Handler) ContestSummaryHandler(ctx context.Context, contestID string) (httptransport.ContestSummaryResponse, error) {
	summary, err := h.Results.ContestSummary(ctx, contestID)
	if err != nil {
		return httptransport.ContestSummaryResponse{}, err
	}
	return httptransport.ContestSummaryResponse{
		ContestID:       summary.ContestID,
		Phase:           string(summary.Phase),
		ApprovedEntries: summary.ApprovedEntries,
		TotalVotes:      summary.TotalVotes,
		UniqueVoters:    summary.UniqueVoters,
	}, nil
}

func (h Handler) MyVotesHandler(ctx context.Context, contestID string, judgeID string) (httptransport.VoteListResponse, error) {
	votes, err := h.Results.VotesByJudge(ctx, contestID, judgeID)
	if err != nil {
		return httptransport.VoteListResponse{}, err
	}
	items := make([]httptransport.VoteResponse, 0, len(votes))
	for _, vote := range votes {
		items = append(items, voteResponse(vote))
	}
	return httptransport.VoteListResponse{Items: items}, nil
}

func (h Handler) MyScoresHandler(ctx context.Context, contestID string, judgeID string) (httptransport.ScoreListResponse, error) {
	scores, err := h.Results.ScoresByJudge(ctx, contestID, judgeID)
	if err != nil {
		return httptransport.ScoreListResponse{}, err
	}
	items := make([]httptransport.ScoreResponse, 0, len(scores))
	for _, score := range scores {
		items = append(items, scoreResponse(score, nil, false))
	}
	return httptransport.ScoreListResponse{Items: items}, nil
}

func (h Handler) CategoryProgressHandler(ctx context.Context, categoryID string) (httptransport.CategoryProgressResponse, error) {
	progress, err := h.Progress.CategoryProgress(ctx, categoryID)
	if err != nil {
		return httptransport.CategoryProgressResponse{}, err
	}
	judges := make([]httptransport.JudgeProgressItem, 0, len(progress.Judges))
	for _, judge := range progress.Judges {
		judges = append(judges, httptransport.JudgeProgressItem{
			JudgeID:       judge.JudgeID,
			ViewedEntries: judge.ViewedEntries,
			TotalEntries:  judge.TotalEntries,
			Votes:         judge.Votes,
			RequiredVotes: judge.RequiredVotes,
		})
	}
	return httptransport.CategoryProgressResponse{
		CategoryID:   progress.CategoryID,
		ContestID:    progress.ContestID,
		CurrentStage: progress.CurrentStage,
		StageName:    progress.StageName,
		Judges:       judges,
	}, nil
}

func (h Handler) contestResponse(contest entities.Contest) httptransport.ContestResponse {
	now := h.Catalog.Clock.Now()
	return httptransport.ContestResponse{
		ContestID:        contest.ContestID,
		Slug:             contest.Slug,
		Title:            contest.Title,
		CreatorID:        contest.CreatorID,
		JudgingType:      string(contest.JudgingType),
		Phase:            string(contest.Phase(now)),
		StartAt:          contest.StartAt,
		EndAt:            contest.EndAt,
		VotingEndAt:      contest.VotingEndAt,
		MaxVotesPerJudge: contest.MaxVotesPerJudge,
		JudgeIDs:         contest.JudgeIDs,
	}
}

func categoryResponse(category entities.Category) httptransport.CategoryResponse {
	settings := make([]httptransport.StageSettingPayload, 0, len(category.StageSettings))
	for _, setting := range category.StageSettings {
		settings = append(settings, httptransport.StageSettingPayload{
			StageNumber: setting.StageNumber,
			Name:        setting.Name,
			MaxVotes:    setting.MaxVotes,
		})
	}
	return httptransport.CategoryResponse{
		CategoryID:       category.CategoryID,
		ContestID:        category.ContestID,
		Name:             category.Name,
		Order:            category.Order,
		MaxVotesPerJudge: category.MaxVotesPerJudge,
		EnableStages:     category.EnableStages,
		StageCount:       category.StageCount,
		StageSettings:    settings,
		CurrentStage:     category.CurrentStage,
	}
}

func voteResponse(vote entities.Vote) httptransport.VoteResponse {
	return httptransport.VoteResponse{
		VoteID:     vote.VoteID,
		EntryID:    vote.EntryID,
		ContestID:  vote.ContestID,
		CategoryID: vote.CategoryID,
		JudgeID:    vote.JudgeID,
		Stage:      vote.Stage,
		CreatedAt:  vote.CreatedAt,
	}
}

func scoreResponse(
	score entities.JudgeScore,
	details []entities.DetailedScore,
	wasUpdate bool,
) httptransport.ScoreResponse {
	payloads := make([]httptransport.DetailedScorePayload, 0, len(details))
	for _, detail := range details {
		payloads = append(payloads, httptransport.DetailedScorePayload{
			CriteriaID: detail.CriteriaID,
			Score:      detail.Score,
			Comment:    detail.Comment,
		})
	}
	return httptransport.ScoreResponse{
		ScoreID:    score.ScoreID,
		EntryID:    score.EntryID,
		ContestID:  score.ContestID,
		CategoryID: score.CategoryID,
		JudgeID:    score.JudgeID,
		Stage:      score.Stage,
		TotalScore: score.TotalScore,
		Comment:    score.Comment,
		Details:    payloads,
		WasUpdate:  wasUpdate,
	}
}
