package commands

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "photojury/contexts/contest-judging/judging-engine/application"
	"photojury/contexts/contest-judging/judging-engine/domain/entities"
	domainerrors "photojury/contexts/contest-judging/judging-engine/domain/errors"
	"photojury/contexts/contest-judging/judging-engine/ports"
)

// ConfigureContestCommand creates or updates a contest definition. The engine
// is the system of record for the judging window, mode and judge panel.
type ConfigureContestCommand struct {
	ContestID        string
	ActorID          string
	ActorIsAdmin     bool
	Slug             string
	Title            string
	JudgingType      entities.JudgingType
	StartAt          time.Time
	EndAt            time.Time
	VotingEndAt      *time.Time
	MaxVotesPerJudge int
	JudgeIDs         []string
}

// StageSettingInput configures one stage of a category.
type StageSettingInput struct {
	StageNumber int
	Name        string
	MaxVotes    int
}

// ConfigureCategoryCommand creates or updates an award category.
type ConfigureCategoryCommand struct {
	CategoryID       string
	ContestID        string
	ActorID          string
	ActorIsAdmin     bool
	Name             string
	Order            int
	MaxVotesPerJudge int
	EnableStages     bool
	StageCount       int
	StageSettings    []StageSettingInput
}

// ConfigureCriteriaCommand creates or updates a scoring criteria.
type ConfigureCriteriaCommand struct {
	CriteriaID   string
	ContestID    string
	CategoryID   string
	ActorID      string
	ActorIsAdmin bool
	Name         string
	MaxScore     int
	Order        int
}

// DeleteCommand removes a category or criteria by ID on behalf of an actor.
type DeleteCommand struct {
	ID           string
	ActorID      string
	ActorIsAdmin bool
}

// CatalogUseCase owns contest/category/criteria configuration. Mutation is
// restricted to the contest creator or a platform administrator, and category
// and criteria changes are rejected once the contest has closed.
type CatalogUseCase struct {
	Catalog ports.CatalogRepository
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

// ConfigureContest creates a contest (creator = actor) or updates an existing
// one owned by the actor.
func (uc CatalogUseCase) ConfigureContest(ctx context.Context, cmd ConfigureContestCommand) (entities.Contest, error) {
	logger := application.ResolveLogger(uc.Logger)
	actorID := strings.TrimSpace(cmd.ActorID)
	if actorID == "" || strings.TrimSpace(cmd.Title) == "" {
		return entities.Contest{}, domainerrors.ErrInvalidInput
	}
	if cmd.JudgingType != entities.JudgingTypeVote && cmd.JudgingType != entities.JudgingTypeScore {
		return entities.Contest{}, domainerrors.ErrInvalidInput
	}
	if !cmd.EndAt.After(cmd.StartAt) {
		return entities.Contest{}, domainerrors.ErrInvalidInput
	}
	if cmd.VotingEndAt != nil && !cmd.VotingEndAt.After(cmd.EndAt) {
		return entities.Contest{}, domainerrors.ErrInvalidInput
	}
	if cmd.MaxVotesPerJudge < 0 {
		return entities.Contest{}, domainerrors.ErrInvalidInput
	}

	now := uc.now()
	contest := entities.Contest{
		Slug:             strings.TrimSpace(cmd.Slug),
		Title:            strings.TrimSpace(cmd.Title),
		CreatorID:        actorID,
		JudgingType:      cmd.JudgingType,
		StartAt:          cmd.StartAt.UTC(),
		EndAt:            cmd.EndAt.UTC(),
		MaxVotesPerJudge: cmd.MaxVotesPerJudge,
		JudgeIDs:         dedupeIDs(cmd.JudgeIDs),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if cmd.VotingEndAt != nil {
		votingEnd := cmd.VotingEndAt.UTC()
		contest.VotingEndAt = &votingEnd
	}

	if strings.TrimSpace(cmd.ContestID) != "" {
		existing, err := uc.Catalog.GetContest(ctx, strings.TrimSpace(cmd.ContestID))
		if err != nil {
			return entities.Contest{}, err
		}
		if !existing.ManagedBy(actorID, cmd.ActorIsAdmin) {
			return entities.Contest{}, domainerrors.ErrPermissionDenied
		}
		contest.ContestID = existing.ContestID
		contest.CreatorID = existing.CreatorID
		contest.CreatedAt = existing.CreatedAt
	} else {
		contestID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.Contest{}, err
		}
		contest.ContestID = contestID
	}

	if err := uc.Catalog.SaveContest(ctx, contest); err != nil {
		return entities.Contest{}, err
	}
	logger.Info("contest configured",
		"event", "judging_contest_configured",
		"module", "contest-judging/judging-engine",
		"layer", "application",
		"contest_id", contest.ContestID,
		"judging_type", string(contest.JudgingType),
		"judge_count", len(contest.JudgeIDs),
	)
	return contest, nil
}

// ConfigureCategory creates or updates a category. Stage settings are a typed
// ordered list validated here: stage numbers in range, no duplicates.
func (uc CatalogUseCase) ConfigureCategory(ctx context.Context, cmd ConfigureCategoryCommand) (entities.Category, error) {
	logger := application.ResolveLogger(uc.Logger)
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return entities.Category{}, domainerrors.ErrInvalidInput
	}
	contest, err := uc.authorizeContest(ctx, cmd.ContestID, cmd.ActorID, cmd.ActorIsAdmin)
	if err != nil {
		return entities.Category{}, err
	}
	if !contest.ConfigurationOpen(uc.now()) {
		return entities.Category{}, domainerrors.ErrPhaseMismatch
	}

	stageCount := 1
	var settings []entities.StageSetting
	if cmd.EnableStages {
		if cmd.StageCount < 1 {
			return entities.Category{}, domainerrors.ErrInvalidInput
		}
		stageCount = cmd.StageCount
		settings, err = buildStageSettings(cmd.StageSettings, stageCount)
		if err != nil {
			return entities.Category{}, err
		}
	} else if len(cmd.StageSettings) > 0 {
		return entities.Category{}, domainerrors.ErrInvalidInput
	}
	if cmd.MaxVotesPerJudge < 0 {
		return entities.Category{}, domainerrors.ErrInvalidInput
	}

	now := uc.now()
	category := entities.Category{
		ContestID:        contest.ContestID,
		Name:             name,
		Order:            cmd.Order,
		MaxVotesPerJudge: cmd.MaxVotesPerJudge,
		EnableStages:     cmd.EnableStages,
		StageCount:       stageCount,
		StageSettings:    settings,
		CurrentStage:     1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if strings.TrimSpace(cmd.CategoryID) != "" {
		existing, err := uc.Catalog.GetCategory(ctx, strings.TrimSpace(cmd.CategoryID))
		if err != nil {
			return entities.Category{}, err
		}
		if existing.ContestID != contest.ContestID {
			return entities.Category{}, domainerrors.ErrCategoryNotFound
		}
		if existing.CurrentStage > stageCount {
			// Shrinking below the round judging already reached would orphan it.
			return entities.Category{}, domainerrors.ErrInvalidInput
		}
		category.CategoryID = existing.CategoryID
		category.CurrentStage = existing.CurrentStage
		category.CreatedAt = existing.CreatedAt
	} else {
		categoryID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.Category{}, err
		}
		category.CategoryID = categoryID
	}

	if err := uc.Catalog.SaveCategory(ctx, category); err != nil {
		return entities.Category{}, err
	}
	logger.Info("category configured",
		"event", "judging_category_configured",
		"module", "contest-judging/judging-engine",
		"layer", "application",
		"category_id", category.CategoryID,
		"contest_id", category.ContestID,
		"enable_stages", category.EnableStages,
		"stage_count", category.StageCount,
	)
	return category, nil
}

// DeleteCategory removes a category on behalf of the contest creator/admin.
func (uc CatalogUseCase) DeleteCategory(ctx context.Context, cmd DeleteCommand) error {
	category, err := uc.Catalog.GetCategory(ctx, strings.TrimSpace(cmd.ID))
	if err != nil {
		return err
	}
	if _, err := uc.authorizeContest(ctx, category.ContestID, cmd.ActorID, cmd.ActorIsAdmin); err != nil {
		return err
	}
	return uc.Catalog.DeleteCategory(ctx, category.CategoryID)
}

// ConfigureCriteria creates or updates a scoring criteria, optionally scoped
// to one category of the same contest.
func (uc CatalogUseCase) ConfigureCriteria(ctx context.Context, cmd ConfigureCriteriaCommand) (entities.JudgingCriteria, error) {
	logger := application.ResolveLogger(uc.Logger)
	name := strings.TrimSpace(cmd.Name)
	if name == "" || cmd.MaxScore <= 0 {
		return entities.JudgingCriteria{}, domainerrors.ErrInvalidInput
	}
	contest, err := uc.authorizeContest(ctx, cmd.ContestID, cmd.ActorID, cmd.ActorIsAdmin)
	if err != nil {
		return entities.JudgingCriteria{}, err
	}
	if !contest.ConfigurationOpen(uc.now()) {
		return entities.JudgingCriteria{}, domainerrors.ErrPhaseMismatch
	}

	categoryID := strings.TrimSpace(cmd.CategoryID)
	if categoryID != "" {
		category, err := uc.Catalog.GetCategory(ctx, categoryID)
		if err != nil {
			return entities.JudgingCriteria{}, err
		}
		if category.ContestID != contest.ContestID {
			return entities.JudgingCriteria{}, domainerrors.ErrCategoryNotFound
		}
	}

	now := uc.now()
	criteria := entities.JudgingCriteria{
		ContestID:  contest.ContestID,
		CategoryID: categoryID,
		Name:       name,
		MaxScore:   cmd.MaxScore,
		Order:      cmd.Order,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if strings.TrimSpace(cmd.CriteriaID) != "" {
		existing, err := uc.Catalog.GetCriteria(ctx, strings.TrimSpace(cmd.CriteriaID))
		if err != nil {
			return entities.JudgingCriteria{}, err
		}
		if existing.ContestID != contest.ContestID {
			return entities.JudgingCriteria{}, domainerrors.ErrCriteriaNotFound
		}
		criteria.CriteriaID = existing.CriteriaID
		criteria.CreatedAt = existing.CreatedAt
	} else {
		criteriaID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.JudgingCriteria{}, err
		}
		criteria.CriteriaID = criteriaID
	}

	if err := uc.Catalog.SaveCriteria(ctx, criteria); err != nil {
		return entities.JudgingCriteria{}, err
	}
	logger.Info("criteria configured",
		"event", "judging_criteria_configured",
		"module", "contest-judging/judging-engine",
		"layer", "application",
		"criteria_id", criteria.CriteriaID,
		"contest_id", criteria.ContestID,
		"category_id", criteria.CategoryID,
		"max_score", criteria.MaxScore,
	)
	return criteria, nil
}

// DeleteCriteria removes a criteria on behalf of the contest creator/admin.
func (uc CatalogUseCase) DeleteCriteria(ctx context.Context, cmd DeleteCommand) error {
	criteria, err := uc.Catalog.GetCriteria(ctx, strings.TrimSpace(cmd.ID))
	if err != nil {
		return err
	}
	if _, err := uc.authorizeContest(ctx, criteria.ContestID, cmd.ActorID, cmd.ActorIsAdmin); err != nil {
		return err
	}
	return uc.Catalog.DeleteCriteria(ctx, criteria.CriteriaID)
}

func (uc CatalogUseCase) authorizeContest(
	ctx context.Context,
	contestID string,
	actorID string,
	actorIsAdmin bool,
) (entities.Contest, error) {
	contest, err := uc.Catalog.GetContest(ctx, strings.TrimSpace(contestID))
	if err != nil {
		return entities.Contest{}, err
	}
	if !contest.ManagedBy(strings.TrimSpace(actorID), actorIsAdmin) {
		return entities.Contest{}, domainerrors.ErrPermissionDenied
	}
	return contest, nil
}

func (uc CatalogUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func buildStageSettings(inputs []StageSettingInput, stageCount int) ([]entities.StageSetting, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	seen := make(map[int]bool, len(inputs))
	settings := make([]entities.StageSetting, 0, len(inputs))
	for _, input := range inputs {
		if input.StageNumber < 1 || input.StageNumber > stageCount {
			return nil, domainerrors.ErrStageOutOfRange
		}
		if seen[input.StageNumber] {
			return nil, domainerrors.ErrInvalidInput
		}
		if input.MaxVotes < 0 {
			return nil, domainerrors.ErrInvalidInput
		}
		seen[input.StageNumber] = true
		settings = append(settings, entities.StageSetting{
			StageNumber: input.StageNumber,
			Name:        strings.TrimSpace(input.Name),
			MaxVotes:    input.MaxVotes,
		})
	}
	sort.Slice(settings, func(i, j int) bool {
		return settings[i].StageNumber < settings[j].StageNumber
	})
	return settings, nil
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
