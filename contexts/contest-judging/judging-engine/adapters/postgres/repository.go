package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"photojury/contexts/contest-judging/judging-engine/domain/entities"
	domainerrors "photojury/contexts/contest-judging/judging-engine/domain/errors"
	"photojury/contexts/contest-judging/judging-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// --- catalog ---

func (r *Repository) SaveContest(ctx context.Context, contest entities.Contest) error {
	row := contestModelFromEntity(contest)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		create := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"slug":                row.Slug,
				"title":               row.Title,
				"judging_type":        row.JudgingType,
				"start_at":            row.StartAt,
				"end_at":              row.EndAt,
				"voting_end_at":       row.VotingEndAt,
				"max_votes_per_judge": row.MaxVotesPerJudge,
				"updated_at":          row.UpdatedAt,
			}),
		}).Create(&row)
		if create.Error != nil {
			if isUniqueViolation(create.Error) {
				return domainerrors.ErrDuplicateRecord
			}
			return create.Error
		}

		if err := tx.
			Where("contest_id = ?", row.ID).
			Delete(&contestJudgeModel{}).Error; err != nil {
			return err
		}
		for _, judgeID := range contest.JudgeIDs {
			member := contestJudgeModel{
				ContestID: row.ID,
				JudgeID:   strings.TrimSpace(judgeID),
			}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateRecord) {
			return err
		}
		return r.logError("judging_repo_save_contest_failed", err,
			"contest_id", strings.TrimSpace(contest.ContestID),
		)
	}
	return nil
}

func (r *Repository) GetContest(ctx context.Context, contestID string) (entities.Contest, error) {
	var row contestModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(contestID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Contest{}, domainerrors.ErrContestNotFound
		}
		return entities.Contest{}, r.logError("judging_repo_get_contest_failed", err,
			"contest_id", strings.TrimSpace(contestID),
		)
	}

	var judgeIDs []string
	if err := r.db.WithContext(ctx).
		Model(&contestJudgeModel{}).
		Where("contest_id = ?", row.ID).
		Order("judge_id ASC").
		Pluck("judge_id", &judgeIDs).Error; err != nil {
		return entities.Contest{}, r.logError("judging_repo_list_contest_judges_failed", err,
			"contest_id", row.ID,
		)
	}
	return row.toEntity(judgeIDs), nil
}

func (r *Repository) SaveCategory(ctx context.Context, category entities.Category) error {
	row := categoryModelFromEntity(category)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		create := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":                row.Name,
				"position":            row.Position,
				"max_votes_per_judge": row.MaxVotesPerJudge,
				"enable_stages":       row.EnableStages,
				"stage_count":         row.StageCount,
				"current_stage":       row.CurrentStage,
				"updated_at":          row.UpdatedAt,
			}),
		}).Create(&row)
		if create.Error != nil {
			return create.Error
		}

		if err := tx.
			Where("category_id = ?", row.ID).
			Delete(&stageSettingModel{}).Error; err != nil {
			return err
		}
		for _, setting := range category.StageSettings {
			settingRow := stageSettingModel{
				CategoryID:  row.ID,
				StageNumber: setting.StageNumber,
				Name:        strings.TrimSpace(setting.Name),
				MaxVotes:    setting.MaxVotes,
			}
			if err := tx.Create(&settingRow).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// Categories carry a unique (contest_id, name) index.
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateRecord
		}
		return r.logError("judging_repo_save_category_failed", err,
			"category_id", strings.TrimSpace(category.CategoryID),
			"contest_id", strings.TrimSpace(category.ContestID),
		)
	}
	return nil
}

func (r *Repository) GetCategory(ctx context.Context, categoryID string) (entities.Category, error) {
	var row categoryModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(categoryID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Category{}, domainerrors.ErrCategoryNotFound
		}
		return entities.Category{}, r.logError("judging_repo_get_category_failed", err,
			"category_id", strings.TrimSpace(categoryID),
		)
	}

	settings, err := r.listStageSettings(ctx, r.db, []string{row.ID})
	if err != nil {
		return entities.Category{}, err
	}
	return row.toEntity(settings[row.ID]), nil
}

func (r *Repository) ListCategoriesByContest(ctx context.Context, contestID string) ([]entities.Category, error) {
	var rows []categoryModel
	if err := r.db.WithContext(ctx).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Order("position ASC, name ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("judging_repo_list_categories_failed", err,
			"contest_id", strings.TrimSpace(contestID),
		)
	}
	if len(rows) == 0 {
		return []entities.Category{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	settings, err := r.listStageSettings(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	items := make([]entities.Category, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity(settings[row.ID]))
	}
	return items, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, categoryID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("category_id = ?", strings.TrimSpace(categoryID)).
			Delete(&stageSettingModel{}).Error; err != nil {
			return err
		}
		result := tx.
			Where("id = ?", strings.TrimSpace(categoryID)).
			Delete(&categoryModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrCategoryNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrCategoryNotFound) {
			return err
		}
		return r.logError("judging_repo_delete_category_failed", err,
			"category_id", strings.TrimSpace(categoryID),
		)
	}
	return nil
}

func (r *Repository) SaveCriteria(ctx context.Context, criteria entities.JudgingCriteria) error {
	row := criteriaModelFromEntity(criteria)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"category_id": row.CategoryID,
			"name":        row.Name,
			"max_score":   row.MaxScore,
			"position":    row.Position,
			"updated_at":  row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("judging_repo_save_criteria_failed", create.Error,
			"criteria_id", strings.TrimSpace(criteria.CriteriaID),
			"contest_id", strings.TrimSpace(criteria.ContestID),
		)
	}
	return nil
}

func (r *Repository) GetCriteria(ctx context.Context, criteriaID string) (entities.JudgingCriteria, error) {
	var row criteriaModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(criteriaID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.JudgingCriteria{}, domainerrors.ErrCriteriaNotFound
		}
		return entities.JudgingCriteria{}, r.logError("judging_repo_get_criteria_failed", err,
			"criteria_id", strings.TrimSpace(criteriaID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListCriteriaFor(ctx context.Context, contestID string, categoryID string) ([]entities.JudgingCriteria, error) {
	var rows []criteriaModel
	if err := r.db.WithContext(ctx).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Where("category_id = '' OR category_id = ?", strings.TrimSpace(categoryID)).
		Order("position ASC, name ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("judging_repo_list_criteria_failed", err,
			"contest_id", strings.TrimSpace(contestID),
			"category_id", strings.TrimSpace(categoryID),
		)
	}
	items := make([]entities.JudgingCriteria, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) DeleteCriteria(ctx context.Context, criteriaID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(criteriaID)).
		Delete(&criteriaModel{})
	if result.Error != nil {
		return r.logError("judging_repo_delete_criteria_failed", result.Error,
			"criteria_id", strings.TrimSpace(criteriaID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCriteriaNotFound
	}
	return nil
}

func (r *Repository) listStageSettings(
	ctx context.Context,
	db *gorm.DB,
	categoryIDs []string,
) (map[string][]entities.StageSetting, error) {
	var rows []stageSettingModel
	if err := db.WithContext(ctx).
		Where("category_id IN ?", categoryIDs).
		Order("stage_number ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("judging_repo_list_stage_settings_failed", err)
	}
	grouped := make(map[string][]entities.StageSetting, len(categoryIDs))
	for _, row := range rows {
		grouped[row.CategoryID] = append(grouped[row.CategoryID], entities.StageSetting{
			StageNumber: row.StageNumber,
			Name:        row.Name,
			MaxVotes:    row.MaxVotes,
		})
	}
	return grouped, nil
}

// --- votes ---

// CreateVote inserts and re-counts inside one transaction so two concurrent
// casts cannot both land under a full quota. The count includes the inserted
// row, hence the strict comparison against limit.
func (r *Repository) CreateVote(ctx context.Context, vote entities.Vote, limit int) error {
	row := voteModelFromEntity(vote)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		create := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "entry_id"},
				{Name: "judge_id"},
				{Name: "category_id"},
				{Name: "stage"},
			},
			DoNothing: true,
		}).Create(&row)
		if create.Error != nil {
			if isUniqueViolation(create.Error) {
				return domainerrors.ErrDuplicateVote
			}
			return create.Error
		}
		if create.RowsAffected == 0 {
			return domainerrors.ErrDuplicateVote
		}

		if limit > 0 {
			var count int64
			if err := tx.Model(&voteModel{}).
				Where("contest_id = ?", row.ContestID).
				Where("judge_id = ?", row.JudgeID).
				Where("category_id = ?", row.CategoryID).
				Where("stage = ?", row.Stage).
				Count(&count).Error; err != nil {
				return err
			}
			if int(count) > limit {
				return domainerrors.QuotaExceededError{Limit: limit, Count: int(count) - 1}
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateVote) || errors.Is(err, domainerrors.ErrQuotaExceeded) {
			return err
		}
		return r.logError("judging_repo_create_vote_failed", err,
			"vote_id", strings.TrimSpace(vote.VoteID),
			"entry_id", strings.TrimSpace(vote.EntryID),
			"judge_id", strings.TrimSpace(vote.JudgeID),
		)
	}
	return nil
}

func (r *Repository) DeleteVoteByIdentity(
	ctx context.Context,
	entryID string,
	judgeID string,
	categoryID string,
	stage int,
) error {
	result := r.db.WithContext(ctx).
		Where("entry_id = ?", strings.TrimSpace(entryID)).
		Where("judge_id = ?", strings.TrimSpace(judgeID)).
		Where("category_id = ?", strings.TrimSpace(categoryID)).
		Where("stage = ?", stage).
		Delete(&voteModel{})
	if result.Error != nil {
		return r.logError("judging_repo_delete_vote_failed", result.Error,
			"entry_id", strings.TrimSpace(entryID),
			"judge_id", strings.TrimSpace(judgeID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVoteNotFound
	}
	return nil
}

func (r *Repository) GetVoteByIdentity(
	ctx context.Context,
	entryID string,
	judgeID string,
	categoryID string,
	stage int,
) (entities.Vote, bool, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("entry_id = ?", strings.TrimSpace(entryID)).
		Where("judge_id = ?", strings.TrimSpace(judgeID)).
		Where("category_id = ?", strings.TrimSpace(categoryID)).
		Where("stage = ?", stage).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, false, nil
		}
		return entities.Vote{}, false, r.logError("judging_repo_get_vote_by_identity_failed", err,
			"entry_id", strings.TrimSpace(entryID),
			"judge_id", strings.TrimSpace(judgeID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) CountVotes(
	ctx context.Context,
	contestID string,
	judgeID string,
	categoryID string,
	stage int,
) (int, error) {
	count, err := countVotes(r.db.WithContext(ctx), contestID, judgeID, categoryID, stage)
	if err != nil {
		return 0, r.logError("judging_repo_count_votes_failed", err,
			"contest_id", strings.TrimSpace(contestID),
			"judge_id", strings.TrimSpace(judgeID),
		)
	}
	return count, nil
}

func (r *Repository) ListVotesByEntry(ctx context.Context, entryID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("entry_id = ?", strings.TrimSpace(entryID)).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("judging_repo_list_votes_by_entry_failed", err,
			"entry_id", strings.TrimSpace(entryID),
		)
	}
	return toVoteEntities(rows), nil
}

func (r *Repository) ListVotesByJudge(ctx context.Context, contestID string, judgeID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Where("judge_id = ?", strings.TrimSpace(judgeID)).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("judging_repo_list_votes_by_judge_failed", err,
			"contest_id", strings.TrimSpace(contestID),
			"judge_id", strings.TrimSpace(judgeID),
		)
	}
	return toVoteEntities(rows), nil
}

func (r *Repository) ListVotesByContest(ctx context.Context, contestID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("judging_repo_list_votes_by_contest_failed", err,
			"contest_id", strings.TrimSpace(contestID),
		)
	}
	return toVoteEntities(rows), nil
}

// --- scores ---

// SaveScore replaces the detailed score set and the stored total in one
// transaction. Either the whole batch lands or none of it does.
func (r *Repository) SaveScore(ctx context.Context, score entities.JudgeScore, details []entities.DetailedScore) error {
	row := judgeScoreModelFromEntity(score)
	if len(details) > 0 {
		row.TotalScore = entities.SumDetailedScores(details)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		create := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"total_score": row.TotalScore,
				"comment":     row.Comment,
				"updated_at":  row.UpdatedAt,
			}),
		}).Create(&row)
		if create.Error != nil {
			if isUniqueViolation(create.Error) {
				return domainerrors.ErrDuplicateRecord
			}
			return create.Error
		}

		if err := tx.
			Where("score_id = ?", row.ID).
			Delete(&detailedScoreModel{}).Error; err != nil {
			return err
		}
		for _, detail := range details {
			detailRow := detailedScoreModelFromEntity(detail, row.ID)
			if err := tx.Create(&detailRow).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateRecord) {
			return err
		}
		return r.logError("judging_repo_save_score_failed", err,
			"score_id", strings.TrimSpace(score.ScoreID),
			"entry_id", strings.TrimSpace(score.EntryID),
			"judge_id", strings.TrimSpace(score.JudgeID),
		)
	}
	return nil
}

func (r *Repository) GetScore(ctx context.Context, scoreID string) (entities.JudgeScore, error) {
	var row judgeScoreModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(scoreID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.JudgeScore{}, domainerrors.ErrScoreNotFound
		}
		return entities.JudgeScore{}, r.logError("judging_repo_get_score_failed", err,
			"score_id", strings.TrimSpace(scoreID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetScoreByIdentity(
	ctx context.Context,
	entryID string,
	judgeID string,
	categoryID string,
	stage int,
) (entities.JudgeScore, bool, error) {
	var row judgeScoreModel
	err := r.db.WithContext(ctx).
		Where("entry_id = ?", strings.TrimSpace(entryID)).
		Where("judge_id = ?", strings.TrimSpace(judgeID)).
		Where("category_id = ?", strings.TrimSpace(categoryID)).
		Where("stage = ?", stage).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.JudgeScore{}, false, nil
		}
		return entities.JudgeScore{}, false, r.logError("judging_repo_get_score_by_identity_failed", err,
			"entry_id", strings.TrimSpace(entryID),
			"judge_id", strings.TrimSpace(judgeID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListDetailedScores(ctx context.Context, scoreID string) ([]entities.DetailedScore, error) {
	var rows []detailedScoreModel
	if err := r.db.WithContext(ctx).
		Where("score_id = ?", strings.TrimSpace(scoreID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("judging_repo_list_detailed_scores_failed", err,
			"score_id", strings.TrimSpace(scoreID),
		)
	}
	items := make([]entities.DetailedScore, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListScoresByEntry(ctx context.Context, entryID string) ([]entities.JudgeScore, error) {
	var rows []judgeScoreModel
	if err := r.db.WithContext(ctx).
		Where("entry_id = ?", strings.TrimSpace(entryID)).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("judging_repo_list_scores_by_entry_failed", err,
			"entry_id", strings.TrimSpace(entryID),
		)
	}
	return toScoreEntities(rows), nil
}

func (r *Repository) ListScoresByJudge(ctx context.Context, contestID string, judgeID string) ([]entities.JudgeScore, error) {
	var rows []judgeScoreModel
	if err := r.db.WithContext(ctx).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Where("judge_id = ?", strings.TrimSpace(judgeID)).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("judging_repo_list_scores_by_judge_failed", err,
			"contest_id", strings.TrimSpace(contestID),
			"judge_id", strings.TrimSpace(judgeID),
		)
	}
	return toScoreEntities(rows), nil
}

func (r *Repository) RecomputeTotal(ctx context.Context, scoreID string) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row judgeScoreModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", strings.TrimSpace(scoreID)).
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrScoreNotFound
			}
			return err
		}

		var sum int64
		if err := tx.Model(&detailedScoreModel{}).
			Where("score_id = ?", row.ID).
			Select("COALESCE(SUM(score), 0)").
			Scan(&sum).Error; err != nil {
			return err
		}
		total = int(sum)
		return tx.Model(&judgeScoreModel{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{
				"total_score": total,
				"updated_at":  time.Now().UTC(),
			}).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrScoreNotFound) {
			return 0, err
		}
		return 0, r.logError("judging_repo_recompute_total_failed", err,
			"score_id", strings.TrimSpace(scoreID),
		)
	}
	return total, nil
}

// --- views ---

func (r *Repository) RecordView(ctx context.Context, view entities.EntryView) (bool, error) {
	row := entryViewModelFromEntity(view)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "entry_id"},
			{Name: "judge_id"},
		},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return false, nil
		}
		return false, r.logError("judging_repo_record_view_failed", create.Error,
			"entry_id", strings.TrimSpace(view.EntryID),
			"judge_id", strings.TrimSpace(view.JudgeID),
		)
	}
	return create.RowsAffected > 0, nil
}

func (r *Repository) ListViewedEntryIDs(ctx context.Context, contestID string, judgeID string) ([]string, error) {
	ids, err := listViewedEntryIDs(r.db.WithContext(ctx), contestID, judgeID)
	if err != nil {
		return nil, r.logError("judging_repo_list_viewed_entries_failed", err,
			"contest_id", strings.TrimSpace(contestID),
			"judge_id", strings.TrimSpace(judgeID),
		)
	}
	return ids, nil
}

// --- entries ---

func (r *Repository) GetEntry(ctx context.Context, entryID string) (ports.EntryProjection, error) {
	var row entryProjectionModel
	err := r.db.WithContext(ctx).
		Where("entry_id = ?", strings.TrimSpace(entryID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.EntryProjection{}, domainerrors.ErrEntryNotFound
		}
		return ports.EntryProjection{}, r.logError("judging_repo_get_entry_failed", err,
			"entry_id", strings.TrimSpace(entryID),
		)
	}
	return ports.EntryProjection{
		EntryID:   row.EntryID,
		ContestID: row.ContestID,
		AuthorID:  row.AuthorID,
		Approved:  row.Approved,
	}, nil
}

func (r *Repository) ListApprovedEntryIDs(ctx context.Context, contestID string) ([]string, error) {
	ids, err := listApprovedEntryIDs(r.db.WithContext(ctx), contestID)
	if err != nil {
		return nil, r.logError("judging_repo_list_approved_entries_failed", err,
			"contest_id", strings.TrimSpace(contestID),
		)
	}
	return ids, nil
}

// UpsertEntry refreshes the projection of the externally-owned Entry
// aggregate; the submission pipeline feeds it through inbound events.
func (r *Repository) UpsertEntry(ctx context.Context, entry ports.EntryProjection) error {
	row := entryProjectionModel{
		EntryID:   strings.TrimSpace(entry.EntryID),
		ContestID: strings.TrimSpace(entry.ContestID),
		AuthorID:  strings.TrimSpace(entry.AuthorID),
		Approved:  entry.Approved,
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "entry_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"contest_id": row.ContestID,
			"author_id":  row.AuthorID,
			"approved":   row.Approved,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("judging_repo_upsert_entry_failed", create.Error,
			"entry_id", row.EntryID,
		)
	}
	return nil
}

// --- stage advancement ---

// AdvanceCategoryStage locks the category row, re-checks the caller's
// observed stage and re-runs the gate against the same transaction before
// committing the increment.
func (r *Repository) AdvanceCategoryStage(
	ctx context.Context,
	categoryID string,
	fromStage int,
	gate ports.AdvancementGate,
) (entities.Category, error) {
	var advanced entities.Category
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row categoryModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", strings.TrimSpace(categoryID)).
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrCategoryNotFound
			}
			return err
		}
		if row.CurrentStage != fromStage {
			return domainerrors.ErrStaleAdvancement
		}

		if err := gate(ctx, txReader{tx: tx}); err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := tx.Model(&categoryModel{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{
				"current_stage": row.CurrentStage + 1,
				"updated_at":    now,
			}).Error; err != nil {
			return err
		}
		row.CurrentStage++
		row.UpdatedAt = now

		settings, err := r.listStageSettings(ctx, tx, []string{row.ID})
		if err != nil {
			return err
		}
		advanced = row.toEntity(settings[row.ID])
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrCategoryNotFound) ||
			errors.Is(err, domainerrors.ErrStaleAdvancement) ||
			errors.Is(err, domainerrors.ErrNotReady) {
			return entities.Category{}, err
		}
		return entities.Category{}, r.logError("judging_repo_advance_stage_failed", err,
			"category_id", strings.TrimSpace(categoryID),
			"from_stage", fromStage,
		)
	}
	return advanced, nil
}

// txReader serves the advancement gate from inside the advance transaction.
type txReader struct {
	tx *gorm.DB
}

func (r txReader) ListApprovedEntryIDs(_ context.Context, contestID string) ([]string, error) {
	return listApprovedEntryIDs(r.tx, contestID)
}

func (r txReader) ListViewedEntryIDs(_ context.Context, contestID string, judgeID string) ([]string, error) {
	return listViewedEntryIDs(r.tx, contestID, judgeID)
}

func (r txReader) CountVotes(_ context.Context, contestID string, judgeID string, categoryID string, stage int) (int, error) {
	return countVotes(r.tx, contestID, judgeID, categoryID, stage)
}

// --- outbox ---

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("judging_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("judging_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("judging_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrDuplicateRecord
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("judging_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("judging_repo_mark_outbox_sent_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrDuplicateRecord
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "contest-judging/judging-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("judging repository operation failed", fields...)
	return err
}

// --- shared query helpers (plain db or tx) ---

func countVotes(db *gorm.DB, contestID string, judgeID string, categoryID string, stage int) (int, error) {
	var count int64
	err := db.Model(&voteModel{}).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Where("judge_id = ?", strings.TrimSpace(judgeID)).
		Where("category_id = ?", strings.TrimSpace(categoryID)).
		Where("stage = ?", stage).
		Count(&count).Error
	return int(count), err
}

func listViewedEntryIDs(db *gorm.DB, contestID string, judgeID string) ([]string, error) {
	var ids []string
	err := db.Model(&entryViewModel{}).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Where("judge_id = ?", strings.TrimSpace(judgeID)).
		Order("entry_id ASC").
		Pluck("entry_id", &ids).Error
	return ids, err
}

func listApprovedEntryIDs(db *gorm.DB, contestID string) ([]string, error) {
	var ids []string
	err := db.Model(&entryProjectionModel{}).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		Where("approved = ?", true).
		Order("entry_id ASC").
		Pluck("entry_id", &ids).Error
	return ids, err
}

// --- models ---

type contestModel struct {
	ID               string     `gorm:"column:id;primaryKey"`
	Slug             string     `gorm:"column:slug"`
	Title            string     `gorm:"column:title"`
	CreatorID        string     `gorm:"column:creator_id"`
	JudgingType      string     `gorm:"column:judging_type"`
	StartAt          time.Time  `gorm:"column:start_at"`
	EndAt            time.Time  `gorm:"column:end_at"`
	VotingEndAt      *time.Time `gorm:"column:voting_end_at"`
	MaxVotesPerJudge int        `gorm:"column:max_votes_per_judge"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (contestModel) TableName() string {
	return "contests"
}

func contestModelFromEntity(contest entities.Contest) contestModel {
	row := contestModel{
		ID:               strings.TrimSpace(contest.ContestID),
		Slug:             strings.TrimSpace(contest.Slug),
		Title:            strings.TrimSpace(contest.Title),
		CreatorID:        strings.TrimSpace(contest.CreatorID),
		JudgingType:      string(contest.JudgingType),
		StartAt:          contest.StartAt.UTC(),
		EndAt:            contest.EndAt.UTC(),
		VotingEndAt:      normalizeOptionalTime(contest.VotingEndAt),
		MaxVotesPerJudge: contest.MaxVotesPerJudge,
		CreatedAt:        contest.CreatedAt.UTC(),
		UpdatedAt:        contest.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m contestModel) toEntity(judgeIDs []string) entities.Contest {
	return entities.Contest{
		ContestID:        m.ID,
		Slug:             m.Slug,
		Title:            m.Title,
		CreatorID:        m.CreatorID,
		JudgingType:      entities.JudgingType(m.JudgingType),
		StartAt:          m.StartAt.UTC(),
		EndAt:            m.EndAt.UTC(),
		VotingEndAt:      normalizeOptionalTime(m.VotingEndAt),
		MaxVotesPerJudge: m.MaxVotesPerJudge,
		JudgeIDs:         judgeIDs,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

type contestJudgeModel struct {
	ContestID string `gorm:"column:contest_id;primaryKey"`
	JudgeID   string `gorm:"column:judge_id;primaryKey"`
}

func (contestJudgeModel) TableName() string {
	return "contest_judges"
}

type categoryModel struct {
	ID               string    `gorm:"column:id;primaryKey"`
	ContestID        string    `gorm:"column:contest_id"`
	Name             string    `gorm:"column:name"`
	Position         int       `gorm:"column:position"`
	MaxVotesPerJudge int       `gorm:"column:max_votes_per_judge"`
	EnableStages     bool      `gorm:"column:enable_stages"`
	StageCount       int       `gorm:"column:stage_count"`
	CurrentStage     int       `gorm:"column:current_stage"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (categoryModel) TableName() string {
	return "categories"
}

func categoryModelFromEntity(category entities.Category) categoryModel {
	row := categoryModel{
		ID:               strings.TrimSpace(category.CategoryID),
		ContestID:        strings.TrimSpace(category.ContestID),
		Name:             strings.TrimSpace(category.Name),
		Position:         category.Order,
		MaxVotesPerJudge: category.MaxVotesPerJudge,
		EnableStages:     category.EnableStages,
		StageCount:       category.StageCount,
		CurrentStage:     category.CurrentStage,
		CreatedAt:        category.CreatedAt.UTC(),
		UpdatedAt:        category.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m categoryModel) toEntity(settings []entities.StageSetting) entities.Category {
	return entities.Category{
		CategoryID:       m.ID,
		ContestID:        m.ContestID,
		Name:             m.Name,
		Order:            m.Position,
		MaxVotesPerJudge: m.MaxVotesPerJudge,
		EnableStages:     m.EnableStages,
		StageCount:       m.StageCount,
		StageSettings:    settings,
		CurrentStage:     m.CurrentStage,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

type stageSettingModel struct {
	CategoryID  string `gorm:"column:category_id;primaryKey"`
	StageNumber int    `gorm:"column:stage_number;primaryKey"`
	Name        string `gorm:"column:name"`
	MaxVotes    int    `gorm:"column:max_votes"`
}

func (stageSettingModel) TableName() string {
	return "category_stage_settings"
}

type criteriaModel struct {
	ID        string `gorm:"column:id;primaryKey"`
	ContestID string `gorm:"column:contest_id"`
	// Empty string means the criteria applies contest-wide; the unique
	// indexes rely on this column never being NULL.
	CategoryID string    `gorm:"column:category_id"`
	Name       string    `gorm:"column:name"`
	MaxScore   int       `gorm:"column:max_score"`
	Position   int       `gorm:"column:position"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (criteriaModel) TableName() string {
	return "judging_criteria"
}

func criteriaModelFromEntity(criteria entities.JudgingCriteria) criteriaModel {
	row := criteriaModel{
		ID:         strings.TrimSpace(criteria.CriteriaID),
		ContestID:  strings.TrimSpace(criteria.ContestID),
		CategoryID: strings.TrimSpace(criteria.CategoryID),
		Name:       strings.TrimSpace(criteria.Name),
		MaxScore:   criteria.MaxScore,
		Position:   criteria.Order,
		CreatedAt:  criteria.CreatedAt.UTC(),
		UpdatedAt:  criteria.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m criteriaModel) toEntity() entities.JudgingCriteria {
	return entities.JudgingCriteria{
		CriteriaID: m.ID,
		ContestID:  m.ContestID,
		CategoryID: m.CategoryID,
		Name:       m.Name,
		MaxScore:   m.MaxScore,
		Order:      m.Position,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

type voteModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	EntryID    string    `gorm:"column:entry_id"`
	ContestID  string    `gorm:"column:contest_id"`
	CategoryID string    `gorm:"column:category_id"`
	JudgeID    string    `gorm:"column:judge_id"`
	Stage      int       `gorm:"column:stage"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	row := voteModel{
		ID:         strings.TrimSpace(vote.VoteID),
		EntryID:    strings.TrimSpace(vote.EntryID),
		ContestID:  strings.TrimSpace(vote.ContestID),
		CategoryID: strings.TrimSpace(vote.CategoryID),
		JudgeID:    strings.TrimSpace(vote.JudgeID),
		Stage:      vote.Stage,
		CreatedAt:  vote.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:     m.ID,
		EntryID:    m.EntryID,
		ContestID:  m.ContestID,
		CategoryID: m.CategoryID,
		JudgeID:    m.JudgeID,
		Stage:      m.Stage,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

type judgeScoreModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	EntryID    string    `gorm:"column:entry_id"`
	ContestID  string    `gorm:"column:contest_id"`
	CategoryID string    `gorm:"column:category_id"`
	JudgeID    string    `gorm:"column:judge_id"`
	Stage      int       `gorm:"column:stage"`
	TotalScore int       `gorm:"column:total_score"`
	Comment    string    `gorm:"column:comment"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (judgeScoreModel) TableName() string {
	return "judge_scores"
}

func judgeScoreModelFromEntity(score entities.JudgeScore) judgeScoreModel {
	row := judgeScoreModel{
		ID:         strings.TrimSpace(score.ScoreID),
		EntryID:    strings.TrimSpace(score.EntryID),
		ContestID:  strings.TrimSpace(score.ContestID),
		CategoryID: strings.TrimSpace(score.CategoryID),
		JudgeID:    strings.TrimSpace(score.JudgeID),
		Stage:      score.Stage,
		TotalScore: score.TotalScore,
		Comment:    strings.TrimSpace(score.Comment),
		CreatedAt:  score.CreatedAt.UTC(),
		UpdatedAt:  score.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m judgeScoreModel) toEntity() entities.JudgeScore {
	return entities.JudgeScore{
		ScoreID:    m.ID,
		EntryID:    m.EntryID,
		ContestID:  m.ContestID,
		CategoryID: m.CategoryID,
		JudgeID:    m.JudgeID,
		Stage:      m.Stage,
		TotalScore: m.TotalScore,
		Comment:    m.Comment,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

type detailedScoreModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	ScoreID    string    `gorm:"column:score_id"`
	CriteriaID string    `gorm:"column:criteria_id"`
	Score      int       `gorm:"column:score"`
	Comment    string    `gorm:"column:comment"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (detailedScoreModel) TableName() string {
	return "detailed_scores"
}

func detailedScoreModelFromEntity(detail entities.DetailedScore, scoreID string) detailedScoreModel {
	row := detailedScoreModel{
		ID:         strings.TrimSpace(detail.DetailedScoreID),
		ScoreID:    strings.TrimSpace(scoreID),
		CriteriaID: strings.TrimSpace(detail.CriteriaID),
		Score:      detail.Score,
		Comment:    strings.TrimSpace(detail.Comment),
		CreatedAt:  detail.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (m detailedScoreModel) toEntity() entities.DetailedScore {
	return entities.DetailedScore{
		DetailedScoreID: m.ID,
		ScoreID:         m.ScoreID,
		CriteriaID:      m.CriteriaID,
		Score:           m.Score,
		Comment:         m.Comment,
		CreatedAt:       m.CreatedAt.UTC(),
	}
}

type entryViewModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	EntryID   string    `gorm:"column:entry_id"`
	ContestID string    `gorm:"column:contest_id"`
	JudgeID   string    `gorm:"column:judge_id"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (entryViewModel) TableName() string {
	return "entry_views"
}

func entryViewModelFromEntity(view entities.EntryView) entryViewModel {
	row := entryViewModel{
		ID:        strings.TrimSpace(view.ViewID),
		EntryID:   strings.TrimSpace(view.EntryID),
		ContestID: strings.TrimSpace(view.ContestID),
		JudgeID:   strings.TrimSpace(view.JudgeID),
		CreatedAt: view.CreatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

type entryProjectionModel struct {
	EntryID   string `gorm:"column:entry_id;primaryKey"`
	ContestID string `gorm:"column:contest_id"`
	AuthorID  string `gorm:"column:author_id"`
	Approved  bool   `gorm:"column:approved"`
}

func (entryProjectionModel) TableName() string {
	return "entry_projections"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "judging_outbox"
}

func toVoteEntities(rows []voteModel) []entities.Vote {
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func toScoreEntities(rows []judgeScoreModel) []entities.JudgeScore {
	items := make([]entities.JudgeScore, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.CatalogRepository = (*Repository)(nil)
var _ ports.VoteRepository = (*Repository)(nil)
var _ ports.ScoreRepository = (*Repository)(nil)
var _ ports.ViewRepository = (*Repository)(nil)
var _ ports.EntryDirectory = (*Repository)(nil)
var _ ports.StageAdvancer = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
