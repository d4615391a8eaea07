package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ConfigureContestRequest struct {
	ContestID        string     `json:"contest_id,omitempty"`
	Slug             string     `json:"slug"`
	Title            string     `json:"title"`
	JudgingType      string     `json:"judging_type"`
	StartAt          time.Time  `json:"start_at"`
	EndAt            time.Time  `json:"end_at"`
	VotingEndAt      *time.Time `json:"voting_end_at,omitempty"`
	MaxVotesPerJudge int        `json:"max_votes_per_judge"`
	JudgeIDs         []string   `json:"judge_ids"`
}

type ContestResponse struct {
	ContestID        string     `json:"contest_id"`
	Slug             string     `json:"slug"`
	Title            string     `json:"title"`
	CreatorID        string     `json:"creator_id"`
	JudgingType      string     `json:"judging_type"`
	Phase            string     `json:"phase"`
	StartAt          time.Time  `json:"start_at"`
	EndAt            time.Time  `json:"end_at"`
	VotingEndAt      *time.Time `json:"voting_end_at,omitempty"`
	MaxVotesPerJudge int        `json:"max_votes_per_judge"`
	JudgeIDs         []string   `json:"judge_ids"`
}

type StageSettingPayload struct {
	StageNumber int    `json:"stage_number"`
	Name        string `json:"name,omitempty"`
	MaxVotes    int    `json:"max_votes,omitempty"`
}

type ConfigureCategoryRequest struct {
	CategoryID       string                `json:"category_id,omitempty"`
	ContestID        string                `json:"contest_id"`
	Name             string                `json:"name"`
	Order            int                   `json:"order"`
	MaxVotesPerJudge int                   `json:"max_votes_per_judge"`
	EnableStages     bool                  `json:"enable_stages"`
	StageCount       int                   `json:"stage_count"`
	StageSettings    []StageSettingPayload `json:"stage_settings,omitempty"`
}

type CategoryResponse struct {
	CategoryID       string                `json:"category_id"`
	ContestID        string                `json:"contest_id"`
	Name             string                `json:"name"`
	Order            int                   `json:"order"`
	MaxVotesPerJudge int                   `json:"max_votes_per_judge"`
	EnableStages     bool                  `json:"enable_stages"`
	StageCount       int                   `json:"stage_count"`
	StageSettings    []StageSettingPayload `json:"stage_settings,omitempty"`
	CurrentStage     int                   `json:"current_stage"`
}

type ConfigureCriteriaRequest struct {
	CriteriaID string `json:"criteria_id,omitempty"`
	ContestID  string `json:"contest_id"`
	CategoryID string `json:"category_id,omitempty"`
	Name       string `json:"name"`
	MaxScore   int    `json:"max_score"`
	Order      int    `json:"order"`
}

type CriteriaResponse struct {
	CriteriaID string `json:"criteria_id"`
	ContestID  string `json:"contest_id"`
	CategoryID string `json:"category_id,omitempty"`
	Name       string `json:"name"`
	MaxScore   int    `json:"max_score"`
	Order      int    `json:"order"`
}

type CastVoteRequest struct {
	EntryID    string `json:"entry_id"`
	CategoryID string `json:"category_id,omitempty"`
	Stage      int    `json:"stage,omitempty"`
}

type RemoveVoteRequest struct {
	EntryID    string `json:"entry_id"`
	CategoryID string `json:"category_id,omitempty"`
	Stage      int    `json:"stage,omitempty"`
}

type VoteResponse struct {
	VoteID     string    `json:"vote_id"`
	EntryID    string    `json:"entry_id"`
	ContestID  string    `json:"contest_id"`
	CategoryID string    `json:"category_id,omitempty"`
	JudgeID    string    `json:"judge_id"`
	Stage      int       `json:"stage"`
	CreatedAt  time.Time `json:"created_at"`
}

type VoteListResponse struct {
	Items []VoteResponse `json:"items"`
}

type DetailedScorePayload struct {
	CriteriaID string `json:"criteria_id"`
	Score      int    `json:"score"`
	Comment    string `json:"comment,omitempty"`
}

type SubmitScoreRequest struct {
	EntryID    string                 `json:"entry_id"`
	CategoryID string                 `json:"category_id,omitempty"`
	Stage      int                    `json:"stage,omitempty"`
	Comment    string                 `json:"comment,omitempty"`
	Total      int                    `json:"total,omitempty"`
	Details    []DetailedScorePayload `json:"details,omitempty"`
}

type ScoreResponse struct {
	ScoreID    string                 `json:"score_id"`
	EntryID    string                 `json:"entry_id"`
	ContestID  string                 `json:"contest_id"`
	CategoryID string                 `json:"category_id,omitempty"`
	JudgeID    string                 `json:"judge_id"`
	Stage      int                    `json:"stage"`
	TotalScore int                    `json:"total_score"`
	Comment    string                 `json:"comment,omitempty"`
	Details    []DetailedScorePayload `json:"details,omitempty"`
	WasUpdate  bool                   `json:"was_update"`
}

type ScoreListResponse struct {
	Items []ScoreResponse `json:"items"`
}

type RecordViewRequest struct {
	EntryID string `json:"entry_id"`
}

type ViewResponse struct {
	EntryID string `json:"entry_id"`
	JudgeID string `json:"judge_id"`
	Created bool   `json:"created"`
}

type CanAdvanceResponse struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason"`
}

type CategoryAverageItem struct {
	CategoryID string  `json:"category_id,omitempty"`
	JudgeCount int     `json:"judge_count"`
	Average    float64 `json:"average"`
}

type EntryResultsResponse struct {
	EntryID        string                `json:"entry_id"`
	VoteCount      int                   `json:"vote_count"`
	ScoreCount     int                   `json:"score_count"`
	OverallAverage float64               `json:"overall_average"`
	ByCategory     []CategoryAverageItem `json:"by_category,omitempty"`
}

type ContestSummaryResponse struct {
	ContestID       string `json:"contest_id"`
	Phase           string `json:"phase"`
	ApprovedEntries int    `json:"approved_entries"`
	TotalVotes      int    `json:"total_votes"`
	UniqueVoters    int    `json:"unique_voters"`
}

type JudgeProgressItem struct {
	JudgeID       string `json:"judge_id"`
	ViewedEntries int    `json:"viewed_entries"`
	TotalEntries  int    `json:"total_entries"`
	Votes         int    `json:"votes"`
	RequiredVotes int    `json:"required_votes"`
}

type CategoryProgressResponse struct {
	CategoryID   string              `json:"category_id"`
	ContestID    string              `json:"contest_id"`
	CurrentStage int                 `json:"current_stage"`
	StageName    string              `json:"stage_name"`
	Judges       []JudgeProgressItem `json:"judges"`
}
