package ports

import (
	"context"
	"time"

	"photojury/contexts/contest-judging/judging-engine/domain/entities"
	contractsv1 "photojury/contracts/gen/events/v1"
)

// EntryProjection mirrors the externally-owned Entry aggregate. The upload,
// moderation and approval pipeline lives outside this context; the engine
// only needs identity, contest membership, authorship and approval state.
type EntryProjection struct {
	EntryID   string
	ContestID string
	AuthorID  string
	Approved  bool
}

// EntryDirectory reads entry projections.
type EntryDirectory interface {
	GetEntry(ctx context.Context, entryID string) (EntryProjection, error)
	ListApprovedEntryIDs(ctx context.Context, contestID string) ([]string, error)
}

// EntryWriter refreshes entry projections from inbound lifecycle events.
type EntryWriter interface {
	UpsertEntry(ctx context.Context, entry EntryProjection) error
}

// CatalogRepository persists contests, categories and judging criteria.
type CatalogRepository interface {
	SaveContest(ctx context.Context, contest entities.Contest) error
	GetContest(ctx context.Context, contestID string) (entities.Contest, error)
	SaveCategory(ctx context.Context, category entities.Category) error
	GetCategory(ctx context.Context, categoryID string) (entities.Category, error)
	ListCategoriesByContest(ctx context.Context, contestID string) ([]entities.Category, error)
	DeleteCategory(ctx context.Context, categoryID string) error
	SaveCriteria(ctx context.Context, criteria entities.JudgingCriteria) error
	GetCriteria(ctx context.Context, criteriaID string) (entities.JudgingCriteria, error)
	// ListCriteriaFor returns contest-wide criteria plus the given category's,
	// ordered by their configured display order.
	ListCriteriaFor(ctx context.Context, contestID string, categoryID string) ([]entities.JudgingCriteria, error)
	DeleteCriteria(ctx context.Context, criteriaID string) error
}

// JudgingReader is the read surface the advancement gate evaluates against.
// Implementations bound to a transaction guarantee the gate sees one snapshot.
type JudgingReader interface {
	ListApprovedEntryIDs(ctx context.Context, contestID string) ([]string, error)
	ListViewedEntryIDs(ctx context.Context, contestID string, judgeID string) ([]string, error)
	CountVotes(ctx context.Context, contestID string, judgeID string, categoryID string, stage int) (int, error)
}

// AdvancementGate re-evaluates the full readiness check against a
// transactional snapshot immediately before the stage increment commits.
type AdvancementGate func(ctx context.Context, reader JudgingReader) error

// StageAdvancer owns the advance-stage transaction boundary.
type StageAdvancer interface {
	// AdvanceCategoryStage increments current_stage from fromStage. The gate
	// runs inside the same transaction; a failed gate or a moved stage rolls
	// back and reports stale advancement.
	AdvanceCategoryStage(ctx context.Context, categoryID string, fromStage int, gate AdvancementGate) (entities.Category, error)
}

// VoteRepository persists votes for vote-mode contests.
type VoteRepository interface {
	// CreateVote inserts the vote and re-validates the quota inside the same
	// transaction, rolling back with QuotaExceededError on overshoot. A limit
	// of zero or less disables the quota re-check.
	CreateVote(ctx context.Context, vote entities.Vote, limit int) error
	DeleteVoteByIdentity(ctx context.Context, entryID string, judgeID string, categoryID string, stage int) error
	GetVoteByIdentity(ctx context.Context, entryID string, judgeID string, categoryID string, stage int) (entities.Vote, bool, error)
	CountVotes(ctx context.Context, contestID string, judgeID string, categoryID string, stage int) (int, error)
	ListVotesByEntry(ctx context.Context, entryID string) ([]entities.Vote, error)
	ListVotesByJudge(ctx context.Context, contestID string, judgeID string) ([]entities.Vote, error)
	ListVotesByContest(ctx context.Context, contestID string) ([]entities.Vote, error)
}

// ScoreRepository persists judge scores and their detailed scores.
type ScoreRepository interface {
	// SaveScore atomically replaces the detailed score set and persists the
	// recomputed total; no partial detail writes survive a failure.
	SaveScore(ctx context.Context, score entities.JudgeScore, details []entities.DetailedScore) error
	GetScore(ctx context.Context, scoreID string) (entities.JudgeScore, error)
	GetScoreByIdentity(ctx context.Context, entryID string, judgeID string, categoryID string, stage int) (entities.JudgeScore, bool, error)
	ListDetailedScores(ctx context.Context, scoreID string) ([]entities.DetailedScore, error)
	ListScoresByEntry(ctx context.Context, entryID string) ([]entities.JudgeScore, error)
	ListScoresByJudge(ctx context.Context, contestID string, judgeID string) ([]entities.JudgeScore, error)
	// RecomputeTotal re-sums the committed detailed scores inside one
	// transaction and persists the result.
	RecomputeTotal(ctx context.Context, scoreID string) (int, error)
}

// ViewRepository persists entry views.
type ViewRepository interface {
	// RecordView inserts the first view for (entry, judge) and reports whether
	// a row was created; repeats are a no-op, never an error.
	RecordView(ctx context.Context, view entities.EntryView) (bool, error)
	ListViewedEntryIDs(ctx context.Context, contestID string, judgeID string) ([]string, error)
}

// Clock allows deterministic testing of phase rules.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts record/event identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// OutboxWriter appends an event for later relay, inside the caller's request.
type OutboxWriter interface {
	AppendOutbox(ctx context.Context, event EventEnvelope) error
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// EventSubscriber delivers envelopes from a topic to a handler.
type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, EventEnvelope) error) error
}
