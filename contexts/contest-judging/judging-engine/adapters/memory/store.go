package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"photojury/contexts/contest-judging/judging-engine/domain/entities"
	domainerrors "photojury/contexts/contest-judging/judging-engine/domain/errors"
	"photojury/contexts/contest-judging/judging-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message ports.OutboxMessage
	sent    bool
}

// Store is the in-memory adapter behind module tests and local wiring. It
// enforces the same uniqueness and quota rules as the postgres adapter so
// use-case tests exercise the conflict paths.
type Store struct {
	mu sync.RWMutex

	contests   map[string]entities.Contest
	categories map[string]entities.Category
	criteria   map[string]entities.JudgingCriteria
	votes      map[string]entities.Vote
	scores     map[string]entities.JudgeScore
	details    map[string][]entities.DetailedScore
	views      map[string]entities.EntryView
	entries    map[string]ports.EntryProjection
	outbox     []outboxRecord

	now *time.Time
}

func NewStore() *Store {
	return &Store{
		contests:   make(map[string]entities.Contest),
		categories: make(map[string]entities.Category),
		criteria:   make(map[string]entities.JudgingCriteria),
		votes:      make(map[string]entities.Vote),
		scores:     make(map[string]entities.JudgeScore),
		details:    make(map[string][]entities.DetailedScore),
		views:      make(map[string]entities.EntryView),
		entries:    make(map[string]ports.EntryProjection),
	}
}

// SetEntry seeds a projection of the externally-owned Entry aggregate.
func (s *Store) SetEntry(entry ports.EntryProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[strings.TrimSpace(entry.EntryID)] = ports.EntryProjection{
		EntryID:   strings.TrimSpace(entry.EntryID),
		ContestID: strings.TrimSpace(entry.ContestID),
		AuthorID:  strings.TrimSpace(entry.AuthorID),
		Approved:  entry.Approved,
	}
}

// UpsertEntry implements ports.EntryWriter for the inbound entry consumer.
func (s *Store) UpsertEntry(_ context.Context, entry ports.EntryProjection) error {
	s.SetEntry(entry)
	return nil
}

// SetNow pins the store clock for deterministic phase tests.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pinned := now.UTC()
	s.now = &pinned
}

// Now implements ports.Clock.
func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.now != nil {
		return *s.now
	}
	return time.Now().UTC()
}

// NewID implements ports.IDGenerator.
func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// --- catalog ---

func (s *Store) SaveContest(_ context.Context, contest entities.Contest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contests[contest.ContestID] = contest
	return nil
}

func (s *Store) GetContest(_ context.Context, contestID string) (entities.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contest, ok := s.contests[strings.TrimSpace(contestID)]
	if !ok {
		return entities.Contest{}, domainerrors.ErrContestNotFound
	}
	return contest, nil
}

func (s *Store) SaveCategory(_ context.Context, category entities.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.ContestID == category.ContestID &&
			existing.Name == category.Name &&
			existing.CategoryID != category.CategoryID {
			return domainerrors.ErrDuplicateRecord
		}
	}
	s.categories[category.CategoryID] = category
	return nil
}

func (s *Store) GetCategory(_ context.Context, categoryID string) (entities.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getCategoryLocked(categoryID)
}

func (s *Store) getCategoryLocked(categoryID string) (entities.Category, error) {
	category, ok := s.categories[strings.TrimSpace(categoryID)]
	if !ok {
		return entities.Category{}, domainerrors.ErrCategoryNotFound
	}
	return category, nil
}

func (s *Store) ListCategoriesByContest(_ context.Context, contestID string) ([]entities.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Category, 0)
	for _, category := range s.categories {
		if category.ContestID == strings.TrimSpace(contestID) {
			items = append(items, category)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Order == items[j].Order {
			return items[i].Name < items[j].Name
		}
		return items[i].Order < items[j].Order
	})
	return items, nil
}

func (s *Store) DeleteCategory(_ context.Context, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[strings.TrimSpace(categoryID)]; !ok {
		return domainerrors.ErrCategoryNotFound
	}
	delete(s.categories, strings.TrimSpace(categoryID))
	return nil
}

func (s *Store) SaveCriteria(_ context.Context, criteria entities.JudgingCriteria) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria[criteria.CriteriaID] = criteria
	return nil
}

func (s *Store) GetCriteria(_ context.Context, criteriaID string) (entities.JudgingCriteria, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	criteria, ok := s.criteria[strings.TrimSpace(criteriaID)]
	if !ok {
		return entities.JudgingCriteria{}, domainerrors.ErrCriteriaNotFound
	}
	return criteria, nil
}

func (s *Store) ListCriteriaFor(_ context.Context, contestID string, categoryID string) ([]entities.JudgingCriteria, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.JudgingCriteria, 0)
	for _, criteria := range s.criteria {
		if criteria.ContestID != strings.TrimSpace(contestID) {
			continue
		}
		if criteria.AppliesTo(strings.TrimSpace(categoryID)) {
			items = append(items, criteria)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Order == items[j].Order {
			return items[i].Name < items[j].Name
		}
		return items[i].Order < items[j].Order
	})
	return items, nil
}

func (s *Store) DeleteCriteria(_ context.Context, criteriaID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.criteria[strings.TrimSpace(criteriaID)]; !ok {
		return domainerrors.ErrCriteriaNotFound
	}
	delete(s.criteria, strings.TrimSpace(criteriaID))
	return nil
}

// --- votes ---

func (s *Store) CreateVote(_ context.Context, vote entities.Vote, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.votes {
		if existing.EntryID == vote.EntryID &&
			existing.JudgeID == vote.JudgeID &&
			existing.CategoryID == vote.CategoryID &&
			existing.Stage == vote.Stage {
			return domainerrors.ErrDuplicateVote
		}
	}
	if limit > 0 {
		count := s.countVotesLocked(vote.ContestID, vote.JudgeID, vote.CategoryID, vote.Stage)
		if count >= limit {
			return domainerrors.QuotaExceededError{Limit: limit, Count: count}
		}
	}
	s.votes[vote.VoteID] = vote
	return nil
}

func (s *Store) DeleteVoteByIdentity(_ context.Context, entryID string, judgeID string, categoryID string, stage int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, vote := range s.votes {
		if vote.EntryID == strings.TrimSpace(entryID) &&
			vote.JudgeID == strings.TrimSpace(judgeID) &&
			vote.CategoryID == strings.TrimSpace(categoryID) &&
			vote.Stage == stage {
			delete(s.votes, id)
			return nil
		}
	}
	return domainerrors.ErrVoteNotFound
}

func (s *Store) GetVoteByIdentity(_ context.Context, entryID string, judgeID string, categoryID string, stage int) (entities.Vote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, vote := range s.votes {
		if vote.EntryID == strings.TrimSpace(entryID) &&
			vote.JudgeID == strings.TrimSpace(judgeID) &&
			vote.CategoryID == strings.TrimSpace(categoryID) &&
			vote.Stage == stage {
			return vote, true, nil
		}
	}
	return entities.Vote{}, false, nil
}

func (s *Store) CountVotes(_ context.Context, contestID string, judgeID string, categoryID string, stage int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countVotesLocked(contestID, judgeID, categoryID, stage), nil
}

func (s *Store) countVotesLocked(contestID string, judgeID string, categoryID string, stage int) int {
	count := 0
	for _, vote := range s.votes {
		if vote.ContestID == strings.TrimSpace(contestID) &&
			vote.JudgeID == strings.TrimSpace(judgeID) &&
			vote.CategoryID == strings.TrimSpace(categoryID) &&
			vote.Stage == stage {
			count++
		}
	}
	return count
}

func (s *Store) ListVotesByEntry(_ context.Context, entryID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.EntryID == strings.TrimSpace(entryID) {
			items = append(items, vote)
		}
	}
	sortVotes(items)
	return items, nil
}

func (s *Store) ListVotesByJudge(_ context.Context, contestID string, judgeID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.ContestID == strings.TrimSpace(contestID) && vote.JudgeID == strings.TrimSpace(judgeID) {
			items = append(items, vote)
		}
	}
	sortVotes(items)
	return items, nil
}

func (s *Store) ListVotesByContest(_ context.Context, contestID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Vote, 0)
	for _, vote := range s.votes {
		if vote.ContestID == strings.TrimSpace(contestID) {
			items = append(items, vote)
		}
	}
	sortVotes(items)
	return items, nil
}

// --- scores ---

func (s *Store) SaveScore(_ context.Context, score entities.JudgeScore, details []entities.DetailedScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.scores {
		if existing.EntryID == score.EntryID &&
			existing.JudgeID == score.JudgeID &&
			existing.CategoryID == score.CategoryID &&
			existing.Stage == score.Stage &&
			existing.ScoreID != score.ScoreID {
			return domainerrors.ErrDuplicateRecord
		}
	}
	if len(details) > 0 {
		score.TotalScore = entities.SumDetailedScores(details)
	}
	s.scores[score.ScoreID] = score
	s.details[score.ScoreID] = append([]entities.DetailedScore(nil), details...)
	return nil
}

func (s *Store) GetScore(_ context.Context, scoreID string) (entities.JudgeScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score, ok := s.scores[strings.TrimSpace(scoreID)]
	if !ok {
		return entities.JudgeScore{}, domainerrors.ErrScoreNotFound
	}
	return score, nil
}

func (s *Store) GetScoreByIdentity(_ context.Context, entryID string, judgeID string, categoryID string, stage int) (entities.JudgeScore, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, score := range s.scores {
		if score.EntryID == strings.TrimSpace(entryID) &&
			score.JudgeID == strings.TrimSpace(judgeID) &&
			score.CategoryID == strings.TrimSpace(categoryID) &&
			score.Stage == stage {
			return score, true, nil
		}
	}
	return entities.JudgeScore{}, false, nil
}

func (s *Store) ListDetailedScores(_ context.Context, scoreID string) ([]entities.DetailedScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.DetailedScore(nil), s.details[strings.TrimSpace(scoreID)]...), nil
}

func (s *Store) ListScoresByEntry(_ context.Context, entryID string) ([]entities.JudgeScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.JudgeScore, 0)
	for _, score := range s.scores {
		if score.EntryID == strings.TrimSpace(entryID) {
			items = append(items, score)
		}
	}
	sortScores(items)
	return items, nil
}

func (s *Store) ListScoresByJudge(_ context.Context, contestID string, judgeID string) ([]entities.JudgeScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.JudgeScore, 0)
	for _, score := range s.scores {
		if score.ContestID == strings.TrimSpace(contestID) && score.JudgeID == strings.TrimSpace(judgeID) {
			items = append(items, score)
		}
	}
	sortScores(items)
	return items, nil
}

func (s *Store) RecomputeTotal(_ context.Context, scoreID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	score, ok := s.scores[strings.TrimSpace(scoreID)]
	if !ok {
		return 0, domainerrors.ErrScoreNotFound
	}
	total := entities.SumDetailedScores(s.details[score.ScoreID])
	score.TotalScore = total
	s.scores[score.ScoreID] = score
	return total, nil
}

// --- views ---

func (s *Store) RecordView(_ context.Context, view entities.EntryView) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := view.EntryID + "|" + view.JudgeID
	if _, ok := s.views[key]; ok {
		return false, nil
	}
	s.views[key] = view
	return true, nil
}

func (s *Store) ListViewedEntryIDs(_ context.Context, contestID string, judgeID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listViewedLocked(contestID, judgeID), nil
}

func (s *Store) listViewedLocked(contestID string, judgeID string) []string {
	ids := make([]string, 0)
	for _, view := range s.views {
		if view.ContestID == strings.TrimSpace(contestID) && view.JudgeID == strings.TrimSpace(judgeID) {
			ids = append(ids, view.EntryID)
		}
	}
	sort.Strings(ids)
	return ids
}

// --- entries ---

func (s *Store) GetEntry(_ context.Context, entryID string) (ports.EntryProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[strings.TrimSpace(entryID)]
	if !ok {
		return ports.EntryProjection{}, domainerrors.ErrEntryNotFound
	}
	return entry, nil
}

func (s *Store) ListApprovedEntryIDs(_ context.Context, contestID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listApprovedLocked(contestID), nil
}

func (s *Store) listApprovedLocked(contestID string) []string {
	ids := make([]string, 0)
	for _, entry := range s.entries {
		if entry.ContestID == strings.TrimSpace(contestID) && entry.Approved {
			ids = append(ids, entry.EntryID)
		}
	}
	sort.Strings(ids)
	return ids
}

// --- stage advancement ---

// AdvanceCategoryStage holds the store lock across the gate evaluation so the
// re-check and the increment observe one consistent snapshot, mirroring the
// postgres adapter's transaction.
func (s *Store) AdvanceCategoryStage(
	ctx context.Context,
	categoryID string,
	fromStage int,
	gate ports.AdvancementGate,
) (entities.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, err := s.getCategoryLocked(categoryID)
	if err != nil {
		return entities.Category{}, err
	}
	if category.CurrentStage != fromStage {
		return entities.Category{}, domainerrors.ErrStaleAdvancement
	}
	if err := gate(ctx, lockedReader{store: s}); err != nil {
		return entities.Category{}, err
	}
	category.CurrentStage++
	category.UpdatedAt = time.Now().UTC()
	if s.now != nil {
		category.UpdatedAt = *s.now
	}
	s.categories[category.CategoryID] = category
	return category, nil
}

// lockedReader serves the gate while AdvanceCategoryStage already holds the
// store lock; it must not re-acquire it.
type lockedReader struct {
	store *Store
}

func (r lockedReader) ListApprovedEntryIDs(_ context.Context, contestID string) ([]string, error) {
	return r.store.listApprovedLocked(contestID), nil
}

func (r lockedReader) ListViewedEntryIDs(_ context.Context, contestID string, judgeID string) ([]string, error) {
	return r.store.listViewedLocked(contestID, judgeID), nil
}

func (r lockedReader) CountVotes(_ context.Context, contestID string, judgeID string, categoryID string, stage int) (int, error) {
	return r.store.countVotesLocked(contestID, judgeID, categoryID, stage), nil
}

// --- outbox ---

func (s *Store) AppendOutbox(_ context.Context, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := marshalEnvelope(event)
	if err != nil {
		return err
	}
	s.outbox = append(s.outbox, outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     uuid.NewString(),
			EventType:    event.EventType,
			PartitionKey: event.PartitionKey,
			Payload:      payload,
			CreatedAt:    event.OccurredAt,
		},
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0, limit)
	for _, record := range s.outbox {
		if record.sent {
			continue
		}
		items = append(items, record.message)
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == outboxID {
			s.outbox[i].sent = true
			return nil
		}
	}
	return nil
}

// PendingOutboxCount supports assertions on event emission in tests.
func (s *Store) PendingOutboxCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, record := range s.outbox {
		if !record.sent {
			count++
		}
	}
	return count
}

func marshalEnvelope(event ports.EventEnvelope) ([]byte, error) {
	return json.Marshal(event)
}

// Publisher collects published envelopes for relay tests.
type Publisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

type PublishedEvent struct {
	Topic string
	Event ports.EventEnvelope
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{Topic: topic, Event: event})
	return nil
}

func (p *Publisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PublishedEvent(nil), p.events...)
}

func sortVotes(items []entities.Vote) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].VoteID < items[j].VoteID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func sortScores(items []entities.JudgeScore) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ScoreID < items[j].ScoreID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
