package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	application "photojury/contexts/contest-judging/judging-engine/application"
	domainerrors "photojury/contexts/contest-judging/judging-engine/domain/errors"
	"photojury/contexts/contest-judging/judging-engine/ports"
)

const (
	entrySubmittedTopic = "entry.submitted"
	entryApprovedTopic  = "entry.approved"
	entryRejectedTopic  = "entry.rejected"
	defaultEntryCG      = "judging-engine-entry-cg"
)

// EntryLifecycleConsumer keeps the local entry projection current. The
// submission pipeline owns entries; this consumer only mirrors identity,
// contest membership and approval state so judging never calls out of the
// module on the hot path.
type EntryLifecycleConsumer struct {
	Subscriber    ports.EventSubscriber
	Entries       ports.EntryWriter
	ConsumerGroup string
	Logger        *slog.Logger
}

func (c EntryLifecycleConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultEntryCG
	}
	for _, topic := range []string{entrySubmittedTopic, entryApprovedTopic, entryRejectedTopic} {
		if err := c.Subscriber.Subscribe(ctx, topic, group, c.handleEntryEvent); err != nil {
			logger.Error("entry consumer subscribe failed",
				"event", "judging_entry_consumer_subscribe_failed",
				"module", "contest-judging/judging-engine",
				"layer", "worker",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("entry consumer subscriptions active",
		"event", "judging_entry_consumer_started",
		"module", "contest-judging/judging-engine",
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (c EntryLifecycleConsumer) handleEntryEvent(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)

	var payload struct {
		EntryID   string `json:"entry_id"`
		ContestID string `json:"contest_id"`
		AuthorID  string `json:"author_id"`
		Approved  bool   `json:"approved"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("entry event payload decode failed",
			"event", "judging_entry_event_decode_failed",
			"module", "contest-judging/judging-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return err
	}
	if strings.TrimSpace(payload.EntryID) == "" || strings.TrimSpace(payload.ContestID) == "" {
		return domainerrors.ErrInvalidInput
	}

	// entry.approved implies approval regardless of the payload flag;
	// entry.rejected clears it.
	approved := payload.Approved
	switch event.EventType {
	case entryApprovedTopic:
		approved = true
	case entryRejectedTopic:
		approved = false
	}

	if err := c.Entries.UpsertEntry(ctx, ports.EntryProjection{
		EntryID:   strings.TrimSpace(payload.EntryID),
		ContestID: strings.TrimSpace(payload.ContestID),
		AuthorID:  strings.TrimSpace(payload.AuthorID),
		Approved:  approved,
	}); err != nil {
		return err
	}

	logger.Info("entry projection updated",
		"event", "judging_entry_projection_updated",
		"module", "contest-judging/judging-engine",
		"layer", "worker",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"entry_id", strings.TrimSpace(payload.EntryID),
		"approved", approved,
	)
	return nil
}
