package unit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	judgingengine "photojury/contexts/contest-judging/judging-engine"
	"photojury/contexts/contest-judging/judging-engine/adapters/memory"
	"photojury/contexts/contest-judging/judging-engine/application/workers"
	domainerrors "photojury/contexts/contest-judging/judging-engine/domain/errors"
	"photojury/contexts/contest-judging/judging-engine/ports"
	httptransport "photojury/contexts/contest-judging/judging-engine/transport/http"
)

// recordingBus registers handlers synchronously so tests can drive consumers
// without a broker.
type recordingBus struct {
	handlers map[string]func(context.Context, ports.EventEnvelope) error
}

func newRecordingBus() *recordingBus {
	return &recordingBus{handlers: map[string]func(context.Context, ports.EventEnvelope) error{}}
}

func (b *recordingBus) Subscribe(
	_ context.Context,
	topic string,
	_ string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	b.handlers[topic] = handler
	return nil
}

func (b *recordingBus) deliver(t *testing.T, topic string, event ports.EventEnvelope) {
	t.Helper()
	handler, ok := b.handlers[topic]
	if !ok {
		t.Fatalf("no handler registered for topic %s", topic)
	}
	if err := handler(context.Background(), event); err != nil {
		t.Fatalf("handler for %s failed: %v", topic, err)
	}
}

func TestOutboxRelayPublishesPendingEvents(t *testing.T) {
	module := newJudgingModule(t)
	contest := configureContest(t, module, "vote", 0, []string{"judge-1"})
	seedEntries(module, contest.ContestID, "entry-1", "entry-2")

	for _, entryID := range []string{"entry-1", "entry-2"} {
		if _, err := module.Handler.CastVoteHandler(context.Background(), "judge-1", httptransport.CastVoteRequest{
			EntryID: entryID,
		}); err != nil {
			t.Fatalf("cast vote failed: %v", err)
		}
	}
	if got := module.Store.PendingOutboxCount(); got != 2 {
		t.Fatalf("expected 2 pending outbox rows, got %d", got)
	}

	publisher := memory.NewPublisher()
	relay := module.Relay
	relay.Publisher = publisher
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}

	events := publisher.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(events))
	}
	for _, published := range events {
		if published.Topic != "vote.cast" {
			t.Fatalf("expected topic vote.cast, got %s", published.Topic)
		}
		if published.Event.SourceService != "judging-engine" {
			t.Fatalf("unexpected source service %s", published.Event.SourceService)
		}
	}
	if got := module.Store.PendingOutboxCount(); got != 0 {
		t.Fatalf("expected outbox drained, got %d pending", got)
	}

	// A second cycle with nothing pending is a no-op.
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("idle relay run failed: %v", err)
	}
	if len(publisher.Events()) != 2 {
		t.Fatalf("idle cycle must not republish")
	}
}

func TestEntryLifecycleConsumerMaintainsProjection(t *testing.T) {
	module := judgingengine.NewInMemoryModule(nil)
	bus := newRecordingBus()
	consumer := workers.EntryLifecycleConsumer{
		Subscriber: bus,
		Entries:    module.Store,
	}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("consumer start failed: %v", err)
	}

	entryEvent := func(eventType, entryID string, approved bool) ports.EventEnvelope {
		payload, err := json.Marshal(map[string]any{
			"entry_id":   entryID,
			"contest_id": "contest-1",
			"author_id":  "author-1",
			"approved":   approved,
		})
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		return ports.EventEnvelope{
			EventID:   "event-" + eventType + "-" + entryID,
			EventType: eventType,
			Data:      payload,
		}
	}

	bus.deliver(t, "entry.submitted", entryEvent("entry.submitted", "entry-1", false))
	entry, err := module.Store.GetEntry(context.Background(), "entry-1")
	if err != nil {
		t.Fatalf("projection missing after submit: %v", err)
	}
	if entry.Approved {
		t.Fatalf("submitted entry must not be approved yet")
	}

	bus.deliver(t, "entry.approved", entryEvent("entry.approved", "entry-1", false))
	entry, err = module.Store.GetEntry(context.Background(), "entry-1")
	if err != nil {
		t.Fatalf("projection missing after approval: %v", err)
	}
	if !entry.Approved {
		t.Fatalf("approval event must mark the entry approved")
	}

	bus.deliver(t, "entry.rejected", entryEvent("entry.rejected", "entry-1", true))
	entry, err = module.Store.GetEntry(context.Background(), "entry-1")
	if err != nil {
		t.Fatalf("projection missing after rejection: %v", err)
	}
	if entry.Approved {
		t.Fatalf("rejection event must clear approval")
	}

	// Malformed events surface as invalid input, not silent drops.
	handler := bus.handlers["entry.submitted"]
	err = handler(context.Background(), ports.EventEnvelope{
		EventID:   "event-bad",
		EventType: "entry.submitted",
		Data:      json.RawMessage(`{"entry_id": ""}`),
	})
	if !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty entry id, got %v", err)
	}
}
