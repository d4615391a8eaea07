package commands

import (
	"encoding/json"
	"time"

	"photojury/contexts/contest-judging/judging-engine/ports"
)

func newJudgingEnvelope(
	eventID string,
	eventType string,
	entryID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Command-side events are partitioned by entry for stable ordering on
	// entry-scoped consumers.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "judging-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "entry_id",
		PartitionKey:     entryID,
		Data:             payload,
	}, nil
}
