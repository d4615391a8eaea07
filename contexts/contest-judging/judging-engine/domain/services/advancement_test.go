package services

import (
	"errors"
	"strings"
	"testing"

	domainerrors "photojury/contexts/contest-judging/judging-engine/domain/errors"
)

func TestEvaluateStageReadinessChecksCompletenessFirst(t *testing.T) {
	// judge-b is short on both views and votes; judge-c is short only on
	// votes. Completeness failures must be reported for the whole panel
	// before any quota failure.
	progress := []JudgeStageProgress{
		{JudgeID: "judge-a", ViewedEntries: 4, TotalEntries: 4, Votes: 3, RequiredVotes: 3},
		{JudgeID: "judge-b", ViewedEntries: 2, TotalEntries: 4, Votes: 0, RequiredVotes: 3},
		{JudgeID: "judge-c", ViewedEntries: 4, TotalEntries: 4, Votes: 1, RequiredVotes: 3},
	}

	err := EvaluateStageReadiness(progress)
	if !errors.Is(err, domainerrors.ErrNotReady) {
		t.Fatalf("expected not-ready error, got %v", err)
	}
	var blocked domainerrors.AdvancementBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected AdvancementBlockedError, got %T", err)
	}
	if blocked.JudgeID != "judge-b" {
		t.Fatalf("expected judge-b to block, got %s", blocked.JudgeID)
	}
	if !strings.Contains(blocked.Reason, "has not viewed all entries (2 of 4)") {
		t.Fatalf("unexpected reason: %s", blocked.Reason)
	}
}

func TestEvaluateStageReadinessQuotaFailure(t *testing.T) {
	progress := []JudgeStageProgress{
		{JudgeID: "judge-a", ViewedEntries: 2, TotalEntries: 2, Votes: 3, RequiredVotes: 3},
		{JudgeID: "judge-b", ViewedEntries: 2, TotalEntries: 2, Votes: 1, RequiredVotes: 3},
	}

	err := EvaluateStageReadiness(progress)
	var blocked domainerrors.AdvancementBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected AdvancementBlockedError, got %v", err)
	}
	if blocked.JudgeID != "judge-b" {
		t.Fatalf("expected judge-b to block, got %s", blocked.JudgeID)
	}
	if !strings.Contains(blocked.Reason, "has cast 1 of 3 required votes") {
		t.Fatalf("unexpected reason: %s", blocked.Reason)
	}
}

func TestEvaluateStageReadinessPasses(t *testing.T) {
	progress := []JudgeStageProgress{
		{JudgeID: "judge-a", ViewedEntries: 2, TotalEntries: 2, Votes: 3, RequiredVotes: 3},
		{JudgeID: "judge-b", ViewedEntries: 2, TotalEntries: 2, Votes: 5, RequiredVotes: 3},
	}
	if err := EvaluateStageReadiness(progress); err != nil {
		t.Fatalf("expected ready, got %v", err)
	}
}

func TestEvaluateStageReadinessEmptyPanel(t *testing.T) {
	// A contest with no judges has nothing blocking advancement.
	if err := EvaluateStageReadiness(nil); err != nil {
		t.Fatalf("expected ready for empty panel, got %v", err)
	}
}
