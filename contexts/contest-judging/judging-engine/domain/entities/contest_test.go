package entities

import (
	"testing"
	"time"
)

func TestContestPhaseBoundaries(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	votingEnd := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	contest := Contest{
		StartAt:     start,
		EndAt:       end,
		VotingEndAt: &votingEnd,
	}

	cases := []struct {
		name string
		now  time.Time
		want Phase
	}{
		{"before start", start.Add(-time.Second), PhaseUpcoming},
		{"at start", start, PhaseSubmission},
		{"mid window", start.Add(48 * time.Hour), PhaseSubmission},
		{"at end", end, PhaseSubmission},
		{"after end", end.Add(time.Second), PhaseVoting},
		{"at voting end", votingEnd, PhaseVoting},
		{"after voting end", votingEnd.Add(time.Second), PhaseClosed},
	}
	for _, tc := range cases {
		if got := contest.Phase(tc.now); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestContestPhaseWithoutVotingWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	contest := Contest{StartAt: start, EndAt: end}

	if got := contest.Phase(end); got != PhaseSubmission {
		t.Fatalf("expected submission at end, got %s", got)
	}
	if got := contest.Phase(end.Add(time.Second)); got != PhaseClosed {
		t.Fatalf("expected closed after end without voting window, got %s", got)
	}
	if contest.JudgingOpen(end.Add(time.Second)) {
		t.Fatalf("judging must close with the contest")
	}
	if !contest.JudgingOpen(start.Add(time.Hour)) {
		t.Fatalf("judging must be open during submission")
	}
}

func TestCategoryQuotaResolution(t *testing.T) {
	category := Category{
		MaxVotesPerJudge: 3,
		EnableStages:     true,
		StageCount:       3,
		StageSettings: []StageSetting{
			{StageNumber: 2, Name: "Semifinal", MaxVotes: 5},
		},
	}

	// Stage override wins, then the category quota, then the contest default.
	if got := category.MaxVotes(2, 1); got != 5 {
		t.Fatalf("expected stage override 5, got %d", got)
	}
	if got := category.MaxVotes(1, 1); got != 3 {
		t.Fatalf("expected category quota 3, got %d", got)
	}
	category.MaxVotesPerJudge = 0
	if got := category.MaxVotes(1, 7); got != 7 {
		t.Fatalf("expected contest default 7, got %d", got)
	}
	category.EnableStages = false
	if got := category.MaxVotes(2, 7); got != 7 {
		t.Fatalf("stage overrides must not apply when stages are disabled, got %d", got)
	}
}

func TestCategoryStageHelpers(t *testing.T) {
	category := Category{
		EnableStages: true,
		StageCount:   3,
		CurrentStage: 1,
		StageSettings: []StageSetting{
			{StageNumber: 1, Name: "Qualifying"},
		},
	}
	if !category.ValidStage(3) || category.ValidStage(4) || category.ValidStage(0) {
		t.Fatalf("stage range check failed")
	}
	if got := category.StageName(1); got != "Qualifying" {
		t.Fatalf("expected configured name, got %q", got)
	}
	if got := category.StageName(2); got != "Stage 2" {
		t.Fatalf("expected synthesized name, got %q", got)
	}
	if category.AtFinalStage() {
		t.Fatalf("stage 1 of 3 is not final")
	}
	category.CurrentStage = 3
	if !category.AtFinalStage() {
		t.Fatalf("stage 3 of 3 is final")
	}

	single := Category{EnableStages: false, StageCount: 5}
	if got := single.EffectiveStageCount(); got != 1 {
		t.Fatalf("expected single round when stages disabled, got %d", got)
	}
}
