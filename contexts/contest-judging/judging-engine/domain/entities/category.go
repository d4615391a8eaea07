package entities

import (
	"fmt"
	"time"
)

// StageSetting is one stage's explicit configuration. Stages without an
// explicit setting inherit the category/contest quota and a synthesized name.
type StageSetting struct {
	StageNumber int
	Name        string
	MaxVotes    int
}

// Category is an independently judged award/division inside a contest.
// Categories never own entries: any approved entry in the contest may be
// voted or scored under any category, the association lives on the vote or
// score record itself.
type Category struct {
	CategoryID       string
	ContestID        string
	Name             string
	Order            int
	MaxVotesPerJudge int // 0 inherits the contest default
	EnableStages     bool
	StageCount       int
	StageSettings    []StageSetting
	CurrentStage     int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EffectiveStageCount is 1 for single-round categories regardless of what the
// stored stage count says.
func (c Category) EffectiveStageCount() int {
	if !c.EnableStages || c.StageCount < 1 {
		return 1
	}
	return c.StageCount
}

// ValidStage reports whether a stage number addresses an existing round.
func (c Category) ValidStage(stage int) bool {
	return stage >= 1 && stage <= c.EffectiveStageCount()
}

// MaxVotes resolves the quota for one stage: explicit stage override first,
// then the category quota, then the contest default.
func (c Category) MaxVotes(stage int, contestDefault int) int {
	if c.EnableStages {
		if setting, ok := c.stageSetting(stage); ok && setting.MaxVotes > 0 {
			return setting.MaxVotes
		}
	}
	if c.MaxVotesPerJudge > 0 {
		return c.MaxVotesPerJudge
	}
	return contestDefault
}

// StageName returns the configured stage name or a synthesized label.
func (c Category) StageName(stage int) string {
	if setting, ok := c.stageSetting(stage); ok && setting.Name != "" {
		return setting.Name
	}
	return fmt.Sprintf("Stage %d", stage)
}

// AtFinalStage reports whether judging has already reached the last round.
func (c Category) AtFinalStage() bool {
	return c.CurrentStage >= c.EffectiveStageCount()
}

func (c Category) stageSetting(stage int) (StageSetting, bool) {
	for _, setting := range c.StageSettings {
		if setting.StageNumber == stage {
			return setting, true
		}
	}
	return StageSetting{}, false
}
