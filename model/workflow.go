package model

import (
	"fmt"
	"strings"
)

// Stage is a position in the brand -> strategy -> script -> production -> optimization flow
type Stage string

const (
	StageStart                  Stage = "start"
	StageBrandSetup             Stage = "brand_setup"
	StageMarketingContextSetup  Stage = "marketing_context_setup"
	StageBrandComplete          Stage = "brand_complete"
	StageVideoTypeSelection     Stage = "video_type_selection"
	StageVideoStrategySelection Stage = "video_strategy_selection"
	StageStrategyIdeasShown     Stage = "strategy_ideas_shown"
	StageStrategySelected       Stage = "strategy_selected"
	StageScriptDevelopment      Stage = "script_development"
	StageScriptPresented        Stage = "script_presented"
	StageScriptApproved         Stage = "script_approved"
	StageVideoProduction        Stage = "video_production"
	StageVideoGenerating        Stage = "video_generating"
	StageVideoGenerated         Stage = "video_generated"
	StageVideoOptimization      Stage = "video_optimization"
	StageOptimizationComplete   Stage = "optimization_complete"
	StageComplete               Stage = "complete"
	StageError                  Stage = "error"
)

var allStages = []Stage{
	StageStart,
	StageBrandSetup,
	StageMarketingContextSetup,
	StageBrandComplete,
	StageVideoTypeSelection,
	StageVideoStrategySelection,
	StageStrategyIdeasShown,
	StageStrategySelected,
	StageScriptDevelopment,
	StageScriptPresented,
	StageScriptApproved,
	StageVideoProduction,
	StageVideoGenerating,
	StageVideoGenerated,
	StageVideoOptimization,
	StageOptimizationComplete,
	StageComplete,
	StageError,
}

// transitions is the declared workflow topology. Stages missing from the map
// have no outgoing edges.
var transitions = map[Stage][]Stage{
	StageStart:                  {StageBrandSetup},
	StageBrandSetup:             {StageMarketingContextSetup, StageBrandComplete},
	StageMarketingContextSetup:  {StageBrandComplete},
	StageBrandComplete:          {StageVideoTypeSelection},
	StageVideoTypeSelection:     {StageVideoStrategySelection},
	StageVideoStrategySelection: {StageStrategyIdeasShown},
	StageStrategyIdeasShown:     {StageStrategySelected},
	StageStrategySelected:       {StageScriptDevelopment},
	StageScriptDevelopment:      {StageScriptPresented},
	StageScriptPresented:        {StageScriptApproved, StageScriptDevelopment},
	StageScriptApproved:         {StageVideoProduction},
	StageVideoProduction:        {StageVideoGenerating},
	StageVideoGenerating:        {StageVideoGenerated},
	StageVideoGenerated:         {StageVideoOptimization, StageComplete},
	StageVideoOptimization:      {StageOptimizationComplete},
	StageOptimizationComplete:   {StageComplete, StageVideoTypeSelection},
	StageComplete:               {StageVideoTypeSelection},
	StageError:                  {StageStart, StageVideoTypeSelection},
}

func init() {
	if err := validateTransitions(); err != nil {
		panic(err)
	}
}

func validateTransitions() error {
	for from, targets := range transitions {
		if !from.IsValid() {
			return fmt.Errorf("workflow table: unknown source stage %q", from)
		}
		for _, to := range targets {
			if !to.IsValid() {
				return fmt.Errorf("workflow table: unknown target stage %q from %q", to, from)
			}
		}
	}
	return nil
}

// AllStages returns every declared stage in flow order
func AllStages() []Stage {
	out := make([]Stage, len(allStages))
	copy(out, allStages)
	return out
}

// IsValid reports whether s belongs to the stage enumeration
func (s Stage) IsValid() bool {
	for _, st := range allStages {
		if st == s {
			return true
		}
	}
	return false
}

func (s Stage) String() string {
	return string(s)
}

// ParseStage converts a raw string into a Stage
func ParseStage(raw string) (Stage, error) {
	s := Stage(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown workflow stage %q", raw)
	}
	return s, nil
}

// IsValidTransition reports whether to is a declared outgoing edge of from
func IsValidTransition(from, to Stage) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidNextStates returns the declared outgoing edges of s (empty for terminal stages)
func ValidNextStates(s Stage) []Stage {
	next := transitions[s]
	out := make([]Stage, len(next))
	copy(out, next)
	return out
}
