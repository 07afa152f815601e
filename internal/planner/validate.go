package planner

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hitoshi/youngeru/internal/model"
)

// スライダー項目の既定値と範囲。
const (
	defaultScale = 3
	minScale     = 1
	maxScale     = 5
)

// Normalize は入力を正規化・検証する。
// ゴールは重複を除き、睡眠品質とストレスの未入力（0）は既定値3とする。
func Normalize(in model.PlannerInputs) (model.PlannerInputs, error) {
	out := in

	goals := make([]string, 0, len(in.Goals))
	for _, g := range in.Goals {
		g = strings.TrimSpace(g)
		if !slices.Contains(model.PlannerGoals, g) {
			return out, model.NewInvalidPlannerInputError(fmt.Sprintf("unknown goal %q", g))
		}
		if !slices.Contains(goals, g) {
			goals = append(goals, g)
		}
	}
	out.Goals = goals

	if out.SleepQuality == 0 {
		out.SleepQuality = defaultScale
	}
	if out.Stress == 0 {
		out.Stress = defaultScale
	}
	if out.SleepQuality < minScale || out.SleepQuality > maxScale {
		return out, model.NewInvalidPlannerInputError("sleep_quality must be between 1 and 5")
	}
	if out.Stress < minScale || out.Stress > maxScale {
		return out, model.NewInvalidPlannerInputError("stress must be between 1 and 5")
	}

	if out.Diet != "" && !slices.Contains(model.DietPatterns, out.Diet) {
		return out, model.NewInvalidPlannerInputError(fmt.Sprintf("unknown diet %q", out.Diet))
	}

	if out.Sensitivities == nil {
		out.Sensitivities = []string{}
	}
	out.MedsConditions = strings.TrimSpace(out.MedsConditions)

	return out, nil
}
