package forecast

import (
	"fmt"
	"slices"

	"github.com/hitoshi/youngeru/internal/model"
)

// 予測期間の範囲（週）。
const (
	minHorizon = 1
	maxHorizon = 52
)

// Normalize は入力を検証し、習慣の重複を除いて返す。
func Normalize(in model.ForecastInputs) (model.ForecastInputs, error) {
	out := in

	habits := make([]string, 0, len(in.ActiveHabits))
	for _, h := range in.ActiveHabits {
		if !slices.Contains(model.ForecastHabitOptions, h) {
			return out, model.NewInvalidForecastInputError(fmt.Sprintf("unknown habit %q", h))
		}
		if !slices.Contains(habits, h) {
			habits = append(habits, h)
		}
	}
	if len(habits) == 0 {
		return out, model.NewInvalidForecastInputError("select at least one habit")
	}
	out.ActiveHabits = habits

	if out.Consistency < 0 || out.Consistency > 100 {
		return out, model.NewInvalidForecastInputError("consistency must be between 0 and 100")
	}
	if out.TimeHorizon < minHorizon || out.TimeHorizon > maxHorizon {
		return out, model.NewInvalidForecastInputError(fmt.Sprintf("time_horizon must be between %d and %d", minHorizon, maxHorizon))
	}

	return out, nil
}
