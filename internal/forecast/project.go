// Package forecast は習慣の継続度から将来のウェルネススコアを予測する。
// 予測は単純なヒューリスティックで、統計モデルではない。
package forecast

import (
	"math"

	"github.com/hitoshi/youngeru/internal/model"
)

const (
	baseline       = 5.0  // 全指標の初期値
	maxScore       = 10.0 // 指標の上限
	maxImprovement = 3.0  // 改善幅の上限
	weeklyRate     = 0.2  // 全習慣・継続度100%のときの週あたり改善幅
	plateauWeek    = 8    // この週を超えると伸びが鈍化する
	plateauFactor  = 0.8
	focusFactor    = 0.9
	recoveryFactor = 1.1
)

// Project は week=0 から TimeHorizon までの各週の予測値を返す。
// 結果の長さは TimeHorizon+1 で、各値は maxScore を超えない。
func Project(in model.ForecastInputs) []model.ProjectionPoint {
	rate := float64(in.Consistency) / 100 * weeklyRate *
		(float64(len(in.ActiveHabits)) / float64(len(model.ForecastHabitOptions)))

	points := make([]model.ProjectionPoint, 0, in.TimeHorizon+1)
	for week := 0; week <= in.TimeHorizon; week++ {
		improvement := math.Min(rate*float64(week), maxImprovement)
		factor := 1.0
		if week > plateauWeek {
			factor = plateauFactor
		}
		gain := improvement * factor

		points = append(points, model.ProjectionPoint{
			Week:     week,
			Energy:   math.Min(maxScore, baseline+gain),
			Focus:    math.Min(maxScore, baseline+gain*focusFactor),
			Recovery: math.Min(maxScore, baseline+gain*recoveryFactor),
		})
	}
	return points
}
