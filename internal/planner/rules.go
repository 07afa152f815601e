// Package planner はアンケート回答からサプリメント推奨を生成するルール評価器を提供する。
// ルールは順序付きで、重み付けや乱数は使わない。
package planner

import (
	"slices"

	"github.com/hitoshi/youngeru/internal/model"
)

// 各ルールが追加する固定レコード。
var (
	vitaminD3 = model.Recommendation{
		Category:   "Vitamin D3",
		Why:        "Low sun exposure and energy goals suggest potential deficiency",
		Dose:       "2000-4000 IU daily",
		Timing:     "With breakfast (fat-soluble)",
		Evidence:   model.EvidenceA,
		Guardrails: "Monitor levels if taking >4000 IU long-term",
		FoodFirst:  "Fatty fish, egg yolks, fortified foods",
	}
	omega3 = model.Recommendation{
		Category:   "Omega-3 (EPA/DHA)",
		Why:        "Brain health support for focus and cognitive function",
		Dose:       "1-2g combined EPA/DHA daily",
		Timing:     "With meals to improve absorption",
		Evidence:   model.EvidenceA,
		Guardrails: "Consult doctor if on blood thinners",
		FoodFirst:  "Fatty fish 2-3x per week",
	}
	magnesiumGlycinate = model.Recommendation{
		Category:   "Magnesium Glycinate",
		Why:        "Supports muscle recovery and sleep quality",
		Dose:       "200-400mg before bed",
		Timing:     "30-60 minutes before sleep",
		Evidence:   model.EvidenceB,
		Guardrails: "Start low, may cause loose stools in some",
		FoodFirst:  "Dark leafy greens, nuts, seeds",
	}
)

// poorSleepThreshold 未満の睡眠品質はリカバリー目的と同様に扱う。
const poorSleepThreshold = 3

// Recommend は入力に対してルールを順に評価し、推奨リストを返す。
// 同じ入力には常に同じ出力を返し、各レコードは高々1回しか含まれない。
func Recommend(in model.PlannerInputs) []model.Recommendation {
	recs := make([]model.Recommendation, 0, 3)

	if slices.Contains(in.Goals, model.GoalEnergy) {
		recs = append(recs, vitaminD3)
	}
	if slices.Contains(in.Goals, model.GoalFocus) {
		recs = append(recs, omega3)
	}
	if slices.Contains(in.Goals, model.GoalRecovery) || in.SleepQuality < poorSleepThreshold {
		recs = append(recs, magnesiumGlycinate)
	}

	return recs
}
