package model

import "time"

// ForecastHabitOptions はフォーキャストで選択可能な習慣の一覧。
// 改善率は選択数をこの一覧の件数で割った比率に比例する。
var ForecastHabitOptions = []string{
	"Vitamin D3",
	"Omega-3",
	"Magnesium",
	"Regular Exercise",
	"Quality Sleep",
	"Stress Management",
}

// ForecastInputs はフォーキャストの入力を表す。
type ForecastInputs struct {
	ActiveHabits []string `json:"active_habits"`
	Consistency  int      `json:"consistency"`  // 0-100（%）
	TimeHorizon  int      `json:"time_horizon"` // 週数
}

// ProjectionPoint は1週分の予測スコアを表す。各値は0-10のスケール。
type ProjectionPoint struct {
	Week     int     `json:"week"`
	Energy   float64 `json:"energy"`
	Focus    float64 `json:"focus"`
	Recovery float64 `json:"recovery"`
}

// Forecast は保存されたフォーキャストを表す。
type Forecast struct {
	ID         int64
	UserID     string
	Inputs     ForecastInputs
	Projection []ProjectionPoint
	CreatedAt  time.Time
}
