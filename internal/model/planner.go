package model

import "time"

// プランナーで選択可能なゴール。
const (
	GoalEnergy   = "Energy"
	GoalFocus    = "Focus"
	GoalRecovery = "Recovery"
)

// PlannerGoals は選択可能なゴールの一覧。
var PlannerGoals = []string{GoalEnergy, GoalFocus, GoalRecovery}

// EvidenceLevel は研究の裏付けの強さを表す編集上のラベル（A/B/C）。
type EvidenceLevel string

const (
	EvidenceA EvidenceLevel = "A"
	EvidenceB EvidenceLevel = "B"
	EvidenceC EvidenceLevel = "C"
)

// PlannerInputs はプランナーのアンケート回答を表す。
// planner_sessions.inputs にそのままJSONで保存される。
type PlannerInputs struct {
	Goals          []string `json:"goals"`
	Diet           string   `json:"diet"`
	FishIntake     string   `json:"fish_intake"`
	SunExposure    string   `json:"sun_exposure"`
	SleepQuality   int      `json:"sleep_quality"`
	Stress         int      `json:"stress"`
	Budget         string   `json:"budget"`
	Sensitivities  []string `json:"sensitivities"`
	MedsConditions string   `json:"meds_conditions"`
}

// Recommendation はルール評価で生成される推奨1件を表す。
type Recommendation struct {
	Category   string        `json:"category"`
	Why        string        `json:"why"`
	Dose       string        `json:"dose"`
	Timing     string        `json:"timing"`
	Evidence   EvidenceLevel `json:"evidence"`
	Guardrails string        `json:"guardrails"`
	FoodFirst  string        `json:"food_first"`
}

// PlannerSession は入力と生成された推奨リストの組を表す。
type PlannerSession struct {
	ID        int64
	UserID    string
	Inputs    PlannerInputs
	Output    []Recommendation
	CreatedAt time.Time
}
