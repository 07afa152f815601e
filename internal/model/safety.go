package model

import "time"

// SafetyConditions はセーフティチェックで選択可能な既往症の一覧。
var SafetyConditions = []string{
	"High Blood Pressure",
	"Diabetes",
	"Heart Disease",
	"Kidney Disease",
	"Liver Disease",
	"Autoimmune Condition",
	"Blood Clotting Disorder",
	"Thyroid Condition",
}

// SafetyLevel は検出された懸念の重大度を表す。
type SafetyLevel string

const (
	SafetyLevelSafe    SafetyLevel = "safe"
	SafetyLevelCaution SafetyLevel = "caution"
	SafetyLevelWarning SafetyLevel = "warning"
)

// SafetyInputs はセーフティチェックの入力を表す。
type SafetyInputs struct {
	Supplements []string `json:"supplements"`
	Medications []string `json:"medications"`
	Conditions  []string `json:"conditions"`
	IsPregnant  bool     `json:"is_pregnant"`
	IsNursing   bool     `json:"is_nursing"`
}

// SafetyResult はセーフティチェックの判定1件を表す。
type SafetyResult struct {
	Level   SafetyLevel `json:"level"`
	Message string      `json:"message"`
	Details string      `json:"details,omitempty"`
}

// SafetyCheck は保存されたセーフティチェックを表す。
// 妊娠・授乳フラグは保存しない。
type SafetyCheck struct {
	ID          int64
	UserID      string
	Supplements []string
	Meds        []string
	Conditions  []string
	Result      []SafetyResult
	CreatedAt   time.Time
}
