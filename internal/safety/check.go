// Package safety はサプリメントと薬・既往症の組み合わせに対する簡易セーフティチェックを提供する。
// 判定は固定ルールのみで、医療的助言の代替ではない。
package safety

import (
	"slices"
	"strings"

	"github.com/hitoshi/youngeru/internal/model"
)

// 抗凝固薬として扱う薬名の部分文字列（小文字）。
var bloodThinners = []string{"warfarin", "coumadin"}

// Check は独立した各ルールを順に評価し、該当した結果を返す。
// どのルールにも該当しない場合は safe の結果をちょうど1件返す。
func Check(in model.SafetyInputs) []model.SafetyResult {
	var results []model.SafetyResult

	if in.IsPregnant || in.IsNursing {
		results = append(results, model.SafetyResult{
			Level:   model.SafetyLevelWarning,
			Message: "Pregnancy/Nursing Status",
			Details: "Many supplements are not recommended during pregnancy or nursing. Consult your healthcare provider before taking any supplements.",
		})
	}

	if slices.Contains(in.Supplements, "Omega-3") && anyMedicationContains(in.Medications, bloodThinners) {
		results = append(results, model.SafetyResult{
			Level:   model.SafetyLevelCaution,
			Message: "Omega-3 + Blood Thinners",
			Details: "Omega-3 supplements may increase bleeding risk when combined with anticoagulants. Monitor closely with your doctor.",
		})
	}

	if slices.Contains(in.Supplements, "Vitamin D") && slices.Contains(in.Conditions, "Kidney Disease") {
		results = append(results, model.SafetyResult{
			Level:   model.SafetyLevelCaution,
			Message: "Vitamin D + Kidney Disease",
			Details: "High doses of Vitamin D may worsen kidney function. Regular monitoring recommended.",
		})
	}

	if len(in.Medications) > 0 && len(in.Supplements) > 0 {
		results = append(results, model.SafetyResult{
			Level:   model.SafetyLevelCaution,
			Message: "Multiple Medications + Supplements",
			Details: "You are taking multiple medications with supplements. Consider discussing all interactions with your pharmacist or doctor.",
		})
	}

	if len(results) == 0 {
		results = append(results, model.SafetyResult{
			Level:   model.SafetyLevelSafe,
			Message: "No Major Interactions Detected",
			Details: "Based on the information provided, no major safety concerns were identified. However, this is not a substitute for professional medical advice.",
		})
	}

	return results
}

// anyMedicationContains は薬名のいずれかが needles のいずれかを大文字小文字を無視して含むかを返す。
func anyMedicationContains(meds []string, needles []string) bool {
	for _, m := range meds {
		lower := strings.ToLower(m)
		for _, n := range needles {
			if strings.Contains(lower, n) {
				return true
			}
		}
	}
	return false
}

// HighestLevel は結果の中で最も重い重大度を返す。
func HighestLevel(results []model.SafetyResult) model.SafetyLevel {
	level := model.SafetyLevelSafe
	for _, r := range results {
		switch r.Level {
		case model.SafetyLevelWarning:
			return model.SafetyLevelWarning
		case model.SafetyLevelCaution:
			level = model.SafetyLevelCaution
		}
	}
	return level
}
