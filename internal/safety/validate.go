package safety

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hitoshi/youngeru/internal/model"
)

// maxEntries は自由入力リストごとの最大件数。
const maxEntries = 50

// Normalize は自由入力の前後空白を除き、空要素と重複（先勝ち）を取り除く。
// 既往症は定義済みの一覧に含まれるもののみ受け付ける。
func Normalize(in model.SafetyInputs) (model.SafetyInputs, error) {
	out := in
	out.Supplements = cleanList(in.Supplements)
	out.Medications = cleanList(in.Medications)
	out.Conditions = cleanList(in.Conditions)

	if len(out.Supplements) > maxEntries || len(out.Medications) > maxEntries {
		return out, model.NewInvalidSafetyInputError(fmt.Sprintf("at most %d entries per list", maxEntries))
	}
	for _, c := range out.Conditions {
		if !slices.Contains(model.SafetyConditions, c) {
			return out, model.NewInvalidSafetyInputError(fmt.Sprintf("unknown condition %q", c))
		}
	}
	return out, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || slices.Contains(out, s) {
			continue
		}
		out = append(out, s)
	}
	return out
}
