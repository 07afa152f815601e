// Package habit は習慣の作成・日次トグルと、ログからのストリーク算出を提供する。
package habit

import (
	"slices"
	"time"

	"github.com/hitoshi/youngeru/internal/model"
)

// Streak は today から遡って連続して達成している日数を返す。
// done のログを日付の新しい順に並べ、i 番目が today の i 日前と一致する間だけ数える。
// 日付の比較は today のロケーションにおける暦日で行う。
func Streak(logs []model.HabitLog, today time.Time) int {
	days := make([]time.Time, 0, len(logs))
	for _, l := range logs {
		if l.Done {
			days = append(days, civilDate(l.Date, time.UTC))
		}
	}
	slices.SortFunc(days, func(a, b time.Time) int { return b.Compare(a) })

	base := civilDate(today, today.Location())
	streak := 0
	for i, d := range days {
		if !d.Equal(base.AddDate(0, 0, -i)) {
			break
		}
		streak++
	}
	return streak
}

// DoneOn は date の暦日に done のログがあるかを返す。
func DoneOn(logs []model.HabitLog, date time.Time) bool {
	day := civilDate(date, date.Location())
	for _, l := range logs {
		if l.Done && civilDate(l.Date, time.UTC).Equal(day) {
			return true
		}
	}
	return false
}

// civilDate は loc における t の暦日を UTC 0時の時刻として返す。
// ログの日付はリポジトリから UTC 0時で返るため、比較はこの形に揃える。
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
