package model

import "time"

// HabitSchedule は習慣の実施スケジュールを表す。現状は daily のみ。
type HabitSchedule struct {
	Type string `json:"type"`
}

// DefaultHabitSchedule は未指定時のスケジュール。
var DefaultHabitSchedule = HabitSchedule{Type: "daily"}

// Habit はユーザーが定義した繰り返し行動を表す。
type Habit struct {
	ID           int64
	UserID       string
	Title        string
	Schedule     HabitSchedule
	ReminderTime *string // "HH:MM"、未設定はnil
	CreatedAt    time.Time
}

// HabitLog は習慣の日次達成記録を表す。
// habit_id と date の組は一意。
type HabitLog struct {
	ID      int64
	HabitID int64
	UserID  string
	Date    time.Time // 日付のみ有効
	Done    bool
}

// HabitWithStatus は習慣と、読み出し時に導出したストリーク・当日達成状態を結合したモデル。
type HabitWithStatus struct {
	Habit
	Streak    int
	DoneToday bool
}

// DueReminder はリマインダー送信対象の習慣を表す。
type DueReminder struct {
	HabitID int64
	UserID  string
	Title   string
}
