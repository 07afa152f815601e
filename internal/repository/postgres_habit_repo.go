package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/youngeru/internal/model"
)

// dateLayout はDATE列との受け渡しに使う書式。
// タイムゾーン変換を避けるため、日付は常に文字列で渡して ::date でキャストする。
const dateLayout = "2006-01-02"

// PostgresHabitRepo はPostgreSQLを使用した習慣リポジトリ。
type PostgresHabitRepo struct {
	db *sql.DB
}

// NewPostgresHabitRepo はPostgresHabitRepoを生成する。
func NewPostgresHabitRepo(db *sql.DB) *PostgresHabitRepo {
	return &PostgresHabitRepo{db: db}
}

// Create は習慣を作成し、IDと作成日時を設定する。
func (r *PostgresHabitRepo) Create(ctx context.Context, h *model.Habit) error {
	schedule, err := json.Marshal(h.Schedule)
	if err != nil {
		return fmt.Errorf("スケジュールのエンコードに失敗しました: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO habits (user_id, title, schedule, reminder_time)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		h.UserID, h.Title, schedule, toNullString(h.ReminderTime),
	).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return fmt.Errorf("習慣の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は所有者が一致する場合のみ返す。見つからない場合はnilを返す。
func (r *PostgresHabitRepo) FindByID(ctx context.Context, id int64, userID string) (*model.Habit, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, schedule, reminder_time, created_at
		 FROM habits WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return h, err
}

// ListByUserID はユーザーの習慣を作成日時の新しい順に返す。
func (r *PostgresHabitRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Habit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, schedule, reminder_time, created_at
		 FROM habits
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("習慣一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var habits []*model.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("習慣一覧の読み出しに失敗しました: %w", err)
	}
	return habits, nil
}

// Delete は習慣を削除する。ログはCASCADE削除される。
func (r *PostgresHabitRepo) Delete(ctx context.Context, id int64, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM habits WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("習慣の削除に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// ListLogsByUserID はユーザーの全習慣ログを返す。
// Dateは日付成分のみを持つUTCの時刻として返す。
func (r *PostgresHabitRepo) ListLogsByUserID(ctx context.Context, userID string) ([]model.HabitLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, habit_id, user_id, to_char(date, 'YYYY-MM-DD'), done
		 FROM habit_logs
		 WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("習慣ログの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var logs []model.HabitLog
	for rows.Next() {
		var l model.HabitLog
		var date string
		if err := rows.Scan(&l.ID, &l.HabitID, &l.UserID, &date, &l.Done); err != nil {
			return nil, fmt.Errorf("習慣ログのスキャンに失敗しました: %w", err)
		}
		if l.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("習慣ログの日付が不正です: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("習慣ログの読み出しに失敗しました: %w", err)
	}
	return logs, nil
}

// ToggleLog は指定日のログが存在すれば done を反転し、なければ done=true で作成する。
// UNIQUE(habit_id, date)を利用したINSERT ON CONFLICTで1文で行う。
func (r *PostgresHabitRepo) ToggleLog(ctx context.Context, habitID int64, userID string, date time.Time) (*model.HabitLog, error) {
	l := &model.HabitLog{HabitID: habitID, UserID: userID}
	var day string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO habit_logs (habit_id, user_id, date, done)
		 VALUES ($1, $2, $3::date, true)
		 ON CONFLICT (habit_id, date) DO UPDATE SET done = NOT habit_logs.done
		 RETURNING id, to_char(date, 'YYYY-MM-DD'), done`,
		habitID, userID, date.Format(dateLayout),
	).Scan(&l.ID, &day, &l.Done)
	if err != nil {
		return nil, fmt.Errorf("習慣ログの更新に失敗しました: %w", err)
	}
	if l.Date, err = time.Parse(dateLayout, day); err != nil {
		return nil, fmt.Errorf("習慣ログの日付が不正です: %w", err)
	}
	return l, nil
}

// ListDueReminders は reminder_time が hhmm 以前で、date の達成ログがない習慣を返す。
// reminder_time はゼロ埋めの HH:MM で保存されるため、文字列比較で時刻順になる。
func (r *PostgresHabitRepo) ListDueReminders(ctx context.Context, hhmm string, date time.Time) ([]model.DueReminder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT h.id, h.user_id, h.title
		 FROM habits h
		 WHERE h.reminder_time <= $1
		   AND NOT EXISTS (
			SELECT 1 FROM habit_logs l
			WHERE l.habit_id = h.id AND l.date = $2::date AND l.done
		   )
		 ORDER BY h.id`,
		hhmm, date.Format(dateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("リマインダー対象の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var due []model.DueReminder
	for rows.Next() {
		var d model.DueReminder
		if err := rows.Scan(&d.HabitID, &d.UserID, &d.Title); err != nil {
			return nil, fmt.Errorf("リマインダー対象のスキャンに失敗しました: %w", err)
		}
		due = append(due, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("リマインダー対象の読み出しに失敗しました: %w", err)
	}
	return due, nil
}

func scanHabit(s rowScanner) (*model.Habit, error) {
	h := &model.Habit{}
	var schedule []byte
	var reminder sql.NullString
	err := s.Scan(&h.ID, &h.UserID, &h.Title, &schedule, &reminder, &h.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("習慣のスキャンに失敗しました: %w", err)
	}
	if err := json.Unmarshal(schedule, &h.Schedule); err != nil {
		return nil, fmt.Errorf("スケジュールのデコードに失敗しました: %w", err)
	}
	if reminder.Valid {
		h.ReminderTime = &reminder.String
	}
	return h, nil
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// compile-time interface check
var _ HabitRepository = (*PostgresHabitRepo)(nil)
