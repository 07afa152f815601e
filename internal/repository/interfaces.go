// Package repository はデータ永続化のインターフェースを定義する。
// すべての行はユーザーが所有し、ユーザーIDで絞り込んで操作する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/youngeru/internal/model"
)

// ErrDuplicate は一意制約違反を表す。
var ErrDuplicate = errors.New("duplicate key")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレス（小文字正規化済み）でユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレス重複時はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 所有する全ての行はCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// ProfileRepository はプロフィールの永続化インターフェース。
type ProfileRepository interface {
	// FindByUserID はユーザーのプロフィールを取得する。未作成の場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.Profile, error)
	// Upsert はプロフィールを作成または更新する。
	Upsert(ctx context.Context, profile *model.Profile) error
}

// PlannerSessionRepository はプランナー結果の永続化インターフェース。
type PlannerSessionRepository interface {
	// Create は入力と推奨リストを1行として保存し、IDと作成日時を設定する。
	Create(ctx context.Context, session *model.PlannerSession) error
	// ListByUserID はユーザーの保存済みセッションを新しい順に返す。
	ListByUserID(ctx context.Context, userID string, limit int) ([]*model.PlannerSession, error)
}

// ForecastRepository はフォーキャストの永続化インターフェース。
type ForecastRepository interface {
	Create(ctx context.Context, forecast *model.Forecast) error
	ListByUserID(ctx context.Context, userID string, limit int) ([]*model.Forecast, error)
}

// SafetyCheckRepository はセーフティチェック結果の永続化インターフェース。
type SafetyCheckRepository interface {
	Create(ctx context.Context, check *model.SafetyCheck) error
	ListByUserID(ctx context.Context, userID string, limit int) ([]*model.SafetyCheck, error)
	// FindByID は所有者が一致する場合のみ返す。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64, userID string) (*model.SafetyCheck, error)
}

// HabitRepository は習慣と日次ログの永続化インターフェース。
type HabitRepository interface {
	Create(ctx context.Context, habit *model.Habit) error
	// FindByID は所有者が一致する場合のみ返す。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64, userID string) (*model.Habit, error)
	// ListByUserID はユーザーの習慣を作成日時の新しい順に返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Habit, error)
	// Delete は習慣を削除する。削除対象がなかった場合はfalseを返す。
	Delete(ctx context.Context, id int64, userID string) (bool, error)

	// ListLogsByUserID はユーザーの全習慣ログを返す。
	ListLogsByUserID(ctx context.Context, userID string) ([]model.HabitLog, error)
	// ToggleLog は指定日のログが存在すれば done を反転し、なければ done=true で作成する。
	ToggleLog(ctx context.Context, habitID int64, userID string, date time.Time) (*model.HabitLog, error)
	// ListDueReminders は reminder_time が hhmm 以前で、date の達成ログがない習慣を返す。
	ListDueReminders(ctx context.Context, hhmm string, date time.Time) ([]model.DueReminder, error)
}

// LibraryRepository はライブラリ項目の永続化インターフェース。
// APIからは読み取り専用で、Upsertはシード投入でのみ使う。
type LibraryRepository interface {
	// List は全項目を updated_at の新しい順に返す。
	List(ctx context.Context) ([]*model.LibraryItem, error)
	// FindBySlug はスラッグで項目を取得する。見つからない場合はnilを返す。
	FindBySlug(ctx context.Context, slug string) (*model.LibraryItem, error)
	// Upsert はスラッグをキーに項目を作成または更新する。
	Upsert(ctx context.Context, item *model.LibraryItem) error
}

// QuestionFilter は質問一覧の絞り込み条件。空文字列は条件なし。
type QuestionFilter struct {
	Query string
	Tag   string
}

// QuestionRepository は質問の永続化インターフェース。
type QuestionRepository interface {
	// Create は質問を作成し、IDと作成日時を設定する。
	Create(ctx context.Context, question *model.Question) error
	// FindByID は指定IDの質問を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Question, error)
	// List は質問を新しい順に集計値付きで返す。viewerIDが空の場合は閲覧者状態をfalseとする。
	List(ctx context.Context, filter QuestionFilter, viewerID string) ([]model.QuestionWithStats, error)
}

// AnswerRepository は回答の永続化インターフェース。
type AnswerRepository interface {
	Create(ctx context.Context, answer *model.Answer) error
	FindByID(ctx context.Context, id int64) (*model.Answer, error)
	// ListByQuestionID は回答を古い順にいいね数付きで返す。
	ListByQuestionID(ctx context.Context, questionID int64, viewerID string) ([]model.AnswerWithStats, error)
}

// ReactionRepository はいいね・保存のトグル操作の永続化インターフェース。
// 各トグルは行があれば削除、なければ作成し、トグル後の状態と件数を返す。
type ReactionRepository interface {
	ToggleQuestionLike(ctx context.Context, questionID int64, userID string) (model.ToggleResult, error)
	ToggleQuestionSave(ctx context.Context, questionID int64, userID string) (model.ToggleResult, error)
	ToggleAnswerLike(ctx context.Context, answerID int64, userID string) (model.ToggleResult, error)
}
