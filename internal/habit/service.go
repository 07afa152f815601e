package habit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/youngeru/internal/model"
	"github.com/hitoshi/youngeru/internal/repository"
)

// トースト通知の文言。
const (
	msgCreated      = "Habit created successfully!"
	msgCreateFailed = "Failed to create habit"
	msgUpdated      = "Habit updated!"
	msgUpdateFailed = "Failed to update habit"
	msgDeleted      = "Habit deleted"
)

const maxTitleLength = 200

// Notifier はトースト通知の送信インターフェース。
type Notifier interface {
	Success(ctx context.Context, userID, message string)
	Error(ctx context.Context, userID, message string)
}

// CreateInput は習慣作成の入力を表す。
type CreateInput struct {
	Title        string
	Schedule     *model.HabitSchedule
	ReminderTime *string
}

// Service は習慣のサービス層。
type Service struct {
	repo     repository.HabitRepository
	notifier Notifier
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
// loc は「今日」を決めるタイムゾーン。nilの場合はUTC。
func NewService(repo repository.HabitRepository, notifier Notifier, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		location: loc,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *Service) today() time.Time {
	return s.now().In(s.location)
}

// List はユーザーの習慣を新しい順に、ストリークと当日の達成状態付きで返す。
func (s *Service) List(ctx context.Context, userID string) ([]model.HabitWithStatus, error) {
	habits, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("習慣一覧の取得に失敗しました: %w", err)
	}
	logs, err := s.repo.ListLogsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("習慣ログの取得に失敗しました: %w", err)
	}

	byHabit := make(map[int64][]model.HabitLog, len(habits))
	for _, l := range logs {
		byHabit[l.HabitID] = append(byHabit[l.HabitID], l)
	}

	today := s.today()
	result := make([]model.HabitWithStatus, 0, len(habits))
	for _, h := range habits {
		hl := byHabit[h.ID]
		result = append(result, model.HabitWithStatus{
			Habit:     *h,
			Streak:    Streak(hl, today),
			DoneToday: DoneOn(hl, today),
		})
	}
	return result, nil
}

// Create は習慣を作成する。スケジュール未指定時は daily とする。
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.Habit, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, model.NewInvalidHabitError("title is required")
	}
	if len([]rune(title)) > maxTitleLength {
		return nil, model.NewInvalidHabitError(fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}

	schedule := model.DefaultHabitSchedule
	if in.Schedule != nil && in.Schedule.Type != "" {
		if in.Schedule.Type != model.DefaultHabitSchedule.Type {
			return nil, model.NewInvalidHabitError(fmt.Sprintf("unsupported schedule %q", in.Schedule.Type))
		}
		schedule = *in.Schedule
	}

	var reminder *string
	if in.ReminderTime != nil && *in.ReminderTime != "" {
		r, err := ParseReminderTime(*in.ReminderTime)
		if err != nil {
			return nil, err
		}
		reminder = &r
	}

	h := &model.Habit{
		UserID:       userID,
		Title:        title,
		Schedule:     schedule,
		ReminderTime: reminder,
	}
	if err := s.repo.Create(ctx, h); err != nil {
		s.notifier.Error(ctx, userID, msgCreateFailed)
		return nil, fmt.Errorf("習慣の作成に失敗しました: %w", err)
	}

	s.notifier.Success(ctx, userID, msgCreated)
	return h, nil
}

// Toggle は今日のログを反転する。ログがなければ done=true で作成する。
func (s *Service) Toggle(ctx context.Context, userID string, habitID int64) (*model.HabitLog, error) {
	h, err := s.repo.FindByID(ctx, habitID, userID)
	if err != nil {
		return nil, fmt.Errorf("習慣の取得に失敗しました: %w", err)
	}
	if h == nil {
		return nil, model.NewHabitNotFoundError(habitID)
	}

	log, err := s.repo.ToggleLog(ctx, habitID, userID, s.today())
	if err != nil {
		s.logger.Error("習慣ログの更新に失敗しました",
			slog.Int64("habit_id", habitID),
			slog.String("error", err.Error()),
		)
		s.notifier.Error(ctx, userID, msgUpdateFailed)
		return nil, fmt.Errorf("習慣ログの更新に失敗しました: %w", err)
	}

	s.notifier.Success(ctx, userID, msgUpdated)
	return log, nil
}

// Delete は習慣とそのログを削除する。
func (s *Service) Delete(ctx context.Context, userID string, habitID int64) error {
	deleted, err := s.repo.Delete(ctx, habitID, userID)
	if err != nil {
		s.notifier.Error(ctx, userID, msgUpdateFailed)
		return fmt.Errorf("習慣の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewHabitNotFoundError(habitID)
	}
	s.notifier.Success(ctx, userID, msgDeleted)
	return nil
}

// ParseReminderTime は "HH:MM" 形式のリマインダー時刻を検証し、ゼロ埋めした形で返す。
func ParseReminderTime(s string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return "", model.NewInvalidHabitError("reminder_time must be HH:MM")
	}
	return t.Format("15:04"), nil
}
