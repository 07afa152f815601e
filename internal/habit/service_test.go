package habit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/youngeru/internal/model"
)

// --- モック定義 ---

type mockHabitRepo struct {
	createFn       func(ctx context.Context, h *model.Habit) error
	findByIDFn     func(ctx context.Context, id int64, userID string) (*model.Habit, error)
	listFn         func(ctx context.Context, userID string) ([]*model.Habit, error)
	deleteFn       func(ctx context.Context, id int64, userID string) (bool, error)
	listLogsFn     func(ctx context.Context, userID string) ([]model.HabitLog, error)
	toggleLogFn    func(ctx context.Context, habitID int64, userID string, date time.Time) (*model.HabitLog, error)
	dueRemindersFn func(ctx context.Context, hhmm string, date time.Time) ([]model.DueReminder, error)
}

func (m *mockHabitRepo) Create(ctx context.Context, h *model.Habit) error {
	return m.createFn(ctx, h)
}

func (m *mockHabitRepo) FindByID(ctx context.Context, id int64, userID string) (*model.Habit, error) {
	return m.findByIDFn(ctx, id, userID)
}

func (m *mockHabitRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Habit, error) {
	return m.listFn(ctx, userID)
}

func (m *mockHabitRepo) Delete(ctx context.Context, id int64, userID string) (bool, error) {
	return m.deleteFn(ctx, id, userID)
}

func (m *mockHabitRepo) ListLogsByUserID(ctx context.Context, userID string) ([]model.HabitLog, error) {
	return m.listLogsFn(ctx, userID)
}

func (m *mockHabitRepo) ToggleLog(ctx context.Context, habitID int64, userID string, date time.Time) (*model.HabitLog, error) {
	return m.toggleLogFn(ctx, habitID, userID, date)
}

func (m *mockHabitRepo) ListDueReminders(ctx context.Context, hhmm string, date time.Time) ([]model.DueReminder, error) {
	return m.dueRemindersFn(ctx, hhmm, date)
}

type mockNotifier struct {
	successes, errors []string
}

func (m *mockNotifier) Success(_ context.Context, _ string, msg string) {
	m.successes = append(m.successes, msg)
}

func (m *mockNotifier) Error(_ context.Context, _ string, msg string) {
	m.errors = append(m.errors, msg)
}

func newTestService(repo *mockHabitRepo, n *mockNotifier, now time.Time) *Service {
	svc := NewService(repo, n, time.UTC, nil)
	svc.now = func() time.Time { return now }
	return svc
}

// --- テスト ---

func TestService_List_AttachesStreakAndDoneToday(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &mockHabitRepo{
		listFn: func(context.Context, string) ([]*model.Habit, error) {
			return []*model.Habit{{ID: 2, Title: "Walk"}, {ID: 1, Title: "Stretch"}}, nil
		},
		listLogsFn: func(context.Context, string) ([]model.HabitLog, error) {
			return []model.HabitLog{
				{HabitID: 1, Date: day(2025, 3, 10), Done: true},
				{HabitID: 1, Date: day(2025, 3, 9), Done: true},
				{HabitID: 2, Date: day(2025, 3, 9), Done: true},
			}, nil
		},
	}
	svc := newTestService(repo, &mockNotifier{}, now)

	got, err := svc.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != 2 || got[0].Streak != 0 || got[0].DoneToday {
		t.Errorf("habit 2 = %+v", got[0])
	}
	if got[1].ID != 1 || got[1].Streak != 2 || !got[1].DoneToday {
		t.Errorf("habit 1 = %+v", got[1])
	}
}

func TestService_Create(t *testing.T) {
	var created *model.Habit
	repo := &mockHabitRepo{createFn: func(_ context.Context, h *model.Habit) error {
		h.ID = 7
		created = h
		return nil
	}}
	n := &mockNotifier{}
	svc := newTestService(repo, n, time.Now())

	reminder := "7:05"
	h, err := svc.Create(context.Background(), "user-1", CreateInput{Title: "  Drink water ", ReminderTime: &reminder})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.ID != 7 || created.Title != "Drink water" {
		t.Errorf("habit = %+v", h)
	}
	if created.Schedule != model.DefaultHabitSchedule {
		t.Errorf("schedule = %+v, want daily", created.Schedule)
	}
	if created.ReminderTime == nil || *created.ReminderTime != "07:05" {
		t.Errorf("reminder = %v, want 07:05", created.ReminderTime)
	}
	if len(n.successes) != 1 || n.successes[0] != "Habit created successfully!" {
		t.Errorf("successes = %v", n.successes)
	}
}

func TestService_Create_Validation(t *testing.T) {
	svc := newTestService(&mockHabitRepo{}, &mockNotifier{}, time.Now())
	bad := "25:00"

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"タイトル空", CreateInput{Title: "   "}},
		{"不正なリマインダー", CreateInput{Title: "Walk", ReminderTime: &bad}},
		{"未対応スケジュール", CreateInput{Title: "Walk", Schedule: &model.HabitSchedule{Type: "weekly"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "user-1", tt.in)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidHabit {
				t.Errorf("err = %v, want INVALID_HABIT", err)
			}
		})
	}
}

func TestService_Toggle_UsesTodayInLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	now := time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC)

	var gotDate time.Time
	repo := &mockHabitRepo{
		findByIDFn: func(context.Context, int64, string) (*model.Habit, error) {
			return &model.Habit{ID: 3}, nil
		},
		toggleLogFn: func(_ context.Context, habitID int64, userID string, date time.Time) (*model.HabitLog, error) {
			gotDate = date
			return &model.HabitLog{HabitID: habitID, UserID: userID, Done: true}, nil
		},
	}
	n := &mockNotifier{}
	svc := NewService(repo, n, tokyo, nil)
	svc.now = func() time.Time { return now }

	if _, err := svc.Toggle(context.Background(), "user-1", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotDate.Day() != 10 {
		t.Errorf("toggle date day = %d, want 10", gotDate.Day())
	}
	if len(n.successes) != 1 || n.successes[0] != "Habit updated!" {
		t.Errorf("successes = %v", n.successes)
	}
}

func TestService_Toggle_NotFound(t *testing.T) {
	repo := &mockHabitRepo{findByIDFn: func(context.Context, int64, string) (*model.Habit, error) {
		return nil, nil
	}}
	svc := newTestService(repo, &mockNotifier{}, time.Now())

	_, err := svc.Toggle(context.Background(), "user-2", 3)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeHabitNotFound {
		t.Errorf("err = %v, want HABIT_NOT_FOUND", err)
	}
}

func TestService_Toggle_FailureQueuesErrorToast(t *testing.T) {
	repo := &mockHabitRepo{
		findByIDFn: func(context.Context, int64, string) (*model.Habit, error) {
			return &model.Habit{ID: 3}, nil
		},
		toggleLogFn: func(context.Context, int64, string, time.Time) (*model.HabitLog, error) {
			return nil, errors.New("db down")
		},
	}
	n := &mockNotifier{}
	svc := newTestService(repo, n, time.Now())

	if _, err := svc.Toggle(context.Background(), "user-1", 3); err == nil {
		t.Fatal("expected error")
	}
	if len(n.errors) != 1 || n.errors[0] != "Failed to update habit" {
		t.Errorf("errors = %v", n.errors)
	}
}

func TestService_Delete_NotFound(t *testing.T) {
	repo := &mockHabitRepo{deleteFn: func(context.Context, int64, string) (bool, error) {
		return false, nil
	}}
	svc := newTestService(repo, &mockNotifier{}, time.Now())

	err := svc.Delete(context.Background(), "user-1", 9)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeHabitNotFound {
		t.Errorf("err = %v, want HABIT_NOT_FOUND", err)
	}
}
