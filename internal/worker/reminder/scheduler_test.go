package reminder

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hitoshi/youngeru/internal/metrics"
	"github.com/hitoshi/youngeru/internal/model"
)

// --- モック定義 ---

type mockHabitRepo struct {
	listDueRemindersFn func(ctx context.Context, hhmm string, date time.Time) ([]model.DueReminder, error)
}

func (m *mockHabitRepo) ListDueReminders(ctx context.Context, hhmm string, date time.Time) ([]model.DueReminder, error) {
	return m.listDueRemindersFn(ctx, hhmm, date)
}

type sentToast struct {
	UserID  string
	Message string
}

// recordingNotifier は送信されたトーストを記録する。
type recordingNotifier struct {
	mu     sync.Mutex
	toasts []sentToast

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	delay       time.Duration
}

func (n *recordingNotifier) Info(_ context.Context, userID, message string) {
	cur := n.inFlight.Add(1)
	for {
		prev := n.maxInFlight.Load()
		if cur <= prev || n.maxInFlight.CompareAndSwap(prev, cur) {
			break
		}
	}
	if n.delay > 0 {
		time.Sleep(n.delay)
	}
	n.inFlight.Add(-1)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, sentToast{UserID: userID, Message: message})
}

func (n *recordingNotifier) sorted() []sentToast {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := append([]sentToast(nil), n.toasts...)
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// reminderMetrics はRecordReminderRunの呼び出しを記録する。
type reminderMetrics struct {
	metrics.Nop
	runs atomic.Int32
	sent atomic.Int32
}

func (m *reminderMetrics) RecordReminderRun(_ time.Duration, sent int) {
	m.runs.Add(1)
	m.sent.Add(int32(sent))
}

func newTestScheduler(repo DueReminderLister, n InfoNotifier, m metrics.MetricsCollector, loc *time.Location, now time.Time) *Scheduler {
	s := NewScheduler(repo, n, m, loc, slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)), 2)
	s.now = func() time.Time { return now }
	return s
}

// --- テスト ---

func TestScheduler_RunOnce_UsesLocalTimeAndDate(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// UTC 22:30 は JST 翌日 07:30
	now := time.Date(2026, 4, 1, 22, 30, 15, 0, time.UTC)

	var gotHHMM, gotDate string
	repo := &mockHabitRepo{
		listDueRemindersFn: func(_ context.Context, hhmm string, date time.Time) ([]model.DueReminder, error) {
			gotHHMM = hhmm
			gotDate = date.Format(time.DateOnly)
			return nil, nil
		},
	}
	s := newTestScheduler(repo, &recordingNotifier{}, nil, tokyo, now)

	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if gotHHMM != "07:30" {
		t.Errorf("hhmm = %q, want %q", gotHHMM, "07:30")
	}
	if gotDate != "2026-04-02" {
		t.Errorf("date = %q, want %q", gotDate, "2026-04-02")
	}
}

func TestScheduler_RunOnce_SendsInfoToastPerHabit(t *testing.T) {
	repo := &mockHabitRepo{
		listDueRemindersFn: func(context.Context, string, time.Time) ([]model.DueReminder, error) {
			return []model.DueReminder{
				{HabitID: 1, UserID: "user-a", Title: "Walk"},
				{HabitID: 2, UserID: "user-b", Title: "Stretch"},
			}, nil
		},
	}
	notifier := &recordingNotifier{}
	m := &reminderMetrics{}
	s := newTestScheduler(repo, notifier, m, time.UTC, time.Date(2026, 4, 1, 7, 30, 0, 0, time.UTC))

	sent, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if sent != 2 {
		t.Errorf("sent = %d, want 2", sent)
	}

	want := []sentToast{
		{UserID: "user-a", Message: "Reminder: Walk"},
		{UserID: "user-b", Message: "Reminder: Stretch"},
	}
	if diff := cmp.Diff(want, notifier.sorted()); diff != "" {
		t.Errorf("toasts mismatch (-want +got):\n%s", diff)
	}
	if m.runs.Load() != 1 || m.sent.Load() != 2 {
		t.Errorf("metrics runs=%d sent=%d", m.runs.Load(), m.sent.Load())
	}
}

func TestScheduler_RunOnce_OncePerHabitPerDay(t *testing.T) {
	due := []model.DueReminder{{HabitID: 1, UserID: "user-a", Title: "Walk"}}
	repo := &mockHabitRepo{
		listDueRemindersFn: func(context.Context, string, time.Time) ([]model.DueReminder, error) {
			return due, nil
		},
	}
	notifier := &recordingNotifier{}
	now := time.Date(2026, 4, 1, 7, 30, 0, 0, time.UTC)
	s := newTestScheduler(repo, notifier, nil, time.UTC, now)

	// 同じ分に2回実行されても1回だけ送る
	s.RunOnce(context.Background())
	s.RunOnce(context.Background())
	if got := len(notifier.sorted()); got != 1 {
		t.Fatalf("toasts = %d, want 1", got)
	}

	// 翌日は再び送る
	s.now = func() time.Time { return now.Add(24 * time.Hour) }
	s.RunOnce(context.Background())
	if got := len(notifier.sorted()); got != 2 {
		t.Errorf("toasts = %d, want 2", got)
	}
}

func TestScheduler_RunOnce_RespectsMaxConcurrency(t *testing.T) {
	var due []model.DueReminder
	for i := int64(1); i <= 8; i++ {
		due = append(due, model.DueReminder{HabitID: i, UserID: "user", Title: "Habit"})
	}
	repo := &mockHabitRepo{
		listDueRemindersFn: func(context.Context, string, time.Time) ([]model.DueReminder, error) {
			return due, nil
		},
	}
	notifier := &recordingNotifier{delay: 10 * time.Millisecond}
	s := newTestScheduler(repo, notifier, nil, time.UTC, time.Now())

	sent, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if sent != 8 {
		t.Errorf("sent = %d, want 8", sent)
	}
	if got := notifier.maxInFlight.Load(); got > 2 {
		t.Errorf("max in-flight = %d, want <= 2", got)
	}
}

func TestScheduler_RunOnce_RepositoryError(t *testing.T) {
	repo := &mockHabitRepo{
		listDueRemindersFn: func(context.Context, string, time.Time) ([]model.DueReminder, error) {
			return nil, errors.New("connection refused")
		},
	}
	notifier := &recordingNotifier{}
	s := newTestScheduler(repo, notifier, nil, time.UTC, time.Now())

	if _, err := s.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(notifier.sorted()) != 0 {
		t.Error("no toast should be sent on error")
	}
}

func TestScheduler_RunOnce_CatchesUpWithCoarseInterval(t *testing.T) {
	reminderAt := "07:02"
	var queried []string
	repo := &mockHabitRepo{
		listDueRemindersFn: func(_ context.Context, hhmm string, _ time.Time) ([]model.DueReminder, error) {
			queried = append(queried, hhmm)
			// リポジトリと同じく reminder_time <= hhmm で絞り込む
			if reminderAt <= hhmm {
				return []model.DueReminder{{HabitID: 1, UserID: "user-a", Title: "Walk"}}, nil
			}
			return nil, nil
		},
	}
	notifier := &recordingNotifier{}
	base := time.Date(2026, 4, 1, 7, 0, 0, 0, time.UTC)
	s := newTestScheduler(repo, notifier, nil, time.UTC, base)

	// 5分間隔の実行では 07:02 ちょうどには実行されない
	for _, offset := range []time.Duration{0, 5 * time.Minute, 10 * time.Minute} {
		s.now = func() time.Time { return base.Add(offset) }
		if _, err := s.RunOnce(context.Background()); err != nil {
			t.Fatalf("RunOnce() error = %v", err)
		}
	}

	if diff := cmp.Diff([]string{"07:00", "07:05", "07:10"}, queried); diff != "" {
		t.Errorf("queried mismatch (-want +got):\n%s", diff)
	}
	want := []sentToast{{UserID: "user-a", Message: "Reminder: Walk"}}
	if diff := cmp.Diff(want, notifier.sorted()); diff != "" {
		t.Errorf("toasts mismatch (-want +got):\n%s", diff)
	}
}

func TestScheduler_Start_NonPositiveIntervalUsesDefault(t *testing.T) {
	var calls atomic.Int32
	repo := &mockHabitRepo{
		listDueRemindersFn: func(context.Context, string, time.Time) ([]model.DueReminder, error) {
			calls.Add(1)
			return nil, nil
		},
	}
	s := newTestScheduler(repo, &recordingNotifier{}, nil, time.UTC, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan any, 1)
	go func() {
		defer func() { done <- recover() }()
		s.Start(ctx, 0)
	}()

	deadline := time.After(2 * time.Second)
	for calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("起動直後にRunOnceが実行されなかった")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case r := <-done:
		if r != nil {
			t.Fatalf("Start panicked: %v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Startが停止しなかった")
	}
}

func TestScheduler_Start_StopsOnCancel(t *testing.T) {
	var calls atomic.Int32
	repo := &mockHabitRepo{
		listDueRemindersFn: func(context.Context, string, time.Time) ([]model.DueReminder, error) {
			calls.Add(1)
			return nil, nil
		},
	}
	s := newTestScheduler(repo, &recordingNotifier{}, nil, time.UTC, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx, time.Hour)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("起動直後にRunOnceが実行されなかった")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Startが停止しなかった")
	}
}
