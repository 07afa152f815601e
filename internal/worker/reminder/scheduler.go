// Package reminder は習慣リマインダーのバックグラウンド送信を提供する。
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/youngeru/internal/metrics"
	"github.com/hitoshi/youngeru/internal/model"
)

// DueReminderLister はリマインダー対象の習慣を取得するインターフェース。
type DueReminderLister interface {
	ListDueReminders(ctx context.Context, hhmm string, date time.Time) ([]model.DueReminder, error)
}

// InfoNotifier はinfoトーストをキューに積むインターフェース。
type InfoNotifier interface {
	Info(ctx context.Context, userID, message string)
}

// Scheduler は reminder_time を過ぎた当日未達成の習慣を探し、所有者にトーストを送る。
// 同じ習慣には1日1回まで送るため、実行間隔が1分より長くても取りこぼさない。
type Scheduler struct {
	habits         DueReminderLister
	notifier       InfoNotifier
	metrics        metrics.MetricsCollector
	logger         *slog.Logger
	loc            *time.Location
	maxConcurrency int
	now            func() time.Time

	mu       sync.Mutex
	sentDate string
	sent     map[int64]struct{}
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値10を使用する。
func NewScheduler(
	habits DueReminderLister,
	notifier InfoNotifier,
	m metrics.MetricsCollector,
	loc *time.Location,
	logger *slog.Logger,
	maxConcurrency int,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	if loc == nil {
		loc = time.UTC
	}
	if m == nil {
		m = metrics.Nop{}
	}
	return &Scheduler{
		habits:         habits,
		notifier:       notifier,
		metrics:        m,
		logger:         logger,
		loc:            loc,
		maxConcurrency: maxConcurrency,
		now:            time.Now,
		sent:           make(map[int64]struct{}),
	}
}

// defaultInterval は Start に0以下の間隔が渡された場合に使う実行間隔。
const defaultInterval = time.Minute

// Start は interval ごとに RunOnce を実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		s.logger.Warn("リマインダーの実行間隔が不正なためデフォルト値を使用します",
			slog.Duration("interval", interval),
			slog.Duration("default", defaultInterval),
		)
		interval = defaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("リマインダースケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
		slog.String("timezone", s.loc.String()),
	)

	// 起動直後に1回実行
	s.runAndLog(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("リマインダースケジューラを停止しました")
			return
		case <-ticker.C:
			s.runAndLog(ctx)
		}
	}
}

func (s *Scheduler) runAndLog(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("リマインダーサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}

// RunOnce は現在時刻（APP_TIMEZONE）の HH:MM までに予定された習慣へリマインダーを送り、送信件数を返す。
// semaphoreパターンで最大並列数を制御する。
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	start := s.now()
	local := start.In(s.loc)
	hhmm := local.Format("15:04")

	due, err := s.habits.ListDueReminders(ctx, hhmm, local)
	if err != nil {
		return 0, fmt.Errorf("リマインダー対象の取得に失敗: %w", err)
	}

	targets := s.claim(local.Format(time.DateOnly), due)
	if len(targets) == 0 {
		s.metrics.RecordReminderRun(time.Since(start), 0)
		return 0, nil
	}

	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for _, d := range targets {
		wg.Add(1)
		sem <- struct{}{}

		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			s.notifier.Info(ctx, d.UserID, reminderMessage(d))
		}()
	}

	wg.Wait()

	s.metrics.RecordReminderRun(time.Since(start), len(targets))
	s.logger.Info("リマインダーを送信しました",
		slog.String("time", hhmm),
		slog.Int("sent_count", len(targets)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return len(targets), nil
}

// claim は当日まだ送っていない習慣だけを返し、送信済みとして記録する。
// 日付が変わると記録をリセットする。
func (s *Scheduler) claim(date string, due []model.DueReminder) []model.DueReminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sentDate != date {
		s.sentDate = date
		s.sent = make(map[int64]struct{})
	}

	var out []model.DueReminder
	for _, d := range due {
		if _, ok := s.sent[d.HabitID]; ok {
			continue
		}
		s.sent[d.HabitID] = struct{}{}
		out = append(out, d)
	}
	return out
}

func reminderMessage(d model.DueReminder) string {
	return "Reminder: " + d.Title
}
