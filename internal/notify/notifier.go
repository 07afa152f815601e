// Package notify はユーザーごとのトースト通知キューを提供する。
// 通知は最大件数と有効期限を持つFIFOで、取得時に取り出される。
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/youngeru/internal/metrics"
	"github.com/hitoshi/youngeru/internal/model"
)

const (
	// MaxPerUser はユーザーごとに保持する通知の最大件数。超過分は古い順に捨てる。
	MaxPerUser = 20
	// TTL は通知の有効期限。
	TTL = 5 * time.Minute
)

// Queue はトースト通知キューのバックエンド。
type Queue interface {
	// Push は通知を末尾に追加する。
	Push(ctx context.Context, userID string, n model.Notification) error
	// Drain は有効期限内の通知を古い順に全て取り出し、キューを空にする。
	Drain(ctx context.Context, userID string) ([]model.Notification, error)
}

// Notifier はサービス層からトースト通知を積むためのフロント。
// 通知はベストエフォートで、キュー投入の失敗はログに記録して呼び出し元には返さない。
type Notifier struct {
	queue   Queue
	metrics metrics.MetricsCollector
	logger  *slog.Logger
	now     func() time.Time
}

// NewNotifier はNotifierを生成する。
func NewNotifier(queue Queue, m metrics.MetricsCollector, logger *slog.Logger) *Notifier {
	if m == nil {
		m = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{queue: queue, metrics: m, logger: logger, now: time.Now}
}

// Success は成功通知を積む。
func (n *Notifier) Success(ctx context.Context, userID, message string) {
	n.push(ctx, userID, model.NotificationSuccess, message)
}

// Error はエラー通知を積む。
func (n *Notifier) Error(ctx context.Context, userID, message string) {
	n.push(ctx, userID, model.NotificationError, message)
}

// Info は情報通知を積む。
func (n *Notifier) Info(ctx context.Context, userID, message string) {
	n.push(ctx, userID, model.NotificationInfo, message)
}

// Drain はユーザーの通知を全て取り出す。
func (n *Notifier) Drain(ctx context.Context, userID string) ([]model.Notification, error) {
	return n.queue.Drain(ctx, userID)
}

func (n *Notifier) push(ctx context.Context, userID string, kind model.NotificationKind, message string) {
	if userID == "" {
		return
	}
	note := model.Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		CreatedAt: n.now(),
	}
	if err := n.queue.Push(ctx, userID, note); err != nil {
		n.logger.Warn("トースト通知のキュー投入に失敗しました",
			slog.String("user_id", userID),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		return
	}
	n.metrics.RecordToast(string(kind))
}

// expired は通知が now 時点で有効期限切れかどうかを返す。
func expired(n model.Notification, now time.Time) bool {
	return now.Sub(n.CreatedAt) >= TTL
}
