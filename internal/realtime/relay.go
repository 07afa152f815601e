package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/youngeru/internal/model"
	"github.com/hitoshi/youngeru/internal/repository"
	"github.com/lib/pq"
)

// Channel はコミュニティの行挿入トリガーが通知するチャネル名。
const Channel = "community_events"

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	// listenerPingInterval は通知が途絶えたときに接続を確認する間隔。
	listenerPingInterval = 90 * time.Second
)

// Listener は通知の受信元。*pq.Listener を PQListener でラップして使う。
type Listener interface {
	Notifications() <-chan *pq.Notification
	Ping() error
	Close() error
}

// PQListener は *pq.Listener を Listener に適合させる。
type PQListener struct {
	*pq.Listener
}

// Notifications は通知チャネルを返す。再接続直後には nil が届く。
func (l PQListener) Notifications() <-chan *pq.Notification {
	return l.Notify
}

// NewPQListener は community_events を LISTEN する pq.Listener を生成する。
func NewPQListener(databaseURL string, logger *slog.Logger) (PQListener, error) {
	l := pq.NewListener(databaseURL, minReconnectInterval, maxReconnectInterval,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				logger.Warn("community listener event", slog.Int("event", int(ev)), slog.String("error", err.Error()))
			}
		})
	if err := l.Listen(Channel); err != nil {
		l.Close()
		return PQListener{}, fmt.Errorf("failed to listen on %s: %w", Channel, err)
	}
	return PQListener{Listener: l}, nil
}

// Broadcaster はイベントの配信先。
type Broadcaster interface {
	Broadcast(ev model.CommunityEvent) int
}

// payload はトリガーが送る通知本文。NOTIFYのサイズ上限を避けるため行IDのみを含む。
type payload struct {
	Table string `json:"table"`
	ID    int64  `json:"id"`
}

// Relay は通知を受けて行を読み込み、Broadcaster へ渡す。
type Relay struct {
	listener  Listener
	questions repository.QuestionRepository
	answers   repository.AnswerRepository
	out       Broadcaster
	logger    *slog.Logger
}

// NewRelay はRelayを生成する。
func NewRelay(l Listener, questions repository.QuestionRepository, answers repository.AnswerRepository, out Broadcaster, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{listener: l, questions: questions, answers: answers, out: out, logger: logger}
}

// Run は ctx がキャンセルされるか通知チャネルが閉じられるまで通知を処理する。
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	notifications := r.listener.Notifications()
	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-notifications:
			if !ok {
				return nil
			}
			if n == nil {
				// 再接続中に失った通知は取り戻せない。クライアントは再取得で整合させる。
				r.logger.Info("community listener reconnected")
				continue
			}
			r.handle(ctx, n.Extra)
		case <-ticker.C:
			if err := r.listener.Ping(); err != nil {
				r.logger.Warn("community listener ping failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (r *Relay) handle(ctx context.Context, raw string) {
	ev, err := r.load(ctx, raw)
	if err != nil {
		r.logger.Error("failed to relay community event",
			slog.String("payload", raw),
			slog.String("error", err.Error()),
		)
		return
	}
	if ev == nil {
		return
	}
	n := r.out.Broadcast(*ev)
	r.logger.Debug("community event relayed", slog.String("key", ev.Key()), slog.Int("clients", n))
}

// load は通知本文から行を読み込んでイベントにする。行が既に削除されていればnilを返す。
func (r *Relay) load(ctx context.Context, raw string) (*model.CommunityEvent, error) {
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	switch model.CommunityEventTable(p.Table) {
	case model.CommunityEventQuestions:
		q, err := r.questions.FindByID(ctx, p.ID)
		if err != nil || q == nil {
			return nil, err
		}
		return &model.CommunityEvent{Table: model.CommunityEventQuestions, Question: q}, nil
	case model.CommunityEventAnswers:
		a, err := r.answers.FindByID(ctx, p.ID)
		if err != nil || a == nil {
			return nil, err
		}
		return &model.CommunityEvent{Table: model.CommunityEventAnswers, Answer: a}, nil
	default:
		return nil, fmt.Errorf("unknown table %q", p.Table)
	}
}
