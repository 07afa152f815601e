package notify

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/youngeru/internal/model"
)

// MemoryQueue はプロセス内メモリに通知を保持するQueue実装。
// 単一プロセス構成（REDIS_URL未設定）で使う。
type MemoryQueue struct {
	mu        sync.Mutex
	items     map[string][]model.Notification
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryQueue はMemoryQueueを生成する。
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		items: make(map[string][]model.Notification),
		now:   time.Now,
	}
}

// Push は通知を末尾に追加し、期限切れと上限超過分を捨てる。
// TTLごとに他ユーザーの期限切れ通知もまとめて掃除する。
func (q *MemoryQueue) Push(_ context.Context, userID string, n model.Notification) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if now := q.now(); now.Sub(q.lastSweep) >= TTL {
		q.sweep()
		q.lastSweep = now
	}

	list := append(q.live(q.items[userID]), n)
	if len(list) > MaxPerUser {
		list = list[len(list)-MaxPerUser:]
	}
	q.items[userID] = list
	return nil
}

// Drain は有効期限内の通知を古い順に全て取り出す。
func (q *MemoryQueue) Drain(_ context.Context, userID string) ([]model.Notification, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	list := q.live(q.items[userID])
	delete(q.items, userID)
	return list, nil
}

// sweep は全ユーザーの期限切れ通知を捨て、空になったユーザーのエントリを削除する。
func (q *MemoryQueue) sweep() {
	for userID, list := range q.items {
		if live := q.live(list); len(live) > 0 {
			q.items[userID] = live
		} else {
			delete(q.items, userID)
		}
	}
}

// live は期限切れの通知を除いたスライスを返す。
func (q *MemoryQueue) live(list []model.Notification) []model.Notification {
	now := q.now()
	out := list[:0:0]
	for _, n := range list {
		if !expired(n, now) {
			out = append(out, n)
		}
	}
	return out
}

var _ Queue = (*MemoryQueue)(nil)
