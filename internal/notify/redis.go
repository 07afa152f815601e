package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hitoshi/youngeru/internal/model"
	"github.com/redis/go-redis/v9"
)

// RedisQueue はRedisのリストに通知を保持するQueue実装。
// APIサーバーとワーカーが別プロセスでも同じキューを共有できる。
type RedisQueue struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisQueue はREDIS_URLからクライアントを生成し、疎通確認をして返す。
func NewRedisQueue(ctx context.Context, redisURL string) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newRedisQueue(client), nil
}

func newRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client, prefix: "youngeru:toasts:", now: time.Now}
}

// Push は通知をリスト末尾に追加し、上限件数に切り詰めてTTLを延長する。
func (q *RedisQueue) Push(ctx context.Context, userID string, n model.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("通知のエンコードに失敗しました: %w", err)
	}

	key := q.prefix + userID
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, payload)
		pipe.LTrim(ctx, key, -MaxPerUser, -1)
		pipe.Expire(ctx, key, TTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("通知のキュー投入に失敗しました: %w", err)
	}
	return nil
}

// Drain はリストを読み出して削除し、有効期限内の通知を古い順に返す。
func (q *RedisQueue) Drain(ctx context.Context, userID string) ([]model.Notification, error) {
	key := q.prefix + userID

	var rng *redis.StringSliceCmd
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		rng = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("通知の取り出しに失敗しました: %w", err)
	}

	now := q.now()
	var out []model.Notification
	for _, raw := range rng.Val() {
		var n model.Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			continue
		}
		if !expired(n, now) {
			out = append(out, n)
		}
	}
	return out, nil
}

// Close はRedisクライアントを閉じる。
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

var _ Queue = (*RedisQueue)(nil)
