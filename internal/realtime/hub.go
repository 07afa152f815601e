// Package realtime はコミュニティの行挿入イベントをWebSocketクライアントへ配信する。
//
// Relay が PostgreSQL の LISTEN/NOTIFY を受けて行を読み込み、Hub が接続中の全クライアントへ送る。
// 各接続は配信済みの (table, id) を上限付きで記憶し、同じイベントを二度送らない。
package realtime

import (
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hitoshi/youngeru/internal/metrics"
	"github.com/hitoshi/youngeru/internal/model"
)

const (
	// sendBufferSize はクライアントごとの送信バッファ。溢れたクライアントは切断する。
	sendBufferSize = 32
	// seenCapacity はクライアントごとに記憶する配信済みキーの数。
	seenCapacity = 512

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	maxMessage = 512
)

// Client はWebSocket接続1本を表す。
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan model.CommunityEvent

	mu   sync.Mutex
	seen *seenSet
}

// offer はイベントを送信バッファに積む。配信済みならfalse, trueを返し、
// バッファが満杯ならtrue, falseを返す。
func (c *Client) offer(ev model.CommunityEvent) (fresh, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.seen.add(ev.Key()) {
		return false, true
	}
	select {
	case c.send <- ev:
		return true, true
	default:
		return true, false
	}
}

// Hub は接続中のクライアント集合を管理し、イベントをファンアウトする。
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	closed   bool
	upgrader websocket.Upgrader
	metrics  metrics.MetricsCollector
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewHub はHubを生成する。allowedOrigin が空でなければ、Originヘッダーがそれと一致する接続のみ受け付ける。
func NewHub(allowedOrigin string, m metrics.MetricsCollector, logger *slog.Logger) *Hub {
	if m == nil {
		m = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigin),
		},
		metrics: m,
		logger:  logger,
	}
}

func originChecker(allowed string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowed == "" {
			return true
		}
		if origin == allowed {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// ServeHTTP は接続をWebSocketにアップグレードし、切断されるまで読み取りループを回す。
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade がエラーレスポンスを書き込み済み
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &Client{
		hub:  h,
		conn: conn,
		send: make(chan model.CommunityEvent, sendBufferSize),
		seen: newSeenSet(seenCapacity),
	}
	if !h.register(c) {
		conn.Close()
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		c.writePump()
	}()
	c.readPump()
}

// Broadcast はイベントを全クライアントへ送る。送信バッファが溢れたクライアントは切断する。
// 戻り値は新たに送信キューへ積んだクライアント数。
func (h *Hub) Broadcast(ev model.CommunityEvent) int {
	var delivered int
	var slow []*Client

	h.mu.RLock()
	for c := range h.clients {
		fresh, ok := c.offer(ev)
		if !ok {
			slow = append(slow, c)
			continue
		}
		if fresh {
			delivered++
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow realtime client", slog.String("remote", c.conn.RemoteAddr().String()))
		h.unregister(c)
	}
	return delivered
}

// Len は接続中のクライアント数を返す。
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close は全クライアントを切断し、書き込みゴルーチンの終了を待つ。
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
	h.wg.Wait()
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.metrics.RealtimeConnected()
	return true
}

// unregister はクライアントを集合から外し送信チャネルを閉じる。複数回呼んでも安全。
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		h.metrics.RealtimeDisconnected()
	}
}

// readPump はクライアントからの切断とpongを検知する。受信メッセージは破棄する。
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump は送信チャネルのイベントをJSONで書き出し、定期的にpingを送る。
// 送信チャネルが閉じられたら close フレームを送って終了する。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
