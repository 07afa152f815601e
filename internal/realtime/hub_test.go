package realtime

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hitoshi/youngeru/internal/model"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startHub はHubをhttptestサーバーで公開し、接続済みのクライアントを返す。
func startHub(t *testing.T, clients int) (*Hub, []*websocket.Conn) {
	t.Helper()
	hub := NewHub("", nil, discardLogger())
	srv := httptest.NewServer(hub)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conns := make([]*websocket.Conn, 0, clients)
	for i := 0; i < clients; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		conns = append(conns, conn)
	}

	t.Cleanup(func() {
		for _, c := range conns {
			c.Close()
		}
		hub.Close()
		srv.Close()
	})

	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() < clients {
		if time.Now().After(deadline) {
			t.Fatalf("only %d of %d clients registered", hub.Len(), clients)
		}
		time.Sleep(5 * time.Millisecond)
	}
	return hub, conns
}

func readEvent(t *testing.T, conn *websocket.Conn) model.CommunityEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev model.CommunityEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	return ev
}

func TestHub_BroadcastsToAllClients(t *testing.T) {
	hub, conns := startHub(t, 2)

	ev := model.CommunityEvent{Table: model.CommunityEventQuestions, Question: &model.Question{ID: 7, Title: "Sleep?"}}
	if n := hub.Broadcast(ev); n != 2 {
		t.Errorf("Broadcast() = %d, want 2", n)
	}

	for _, c := range conns {
		got := readEvent(t, c)
		if got.Table != model.CommunityEventQuestions || got.Question == nil || got.Question.ID != 7 {
			t.Errorf("event = %+v", got)
		}
	}
}

// 同じ (table, id) のイベントは同じ接続へ二度送らない。
func TestHub_DeduplicatesPerConnection(t *testing.T) {
	hub, conns := startHub(t, 1)

	first := model.CommunityEvent{Table: model.CommunityEventAnswers, Answer: &model.Answer{ID: 3, QuestionID: 1}}
	second := model.CommunityEvent{Table: model.CommunityEventAnswers, Answer: &model.Answer{ID: 4, QuestionID: 1}}

	if n := hub.Broadcast(first); n != 1 {
		t.Errorf("first Broadcast() = %d, want 1", n)
	}
	if n := hub.Broadcast(first); n != 0 {
		t.Errorf("replayed Broadcast() = %d, want 0", n)
	}
	hub.Broadcast(second)

	if got := readEvent(t, conns[0]); got.Answer == nil || got.Answer.ID != 3 {
		t.Errorf("first event = %+v", got)
	}
	if got := readEvent(t, conns[0]); got.Answer == nil || got.Answer.ID != 4 {
		t.Errorf("second event = %+v, replay should have been skipped", got)
	}
}

func TestHub_UnregistersOnClientClose(t *testing.T) {
	hub, conns := startHub(t, 1)

	conns[0].Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client still registered after close")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// 送信バッファが溢れたクライアントは切断される。
func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewHub("", nil, discardLogger())
	c := &Client{hub: hub, send: make(chan model.CommunityEvent, 1), seen: newSeenSet(8)}
	hub.clients[c] = struct{}{}

	if fresh, ok := c.offer(model.CommunityEvent{Question: &model.Question{ID: 1}}); !fresh || !ok {
		t.Fatalf("offer 1 = %v, %v", fresh, ok)
	}
	if fresh, ok := c.offer(model.CommunityEvent{Question: &model.Question{ID: 2}}); !fresh || ok {
		t.Fatalf("offer 2 = %v, %v; want buffer full", fresh, ok)
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker("http://localhost:3000")

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"http://evil.example", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "http://api.example/api/realtime", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := check(r); got != tt.want {
			t.Errorf("origin %q: got %v, want %v", tt.origin, got, tt.want)
		}
	}
}
