package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dias221467/teachmate/internal/syncer"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type recorder struct {
	mu     sync.Mutex
	active string
	calls  [][]syncer.Resource
}

func (r *recorder) Refetch(resources ...syncer.Resource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]syncer.Resource(nil), resources...))
}

func (r *recorder) ActiveThreadID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recorder) last() []syncer.Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

func TestResources(t *testing.T) {
	t.Run("message in open thread", func(t *testing.T) {
		got := Resources(Event{Type: MessageCreated, ThreadID: "t1"}, "t1")
		assert.Contains(t, got, syncer.ActiveThread)
		assert.Contains(t, got, syncer.Attachments)
		assert.Contains(t, got, syncer.Threads)
	})

	t.Run("message in another thread", func(t *testing.T) {
		got := Resources(Event{Type: MessageCreated, ThreadID: "t2"}, "t1")
		assert.NotContains(t, got, syncer.ActiveThread)
		assert.Contains(t, got, syncer.Groups)
	})

	t.Run("poll elsewhere is ignored", func(t *testing.T) {
		assert.Empty(t, Resources(Event{Type: PollUpdated, ThreadID: "t2"}, "t1"))
		assert.Equal(t, []syncer.Resource{syncer.ThreadPolls}, Resources(Event{Type: PollUpdated, ThreadID: "t1"}, "t1"))
	})

	t.Run("friend request", func(t *testing.T) {
		got := Resources(Event{Type: FriendRequestUpdated}, "")
		assert.Contains(t, got, syncer.FriendRequests)
		assert.Contains(t, got, syncer.Friends)
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Nil(t, Resources(Event{Type: "bogus"}, ""))
	})
}

func TestSocketURL(t *testing.T) {
	got, err := socketURL("http://localhost:8080/api/ws", "a b")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/api/ws?token=a+b", got)

	got, err = socketURL("https://example.com/ws", "t")
	require.NoError(t, err)
	assert.Equal(t, "wss://example.com/ws?token=t", got)
}

func TestListenerRefetchesOnEvents(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	tokens := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens <- r.URL.Query().Get("token")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(Event{Type: NotificationCreated})
		// Hold the socket until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	rec := &recorder{}
	l := NewListener(srv.URL, staticToken("secret-token"), rec, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	select {
	case tok := <-tokens:
		assert.Equal(t, "secret-token", tok)
	case <-time.After(2 * time.Second):
		t.Fatal("listener never connected")
	}

	require.Eventually(t, func() bool { return rec.count() >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []syncer.Resource{syncer.Notifications}, rec.last())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestListenerWaitsForToken(t *testing.T) {
	rec := &recorder{}
	l := NewListener("http://127.0.0.1:1/ws", staticToken(""), rec, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Run(ctx), context.DeadlineExceeded)
	assert.Equal(t, 0, rec.count())
}
