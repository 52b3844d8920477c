// Package push listens for change events on the backend's websocket and turns
// them into immediate refetches. Polling keeps running underneath, so a
// dropped socket only costs latency.
package push

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Dias221467/teachmate/internal/poller"
	"github.com/Dias221467/teachmate/internal/syncer"
)

const (
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// TokenSource provides the current bearer token.
type TokenSource interface {
	Token() string
}

// Refresher is the part of the sync engine push events drive.
type Refresher interface {
	Refetch(resources ...syncer.Resource)
	ActiveThreadID() string
}

type Listener struct {
	url     string
	tokens  TokenSource
	sync    Refresher
	dialer  *websocket.Dialer
	backoff poller.Backoff
	log     *logrus.Entry
}

func NewListener(pushURL string, tokens TokenSource, sync Refresher, log *logrus.Entry) *Listener {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Listener{
		url:     pushURL,
		tokens:  tokens,
		sync:    sync,
		dialer:  websocket.DefaultDialer,
		backoff: poller.Backoff{Base: time.Second, Max: 30 * time.Second},
		log:     log.WithField("component", "push"),
	}
}

// Run keeps a connection open until ctx ends, reconnecting with capped
// backoff. It always returns ctx.Err().
func (l *Listener) Run(ctx context.Context) error {
	failures := 0
	for {
		if token := l.tokens.Token(); token != "" {
			connected, err := l.session(ctx, token)
			if connected {
				failures = 0
			}
			if err != nil && ctx.Err() == nil {
				l.log.WithError(err).Debug("Push connection ended")
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		failures++
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.backoff.Delay(failures)):
		}
	}
}

// session dials once and reads events until the connection fails.
func (l *Listener) session(ctx context.Context, token string) (bool, error) {
	target, err := socketURL(l.url, token)
	if err != nil {
		return false, err
	}
	conn, _, err := l.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return false, fmt.Errorf("failed to dial push socket: %w", err)
	}
	l.log.Info("Push connected")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	// Catch up on anything missed while disconnected.
	l.sync.Refetch(allResources...)

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			return true, err
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		l.handle(ev)
	}
}

func (l *Listener) handle(ev Event) {
	resources := Resources(ev, l.sync.ActiveThreadID())
	l.log.WithField("event", ev.Type).WithField("resources", len(resources)).Debug("Push event")
	if len(resources) > 0 {
		l.sync.Refetch(resources...)
	}
}

var allResources = []syncer.Resource{
	syncer.Notifications, syncer.Friends, syncer.FriendRequests, syncer.Threads,
	syncer.StrangerThreads, syncer.Groups, syncer.Schedules, syncer.ActiveThread,
	syncer.Attachments, syncer.ThreadPolls, syncer.ThreadSchedules,
}

// Resources lists what an event invalidates. Thread-scoped events only touch
// the active-thread resources when they concern the open thread.
func Resources(ev Event, activeThreadID string) []syncer.Resource {
	active := ev.ThreadID == "" || ev.ThreadID == activeThreadID
	switch ev.Type {
	case MessageCreated:
		out := []syncer.Resource{syncer.Threads, syncer.StrangerThreads, syncer.Groups}
		if active {
			out = append(out, syncer.ActiveThread, syncer.Attachments)
		}
		return out
	case ThreadCreated:
		return []syncer.Resource{syncer.Threads, syncer.StrangerThreads, syncer.Groups}
	case NotificationCreated:
		return []syncer.Resource{syncer.Notifications}
	case FriendRequestUpdated:
		return []syncer.Resource{syncer.FriendRequests, syncer.Friends, syncer.Threads, syncer.StrangerThreads}
	case PollUpdated:
		if active {
			return []syncer.Resource{syncer.ThreadPolls}
		}
		return nil
	case ScheduleUpdated:
		out := []syncer.Resource{syncer.Schedules}
		if active {
			out = append(out, syncer.ThreadSchedules)
		}
		return out
	case GroupUpdated:
		out := []syncer.Resource{syncer.Groups}
		if active {
			out = append(out, syncer.ActiveThread)
		}
		return out
	default:
		return nil
	}
}

// socketURL turns an http(s) push URL into a ws(s) one carrying the token.
func socketURL(raw, token string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid push url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
