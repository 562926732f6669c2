package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hamed0406/netwatch/internal/domain"
	"github.com/hamed0406/netwatch/internal/history"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsSendBuffer   = 8
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

// Live is the renderer behind the HTTP view. It keeps the latest report and
// history snapshot and pushes each new report to websocket subscribers.
type Live struct {
	log *zap.Logger

	mu      sync.RWMutex
	report  domain.CycleReport
	view    history.View
	ready   bool
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func NewLive(log *zap.Logger) *Live {
	return &Live{log: log, clients: make(map[*wsClient]struct{})}
}

func (l *Live) Name() string { return "live-http" }

func (l *Live) Render(_ context.Context, report domain.CycleReport, view history.View) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.report = report.Clone()
	l.view = view
	l.ready = true
	for c := range l.clients {
		select {
		case c.send <- payload:
		default:
			// slow subscriber; drop it rather than stall the cycle
			l.dropLocked(c)
			l.log.Warn("ws_client_dropped", zap.String("remote", c.conn.RemoteAddr().String()))
		}
	}
	l.mu.Unlock()
	return nil
}

// Snapshot returns the latest report and history view. ok is false before the
// first cycle completes.
func (l *Live) Snapshot() (domain.CycleReport, history.View, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.report.Clone(), l.view, l.ready
}

func (l *Live) Subscribers() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.clients)
}

func (l *Live) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}

	l.mu.Lock()
	if l.ready {
		if b, err := json.Marshal(l.report); err == nil {
			c.send <- b
		}
	}
	l.clients[c] = struct{}{}
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		l.mu.Lock()
		l.dropLocked(c)
		l.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		select {
		case b, ok := <-c.send:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (l *Live) dropLocked(c *wsClient) {
	if _, ok := l.clients[c]; ok {
		delete(l.clients, c)
		close(c.send)
	}
}

// Close disconnects every subscriber.
func (l *Live) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for c := range l.clients {
		l.dropLocked(c)
	}
	return nil
}
