package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mind-engage/examdesk/internal/feed"
	"github.com/mind-engage/examdesk/internal/portal"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

const (
	messageSnapshot = "snapshot"
	messageError    = "error"
)

// streamMessage is one frame on /ws/exams. Every snapshot frame carries
// the complete public listing.
type streamMessage struct {
	Type  string               `json:"type"`
	Seq   uint64               `json:"seq,omitempty"`
	Exams []portal.ExamSummary `json:"exams,omitempty"`
	Error string               `json:"error,omitempty"`
}

func newUpgrader(origins []string) *websocket.Upgrader {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowed["*"] || allowed[origin] {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

// GET /ws/exams
// Pushes the public exam listing on connect and after every change.
func ExamsSocketHandler(src feed.Source, origins []string, log *slog.Logger) http.HandlerFunc {
	upgrader := newUpgrader(origins)
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", "err", err)
			return
		}
		c := &streamClient{conn: conn, send: make(chan []byte, 1), done: make(chan struct{}), log: log}
		unsubscribe := src.Subscribe(feed.CollectionExams, c.onSnapshot, c.onError)
		go c.writePump()
		c.readPump()
		unsubscribe()
	}
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	log  *slog.Logger
}

func (c *streamClient) onSnapshot(s feed.Snapshot) {
	c.push(streamMessage{Type: messageSnapshot, Seq: s.Seq, Exams: portal.SummarizeAll(s.Exams)})
}

func (c *streamClient) onError(error) {
	c.push(streamMessage{Type: messageError, Error: portal.ErrCatalogUnavailable.Error()})
}

// push waits for the writer; the feed already coalesces snapshots for a
// slow client, so at most one frame is ever queued here.
func (c *streamClient) push(m streamMessage) {
	data, err := json.Marshal(m)
	if err != nil {
		c.log.Error("encode stream message", "err", err)
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	}
}

// readPump only services control frames; clients have nothing to say.
func (c *streamClient) readPump() {
	defer func() {
		close(c.done)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug("websocket closed", "err", err)
			}
			return
		}
	}
}

func (c *streamClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
