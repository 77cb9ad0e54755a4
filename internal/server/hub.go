package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lgbarn/escort-chess-go/internal/motion"
	"github.com/lgbarn/escort-chess-go/internal/session"
)

const (
	writeWait      = 5 * time.Second
	sendBuffer     = 64
	maxMessageSize = 512
)

// Message types sent to subscribers.
const (
	msgState  = "state"
	msgEvents = "events"
)

type message struct {
	Type   string         `json:"type"`
	State  *session.State `json:"state,omitempty"`
	Events []motion.Event `json:"events,omitempty"`
}

func stateMessage(st session.State) message {
	return message{Type: msgState, State: &st}
}

func eventsMessage(events []motion.Event) message {
	return message{Type: msgEvents, Events: events}
}

// subscriber is one websocket connection. Writes go through send so a slow
// reader never stalls the tick driver.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// hub fans a session's messages out to its subscribers.
type hub struct {
	log zerolog.Logger

	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

func newHub(log zerolog.Logger) *hub {
	return &hub{log: log, subs: make(map[*subscriber]struct{})}
}

// attach registers conn and starts its pumps. first is queued before any
// broadcast. It reports false, leaving conn to the caller, once the hub has
// been closed.
func (h *hub) attach(conn *websocket.Conn, first message) bool {
	sub := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	if data, err := json.Marshal(first); err == nil {
		sub.send <- data
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.subs[sub] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	h.log.Debug().Int("subscribers", n).Msg("subscriber attached")

	go h.writePump(sub)
	go h.readPump(sub)
	return true
}

func (h *hub) detach(sub *subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	if ok {
		delete(h.subs, sub)
		close(sub.send)
	}
	h.mu.Unlock()
	if ok {
		h.log.Debug().Msg("subscriber detached")
	}
}

func (h *hub) broadcast(m message) {
	data, err := json.Marshal(m)
	if err != nil {
		h.log.Warn().Err(err).Msg("encode broadcast")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.send <- data:
		default:
			h.log.Warn().Msg("subscriber too slow, dropping")
			delete(h.subs, sub)
			close(sub.send)
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// closeAll disconnects every subscriber and refuses later attaches.
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.send)
	}
}

func (h *hub) writePump(sub *subscriber) {
	defer sub.conn.Close()
	for data := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.detach(sub)
			return
		}
	}
	_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = sub.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readPump discards client messages and detaches on disconnect.
func (h *hub) readPump(sub *subscriber) {
	sub.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			h.detach(sub)
			return
		}
	}
}
