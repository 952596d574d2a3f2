package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pborman/uuid"
	"go.uber.org/zap"

	"github.com/wulfaz/karotzctl/internal/karotz"
	"github.com/wulfaz/karotzctl/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Outgoing messages buffered per session before new ones are dropped
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The bridge is meant for the local network; any page may connect
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is a command sent by a WebSocket client
type wsRequest struct {
	ID   string          `json:"id,omitempty"`
	Op   string          `json:"op"`
	Args json.RawMessage `json:"args,omitempty"`
}

// wsMessage is everything the bridge sends over a WebSocket
type wsMessage struct {
	Type    string        `json:"type"` // "hello", "state" or "result"
	Session string        `json:"session,omitempty"`
	ID      string        `json:"id,omitempty"`
	Op      string        `json:"op,omitempty"`
	OK      bool          `json:"ok"`
	Result  interface{}   `json:"result,omitempty"`
	State   *karotz.State `json:"state,omitempty"`
	Error   string        `json:"error,omitempty"`
	Kind    string        `json:"kind,omitempty"`
}

func stateMessage(state karotz.State) wsMessage {
	return wsMessage{Type: "state", OK: true, State: &state}
}

// session is one connected WebSocket client
type session struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// hub tracks sessions. The send channel of a session is only closed by
// remove, under the same lock broadcast holds.
type hub struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newHub() *hub {
	return &hub{sessions: make(map[string]*session)}
}

func (h *hub) add(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.id] = s
}

func (h *hub) remove(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[s.id]; ok {
		delete(h.sessions, s.id)
		close(s.send)
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *hub) broadcast(msg wsMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sessions {
		s.enqueue(msg)
	}
}

// closeAll ends every session; their write pumps send a close frame
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.sessions {
		delete(h.sessions, id)
		close(s.send)
	}
}

// enqueue queues msg without blocking. Callers hold the hub lock or own
// the session.
func (s *session) enqueue(msg wsMessage) {
	if msg.Session == "" {
		msg.Session = s.id
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logging.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}
	select {
	case s.send <- data:
	default:
		logging.Warn("WebSocket send buffer full, dropping message",
			zap.String("session", s.id),
			zap.String("type", msg.Type),
		)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	sess := &session{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	logging.LogConnection(r.RemoteAddr, "websocket_opened", zap.String("session", sess.id))

	// The first messages are queued before the session is visible to
	// broadcasts, so nothing can be interleaved ahead of them.
	sess.enqueue(wsMessage{Type: "hello", OK: true})
	sess.enqueue(stateMessage(s.client.State()))
	s.hub.add(sess)

	go sess.writePump()
	s.readPump(sess)

	s.hub.remove(sess)
	logging.LogConnection(r.RemoteAddr, "websocket_closed", zap.String("session", sess.id))
}

// readPump handles commands until the client goes away. Commands run one
// at a time per session.
func (s *Server) readPump(sess *session) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess.conn.SetReadLimit(maxMessageSize)
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if err := sess.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}

		msgType, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Info("WebSocket read error", zap.String("session", sess.id), zap.Error(err))
			}
			return
		}
		logging.LogWebSocketMessage(sess.id, "received", msgType, data)

		var req wsRequest
		if err := json.Unmarshal(data, &req); err != nil {
			s.replyWS(sess, req, nil, karotz.NewValidationError("invalid command: "+err.Error()))
			continue
		}

		result, err := s.execute(ctx, req.Op, req.Args)
		s.replyWS(sess, req, result, err)
	}
}

func (s *Server) replyWS(sess *session, req wsRequest, result interface{}, err error) {
	msg := wsMessage{Type: "result", ID: req.ID, Op: req.Op, OK: err == nil, Result: result}
	if err != nil {
		msg.Error = err.Error()
		msg.Kind = karotz.ErrorKind(err)
	}
	// The session may have been closed by closeAll during shutdown
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	if _, open := s.hub.sessions[sess.id]; open {
		sess.enqueue(msg)
	}
}

// writePump sends queued messages and keeps the connection alive with pings
func (sess *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = sess.conn.Close()
	}()

	for {
		select {
		case data, ok := <-sess.send:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sess.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := sess.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Debug("WebSocket write failed", zap.String("session", sess.id), zap.Error(err))
				return
			}
			logging.LogWebSocketMessage(sess.id, "sent", websocket.TextMessage, data)

		case <-ticker.C:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
