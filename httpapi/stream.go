package httpapi

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/fthyco/simorg/pkg/logger"
)

// commitNotice is pushed to every subscriber of a project after a
// committed append (spec §11.2: a read-only supplemental feature that
// never mutates state).
type commitNotice struct {
	Sequence  int64  `json:"sequence"`
	StateHash string `json:"state_hash"`
}

// streamHub fans out commit notices to websocket subscribers, one set of
// subscribers per project id.
type streamHub struct {
	mu          sync.Mutex
	subscribers map[string]map[*websocket.Conn]struct{}
	log         *logger.Logger
}

func newStreamHub(log *logger.Logger) *streamHub {
	return &streamHub{
		subscribers: make(map[string]map[*websocket.Conn]struct{}),
		log:         log,
	}
}

func (h *streamHub) subscribe(projectID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[projectID] == nil {
		h.subscribers[projectID] = make(map[*websocket.Conn]struct{})
	}
	h.subscribers[projectID][conn] = struct{}{}
}

func (h *streamHub) unsubscribe(projectID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers[projectID], conn)
}

func (h *streamHub) publish(projectID string, notice commitNotice) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.subscribers[projectID]))
	for c := range h.subscribers[projectID] {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteJSON(notice); err != nil {
			h.log.WithFields(map[string]interface{}{"error": err}).Warn("stream: dropping subscriber after write error")
			h.unsubscribe(projectID, c)
			_ = c.Close()
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Kernel state never crosses an origin check; the stream is read-only
	// telemetry, not an authenticated mutation path.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *handler) handleStream(w http.ResponseWriter, r *http.Request) {
	projectID := projectIDFromRequest(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithFields(map[string]interface{}{"error": err}).Warn("stream: upgrade failed")
		return
	}
	defer conn.Close()

	h.hub.subscribe(projectID, conn)
	defer h.hub.unsubscribe(projectID, conn)

	// Block on reads purely to detect client disconnect; the client never
	// sends anything meaningful over this socket.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
