package game

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

const (
	subscriberQueueSize = 64
	writeDeadline       = 10 * time.Second
)

// conn is the slice of *websocket.Conn the hub needs; tests substitute fakes.
type conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Subscriber is one connected client. Outbound frames go through a bounded
// queue drained by a dedicated writer goroutine, so delivery is FIFO per
// connection and a slow reader can never stall the round loop.
type Subscriber struct {
	ID     string
	UserID int64

	conn      conn
	out       chan []byte
	closeOnce sync.Once
}

// Send queues a frame for this subscriber only. Full queue drops the frame.
func (s *Subscriber) Send(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WS] marshal error: %v", err)
		return
	}
	s.enqueue(data)
}

func (s *Subscriber) enqueue(data []byte) bool {
	defer func() { recover() }() // racing a close is a drop, not a crash
	select {
	case s.out <- data:
		return true
	default:
		return false
	}
}

func (s *Subscriber) close() {
	s.closeOnce.Do(func() {
		close(s.out)
		s.conn.Close()
	})
}

// writePump drains the queue onto the connection.
func (s *Subscriber) writePump() {
	for data := range s.out {
		s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("[WS] write error for subscriber %s: %v", s.ID, err)
			return
		}
	}
}

// Hub is the subscriber registry. Broadcast marshals once and fans out with
// non-blocking enqueues; per-connection ordering follows the order events
// were generated.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]*Subscriber
	dropped int64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]*Subscriber)}
}

// Register adds a connection and starts its writer.
func (h *Hub) Register(c conn, userID int64) *Subscriber {
	sub := &Subscriber{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   c,
		out:    make(chan []byte, subscriberQueueSize),
	}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	total := len(h.subs)
	h.mu.Unlock()

	go sub.writePump()
	log.Printf("[WS] subscriber %s connected (user %d, total %d)", sub.ID, userID, total)
	return sub
}

func (h *Hub) Unregister(sub *Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub.ID]
	delete(h.subs, sub.ID)
	total := len(h.subs)
	h.mu.Unlock()

	if ok {
		sub.close()
		log.Printf("[WS] subscriber %s disconnected (total %d)", sub.ID, total)
	}
}

// Broadcast fans a message out to every subscriber without blocking.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WS] marshal error: %v", err)
		return
	}

	h.mu.RLock()
	var dropped int
	for _, sub := range h.subs {
		if !sub.enqueue(data) {
			dropped++
		}
	}
	h.mu.RUnlock()

	if dropped > 0 {
		h.mu.Lock()
		h.dropped += int64(dropped)
		h.mu.Unlock()
		log.Printf("[WS] dropped %q for %d slow subscribers", msg.Type, dropped)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// DroppedCount reports frames discarded because a subscriber queue was full.
func (h *Hub) DroppedCount() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}
