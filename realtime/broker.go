// Package realtime streams desk events (log lines, committed signals,
// draft updates, calibration changes) to connected dashboard clients
// over Server-Sent Events.
package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// Event names broadcast by the desk.
const (
	EventLog                 = "log"
	EventSignalCommitted     = "signal_committed"
	EventDraftUpdated        = "draft_updated"
	EventStoryUpdated        = "story_updated"
	EventCalibrationAdjusted = "calibration_adjusted"
)

// Envelope is the typed wrapper every broadcast message carries.
type Envelope struct {
	Event     string      `json:"event"`
	Seq       uint64      `json:"seq"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Broker fans broadcast messages out to SSE clients. Slow clients are
// skipped, never blocked on.
type Broker struct {
	clients    map[chan []byte]bool
	register   chan chan []byte
	unregister chan chan []byte
	broadcast  chan []byte
	mu         sync.RWMutex
	seq        uint64
	seqMu      sync.Mutex
}

// NewBroker creates a new SSE broker
func NewBroker() *Broker {
	return &Broker{
		clients:    make(map[chan []byte]bool),
		register:   make(chan chan []byte),
		unregister: make(chan chan []byte),
		broadcast:  make(chan []byte, 1000),
	}
}

// Run starts the broker loop
func (b *Broker) Run() {
	for {
		select {
		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			b.mu.Unlock()
			log.Printf("SSE client connected. Total: %d", len(b.clients))

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client)
				log.Printf("SSE client disconnected. Total: %d", len(b.clients))
			}
			b.mu.Unlock()

		case msg := <-b.broadcast:
			b.mu.RLock()
			for client := range b.clients {
				select {
				case client <- msg:
				default:
					// Skip if client buffer is full to prevent blocking
				}
			}
			b.mu.RUnlock()
		}
	}
}

// ServeHTTP handles the SSE endpoint
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	clientChan := make(chan []byte, 10)
	b.register <- clientChan

	notify := r.Context().Done()

	for {
		select {
		case <-notify:
			b.unregister <- clientChan
			return
		case msg := <-clientChan:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// Broadcast wraps the payload in a sequenced envelope and sends it to
// all connected clients. Drops the message when the broadcast buffer is
// full rather than blocking the caller.
func (b *Broker) Broadcast(event string, payload interface{}) {
	b.seqMu.Lock()
	b.seq++
	seq := b.seq
	b.seqMu.Unlock()

	env := Envelope{
		Event:     event,
		Seq:       seq,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	jsonBytes, err := json.Marshal(env)
	if err != nil {
		log.Printf("Error marshalling broadcast message: %v", err)
		return
	}

	select {
	case b.broadcast <- jsonBytes:
	default:
		// Drop if broadcast buffer full
	}
}
