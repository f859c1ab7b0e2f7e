package feed

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"signal-desk/eventlog"
	"signal-desk/pipeline"
)

// Submitter accepts one raw frame for processing. The pipeline
// orchestrator satisfies this.
type Submitter interface {
	ProcessRawSignal(ctx context.Context, rawText string) (*pipeline.Result, error)
}

// ConnectionManager owns the feed connection lifecycle: connect, read
// loop, staleness-driven reconnect with exponential backoff, and
// submission of frames to the pipeline. Frames arriving while an
// invocation is in flight are dropped, not queued.
type ConnectionManager struct {
	url   string
	token string

	submitter Submitter
	events    *eventlog.Log

	// mu guards client and lastMsgTime, which the health monitor reads
	// while the run loop replaces them.
	mu          sync.Mutex
	client      *Client
	lastMsgTime time.Time
}

// NewConnectionManager creates a feed connection manager.
func NewConnectionManager(url, token string, submitter Submitter, events *eventlog.Log) *ConnectionManager {
	return &ConnectionManager{
		url:         url,
		token:       token,
		submitter:   submitter,
		events:      events,
		lastMsgTime: time.Now(),
	}
}

// Run connects and consumes frames until ctx is cancelled. Connection
// failures reconnect with exponential backoff capped at one minute.
func (cm *ConnectionManager) Run(ctx context.Context) {
	backoff := time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		client := NewClient(cm.url, cm.token)
		if err := client.Connect(); err != nil {
			log.Printf("⚠️  Feed connection failed: %v (retrying in %v)", err, backoff)
			if !sleep(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff)
			continue
		}

		backoff = time.Second
		cm.setClient(client)
		cm.touch()
		cm.readLoop(ctx, client)
		_ = client.Close()

		if ctx.Err() != nil {
			return
		}
		log.Println("⚠️  Feed connection lost, reconnecting...")
	}
}

// readLoop consumes frames until the connection breaks or ctx ends.
func (cm *ConnectionManager) readLoop(ctx context.Context, client *Client) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = client.Close()
		case <-done:
		}
	}()

	for {
		frame, err := client.ReadFrame()
		if err != nil {
			var decodeErr *DecodeError
			if errors.As(err, &decodeErr) {
				log.Printf("⚠️  %v", decodeErr)
				continue
			}
			return
		}
		cm.touch()

		if frame.Text == "" {
			continue
		}
		cm.submit(ctx, frame)
	}
}

// submit hands one frame to the pipeline. A busy pipeline drops the
// frame with a log line; stage failures are already logged by the
// pipeline itself.
func (cm *ConnectionManager) submit(ctx context.Context, frame *Frame) {
	_, err := cm.submitter.ProcessRawSignal(ctx, frame.Text)
	switch {
	case err == nil:
	case errors.Is(err, pipeline.ErrPipelineBusy):
		cm.events.Appendf("[feed] frame from %s dropped: pipeline busy", frame.Source)
	default:
		log.Printf("⚠️  Feed frame from %s failed processing: %v", frame.Source, err)
	}
}

// RunHealthMonitor reconnect-cycles the feed when no frame has arrived
// for five minutes. Blocks until ctx is cancelled.
func (cm *ConnectionManager) RunHealthMonitor(ctx context.Context) {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	log.Println("💓 Feed health monitoring started")
	for {
		select {
		case <-ctx.Done():
			log.Println("🛑 Feed health monitoring stopped")
			return
		case <-ticker.C:
			stale := cm.sinceLastFrame()
			client := cm.currentClient()
			if stale > 5*time.Minute {
				log.Printf("⚠️  No feed frame for %v, cycling connection...", stale.Round(time.Second))
				if client != nil {
					_ = client.Close()
				}
			} else if client != nil {
				if err := client.WritePing(); err != nil {
					log.Printf("⚠️  Feed keep-alive failed: %v", err)
				}
			}
		}
	}
}

// Close closes the current connection.
func (cm *ConnectionManager) Close() error {
	if client := cm.currentClient(); client != nil {
		return client.Close()
	}
	return nil
}

func (cm *ConnectionManager) setClient(c *Client) {
	cm.mu.Lock()
	cm.client = c
	cm.mu.Unlock()
}

func (cm *ConnectionManager) currentClient() *Client {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.client
}

func (cm *ConnectionManager) touch() {
	cm.mu.Lock()
	cm.lastMsgTime = time.Now()
	cm.mu.Unlock()
}

func (cm *ConnectionManager) sinceLastFrame() time.Duration {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return time.Since(cm.lastMsgTime)
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > time.Minute {
		next = time.Minute
	}
	return next
}
