// Package chatlog ships completed chat turns to an external logging
// endpoint. Delivery is strictly best effort: enqueueing never blocks
// the caller, a full queue drops the turn, and delivery failures are
// swallowed. Nothing here may ever surface in a user-facing response.
package chatlog

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"docuchat/internal/models"
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 32
)

var chatlogDebugEnabled = strings.EqualFold(os.Getenv("DOCUCHAT_DEBUG"), "1")

func debugLog(format string, args ...interface{}) {
	if chatlogDebugEnabled {
		log.Printf(format, args...)
	}
}

// Logger posts chat turns to the configured endpoint from a small fixed
// worker pool. A nil Logger discards everything, so callers need no
// enabled check.
type Logger struct {
	endpoint string
	client   *http.Client
	queue    chan models.ChatTurn
	wg       sync.WaitGroup
	dropped  int64
}

// New starts the delivery workers. An empty endpoint disables logging
// and returns nil, which every method tolerates.
func New(endpoint string, workers, queueSize int) *Logger {
	if endpoint == "" {
		return nil
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	// No timeout: outbound calls rely on transport defaults.
	l := &Logger{
		endpoint: endpoint,
		client:   &http.Client{},
		queue:    make(chan models.ChatTurn, queueSize),
	}
	for i := 0; i < workers; i++ {
		l.wg.Add(1)
		go l.deliver()
	}
	return l
}

// Log enqueues one turn without blocking. The turn is dropped when the
// logger is disabled or the queue is full.
func (l *Logger) Log(turn models.ChatTurn) {
	if l == nil {
		return
	}
	select {
	case l.queue <- turn:
	default:
		atomic.AddInt64(&l.dropped, 1)
		debugLog("[chatlog] queue full, dropped turn for session %s", turn.SessionID)
	}
}

// Close stops intake, drains queued turns, and waits for the workers.
// Log must not be called after Close.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	close(l.queue)
	l.wg.Wait()
}

// Dropped reports how many turns were discarded because the queue was
// full.
func (l *Logger) Dropped() int64 {
	if l == nil {
		return 0
	}
	return atomic.LoadInt64(&l.dropped)
}

func (l *Logger) deliver() {
	defer l.wg.Done()
	for turn := range l.queue {
		l.post(turn)
	}
}

func (l *Logger) post(turn models.ChatTurn) {
	payload, err := json.Marshal(turn)
	if err != nil {
		debugLog("[chatlog] encode turn: %v", err)
		return
	}
	resp, err := l.client.Post(l.endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		debugLog("[chatlog] post turn: %v", err)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		debugLog("[chatlog] endpoint returned %s", resp.Status)
	}
}
