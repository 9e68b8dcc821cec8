// Package events fans coordinator events out to subscribers without ever blocking the sender.
package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"playlistdl/internal/models"
)

// Kind names an event.
type Kind string

const (
	BatchProgress    Kind = "batch-progress"
	BatchComplete    Kind = "batch-complete"
	BatchError       Kind = "batch-error"
	DownloadComplete Kind = "download-complete"
	DownloadError    Kind = "download-error"
)

// Event carries a full snapshot of the state it reports on.
type Event struct {
	Kind     Kind                  `json:"kind"`
	Time     time.Time             `json:"time"`
	BatchID  string                `json:"batch_id,omitempty"`
	ItemID   string                `json:"item_id,omitempty"`
	Progress *models.BatchProgress `json:"progress,omitempty"`
	Summary  *models.BatchSummary  `json:"summary,omitempty"`
	Item     *models.DownloadItem  `json:"item,omitempty"`
	Failure  *models.BatchError    `json:"failure,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// Sink consumes events.
type Sink interface {
	Handle(ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Handle implements Sink.
func (f SinkFunc) Handle(ev Event) { f(ev) }

// DefaultBuffer is the per-subscriber channel size.
const DefaultBuffer = 256

// Emitter broadcasts events to subscribers.
type Emitter struct {
	mu      sync.RWMutex
	subs    map[uint64]chan Event
	nextID  uint64
	dropped atomic.Uint64
}

// NewEmitter returns an emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{subs: make(map[uint64]chan Event)}
}

// Emit delivers ev to every subscriber with room. Full subscribers miss the event.
func (e *Emitter) Emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
			e.dropped.Add(1)
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel func closes the channel.
func (e *Emitter) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan Event, buffer)

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = ch
	e.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs, id)
			close(ch)
			e.mu.Unlock()
		})
	}
}

// Attach runs sink on its own goroutine until ctx is done.
func (e *Emitter) Attach(ctx context.Context, sink Sink) {
	ch, cancel := e.Subscribe(DefaultBuffer)
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				sink.Handle(ev)
			}
		}
	}()
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (e *Emitter) Dropped() uint64 {
	return e.dropped.Load()
}

// Subscribers returns the current subscriber count.
func (e *Emitter) Subscribers() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs)
}
