package watcher

import (
	"sync"
	"time"
)

// BatchDebouncer collects events and emits them as a batch once no event
// has arrived for the delay. Events for the same path coalesce: the batch
// holds the latest event per path, in first-seen order.
type BatchDebouncer struct {
	delay time.Duration
	emit  func([]Event)

	mu     sync.Mutex
	timer  *time.Timer
	events []Event
	index  map[string]int
}

// NewBatchDebouncer creates a new batch debouncer
func NewBatchDebouncer(delay time.Duration, emit func([]Event)) *BatchDebouncer {
	return &BatchDebouncer{
		delay: delay,
		emit:  emit,
		index: make(map[string]int),
	}
}

// Add adds an event to the batch and restarts the quiet period.
func (b *BatchDebouncer) Add(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i, ok := b.index[event.Path]; ok {
		if b.events[i].Type == EventCreate && event.Type == EventModify {
			event.Type = EventCreate
		}
		b.events[i] = event
	} else {
		b.index[event.Path] = len(b.events)
		b.events = append(b.events, event)
	}

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.delay, b.flush)
}

func (b *BatchDebouncer) take() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	events := b.events
	b.events = nil
	clear(b.index)
	return events
}

func (b *BatchDebouncer) flush() {
	events := b.take()
	if len(events) > 0 && b.emit != nil {
		b.emit(events)
	}
}

// Cancel drops pending events.
func (b *BatchDebouncer) Cancel() {
	b.take()
}

// Flush immediately emits any pending events
func (b *BatchDebouncer) Flush() {
	b.flush()
}

// EventCount returns the number of pending events
func (b *BatchDebouncer) EventCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
