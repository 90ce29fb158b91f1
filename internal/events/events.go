// Package events provides the in-process event bus connecting the rebuild
// pipeline to the SSE stream and background listeners.
package events

import (
	"sync"
	"time"
)

// EventType represents different event types
type EventType string

const (
	SnapshotFetched  EventType = "SNAPSHOT_FETCHED"
	RebuildCompleted EventType = "REBUILD_COMPLETED"
	AlertsGenerated  EventType = "ALERTS_GENERATED"
	ReportGenerated  EventType = "REPORT_GENERATED"
	SelectionChanged EventType = "SELECTION_CHANGED"
	ErrorOccurred    EventType = "ERROR_OCCURRED"
)

// AllTypes lists every event type, for subscribe-to-everything consumers
// like the SSE stream.
func AllTypes() []EventType {
	return []EventType{
		SnapshotFetched,
		RebuildCompleted,
		AlertsGenerated,
		ReportGenerated,
		SelectionChanged,
		ErrorOccurred,
	}
}

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}

// Handler receives published events. Handlers must not block: slow
// consumers buffer or drop on their own channel.
type Handler func(event *Event)

// Bus fans events out to subscribers by type.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[EventType]map[int]Handler
}

// Subscription identifies a registered handler so transient consumers
// (like a disconnecting SSE client) can remove it.
type Subscription struct {
	t  EventType
	id int
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[EventType]map[int]Handler)}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(t EventType, h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	if b.handlers[t] == nil {
		b.handlers[t] = make(map[int]Handler)
	}
	b.handlers[t][b.nextID] = h
	return Subscription{t: t, id: b.nextID}
}

// Unsubscribe removes a previously registered handler. Safe to call
// more than once.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers[sub.t], sub.id)
}

// Publish delivers an event to every handler subscribed to its type.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Type]))
	for _, h := range b.handlers[event.Type] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
