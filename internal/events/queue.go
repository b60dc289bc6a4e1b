package events

import (
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"retail-dashboard-api/internal/models"
)

// EventQueue is the in-memory activity feed. Events get increasing offsets
// and the oldest quarter is dropped once MaxEvents is exceeded.
type EventQueue struct {
	mu         sync.RWMutex
	events     []models.Event
	nextOffset int64
	maxEvents  int
	logger     *slog.Logger
	now        func() time.Time

	waitersMutex sync.Mutex
	waiters      map[int64][]chan struct{}
}

// EventQueueConfig holds configuration for the event queue
type EventQueueConfig struct {
	MaxEvents int
	Logger    *slog.Logger
}

// NewEventQueue creates a new event queue
func NewEventQueue(config EventQueueConfig) *EventQueue {
	if config.MaxEvents < 4 {
		config.MaxEvents = 1000
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	eq := &EventQueue{
		events:    make([]models.Event, 0),
		maxEvents: config.MaxEvents,
		logger:    config.Logger,
		now:       time.Now,
		waiters:   make(map[int64][]chan struct{}),
	}

	eq.logger.Info("Event queue initialized", "max_events", config.MaxEvents)
	return eq
}

// Publish appends an event and wakes any waiters
func (eq *EventQueue) Publish(eventType, entityType, entityID string, attrs map[string]string) models.Event {
	eq.mu.Lock()
	event := models.Event{
		Offset:     eq.nextOffset,
		Timestamp:  eq.now().Format(time.RFC3339),
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Attributes: maps.Clone(attrs),
	}
	eq.nextOffset++
	eq.events = append(eq.events, event)

	if len(eq.events) > eq.maxEvents {
		keepCount := eq.maxEvents * 3 / 4 // Keep 75% of max events
		removed := len(eq.events) - keepCount
		eq.events = slices.Clone(eq.events[removed:])

		eq.logger.Info("Event queue rotated",
			"removed_events", removed,
			"remaining_events", len(eq.events),
		)
	}
	eq.mu.Unlock()

	eq.logger.Debug("Event published",
		"offset", event.Offset,
		"event_type", event.EventType,
		"entity_id", event.EntityID,
	)

	eq.notifyWaiters(event.Offset)
	return event
}

// GetEvents returns up to limit events at or after fromOffset, the offset to
// resume from, and whether more events follow
func (eq *EventQueue) GetEvents(fromOffset int64, limit int) ([]models.Event, int64, bool) {
	eq.mu.RLock()
	defer eq.mu.RUnlock()

	startIdx := slices.IndexFunc(eq.events, func(e models.Event) bool { return e.Offset >= fromOffset })
	if startIdx == -1 {
		return []models.Event{}, max(fromOffset, eq.nextOffset), false
	}

	endIdx := min(startIdx+limit, len(eq.events))
	result := slices.Clone(eq.events[startIdx:endIdx])

	return result, result[len(result)-1].Offset + 1, endIdx < len(eq.events)
}

// WaitForEvents returns a channel closed when an event at or after
// fromOffset exists, or when timeout elapses
func (eq *EventQueue) WaitForEvents(fromOffset int64, timeout time.Duration) <-chan struct{} {
	eq.waitersMutex.Lock()
	defer eq.waitersMutex.Unlock()

	notify := make(chan struct{})
	if eq.GetCurrentOffset() > fromOffset {
		close(notify)
		return notify
	}

	eq.waiters[fromOffset] = append(eq.waiters[fromOffset], notify)

	time.AfterFunc(timeout, func() {
		eq.waitersMutex.Lock()
		defer eq.waitersMutex.Unlock()

		list := eq.waiters[fromOffset]
		if idx := slices.Index(list, notify); idx >= 0 {
			eq.waiters[fromOffset] = slices.Delete(list, idx, idx+1)
			if len(eq.waiters[fromOffset]) == 0 {
				delete(eq.waiters, fromOffset)
			}
			close(notify)
		}
	})

	return notify
}

// GetCurrentOffset returns the offset the next event will receive
func (eq *EventQueue) GetCurrentOffset() int64 {
	eq.mu.RLock()
	defer eq.mu.RUnlock()
	return eq.nextOffset
}

// Close releases every pending waiter
func (eq *EventQueue) Close() error {
	eq.logger.Info("Shutting down event queue")

	eq.waitersMutex.Lock()
	defer eq.waitersMutex.Unlock()
	for offset, waiters := range eq.waiters {
		for _, w := range waiters {
			close(w)
		}
		delete(eq.waiters, offset)
	}
	return nil
}

// notifyWaiters wakes every waiter whose offset is now available
func (eq *EventQueue) notifyWaiters(offset int64) {
	eq.waitersMutex.Lock()
	defer eq.waitersMutex.Unlock()

	for waitOffset, waiters := range eq.waiters {
		if waitOffset <= offset {
			for _, w := range waiters {
				close(w)
			}
			delete(eq.waiters, waitOffset)
		}
	}
}
