package events

import (
	"sync"

	"go.uber.org/zap"
)

// Listener receives events for one encounter. Listeners are invoked
// synchronously on the emitting goroutine and must not block.
type Listener func(Event)

// Bus is the in-process publish/subscribe bus, keyed by encounter id.
// Delivery is synchronous and in emission order to every listener
// subscribed at emit time. There is no buffering, no persistence, and no
// cross-process fan-out: the bus is constructed once at startup and shared.
//
// All methods are safe for concurrent use.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string]map[int]Listener
	nextID    int
	logger    *zap.Logger
}

// NewBus creates an empty Bus.
//
// Precondition: logger must be non-nil.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		listeners: make(map[string]map[int]Listener),
		logger:    logger,
	}
}

// Subscribe registers fn for the encounter and returns an unsubscribe
// function. Unsubscribing is idempotent.
//
// Precondition: encounterID must be non-empty; fn must be non-nil.
func (b *Bus) Subscribe(encounterID string, fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.listeners[encounterID] == nil {
		b.listeners[encounterID] = make(map[int]Listener)
	}
	id := b.nextID
	b.nextID++
	b.listeners[encounterID][id] = fn

	b.logger.Debug("subscriber added",
		zap.String("encounter_id", encounterID),
		zap.Int("listeners", len(b.listeners[encounterID])),
	)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.listeners[encounterID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.listeners, encounterID)
			}
		}
	}
}

// Emit delivers ev to every current subscriber for the encounter, in
// subscription order relative to other Emit calls: a single Emit completes
// all deliveries before returning, so events are observed in emission order.
func (b *Bus) Emit(encounterID string, ev Event) {
	b.mu.RLock()
	subs := b.listeners[encounterID]
	// Snapshot so a listener unsubscribing mid-delivery cannot mutate the
	// map under iteration.
	fns := make([]Listener, 0, len(subs))
	for _, fn := range subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}

	b.logger.Debug("event emitted",
		zap.String("encounter_id", encounterID),
		zap.String("type", string(ev.Type)),
		zap.Int("delivered", len(fns)),
	)
}

// HasListeners reports whether anyone is subscribed to the encounter.
// Callers may use it to skip building expensive payloads; correctness never
// depends on it.
func (b *Bus) HasListeners(encounterID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[encounterID]) > 0
}
