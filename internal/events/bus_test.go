package events_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/events"
)

func newBus() *events.Bus {
	return events.NewBus(zap.NewNop())
}

// TestBus_DeliversInEmissionOrder: a subscriber observes events in the exact
// order they were emitted.
func TestBus_DeliversInEmissionOrder(t *testing.T) {
	bus := newBus()
	var got []events.Type
	unsub := bus.Subscribe("enc-1", func(ev events.Event) {
		got = append(got, ev.Type)
	})
	defer unsub()

	sequence := []events.Type{
		events.TypePlayerTurn, events.TypeNPCTurn, events.TypeStateUpdate, events.TypeRoundEnd,
	}
	for _, typ := range sequence {
		bus.Emit("enc-1", events.Event{Type: typ, EncounterID: "enc-1"})
	}
	assert.Equal(t, sequence, got)
}

// TestBus_KeyedByEncounter: listeners only see their own encounter's events.
func TestBus_KeyedByEncounter(t *testing.T) {
	bus := newBus()
	var a, b int
	defer bus.Subscribe("enc-a", func(events.Event) { a++ })()
	defer bus.Subscribe("enc-b", func(events.Event) { b++ })()

	bus.Emit("enc-a", events.Event{Type: events.TypePlayerTurn})
	bus.Emit("enc-a", events.Event{Type: events.TypeStateUpdate})
	bus.Emit("enc-b", events.Event{Type: events.TypePlayerTurn})

	assert.Equal(t, 2, a)
	assert.Equal(t, 1, b)
}

// TestBus_Unsubscribe stops delivery and is idempotent.
func TestBus_Unsubscribe(t *testing.T) {
	bus := newBus()
	var count int
	unsub := bus.Subscribe("enc-1", func(events.Event) { count++ })

	bus.Emit("enc-1", events.Event{Type: events.TypePlayerTurn})
	unsub()
	unsub() // second call is a no-op
	bus.Emit("enc-1", events.Event{Type: events.TypeNPCTurn})

	assert.Equal(t, 1, count)
	assert.False(t, bus.HasListeners("enc-1"))
}

// TestBus_HasListeners reflects the live subscriber set.
func TestBus_HasListeners(t *testing.T) {
	bus := newBus()
	require.False(t, bus.HasListeners("enc-1"))
	unsub := bus.Subscribe("enc-1", func(events.Event) {})
	assert.True(t, bus.HasListeners("enc-1"))
	unsub()
	assert.False(t, bus.HasListeners("enc-1"))
}

// TestBus_ConcurrentSubscribeEmit exercises the bus under parallel
// subscribers, unsubscribers, and emitters.
func TestBus_ConcurrentSubscribeEmit(t *testing.T) {
	bus := newBus()
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsub := bus.Subscribe("enc-1", func(events.Event) {})
			bus.Emit("enc-1", events.Event{Type: events.TypeStateUpdate})
			unsub()
		}()
	}
	wg.Wait()
	assert.False(t, bus.HasListeners("enc-1"))
}

// TestType_Terminal: only combat_end and player_dead signal stream close.
func TestType_Terminal(t *testing.T) {
	assert.True(t, events.TypeCombatEnd.Terminal())
	assert.True(t, events.TypePlayerDead.Terminal())
	assert.False(t, events.TypeRoundEnd.Terminal())
	assert.False(t, events.TypeError.Terminal())
}
