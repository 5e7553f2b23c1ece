// Package telemetry fans out lobby lifecycle analytics — lobby created,
// game started, player died, lobby ended — to in-process
// subscribers (an admin dashboard's live feed) and, optionally, to a
// durable Cloud Pub/Sub topic for cross-instance aggregation. Adapted from
// the teacher's CloudEvents-shaped event bus.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"
)

// Emitter is the interface for publishing lifecycle events. Both the
// in-memory Bus and the PubSubBus satisfy this interface, so lobby/gameloop
// code can depend on the interface and stay agnostic of the backend.
type Emitter interface {
	Emit(eventType, lobbyCode string, data map[string]interface{})
}

// Event is the CloudEvents 1.0-shaped envelope every lifecycle event is
// wrapped in, matching the wire shape operators already expect from the
// admin dashboard.
type Event struct {
	SpecVersion string                 `json:"specversion"`
	Type        string                 `json:"type"`
	Source      string                 `json:"source"`
	ID          string                 `json:"id"`
	Time        time.Time              `json:"time"`
	LobbyCode   string                 `json:"subject,omitempty"`
	Data        map[string]interface{} `json:"data"`
}

// NewEvent builds an Event with the envelope fields filled in.
func NewEvent(eventType, lobbyCode string, data map[string]interface{}) *Event {
	return &Event{
		SpecVersion: "1.0",
		Type:        eventType,
		Source:      "/gameserver",
		ID:          fmt.Sprintf("ev-%d", time.Now().UnixNano()),
		Time:        time.Now(),
		LobbyCode:   lobbyCode,
		Data:        data,
	}
}

// JSON serializes the event.
func (e *Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// Bus is an in-process pub/sub event bus. Subscribers receive Events in
// real time over a buffered channel; a slow subscriber drops events rather
// than blocking the emitter.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan *Event
	allSubs     []chan *Event
	logger      *log.Logger
	bufferSize  int
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string][]chan *Event),
		logger:      log.New(log.Writer(), "[telemetry] ", log.LstdFlags),
		bufferSize:  100,
	}
}

// Subscribe creates a channel that receives events of the named types. Pass
// no eventTypes to receive every event.
func (b *Bus) Subscribe(eventTypes ...string) chan *Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *Event, b.bufferSize)
	if len(eventTypes) == 0 {
		b.allSubs = append(b.allSubs, ch)
	} else {
		for _, et := range eventTypes {
			b.subscribers[et] = append(b.subscribers[et], ch)
		}
	}
	return ch
}

// Unsubscribe removes and closes a subscription channel.
func (b *Bus) Unsubscribe(ch chan *Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for et, subs := range b.subscribers {
		b.subscribers[et] = removeChan(subs, ch)
	}
	b.allSubs = removeChan(b.allSubs, ch)
	close(ch)
}

func removeChan(subs []chan *Event, target chan *Event) []chan *Event {
	filtered := make([]chan *Event, 0, len(subs))
	for _, s := range subs {
		if s != target {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// Publish sends an event to every matching subscriber, dropping it for any
// subscriber whose buffer is full.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[event.Type] {
		select {
		case ch <- event:
		default:
		}
	}
	for _, ch := range b.allSubs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Emit builds and publishes an event. Implements Emitter.
func (b *Bus) Emit(eventType, lobbyCode string, data map[string]interface{}) {
	b.Publish(NewEvent(eventType, lobbyCode, data))
}

// SubscriberCount returns the total number of active subscriber channels.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	count := len(b.allSubs)
	for _, subs := range b.subscribers {
		count += len(subs)
	}
	return count
}

var _ Emitter = (*Bus)(nil)

// Lifecycle event type names. The lobby and lobby manager emit all of
// them except EventWaveSpawned, which no code emits.
const (
	EventLobbyCreated = "game.lobby.created"
	EventGameStarted  = "game.lobby.started"
	EventWaveSpawned  = "game.wave.spawned"
	EventPlayerDied   = "game.player.died"
	EventLobbyEnded   = "game.lobby.ended"
)
