package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType indicates the category of a game lifecycle event.
type EventType string

const (
	GameStarted       EventType = "GAME_STARTED"
	DecisionRequested EventType = "DECISION_REQUESTED"
	DecisionRejected  EventType = "DECISION_REJECTED"
	ActionApplied     EventType = "ACTION_APPLIED"
	StepResolved      EventType = "STEP_RESOLVED"
	PlayerForfeited   EventType = "PLAYER_FORFEITED"
	GameEnded         EventType = "GAME_ENDED"
)

// Seat describes a player in a GAME_STARTED event.
type Seat struct {
	Name  string `json:"name"`
	Team  string `json:"team"`
	Role  string `json:"role"`
	Seat  int    `json:"seat"`
	Agent string `json:"agent"`
}

// Event is published by the runner as a game progresses.
type Event struct {
	Type     EventType
	ID       string
	GameID   string
	Game     string
	Player   string
	Seat     int
	Action   string
	Params   map[string]any
	Records  []map[string]any  // history records appended by the transition
	Views    map[string]string // player name -> board view after the transition
	Seats    []Seat
	Config   map[string]any
	Reason   string // rejection or abort reason
	Attempt  int
	Winner   string
	Turns    int
	Aborted  bool
	Metadata map[string]string

	Timestamp time.Time
}

// New creates an event with ID and timestamp populated.
func New(eventType EventType, gameID string) Event {
	return Event{
		Type:      eventType,
		ID:        uuid.New().String(),
		GameID:    gameID,
		Seat:      -1,
		Timestamp: time.Now(),
		Metadata:  make(map[string]string),
	}
}

// Listener reacts to events.
type Listener func(Event)

type subscription struct {
	handle    int
	eventType EventType // empty for every type
	listener  Listener
}

// Bus is a synchronous publish/subscribe hub with optional type filtering.
// Listeners run on the publisher's goroutine in subscription order.
type Bus struct {
	mu         sync.RWMutex
	subs       []subscription
	nextHandle int
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a listener for every event and returns its handle.
func (b *Bus) Subscribe(listener Listener) int {
	return b.add("", listener)
}

// SubscribeTyped registers a listener for one event type and returns its handle.
func (b *Bus) SubscribeTyped(eventType EventType, listener Listener) int {
	return b.add(eventType, listener)
}

func (b *Bus) add(eventType EventType, listener Listener) int {
	if listener == nil {
		return -1
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	handle := b.nextHandle
	b.nextHandle++
	b.subs = append(b.subs, subscription{handle: handle, eventType: eventType, listener: listener})
	return handle
}

// Unsubscribe removes the listener identified by handle.
func (b *Bus) Unsubscribe(handle int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.handle == handle {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers the event to every matching listener.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs...)
	b.mu.RUnlock()

	for _, s := range subs {
		if s.eventType == "" || s.eventType == event.Type {
			s.listener(event)
		}
	}
}

// Len returns the number of subscriptions.
func (b *Bus) Len() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
