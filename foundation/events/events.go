// Package events allows for the registering and receiving of ledger events
// so they can be pushed out to websocket subscribers.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Event is the document every subscriber receives.
type Event struct {
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// A message is dropped if the receiver is not ready, so give slow
// websocket writers some room.
const messageBuffer = 100

type subscriber struct {
	ch    chan []byte
	kinds map[string]bool
}

// wants reports whether the subscriber asked for this kind of event. A
// subscriber with no kinds receives everything.
func (s subscriber) wants(kind string) bool {
	return len(s.kinds) == 0 || s.kinds[kind]
}

// Events maintains a mapping of unique id and subscribers so goroutines
// can register and receive events.
type Events struct {
	m  map[string]subscriber
	mu sync.RWMutex
}

// New constructs an events for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]subscriber),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, sub := range evt.m {
		delete(evt.m, id)
		close(sub.ch)
	}
}

// Acquire registers the id and returns the channel its events arrive on.
// When kinds are provided only events of those kinds are delivered.
func (evt *Events) Acquire(id string, kinds ...string) <-chan []byte {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if sub, exists := evt.m[id]; exists {
		return sub.ch
	}

	sub := subscriber{
		ch:    make(chan []byte, messageBuffer),
		kinds: make(map[string]bool, len(kinds)),
	}
	for _, k := range kinds {
		sub.kinds[k] = true
	}

	evt.m[id] = sub
	return sub.ch
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	sub, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(sub.ch)
	return nil
}

// Subscribers returns the number of registered receivers.
func (evt *Events) Subscribers() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Send encodes the event and hands it to every subscriber that wants it.
// Send never blocks on a slow receiver.
func (evt *Events) Send(kind string, message string) {
	data, err := json.Marshal(Event{
		Kind:    kind,
		Message: message,
		Time:    time.Now().UTC(),
	})
	if err != nil {
		return
	}

	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, sub := range evt.m {
		if !sub.wants(kind) {
			continue
		}

		select {
		case sub.ch <- data:
		default:
		}
	}
}
