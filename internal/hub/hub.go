// Package hub keeps the registry of live notification subscribers and fans
// broadcast messages out to them.
package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Subscription is one live listener's membership in the hub. Messages arrive
// on Messages; Done is closed once the subscription is removed.
type Subscription struct {
	ID   string
	ch   chan string
	done chan struct{}
	once sync.Once
}

// Messages is the stream of broadcast payloads for this subscriber.
func (s *Subscription) Messages() <-chan string { return s.ch }

// Done is closed when the subscription has been unregistered.
func (s *Subscription) Done() <-chan struct{} { return s.done }

func (s *Subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

// Hub owns the active subscriber set. All mutations go through Register and
// Unregister; Broadcast iterates a snapshot so a subscriber joining or
// leaving mid-broadcast is safe.
type Hub struct {
	mu   sync.Mutex
	subs map[string]*Subscription

	sendTimeout time.Duration
	buffer      int
}

// New creates a hub. sendTimeout bounds each delivery attempt so one stalled
// subscriber cannot starve the rest; buffer is each subscription's channel
// capacity.
func New(sendTimeout time.Duration, buffer int) *Hub {
	if sendTimeout <= 0 {
		sendTimeout = time.Second
	}
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:        make(map[string]*Subscription),
		sendTimeout: sendTimeout,
		buffer:      buffer,
	}
}

// Register adds a new subscription to the active set.
func (h *Hub) Register() *Subscription {
	sub := &Subscription{
		ID:   uuid.NewString(),
		ch:   make(chan string, h.buffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	h.subs[sub.ID] = sub
	h.mu.Unlock()

	log.Debug().Str("subscription", sub.ID).Msg("subscriber connected")
	return sub
}

// Unregister removes a subscription. Removing one that is already gone, or
// was never registered, is a no-op.
func (h *Hub) Unregister(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	_, present := h.subs[sub.ID]
	delete(h.subs, sub.ID)
	h.mu.Unlock()

	sub.stop()
	if present {
		log.Debug().Str("subscription", sub.ID).Msg("subscriber removed")
	}
}

// Count reports the size of the active set.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Broadcast delivers msg to every active subscriber. Deliveries run
// independently with a bounded timeout each; a subscriber that cannot accept
// the message in time is dropped from the set. Broadcast returns once every
// attempt has finished and never reports individual failures to the caller.
func (h *Hub) Broadcast(msg string) {
	h.mu.Lock()
	snapshot := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		snapshot = append(snapshot, sub)
	}
	h.mu.Unlock()

	var wg sync.WaitGroup
	for _, sub := range snapshot {
		wg.Add(1)
		go func(sub *Subscription) {
			defer wg.Done()
			if !h.deliver(sub, msg) {
				log.Warn().Str("subscription", sub.ID).Msg("dropping unresponsive subscriber")
				h.Unregister(sub)
			}
		}(sub)
	}
	wg.Wait()
}

// deliver makes one bounded attempt to hand msg to the subscriber.
func (h *Hub) deliver(sub *Subscription, msg string) bool {
	timer := time.NewTimer(h.sendTimeout)
	defer timer.Stop()

	select {
	case sub.ch <- msg:
		return true
	case <-sub.done:
		return false
	case <-timer.C:
		return false
	}
}
