// Package notifier fans graph events out to live viewer connections.
package notifier

import (
	"errors"
	"sync"

	"github.com/bassista/go_graphview/internal/cache"
	"github.com/bassista/go_graphview/internal/graph"
	"github.com/bassista/go_graphview/internal/logger"
	"github.com/google/uuid"
)

// DefaultSendBuffer is the per-subscriber queue length used when none is configured.
const DefaultSendBuffer = 16

// ErrHubClosed is returned by Attach once the hub has been shut down.
var ErrHubClosed = errors.New("notifier: hub closed")

// Subscriber is one live connection's view of the hub.
// Events are delivered by value; the queue is never closed, watch Done instead.
type Subscriber struct {
	id        string
	events    chan graph.Event
	done      chan struct{}
	closeOnce sync.Once
}

func newSubscriber(buffer int) *Subscriber {
	return &Subscriber{
		id:     uuid.NewString(),
		events: make(chan graph.Event, buffer),
		done:   make(chan struct{}),
	}
}

func (s *Subscriber) ID() string { return s.id }

// Events returns the subscriber's queue.
func (s *Subscriber) Events() <-chan graph.Event { return s.events }

// Done is closed when the subscriber has been removed from the hub.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// enqueue never blocks. It reports false when the queue is full.
func (s *Subscriber) enqueue(ev graph.Event) bool {
	select {
	case <-s.done:
		return true
	default:
	}
	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}

func (s *Subscriber) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Hub is the registry of live subscribers.
type Hub struct {
	mu        sync.Mutex
	publishMu sync.Mutex
	subs      map[string]*Subscriber
	store     cache.ReadOnlyStore
	buffer    int
	closed    bool
}

// NewHub creates a hub that greets new subscribers with the current artifact of store.
func NewHub(store cache.ReadOnlyStore, buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Hub{
		subs:   make(map[string]*Subscriber),
		store:  store,
		buffer: buffer,
	}
}

// Attach registers a new subscriber. When an artifact is cached, a current_graph
// event is queued before any broadcast can reach the subscriber.
func (h *Hub) Attach() (*Subscriber, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	s := newSubscriber(h.buffer)
	h.subs[s.id] = s
	if h.store != nil {
		if a, ok := h.store.Get(); ok {
			s.enqueue(graph.CurrentGraph(a))
		}
	}
	logger.WithComponent("notifier").Debugf("subscriber %s attached (%d live)", s.id, len(h.subs))
	return s, nil
}

// Detach removes s from the hub. Detaching twice is a no-op.
func (h *Hub) Detach(s *Subscriber) {
	if s == nil {
		return
	}
	h.mu.Lock()
	_, ok := h.subs[s.id]
	delete(h.subs, s.id)
	n := len(h.subs)
	h.mu.Unlock()

	s.close()
	if ok {
		logger.WithComponent("notifier").Debugf("subscriber %s detached (%d live)", s.id, n)
	}
}

// InstallFunc swaps new state in and returns the cleanup of the state it
// replaced. The cleanup runs after the registry lock is released; nil means none.
type InstallFunc func() (release func())

// Publish runs install, if any, and delivers ev to every subscriber that was
// attached when install ran. Subscribers attaching afterwards observe the new
// state through their current_graph greeting instead. It returns the number
// of subscribers the event was queued for.
func (h *Hub) Publish(ev graph.Event, install InstallFunc) int {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	var release func()
	h.mu.Lock()
	if install != nil {
		release = install()
	}
	closed := h.closed
	targets := make([]*Subscriber, 0, len(h.subs))
	if !closed {
		for _, s := range h.subs {
			targets = append(targets, s)
		}
	}
	h.mu.Unlock()

	if release != nil {
		release()
	}
	if closed {
		return 0
	}

	delivered := 0
	for _, s := range targets {
		if s.enqueue(ev) {
			delivered++
			continue
		}
		logger.WithComponent("notifier").Warnf("subscriber %s is not keeping up, dropping it", s.id)
		h.Detach(s)
	}
	return delivered
}

// Notify broadcasts an error event carrying message.
func (h *Hub) Notify(message string) int {
	return h.Publish(graph.ErrorEvent(message), nil)
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close detaches every subscriber and rejects further attaches.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := h.subs
	h.subs = make(map[string]*Subscriber)
	h.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
	logger.WithComponent("notifier").Infof("hub closed, %d subscribers released", len(subs))
}
