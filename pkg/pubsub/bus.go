package pubsub

import (
	"context"
	"sync"
)

// Topics used by the dashboard engine. The Link Store publishes on
// TopicLinks after every visible change; the connection registry
// publishes on TopicConnections after every poll that lands a snapshot.
const (
	TopicLinks       = "links"
	TopicConnections = "connections"
)

// Bus is the in-process notification channel between the data layers and
// the dashboard engine. Messages are fire-and-forget signals; subscribers
// re-read current state on wake rather than trusting the payload, so a
// dropped message under backpressure only costs a redundant rebuild.
type Bus struct {
	subscribers map[string]map[*Subscription]struct{}
	mu          sync.RWMutex
	closed      bool
}

// Subscription is one listener on a topic.
type Subscription struct {
	topic     string
	ch        chan any
	bus       *Bus
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registers a listener on topic. The subscription is torn down
// when ctx is cancelled, when Unsubscribe is called, or when the bus
// shuts down, whichever comes first.
func (b *Bus) Subscribe(ctx context.Context, topic string) *Subscription {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topic:  topic,
		ch:     make(chan any, 16),
		bus:    b,
		cancel: cancel,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		cancel()
		sub.close()
		return sub
	}
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[*Subscription]struct{})
	}
	b.subscribers[topic][sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-subCtx.Done()
		sub.Unsubscribe()
	}()

	return sub
}

// Publish notifies every subscriber of topic without blocking. A
// subscriber whose buffer is full is skipped.
func (b *Bus) Publish(topic string, message any) {
	b.mu.RLock()
	if b.closed || len(b.subscribers[topic]) == 0 {
		b.mu.RUnlock()
		return
	}
	subs := make([]*Subscription, 0, len(b.subscribers[topic]))
	for sub := range b.subscribers[topic] {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.ch <- message:
		default:
		}
	}
}

// Shutdown closes every subscription. Publish and Subscribe become no-ops
// afterwards.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*Subscription, 0)
	for topic := range b.subscribers {
		for sub := range b.subscribers[topic] {
			subs = append(subs, sub)
		}
		delete(b.subscribers, topic)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}

// Channel returns the subscription's message channel. It is closed when
// the subscription ends.
func (s *Subscription) Channel() <-chan any {
	return s.ch
}

// Unsubscribe removes the subscription and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.bus.mu.Lock()
	if subs := s.bus.subscribers[s.topic]; subs != nil {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.bus.subscribers, s.topic)
		}
	}
	s.bus.mu.Unlock()

	s.close()
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.ch)
	})
}
