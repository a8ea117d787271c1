package pubsub

import (
	"context"
	"testing"
	"time"
)

func TestPublishReachesSubscriber(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown()

	sub := bus.Subscribe(context.Background(), TopicLinks)

	bus.Publish(TopicLinks, "changed")

	select {
	case msg := <-sub.Channel():
		if msg != "changed" {
			t.Errorf("Expected 'changed', got %v", msg)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Timeout waiting for message")
	}

	sub.Unsubscribe()
}

func TestPublishSkipsOtherTopics(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown()

	sub := bus.Subscribe(context.Background(), TopicConnections)

	bus.Publish(TopicLinks, "changed")

	select {
	case msg := <-sub.Channel():
		t.Errorf("Expected no message, got %v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMultipleSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown()

	subs := make([]*Subscription, 3)
	for i := range subs {
		subs[i] = bus.Subscribe(context.Background(), TopicLinks)
	}

	bus.Publish(TopicLinks, 42)

	for i, sub := range subs {
		select {
		case msg := <-sub.Channel():
			if msg != 42 {
				t.Errorf("Subscriber %d: expected 42, got %v", i, msg)
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("Subscriber %d: timeout", i)
		}
	}
}

func TestContextCancellationUnsubscribes(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	sub := bus.Subscribe(ctx, TopicLinks)

	cancel()

	// Channel must close once the cancellation is observed.
	deadline := time.After(1 * time.Second)
	for {
		select {
		case _, ok := <-sub.Channel():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("Channel not closed after context cancellation")
		}
	}
}

func TestShutdownClosesChannels(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(context.Background(), TopicLinks)

	bus.Shutdown()

	select {
	case _, ok := <-sub.Channel():
		if ok {
			t.Error("Expected closed channel after shutdown")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Timeout waiting for channel close")
	}

	// Publishing after shutdown must be a no-op, not a panic.
	bus.Publish(TopicLinks, "late")
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	bus := NewBus()
	defer bus.Shutdown()

	sub := bus.Subscribe(context.Background(), TopicLinks)
	sub.Unsubscribe()
	sub.Unsubscribe()
}
