package events

import (
	"testing"
	"time"
)

func TestNewBroadcaster(t *testing.T) {
	b := NewBroadcaster()
	if b == nil {
		t.Fatal("NewBroadcaster returned nil")
	}
	if b.clients == nil {
		t.Fatal("clients map is nil")
	}
}

func TestBroadcaster_MultipleSubscribers(t *testing.T) {
	b := NewBroadcaster()

	ch1 := b.Subscribe("a")
	ch2 := b.Subscribe("a")
	ch3 := b.Subscribe("b")

	if b.ClientCount("a") != 2 {
		t.Errorf("Expected 2 clients for avatar a, got %d", b.ClientCount("a"))
	}
	if b.ClientCount("b") != 1 {
		t.Errorf("Expected 1 client for avatar b, got %d", b.ClientCount("b"))
	}
	if b.TotalClientCount() != 3 {
		t.Errorf("Expected 3 total clients, got %d", b.TotalClientCount())
	}

	b.Unsubscribe("a", ch1)
	b.Unsubscribe("a", ch2)
	b.Unsubscribe("b", ch3)

	if b.TotalClientCount() != 0 {
		t.Errorf("Expected 0 clients after unsubscribe, got %d", b.TotalClientCount())
	}
}

func TestBroadcaster_BroadcastMessage(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe("a")
	defer b.Unsubscribe("a", ch)

	b.BroadcastMessage("a", "hello")

	select {
	case event := <-ch:
		if event.Type != TypeMessage {
			t.Errorf("Expected event type %q, got %q", TypeMessage, event.Type)
		}
		if event.AvatarID != "a" {
			t.Errorf("Expected avatar id 'a', got %q", event.AvatarID)
		}
		if event.Data != "hello" {
			t.Errorf("Expected data 'hello', got %v", event.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event")
	}
}

func TestBroadcaster_OtherTopicNotDelivered(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe("a")
	defer b.Unsubscribe("a", ch)

	b.BroadcastMessage("b", "should not receive")

	select {
	case event := <-ch:
		t.Errorf("Should not receive event for other avatar, got %+v", event)
	default:
	}
}

func TestBroadcaster_FullChannelDoesNotBlock(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe("a")
	defer b.Unsubscribe("a", ch)

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			b.BroadcastMessage("a", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a full subscriber")
	}

	if len(ch) != subscriberBuffer {
		t.Errorf("Expected %d buffered events, got %d", subscriberBuffer, len(ch))
	}
}

func TestBroadcaster_CloseTopic(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe("a")

	b.CloseTopic("a")

	event, ok := <-ch
	if !ok {
		t.Fatal("Expected the deletion event before the channel closed")
	}
	if event.Type != TypeAvatarDeleted {
		t.Errorf("Expected event type %q, got %q", TypeAvatarDeleted, event.Type)
	}

	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed")
	}

	// Unsubscribing after the topic closed must not panic on a double close
	b.Unsubscribe("a", ch)

	if b.ClientCount("a") != 0 {
		t.Errorf("Expected 0 clients, got %d", b.ClientCount("a"))
	}
}
