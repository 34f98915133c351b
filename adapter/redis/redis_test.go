package redis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/pithecene-io/patchfeed/adapter"
)

func testEvent() *adapter.FeedRefreshedEvent {
	return &adapter.FeedRefreshedEvent{
		EventType:      "feed_refreshed",
		SessionID:      "sess-001",
		AccountID:      "76561197960287930",
		Games:          42,
		EventsKept:     75,
		NewestPostTime: 1700000000,
		Timestamp:      "2026-02-07T12:00:00Z",
		DurationMs:     1500,
	}
}

// asyncReceive starts a goroutine that reads one message from the subscriber
// and sends it to the returned channel. Must be called BEFORE Publish to avoid
// deadlocking miniredis's synchronous pub/sub delivery.
func asyncReceive(sub *miniredis.Subscriber) <-chan miniredis.PubsubMessage {
	ch := make(chan miniredis.PubsubMessage, 1)
	go func() {
		ch <- <-sub.Messages()
	}()
	return ch
}

func waitMessage(t *testing.T, ch <-chan miniredis.PubsubMessage) miniredis.PubsubMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pub/sub message")
		return miniredis.PubsubMessage{} // unreachable
	}
}

func TestPublish_Success(t *testing.T) {
	mr := miniredis.RunT(t)

	p, err := New(Config{URL: "redis://" + mr.Addr(), Retries: 0})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = p.Close() }()

	sub := mr.NewSubscriber()
	sub.Subscribe(DefaultChannel)
	ch := asyncReceive(sub)

	if err := p.Publish(t.Context(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msg := waitMessage(t, ch)

	var received adapter.FeedRefreshedEvent
	if err := json.Unmarshal([]byte(msg.Message), &received); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if received.SessionID != "sess-001" {
		t.Errorf("expected sess-001, got %s", received.SessionID)
	}
	if received.Games != 42 {
		t.Errorf("expected 42 games, got %d", received.Games)
	}
}

func TestPublish_CustomChannel(t *testing.T) {
	mr := miniredis.RunT(t)

	p, err := New(Config{URL: "redis://" + mr.Addr(), Channel: "custom:feed", Retries: 0})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = p.Close() }()

	sub := mr.NewSubscriber()
	sub.Subscribe("custom:feed")
	ch := asyncReceive(sub)

	if err := p.Publish(t.Context(), testEvent()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	waitMessage(t, ch)
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for missing URL")
	}
	if _, err := New(Config{URL: "not-a-redis-url"}); err == nil {
		t.Error("expected error for invalid URL")
	}
	if _, err := New(Config{URL: "redis://localhost:6379", Retries: -1}); err == nil {
		t.Error("expected error for negative retries")
	}
}
