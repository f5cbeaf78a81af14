package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryPublishConsume(t *testing.T) {
	q := NewInMemory(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume() error: %v", err)
	}

	want := Message{Type: TypeCardRender, Body: []byte("t-1")}
	if err := q.Publish(ctx, want); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	select {
	case got := <-msgs:
		if got.Type != want.Type || string(got.Body) != string(want.Body) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	msg := Message{Type: TypeCardRender, Body: []byte("id|with|pipes")}
	got, err := deserialize(serialize(msg))
	if err != nil {
		t.Fatalf("deserialize error: %v", err)
	}
	if got.Type != msg.Type || string(got.Body) != string(msg.Body) {
		t.Errorf("round trip = %+v, want %+v", got, msg)
	}
}

func TestPublishCancelled(t *testing.T) {
	q := NewInMemory(0) // unbuffered, nobody consuming
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Publish(ctx, Message{Type: TypeCardRender}); err == nil {
		t.Error("expected context error publishing to a full queue")
	}
}
