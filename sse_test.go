package main

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bodul/wordfall/game"
)

func TestBroadcasterRegisterUnregister(t *testing.T) {
	b := NewBroadcaster()

	c1 := b.Register("game1")
	c2 := b.Register("game1")
	c3 := b.Register("game2")

	if b.ClientCount("game1") != 2 {
		t.Fatalf("expected 2 clients for game1, got %d", b.ClientCount("game1"))
	}
	if b.ClientCount("game2") != 1 {
		t.Fatalf("expected 1 client for game2, got %d", b.ClientCount("game2"))
	}

	b.Unregister(c1)
	b.Unregister(c2)
	b.Unregister(c3)
	b.Unregister(c3) // should not panic
	if b.ClientCount("game1") != 0 || b.ClientCount("game2") != 0 {
		t.Fatal("expected 0 clients after full unregister")
	}
}

func TestPublishEncodesEvent(t *testing.T) {
	b := NewBroadcaster()
	c1 := b.Register("game1")
	c2 := b.Register("game2")
	defer b.Unregister(c1)
	defer b.Unregister(c2)

	b.Publish("game1", string(game.EventLevelUp), game.Event{Type: game.EventLevelUp, Level: 2})

	select {
	case m := <-c1.ch:
		if m.event != "level_up" {
			t.Fatalf("expected level_up, got %q", m.event)
		}
		if m.data != `{"type":"level_up","level":2}` {
			t.Fatalf("unexpected payload %s", m.data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("c1 did not receive message")
	}

	select {
	case <-c2.ch:
		t.Fatal("c2 should not receive game1 message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastSkipsFullChannel(t *testing.T) {
	b := NewBroadcaster()
	c := b.Register("game1")

	for range sseChannelBuffer {
		b.Broadcast("game1", message{event: "fill", data: "{}"})
	}
	// This should not block.
	b.Broadcast("game1", message{event: "overflow", data: "{}"})

	b.Unregister(c)
}

func TestServeSSEWritesFrames(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/games/g1/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.ServeSSE(w, req, "g1", func(c *client) {
			c.ch <- message{event: "state", data: `{"score":0}`}
		})
	}()

	deadline := time.Now().Add(time.Second)
	for b.ClientCount("g1") == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	b.Publish("g1", "moved", map[string]int{"x": 1})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: state\ndata: {\"score\":0}\n\n") {
		t.Fatalf("missing initial frame:\n%s", body)
	}
	if !strings.Contains(body, "event: moved\ndata: {\"x\":1}\n\n") {
		t.Fatalf("missing published frame:\n%s", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %s", ct)
	}
}

func TestBroadcasterConcurrent(t *testing.T) {
	b := NewBroadcaster()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			gameID := "game1"
			if i%2 == 0 {
				gameID = "game2"
			}
			c := b.Register(gameID)
			b.Publish(gameID, "msg", i)
			b.ClientCount(gameID)
			b.Unregister(c)
		}(i)
	}
	wg.Wait()

	if b.ClientCount("game1") != 0 || b.ClientCount("game2") != 0 {
		t.Fatal("expected 0 clients after concurrent test")
	}
}
