package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/notebook/internal/tenant"
)

var (
	alice = tenant.Personal(1)
	acme  = tenant.Organization(1)
)

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe(alice)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe(alice)
	defer b.Unsubscribe(ch)

	b.Publish(alice, Event{Type: "note.created", Data: map[string]int64{"id": 7}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: note.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"id":7`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublish_TenantIsolation(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	mine := b.Subscribe(alice)
	defer b.Unsubscribe(mine)
	// Same numeric id, different kind: a different tenant.
	theirs := b.Subscribe(acme)
	defer b.Unsubscribe(theirs)

	b.PublishNoteEvent(alice, "updated", 3)
	time.Sleep(50 * time.Millisecond)

	if got := drain(mine); len(got) != 2 {
		t.Errorf("own tenant got %d events, want 2 (note + graph)", len(got))
	}
	if got := drain(theirs); len(got) != 0 {
		t.Errorf("foreign tenant got events: %v", got)
	}
}

func TestPublishNoteEvent_GraphThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe(alice)
	defer b.Unsubscribe(ch)

	// First event should trigger graph.updated.
	b.PublishNoteEvent(alice, "created", 1)
	// Second event immediately should NOT trigger another graph.updated.
	b.PublishNoteEvent(alice, "updated", 2)

	time.Sleep(50 * time.Millisecond)
	graphCount, noteCount := 0, 0
	for _, s := range drain(ch) {
		if strings.Contains(s, "graph.updated") {
			graphCount++
		} else {
			noteCount++
		}
	}

	if noteCount != 2 {
		t.Errorf("note events = %d, want 2", noteCount)
	}
	if graphCount != 1 {
		t.Errorf("graph events = %d, want 1 (throttled)", graphCount)
	}
}

func TestPublishNoteEvent_ThrottlePerTenant(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	a := b.Subscribe(alice)
	defer b.Unsubscribe(a)
	o := b.Subscribe(acme)
	defer b.Unsubscribe(o)

	b.PublishNoteEvent(alice, "created", 1)
	b.PublishNoteEvent(acme, "created", 2)
	time.Sleep(50 * time.Millisecond)

	for name, ch := range map[string]chan []byte{"alice": a, "acme": o} {
		found := false
		for _, s := range drain(ch) {
			if strings.Contains(s, "graph.updated") {
				found = true
			}
		}
		if !found {
			t.Errorf("%s did not get its own graph.updated", name)
		}
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(tenant.WithIdentity(context.Background(), alice))
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(alice, Event{Type: "note.updated", Data: map[string]int64{"id": 1}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: note.updated") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestSSEHandler_NoTenant(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()

	w := httptest.NewRecorder()
	b.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe(alice)
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(alice, Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe(alice)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(alice, Event{Type: "note.updated", Data: map[string]int64{"id": 1}})
	b.PublishNoteEvent(alice, "updated", 1)
}
