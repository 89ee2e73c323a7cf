package service

import (
	"errors"
	"testing"
	"time"
)

func TestPrompts_ConfirmAndAccept(t *testing.T) {
	var posted []func()
	p := NewPrompts(func(fn func()) { posted = append(posted, fn) }, 4)

	ran := false
	p.Confirm("Confirm Sync", "Sync 2 records?", func() { ran = true })

	pending := p.Pending()
	if len(pending) != 1 || pending[0].Title != "Confirm Sync" || pending[0].ID == "" {
		t.Fatalf("unexpected pending: %+v", pending)
	}

	if err := p.Resolve(pending[0].ID, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ran {
		t.Error("callback must run on the loop, not inline")
	}
	if len(posted) != 1 {
		t.Fatalf("expected 1 posted callback, got %d", len(posted))
	}
	posted[0]()
	if !ran {
		t.Error("expected callback to run")
	}
	if len(p.Pending()) != 0 {
		t.Error("expected prompt removed")
	}
}

func TestPrompts_Decline(t *testing.T) {
	var posted int
	p := NewPrompts(func(func()) { posted++ }, 1)
	p.Confirm("Confirm Delete", "Destroy 1 records?", func() {})

	id := p.Pending()[0].ID
	if err := p.Resolve(id, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if posted != 0 {
		t.Error("declined prompt must not run")
	}
	if err := p.Resolve(id, true); !errors.Is(err, ErrPromptNotFound) {
		t.Errorf("expected ErrPromptNotFound, got %v", err)
	}
}

func TestPrompts_PendingOrder(t *testing.T) {
	p := NewPrompts(func(func()) {}, 1)
	base := time.Unix(1715003456, 0)
	tick := 0
	p.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	p.Confirm("first", "", nil)
	p.Confirm("second", "", nil)
	p.Confirm("third", "", nil)

	pending := p.Pending()
	if len(pending) != 3 {
		t.Fatalf("expected 3 prompts, got %d", len(pending))
	}
	for i, want := range []string{"first", "second", "third"} {
		if pending[i].Title != want {
			t.Errorf("prompt %d: expected %s, got %s", i, want, pending[i].Title)
		}
	}
}

func TestPrompts_ToastQueueFull(t *testing.T) {
	p := NewPrompts(func(func()) {}, 1)

	p.Toast("one")
	p.Toast("two")

	if got := <-p.Toasts(); got != "one" {
		t.Errorf("expected one, got %s", got)
	}
	select {
	case got := <-p.Toasts():
		t.Errorf("expected second toast dropped, got %s", got)
	default:
	}
}

func TestPrompts_UnansweredPromptExpires(t *testing.T) {
	var posted int
	p := NewPrompts(func(func()) { posted++ }, 1)
	now := time.Unix(1715003456, 0)
	p.now = func() time.Time { return now }

	p.Confirm("Confirm Sync", "Sync 3 records?", func() {})
	id := p.Pending()[0].ID

	now = now.Add(promptTTL)
	if pending := p.Pending(); len(pending) != 0 {
		t.Fatalf("expected expired prompt gone, got %+v", pending)
	}
	if err := p.Resolve(id, true); !errors.Is(err, ErrPromptNotFound) {
		t.Errorf("expected ErrPromptNotFound, got %v", err)
	}
	if posted != 0 {
		t.Error("expired prompt must not run")
	}
}

func TestPrompts_CapDropsOldest(t *testing.T) {
	p := NewPrompts(func(func()) {}, 1)
	p.limit = 2
	base := time.Unix(1715003456, 0)
	tick := 0
	p.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	p.Confirm("first", "", nil)
	p.Confirm("second", "", nil)
	p.Confirm("third", "", nil)

	pending := p.Pending()
	if len(pending) != 2 {
		t.Fatalf("expected 2 prompts, got %d", len(pending))
	}
	if pending[0].Title != "second" || pending[1].Title != "third" {
		t.Errorf("expected oldest dropped, got %+v", pending)
	}
}
