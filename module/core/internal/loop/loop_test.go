package loop

import (
	"context"
	"testing"
	"time"
)

func TestRun_ExecutesInOrder(t *testing.T) {
	l := New(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	var got []int
	finished := make(chan struct{})
	for i := 0; i < 10; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	l.Post(func() { close(finished) })

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("tasks did not run")
	}

	for i, v := range got {
		if v != i {
			t.Fatalf("expected order 0..9, got %v", got)
		}
	}
}

func TestRun_RecoversPanic(t *testing.T) {
	l := New(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	finished := make(chan struct{})
	l.Post(func() { panic("boom") })
	l.Post(func() { close(finished) })

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("loop stopped after panic")
	}
}

func TestPost_AfterStopDoesNotBlock(t *testing.T) {
	l := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	cancel()
	<-l.Done()

	posted := make(chan struct{})
	go func() {
		l.Post(func() {})
		close(posted)
	}()

	select {
	case <-posted:
	case <-time.After(time.Second):
		t.Fatal("Post blocked on stopped loop")
	}
}
