//go:build !integration

package sched

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeCloser struct {
	mu    sync.Mutex
	ttls  []time.Duration
	ret   int
	swept chan struct{}
}

func (f *fakeCloser) CloseIdle(ttl time.Duration) int {
	f.mu.Lock()
	f.ttls = append(f.ttls, ttl)
	f.mu.Unlock()
	select {
	case f.swept <- struct{}{}:
	default:
	}
	return f.ret
}

func TestSessionReaper_Run(t *testing.T) {
	fc := &fakeCloser{ret: 2, swept: make(chan struct{}, 1)}
	r := NewSessionReaper("chat", 5*time.Millisecond, 30*time.Minute, fc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case <-fc.swept:
	case <-time.After(time.Second):
		t.Fatal("reaper never swept")
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.ttls[0] != 30*time.Minute {
		t.Fatalf("ttl not forwarded: %v", fc.ttls[0])
	}
}

func TestNewSessionReaper_DefaultInterval(t *testing.T) {
	r := NewSessionReaper("chat", 0, time.Minute, &fakeCloser{}, nil)
	if r.interval != time.Minute {
		t.Fatalf("want default interval, got %v", r.interval)
	}
}
