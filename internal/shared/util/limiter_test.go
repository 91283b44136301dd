package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	// 10 tokens per second, burst of 2
	l := NewLimiter(10, 2)

	if !l.Allow() {
		t.Error("expected first token to be allowed")
	}
	if !l.Allow() {
		t.Error("expected second token to be allowed (burst)")
	}
	if l.Allow() {
		t.Error("expected third token to be rejected (burst exhausted)")
	}

	time.Sleep(150 * time.Millisecond)
	if !l.Allow() {
		t.Error("expected token to be refilled after wait")
	}
}

func TestLimiter_Throttle(t *testing.T) {
	l := NewLimiter(100, 1)

	delayed, err := l.Throttle(context.Background())
	if err != nil || delayed {
		t.Fatalf("expected immediate token, got delayed=%v err=%v", delayed, err)
	}

	start := time.Now()
	delayed, err = l.Throttle(context.Background())
	if err != nil {
		t.Fatalf("Throttle failed: %v", err)
	}
	if !delayed {
		t.Error("expected second call to wait for a token")
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Error("Throttle returned too early")
	}
}

func TestLimiter_ThrottleCancelled(t *testing.T) {
	l := NewLimiter(0.01, 1)
	l.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	delayed, err := l.Throttle(ctx)
	if err == nil || !delayed {
		t.Fatalf("expected cancelled wait, got delayed=%v err=%v", delayed, err)
	}
}

func TestLimiter_ThrottleNoBurst(t *testing.T) {
	l := NewLimiter(10, 0)
	if _, err := l.Throttle(context.Background()); !errors.Is(err, ErrNoBurst) {
		t.Fatalf("expected ErrNoBurst, got %v", err)
	}
}

func TestLimiterRegistry(t *testing.T) {
	reg := NewLimiterRegistry(100, 10, 100*time.Millisecond)
	defer reg.Close()

	l1 := reg.Get("10.0.0.1:5000")
	l2 := reg.Get("10.0.0.2:5000")
	if l1 == l2 {
		t.Error("expected different limiters for different keys")
	}
	if reg.Get("10.0.0.1:5000") != l1 {
		t.Error("expected same limiter for same key")
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 limiters, got %d", reg.Len())
	}

	time.Sleep(250 * time.Millisecond)
	if reg.Len() != 0 {
		t.Fatalf("expected idle limiters to be dropped, %d left", reg.Len())
	}
	if reg.Get("10.0.0.1:5000") == l1 {
		t.Error("expected old limiter to be replaced")
	}
}

func TestLimiterRegistry_CloseTwice(t *testing.T) {
	reg := NewLimiterRegistry(1, 1, time.Second)
	reg.Close()
	reg.Close()
}
