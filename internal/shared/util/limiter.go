package util

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

var ErrNoBurst = errors.New("limiter has no burst capacity")

// Limiter admits one event at a time at rate r with bursts of up to b.
type Limiter struct {
	inner *rate.Limiter
}

func NewLimiter(r float64, b int) *Limiter {
	return &Limiter{
		inner: rate.NewLimiter(rate.Limit(r), b),
	}
}

// Allow takes a token if one is free and never blocks.
func (l *Limiter) Allow() bool {
	return l.inner.Allow()
}

// Throttle reserves the next token and sleeps until it is due. delayed is
// true when the caller had to wait. A cancelled ctx hands the token back.
func (l *Limiter) Throttle(ctx context.Context) (delayed bool, err error) {
	r := l.inner.Reserve()
	if !r.OK() {
		return false, ErrNoBurst
	}
	delay := r.Delay()
	if delay <= 0 {
		return false, nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true, nil
	case <-ctx.Done():
		r.Cancel()
		return true, ctx.Err()
	}
}
